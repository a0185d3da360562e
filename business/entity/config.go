// Package entity provides entities for business logic.
package entity

import (
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pkg/errors"
)

const (
	DefaultSnifferConfigFileName = "framescope.yaml"

	// MinSnapshotLength is the smallest snapshot that still holds an Ethernet header.
	MinSnapshotLength = 14
)

// SnifferConfig sniffer configuration
type SnifferConfig struct {
	Logger   *LoggerConfig   `yaml:"Logger"`
	Runtime  *RuntimeConfig  `yaml:"Runtime"`
	Capture  *CaptureConfig  `yaml:"Capture"`
	Decoder  *DecoderConfig  `yaml:"Decoder"`
	History  *HistoryConfig  `yaml:"History"`
	Rest     *RestConfig     `yaml:"Rest"`
	UI       *UIConfig       `yaml:"UI"`
	Profiler *ProfilerConfig `yaml:"Profiler"`
}

// LoggerConfig logger settings
type LoggerConfig struct {
	Level             string `yaml:"level" default:"info"`
	TimeFieldFormat   string `yaml:"timeFieldFormat" default:"2006-01-02T15:04:05.000000"`
	PrettyPrint       *bool  `yaml:"prettyPrint" default:"false"`
	DisableSampling   *bool  `yaml:"disableSampling" default:"true"`
	RedirectStdLogger *bool  `yaml:"redirectStdLogger" default:"true"`
	ErrorStack        *bool  `yaml:"errorStack" default:"true"`
	ShowCaller        *bool  `yaml:"showCaller" default:"false"`
	FileName          string `yaml:"fileName,omitempty" default:""`
}

// RuntimeConfig runtime settings
type RuntimeConfig struct {
	GoMaxProcs int `yaml:"goMaxProcs" default:"0"`
}

// CaptureConfig capture source settings. File takes precedence over Device.
type CaptureConfig struct {
	Device               string `yaml:"device,omitempty" default:""`
	File                 string `yaml:"file,omitempty" default:""`
	SnapshotLength       int    `yaml:"snapshotLength" default:"1600"`
	Promiscuous          *bool  `yaml:"promiscuous" default:"true"`
	TimeoutMs            int    `yaml:"timeoutMs" default:"100"`
	MaxConsecutiveErrors int    `yaml:"maxConsecutiveErrors" default:"10"`
}

// DecoderConfig frame decoder settings
type DecoderConfig struct {
	Tracing bool `yaml:"tracing,omitempty" default:"false"`
}

// HistoryConfig report history settings
type HistoryConfig struct {
	Size int `yaml:"size" default:"1000"`
}

// RestConfig REST server configuration
type RestConfig struct {
	Enabled *bool  `yaml:"enabled" default:"false"`
	Host    string `yaml:"host" default:""`
	Port    int    `yaml:"port" default:"8878"`
}

// UIConfig terminal UI configuration
type UIConfig struct {
	Enabled     *bool `yaml:"enabled" default:"false"`
	RefreshMs   int   `yaml:"refreshMs" default:"250"`
	VisibleRows int   `yaml:"visibleRows" default:"15"`
}

// ProfilerConfig pprof configuration
type ProfilerConfig struct {
	Enabled *bool  `yaml:"enabled" default:"false"`
	Host    string `yaml:"host" default:"localhost"`
	Port    int    `yaml:"port" default:"8888"`
}

// UseFile returns true if frames are read from a capture file.
func (c CaptureConfig) UseFile() bool {
	return c.File != ""
}

// Source returns the device name or the capture file path.
func (c CaptureConfig) Source() string {
	if c.UseFile() {
		return filepath.Clean(c.File)
	}
	return c.Device
}

func (c *CaptureConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.SnapshotLength, validation.Required, validation.Min(MinSnapshotLength), validation.Max(262144)),
		validation.Field(&c.TimeoutMs, validation.Required, validation.Min(1)),
		validation.Field(&c.MaxConsecutiveErrors, validation.Required, validation.Min(1)),
	)
}

func (c *RestConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Host, validation.When(c.Host != "", is.Host)),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

func (c *SnifferConfig) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.Capture),
		validation.Field(&c.Rest),
	)
	if err == nil && c.History.Size <= 0 {
		err = errors.New("History.size must be positive")
	}
	if err != nil {
		return errors.Wrap(ErrValidation, err.Error())
	}
	return nil
}

// Normalize fixes values that are valid but inconvenient.
func (c *SnifferConfig) Normalize() {
	c.Capture.Device = strings.TrimSpace(c.Capture.Device)
	c.Capture.File = strings.TrimSpace(c.Capture.File)
	c.Logger.Level = strings.ToLower(c.Logger.Level)
}

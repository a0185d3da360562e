// Package logger wrapper for zerolog
package logger

import (
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Config logger settings
type Config struct {
	Level             string
	TimeFieldFormat   string
	PrettyPrint       bool
	RedirectStdLogger bool
	DisableSampling   bool
	ErrorStack        bool
	ShowCaller        bool
	FileName          string
	// Quiet drops the stdout/stderr writers, e.g. while a terminal UI owns the screen.
	Quiet bool
	// Output replaces stdout/stderr when set.
	Output io.Writer
}

// Logger object capable of interacting with Logger
type Logger struct {
	zero              zerolog.Logger
	zeroErr           zerolog.Logger
	level             string
	prettyPrint       bool
	redirectSTDLogger bool
	showCaller        bool
	quiet             bool
	output            io.Writer
	extWriter         io.Writer
}

var defaultConfig = Config{
	Level:           "debug",
	TimeFieldFormat: time.RFC3339,
	PrettyPrint:     true,
	ErrorStack:      false,
	ShowCaller:      false,
}

// NewDefault creates Logger with default settings
func NewDefault() *Logger {
	return New(defaultConfig)
}

// New creates a new Logger
func New(config Config) *Logger {
	zerolog.SetGlobalLevel(getZerologLevel(config.Level))
	zerolog.DisableSampling(config.DisableSampling)
	if config.TimeFieldFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFieldFormat
	}
	if config.ErrorStack {
		zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	}

	l := &Logger{
		level:             config.Level,
		prettyPrint:       config.PrettyPrint,
		redirectSTDLogger: config.RedirectStdLogger,
		showCaller:        config.ShowCaller,
		quiet:             config.Quiet,
		output:            config.Output,
	}

	if config.FileName != "" {
		var err error
		l.extWriter, err = os.Create(prepareLogFileName(config.FileName))
		if err != nil {
			log.Fatalf("failed to create log file: %v", err)
		}
	}

	l.zero = zerolog.New(l.writer(l.stdout())).With().Timestamp().Logger()
	l.zeroErr = zerolog.New(l.writer(l.stderr())).With().Timestamp().Logger()
	if l.showCaller {
		l.zero = l.zero.With().Caller().Logger()
		l.zeroErr = l.zeroErr.With().Caller().Logger()
	}

	if l.redirectSTDLogger {
		log.SetFlags(0)
		log.SetOutput(l.zero)
	}

	return l
}

// Debug starts a new message with debug level
func (l *Logger) Debug() *zerolog.Event {
	return l.zero.Debug()
}

// Info starts a new message with info level
func (l *Logger) Info() *zerolog.Event {
	return l.zero.Info()
}

// Error starts a new message with error level
func (l *Logger) Error() *zerolog.Event {
	return l.zeroErr.Error()
}

// Warn starts a new message with warn level
func (l *Logger) Warn() *zerolog.Event {
	return l.zeroErr.Warn()
}

// With creates a child logger with the field added to its context
func (l *Logger) With() zerolog.Context {
	return l.zero.With()
}

// Fatal sends the event with fatal level
func (l *Logger) Fatal(v ...interface{}) {
	l.zeroErr.Fatal().Msgf("%v", v)
}

// Fatalf sends the event with formatted msg with fatal level
func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.zeroErr.Fatal().Msgf(format, v...)
}

// Printf sends the event with formatted msg with debug level
func (l *Logger) Printf(format string, v ...interface{}) {
	l.zero.Debug().Msgf(format, v...)
}

// Layer returns a child logger tagged with the component name.
func (l *Logger) Layer(name string) *Logger {
	return l.Duplicate(l.With().Str("layer", name).Logger())
}

// Duplicate creates a Logger sharing the writers of l with the context of zero.
func (l *Logger) Duplicate(zero zerolog.Logger) *Logger {
	dup := &Logger{
		level:             l.level,
		prettyPrint:       l.prettyPrint,
		redirectSTDLogger: l.redirectSTDLogger,
		showCaller:        l.showCaller,
		quiet:             l.quiet,
		output:            l.output,
		extWriter:         l.extWriter,
	}
	dup.zero = zero.Output(dup.writer(dup.stdout()))
	dup.zeroErr = zero.Output(dup.writer(dup.stderr()))
	return dup
}

// SetLevel changes the global log level.
func (l *Logger) SetLevel(level string) {
	l.level = level
	zerolog.SetGlobalLevel(getZerologLevel(level))
}

func (l *Logger) stdout() io.Writer {
	if l.output != nil {
		return l.output
	}
	return os.Stdout
}

func (l *Logger) stderr() io.Writer {
	if l.output != nil {
		return l.output
	}
	return os.Stderr
}

func (l *Logger) writer(std io.Writer) io.Writer {
	writers := make([]io.Writer, 0, 2)
	if !l.quiet {
		if l.prettyPrint {
			writers = append(writers, zerolog.ConsoleWriter{Out: std, TimeFormat: zerolog.TimeFieldFormat})
		} else {
			writers = append(writers, std)
		}
	}
	if l.extWriter != nil {
		writers = append(writers, l.extWriter)
	}
	if len(writers) == 0 {
		return io.Discard
	}
	return zerolog.MultiLevelWriter(writers...)
}

func getZerologLevel(lvl string) zerolog.Level {
	switch strings.ToLower(lvl) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	case "disabled":
		return zerolog.Disabled
	}
	return zerolog.NoLevel
}

func prepareLogFileName(pattern string) string {
	cur := time.Now()
	pattern = strings.ReplaceAll(pattern, "%d", cur.Format("2"))
	pattern = strings.ReplaceAll(pattern, "%D", cur.Format("02"))
	pattern = strings.ReplaceAll(pattern, "%m", cur.Format("1"))
	pattern = strings.ReplaceAll(pattern, "%M", cur.Format("01"))
	pattern = strings.ReplaceAll(pattern, "%y", cur.Format("06"))
	pattern = strings.ReplaceAll(pattern, "%Y", cur.Format("2006"))
	pattern = strings.ReplaceAll(pattern, "%H", cur.Format("15"))
	pattern = strings.ReplaceAll(pattern, "%N", cur.Format("04"))
	pattern = strings.ReplaceAll(pattern, "%S", cur.Format("05"))
	return pattern
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/radovskyb/watcher"
	"gopkg.in/yaml.v3"

	"github.com/forest33/framescope/pkg/logger"
	"github.com/forest33/framescope/pkg/structs"
)

const (
	EnvConfigPath = "FRAMESCOPE_CONFIG"

	tagDefault    = "default"
	watchInterval = time.Second
)

type validator interface {
	Validate() error
}

type normalizer interface {
	Normalize()
}

type Config struct {
	path      string
	data      interface{}
	log       *logger.Logger
	observers []func(interface{})
	watcher   *watcher.Watcher
	mu        sync.Mutex
}

// New loads the YAML file into cfg and fills unset fields from `default` tags.
// The file is looked up in $FRAMESCOPE_CONFIG, then configFileDir, then next
// to the executable. A missing file yields the defaults.
func New(configFileName, configFileDir string, cfg interface{}) (*Config, error) {
	path, ok := os.LookupEnv(EnvConfigPath)
	if !ok {
		if configFileDir != "" || filepath.IsAbs(configFileName) {
			path = filepath.Join(configFileDir, configFileName)
		} else {
			ex, err := os.Executable()
			if err != nil {
				return nil, err
			}
			path = filepath.Join(filepath.Dir(ex), configFileName)
		}
	}

	if err := load(path, cfg); err != nil {
		return nil, err
	}

	return &Config{
		path:      path,
		data:      cfg,
		observers: make([]func(interface{}), 0, 1),
		log:       logger.NewDefault(),
	}, nil
}

func load(path string, cfg interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err = yaml.Unmarshal(data, cfg); err != nil {
		return err
	}

	if err := Parse(cfg); err != nil {
		return err
	}

	if n, ok := cfg.(normalizer); ok {
		n.Normalize()
	}
	if v, ok := cfg.(validator); ok {
		return v.Validate()
	}

	return nil
}

func (c *Config) SetLogger(log *logger.Logger) {
	c.log = log
}

func (c *Config) Save() error {
	buf, err := yaml.Marshal(c.data)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(c.path, buf, 0664)
}

func (c *Config) GetPath() string {
	return c.path
}

// AddObserver registers f to be called with the reloaded configuration every
// time the file changes. The first observer starts the file watcher.
func (c *Config) AddObserver(f func(interface{})) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.observers) == 0 {
		if err := c.startWatcher(); err != nil {
			return err
		}
	}
	c.observers = append(c.observers, f)
	return nil
}

// Close stops the file watcher.
func (c *Config) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watcher != nil {
		c.watcher.Close()
		c.watcher = nil
	}
}

func (c *Config) startWatcher() error {
	w := watcher.New()
	w.SetMaxEvents(1)
	w.FilterOps(watcher.Write)
	if err := w.Add(c.path); err != nil {
		return err
	}
	c.watcher = w

	go func() {
		if err := w.Start(watchInterval); err != nil {
			c.log.Error().Err(err).Str("path", c.path).Msg("failed to start watching config file")
		}
	}()

	go func() {
		for {
			select {
			case <-w.Event:
				c.log.Info().Str("path", c.path).Msg("config file changed")
				c.reload()
			case err := <-w.Error:
				c.log.Error().Err(err).Msg("error on watching config file")
			case <-w.Closed:
				return
			}
		}
	}()

	return nil
}

func (c *Config) reload() {
	if err := load(c.path, c.data); err != nil {
		c.log.Error().Err(err).Str("path", c.path).Msg("failed to reload config file")
		return
	}

	c.mu.Lock()
	observers := make([]func(interface{}), len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	for i := range observers {
		observers[i](c.data)
	}
}

// Parse fills zero fields of target from their `default` tags and allocates
// nil struct pointers recursively. Fields without a default must be set.
func Parse(target interface{}) error {
	ref := reflect.Indirect(reflect.ValueOf(target))
	for i := 0; i < ref.Type().NumField(); i++ {
		structField := ref.Type().Field(i)
		fieldValue := ref.Field(i)

		if isSet(structField, &fieldValue) {
			if structField.Type.Kind() == reflect.Ptr && structField.Type.Elem().Kind() == reflect.Struct {
				if err := Parse(fieldValue.Interface()); err != nil {
					return err
				}
			}
			continue
		}

		defaultTagValue, defaultTagExists := structField.Tag.Lookup(tagDefault)

		if defaultTagExists {
			if err := setValue(structField, &fieldValue, defaultTagValue); err != nil {
				return err
			}
			continue
		}

		if fieldValue.IsZero() && structField.Type.Kind() != reflect.Bool && structField.Type.Kind() != reflect.Ptr && structField.Type.Kind() != reflect.Slice {
			return fmt.Errorf("required configuration parameter is not specified - %s.%s", ref.Type().Name(), structField.Name)
		}

		if structField.Type.Kind() == reflect.Ptr || structField.Type.Kind() == reflect.Slice {
			if err := setValue(structField, &fieldValue, ""); err != nil {
				return err
			}
		}
	}

	return nil
}

func isSet(structField reflect.StructField, field *reflect.Value) bool {
	if structField.Type.Kind() == reflect.Ptr && !field.IsNil() {
		return true
	}
	if structField.Type.Kind() != reflect.Ptr && structField.Type.Kind() != reflect.Slice && !field.IsZero() {
		return true
	}
	return false
}

func setValue(structField reflect.StructField, field *reflect.Value, value string) error {
	switch structField.Type.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := strconv.ParseInt(value, 10, int(structField.Type.Size()*8))
		if err != nil {
			return err
		}
		field.SetInt(v)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(value, 10, int(structField.Type.Size()*8))
		if err != nil {
			return err
		}
		field.SetUint(v)
	case reflect.Float32, reflect.Float64:
		v, err := strconv.ParseFloat(value, int(structField.Type.Size()*8))
		if err != nil {
			return err
		}
		field.SetFloat(v)
	case reflect.String:
		field.SetString(value)
	case reflect.Bool:
		field.SetBool(strings.ToLower(value) == "true")
	case reflect.Ptr:
		if structField.Type.String() == "*bool" {
			field.Set(reflect.ValueOf(structs.Ref(strings.ToLower(value) == "true")))
			return nil
		}
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return Parse(field.Interface())
	case reflect.Slice:
		if len(value) > 0 {
			values := strings.Split(value, ",")
			sl := reflect.MakeSlice(field.Type(), len(values), len(values))
			for i, val := range values {
				sl.Index(i).Set(reflect.ValueOf(val))
			}
			field.Set(sl)
		}
	}
	return nil
}

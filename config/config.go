// Package config assembles stipboard settings from built-in defaults, an
// optional YAML file and STIP_* environment variables, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/zalepa/stipboard/stip"
)

// EnvPrefix prefixes every environment variable, e.g. STIP_SOURCES_PROJECTS
// or STIP_SERVER_READ_TIMEOUT.
const EnvPrefix = "STIP"

// DefaultFile is read when Load is given no path and the file exists.
const DefaultFile = "stipboard.yaml"

// Config is the complete application configuration.
type Config struct {
	Sources      SourcesConfig `yaml:"sources"`
	Years        []int         `yaml:"years" validate:"required,min=1,dive,gte=1900,lte=2200"`
	Programs     []string      `yaml:"programs" validate:"dive,required"`
	MPOs         []string      `yaml:"mpos" validate:"dive,required"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" split_words:"true" validate:"gt=0"`
	Logging      LoggingConfig `yaml:"logging"`
	Server       ServerConfig  `yaml:"server"`
}

// SourcesConfig locates the three input tables, by path or http(s) URL.
type SourcesConfig struct {
	Projects string `yaml:"projects" validate:"required"`
	Funding  string `yaml:"funding" validate:"required"`
	Revenue  string `yaml:"revenue" validate:"required"`
}

// LoggingConfig selects the log level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

// ServerConfig contains HTTP server configuration for the web command.
type ServerConfig struct {
	Port         int           `yaml:"port" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `yaml:"read_timeout" split_words:"true" validate:"gt=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" split_words:"true" validate:"gt=0"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Sources: SourcesConfig{
			Projects: "data/stip_projects.csv",
			Funding:  "data/Funding.csv",
			Revenue:  "data/Revenue.csv",
		},
		Years:        append([]int(nil), stip.DefaultYears...),
		Programs:     append([]string(nil), stip.DefaultPrograms...),
		MPOs:         append([]string(nil), stip.DefaultMPOs...),
		FetchTimeout: 30 * time.Second,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}
}

// Load builds the configuration. A non-empty path must name a readable
// YAML file; with an empty path DefaultFile is used only if present.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	cfg.Logging.Level = strings.ToLower(strings.TrimSpace(cfg.Logging.Level))
	cfg.Logging.Format = strings.ToLower(strings.TrimSpace(cfg.Logging.Format))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile overlays the YAML file onto cfg. Keys missing from the file keep
// their current values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their YAML names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field constraint and reports all violations at
// once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// StipSources converts the configured locations for stip.LoadDatasets.
func (c *Config) StipSources() stip.Sources {
	return stip.Sources{
		Projects: c.Sources.Projects,
		Funding:  c.Sources.Funding,
		Revenue:  c.Sources.Revenue,
	}
}

// ParseOptions returns the ingestion column layout.
func (c *Config) ParseOptions() stip.ParseOptions {
	return stip.ParseOptions{
		Years:    append([]int(nil), c.Years...),
		Programs: append([]string(nil), c.Programs...),
		MPOs:     append([]string(nil), c.MPOs...),
	}
}

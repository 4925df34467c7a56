// Package internal wires configuration, logging and the conversion
// pipeline behind the CLI commands.
package internal

import (
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/holotome/htconv/internal/modality"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Convert ConvertConfig     `yaml:"convert"`
	Ledger  LedgerConfig      `yaml:"ledger"`
	HTTP    HTTPConfig        `yaml:"http"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Convert.Validate(); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// ConvertConfig holds conversion defaults. Flags override IncludeMIP and
// OutputXML per invocation.
type ConvertConfig struct {
	IncludeMIP bool `yaml:"include_mip"`
	OutputXML  bool `yaml:"output_xml"`

	// DefaultUTCOffsetMin is applied when the acquisition metadata omits
	// its timezone offset, in minutes east of UTC. The default matches
	// the acquisition software's origin locale.
	DefaultUTCOffsetMin int `yaml:"default_utc_offset"`

	// Workers bounds parallel folder processing in batch mode.
	Workers int `yaml:"workers"`

	// Rules optionally replaces the built-in modality classification
	// table.
	Rules []modality.RuleConfig `yaml:"rules"`
}

// Validate validates the conversion configuration, including that any
// configured rule table compiles.
func (c *ConvertConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Workers, validation.Required, validation.Min(1)),
		validation.Field(&c.DefaultUTCOffsetMin, validation.Min(-14*60), validation.Max(14*60)),
	); err != nil {
		return err
	}
	_, err := modality.CompileRules(c.Rules)
	return err
}

// LedgerConfig holds the conversion ledger database path. An empty path
// disables the ledger.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// HTTPConfig holds the status API configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Convert: ConvertConfig{
			DefaultUTCOffsetMin: 540,
			Workers:             4,
		},
		Ledger: LedgerConfig{
			Path: "./htconv.db",
		},
		HTTP: HTTPConfig{
			Port: 8080,
		},
	}
}

// Package config loads the optional YAML configuration file with environment
// variable expansion and validates it. Flags set on the command line override
// whatever the file says; the file overrides the built-in defaults.
package config

import (
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/gaurav-prasanna/enmark/core"
	"github.com/gaurav-prasanna/enmark/core/sink"
)

// Config is the full application configuration.
type Config struct {
	LogLevel string        `yaml:"log_level"`
	Convert  ConvertConfig `yaml:"convert"`
	Output   OutputConfig  `yaml:"output"`
}

// ConvertConfig controls how notes are converted.
type ConvertConfig struct {
	FrontMatter bool   `yaml:"front_matter"`
	Timezone    string `yaml:"timezone"`
}

// OutputConfig controls the on-disk layout of the filesystem sink.
type OutputConfig struct {
	Root            string `yaml:"root"`
	NotePath        string `yaml:"note_path"`
	AttachmentsPath string `yaml:"attachments_path"`
	AllowSpaces     bool   `yaml:"allow_spaces"`
	Replacement     string `yaml:"replacement"`
	MaxNameLength   int    `yaml:"max_name_length"`
	RootCondition   string `yaml:"root_condition"`
	OnExisting      string `yaml:"on_existing"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Convert: ConvertConfig{
			FrontMatter: false,
			Timezone:    string(core.TimezoneUTC),
		},
		Output: OutputConfig{
			Root:          "output",
			NotePath:      sink.DefaultNoteTemplate,
			Replacement:   "_",
			MaxNameLength: 128,
			RootCondition: sink.RootLeaveAsIs,
			OnExisting:    sink.OnExistingBump,
		},
	}
}

// Load reads a YAML config file into cfg, expanding ${VAR} environment
// references first, and validates the result.
func Load(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: validating %s: %w", path, err)
	}
	return nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.Required,
			validation.In("debug", "info", "warn", "error")),
	); err != nil {
		return err
	}
	if err := c.Convert.Validate(); err != nil {
		return err
	}
	return c.Output.Validate()
}

// Validate checks the conversion settings.
func (c *ConvertConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Timezone, validation.Required,
			validation.In(string(core.TimezoneUTC), string(core.TimezoneLocal))),
	)
}

// Validate checks the output layout settings.
func (c *OutputConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.NotePath, validation.Required),
		validation.Field(&c.MaxNameLength, validation.Required, validation.Min(1), validation.Max(255)),
		validation.Field(&c.RootCondition, validation.Required,
			validation.In(sink.RootLeaveAsIs, sink.RootRequireEmpty)),
		validation.Field(&c.OnExisting, validation.Required,
			validation.In(sink.OnExistingBump, sink.OnExistingFail, sink.OnExistingOverwrite, sink.OnExistingWarn)),
	)
}

// Zone returns the configured timezone as the core type.
func (c *ConvertConfig) Zone() core.Timezone {
	return core.Timezone(c.Timezone)
}

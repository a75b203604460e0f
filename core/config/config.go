package config

import (
	_ "embed"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/josephlewis42/jsh/core/logger"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/config.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "config.yaml"

	ColorAlways = "always"
	ColorAuto   = "auto"
	ColorNever  = "never"
)

type Configuration struct {
	configDir string

	Prompt   string `json:"prompt"`
	LogLevel string `json:"log_level" validate:"required,oneof=debug warn error fatal silent"`
	Color    string `json:"color" validate:"required,oneof=always auto never"`

	HistoryFile string `json:"history_file"`
	EnvFile     string `json:"env_file"`

	MaxSubstitutions int `json:"max_substitutions" validate:"gte=1"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}

// Level returns the configured log threshold.
func (c *Configuration) Level() logger.Level {
	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return logger.LevelError
	}
	return level
}

// ColorEnabled reports whether log tags should be coloured on a stream that
// is or isn't a terminal.
func (c *Configuration) ColorEnabled(isTerminal bool) bool {
	switch c.Color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		return isTerminal
	}
}

// ResolvePath makes a relative path from the configuration relative to the
// directory the configuration was loaded from.
func (c *Configuration) ResolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) || c.configDir == "" {
		return path
	}
	return filepath.Join(c.configDir, path)
}

// HistoryPath is the resolved readline history file, empty if disabled.
func (c *Configuration) HistoryPath() string {
	return c.ResolvePath(c.HistoryFile)
}

// EnvPath is the resolved dotenv file, empty if none.
func (c *Configuration) EnvPath() string {
	return c.ResolvePath(c.EnvFile)
}

// Default returns the built-in configuration.
func Default() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}

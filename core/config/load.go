package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/josephlewis42/jsh/core/logger"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Load loads the configuration from the directory.
func Load(path string) (*Configuration, error) {
	return loadFs(afero.NewOsFs(), path)
}

func loadFs(fs afero.Fs, path string) (*Configuration, error) {
	// If given the path to a config.yaml file, move back up a level.
	if filepath.Base(path) == ConfigurationName {
		path = filepath.Dir(path)
	}

	configContents, err := afero.ReadFile(fs, filepath.Join(path, ConfigurationName))
	if err != nil {
		return nil, err
	}

	// Start from the defaults so fields left out keep their built-in value.
	out := Default()
	if err := yaml.UnmarshalStrict(configContents, out); err != nil {
		return nil, fmt.Errorf("%s: %w", ConfigurationName, err)
	}
	if err := out.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", ConfigurationName, err)
	}

	out.configDir = path
	return out, nil
}

// Initialize writes the default configuration into dir, creating it if
// needed. An existing configuration is left untouched.
func Initialize(dir string, log *logger.Logger) error {
	return initializeFs(afero.NewOsFs(), dir, log)
}

func initializeFs(fs afero.Fs, dir string, log *logger.Logger) error {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return err
	}

	configPath := filepath.Join(dir, ConfigurationName)
	switch _, err := fs.Stat(configPath); {
	case err == nil:
		log.Warnf("%s already exists, skipping", configPath)
		return nil
	case !errors.Is(err, os.ErrNotExist):
		return err
	}

	if err := afero.WriteFile(fs, configPath, defaultConfigData, 0644); err != nil {
		return err
	}
	log.Print(fmt.Sprintf("wrote %s\n", configPath))
	return nil
}

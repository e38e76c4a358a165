package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// fileNames is the ordered list of config file names Discover searches for,
// mirroring the dotfile/plain-file pairing convention other project
// configs in this project's lineage use (e.g. makefmt.yml/.makefmt.yml).
var fileNames = []string{
	"stencil.yaml",
	".stencil.yaml",
}

// Discover returns the path of the first config file found in dir on fs, or
// an empty string if none exists.
func Discover(fs afero.Fs, dir string) string {
	for _, name := range fileNames {
		path := filepath.Join(dir, name)
		if exists, err := afero.Exists(fs, path); err == nil && exists {
			return path
		}
	}
	return ""
}

// Load reads and parses a .stencil.yaml file from fs. If configPath is
// empty, Load searches the current working directory via Discover; if that
// finds no config file, DefaultConfig is returned rather than an error:
// Stencil's core pipeline never requires project configuration to run. An
// explicit configPath that does not exist is an error.
//
// Partial YAML files are supported: any fields not specified retain their
// default values, since Load starts from DefaultConfig before unmarshalling.
func Load(fs afero.Fs, configPath string) (*Config, error) {
	if configPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("config: getting working directory: %w", err)
		}
		configPath = Discover(fs, wd)
	}

	if configPath == "" {
		return DefaultConfig(), nil
	}

	data, err := afero.ReadFile(fs, configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: file not found: %s", configPath)
		}
		return nil, fmt.Errorf("config: reading %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", configPath, err)
	}
	return cfg, nil
}

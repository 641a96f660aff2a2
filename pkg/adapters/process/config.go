package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config describes one allow-listed command.
type Config struct {
	Name        string            `yaml:"name" json:"name" toml:"name"`
	Command     string            `yaml:"command" json:"command" toml:"command"`
	Args        []string          `yaml:"args" json:"args" toml:"args"`
	Environment map[string]string `yaml:"env" json:"env" toml:"env"`
	Description string            `yaml:"description" json:"description" toml:"description"`
}

// ConfigFile represents the structure of a processes file.
type ConfigFile struct {
	Processes []Config `yaml:"processes" json:"processes" toml:"processes"`
}

// LoadProcesses reads a configuration file (YAML, JSON or TOML) and returns a map
// of process names to configs. A missing file yields an empty map.
func LoadProcesses(path string) (map[string]Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Config{}, nil
		}
		return nil, fmt.Errorf("failed to read processes config: %w", err)
	}

	var cfg ConfigFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	return Index(cfg.Processes), nil
}

// Index maps configs by name, skipping unnamed entries.
func Index(configs []Config) map[string]Config {
	out := make(map[string]Config, len(configs))
	for _, c := range configs {
		if c.Name == "" {
			continue
		}
		out[c.Name] = c
	}
	return out
}

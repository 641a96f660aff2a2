// Package config loads the declarative description of the containers the
// ntrode command runs.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/aretw0/ntrode/pkg/adapters/process"
	"github.com/aretw0/ntrode/pkg/domain"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned when a configuration file is structurally wrong.
var ErrInvalid = errors.New("invalid configuration")

// Redis holds the connection used by the redis-source and redis-sink kinds.
// An empty Addr leaves those kinds unregistered.
type Redis struct {
	Addr     string `yaml:"addr" json:"addr" toml:"addr"`
	Password string `yaml:"password" json:"password" toml:"password"`
	DB       int    `yaml:"db" json:"db" toml:"db"`
	Prefix   string `yaml:"prefix" json:"prefix" toml:"prefix"`
}

// NTrode describes one container.
type NTrode struct {
	Name           string               `yaml:"name" json:"name" toml:"name"`
	Debug          bool                 `yaml:"debug" json:"debug" toml:"debug"`
	MaxCycles      uint64               `yaml:"max_cycles" json:"max_cycles" toml:"max_cycles"`
	UntilExhausted bool                 `yaml:"until_exhausted" json:"until_exhausted" toml:"until_exhausted"`
	Handlers       []domain.HandlerSpec `yaml:"handlers" json:"handlers" toml:"handlers"`
}

// File is the root of a configuration file.
type File struct {
	Redis   Redis    `yaml:"redis" json:"redis" toml:"redis"`
	Timeout Duration `yaml:"timeout" json:"timeout" toml:"timeout"` // Overall run timeout, zero for none
	NTrodes []NTrode `yaml:"ntrodes" json:"ntrodes" toml:"ntrodes"`

	// Processes is the allow-list of commands the process kind may run.
	Processes []process.Config `yaml:"processes" json:"processes" toml:"processes"`
}

// Load reads a configuration file. The format is chosen by extension:
// .json, .toml, otherwise YAML.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes data in the format named by ext and validates it.
func Parse(data []byte, ext string) (*File, error) {
	var cfg File
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse json config: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse toml config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse yaml config: %w", err)
		}
	}

	for i := range cfg.NTrodes {
		if cfg.NTrodes[i].Name == "" {
			cfg.NTrodes[i].Name = fmt.Sprintf("ntrode-%d", i+1)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the structure of the file. Handler kinds are checked
// separately against a registry, see Kinds.
func (f *File) Validate() error {
	if len(f.NTrodes) == 0 {
		return fmt.Errorf("%w: no ntrodes defined", ErrInvalid)
	}
	seen := make(map[string]bool, len(f.NTrodes))
	for _, n := range f.NTrodes {
		if seen[n.Name] {
			return fmt.Errorf("%w: duplicate ntrode name %q", ErrInvalid, n.Name)
		}
		seen[n.Name] = true
		if len(n.Handlers) == 0 {
			return fmt.Errorf("%w: ntrode %q: %w", ErrInvalid, n.Name, domain.ErrNoHandlers)
		}
		for i, h := range n.Handlers {
			if h.Kind == "" {
				return fmt.Errorf("%w: ntrode %q: handler %d has no kind", ErrInvalid, n.Name, i)
			}
		}
	}
	return nil
}

// Kinds returns every handler kind referenced by the file, in order of first use.
func (f *File) Kinds() []string {
	var kinds []string
	seen := map[string]bool{}
	for _, n := range f.NTrodes {
		for _, h := range n.Handlers {
			if !seen[h.Kind] {
				seen[h.Kind] = true
				kinds = append(kinds, h.Kind)
			}
		}
	}
	return kinds
}

// Duration is a time.Duration written as a string ("30s") in configuration files.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalYAML decodes a scalar duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

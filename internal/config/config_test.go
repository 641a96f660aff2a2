package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/ntrode/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlConfig = `
redis:
  addr: localhost:6379
  prefix: "lab:"
timeout: 30s
ntrodes:
  - name: ch1
    until_exhausted: true
    handlers:
      - kind: redis-source
        config:
          key: ch1
          stop_on_empty: true
      - kind: redis-sink
        config: {key: ch1:out, max_len: 100}
  - debug: true
    max_cycles: 20
    handlers:
      - kind: counter
`

const jsonConfig = `{
  "ntrodes": [
    {"name": "a", "max_cycles": 5, "handlers": [{"kind": "counter", "config": {"limit": 3}}]}
  ]
}`

const tomlConfig = `
timeout = "1m"

[[ntrodes]]
name = "a"
until_exhausted = true

[[ntrodes.handlers]]
kind = "counter"
config = { limit = 3 }

[[ntrodes.handlers]]
kind = "log"
`

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ntrode.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlConfig), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "lab:", cfg.Redis.Prefix)
	assert.Equal(t, 30*time.Second, time.Duration(cfg.Timeout))
	require.Len(t, cfg.NTrodes, 2)

	ch1 := cfg.NTrodes[0]
	assert.Equal(t, "ch1", ch1.Name)
	assert.True(t, ch1.UntilExhausted)
	require.Len(t, ch1.Handlers, 2)
	assert.Equal(t, "redis-source", ch1.Handlers[0].Kind)
	assert.Equal(t, "ch1", ch1.Handlers[0].Config["key"])
	assert.Equal(t, true, ch1.Handlers[0].Config["stop_on_empty"])
	assert.Equal(t, 100, ch1.Handlers[1].Config["max_len"])

	second := cfg.NTrodes[1]
	assert.Equal(t, "ntrode-2", second.Name, "unnamed containers get a positional name")
	assert.True(t, second.Debug)
	assert.Equal(t, uint64(20), second.MaxCycles)
	assert.Nil(t, second.Handlers[0].Config)

	assert.Equal(t, []string{"redis-source", "redis-sink", "counter"}, cfg.Kinds())
}

func TestParse_JSONAndTOML(t *testing.T) {
	cfg, err := Parse([]byte(jsonConfig), ".json")
	require.NoError(t, err)
	require.Len(t, cfg.NTrodes, 1)
	assert.Equal(t, uint64(5), cfg.NTrodes[0].MaxCycles)
	assert.Equal(t, float64(3), cfg.NTrodes[0].Handlers[0].Config["limit"])

	cfg, err = Parse([]byte(tomlConfig), ".TOML")
	require.NoError(t, err)
	assert.Equal(t, time.Minute, time.Duration(cfg.Timeout))
	require.Len(t, cfg.NTrodes, 1)
	n := cfg.NTrodes[0]
	assert.True(t, n.UntilExhausted)
	require.Len(t, n.Handlers, 2)
	assert.Equal(t, []domain.HandlerSpec{
		{Kind: "counter", Config: map[string]any{"limit": int64(3)}},
		{Kind: "log"},
	}, n.Handlers)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":      `ntrodes: []`,
		"duplicate":  "ntrodes:\n  - {name: a, handlers: [{kind: counter}]}\n  - {name: a, handlers: [{kind: counter}]}\n",
		"no handler": "ntrodes:\n  - {name: a}\n",
		"no kind":    "ntrodes:\n  - {name: a, handlers: [{config: {x: 1}}]}\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src), ".yml")
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	_, err := Parse([]byte("ntrodes:\n  - {name: a}\n"), ".yaml")
	assert.ErrorIs(t, err, domain.ErrNoHandlers)

	_, err = Parse([]byte("timeout: soon\nntrodes: []"), ".yaml")
	assert.Error(t, err)

	_, err = Parse([]byte("{"), ".json")
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_Processes(t *testing.T) {
	cfg, err := Parse([]byte(`
processes:
  - name: fft
    command: python3
    args: [fft.py]
ntrodes:
  - handlers: [{kind: process, config: {process: fft}}]
`), ".yaml")
	require.NoError(t, err)
	require.Len(t, cfg.Processes, 1)
	assert.Equal(t, "fft", cfg.Processes[0].Name)
	assert.Equal(t, []string{"fft.py"}, cfg.Processes[0].Args)
}

package process

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/aretw0/ntrode"
	"github.com/aretw0/ntrode/pkg/domain"
	"github.com/aretw0/ntrode/pkg/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
}

func TestRunner_Execute(t *testing.T) {
	skipOnWindows(t)
	runner := NewRunner()
	runner.Register("hello", "echo", "hello")
	runner.Register("echo_env", "sh", "-c", "echo $NTRODE_ARG_MSG")
	runner.Register("json", "sh", "-c", `echo '{"value": '"$NTRODE_ARG_X"'}'`)
	runner.Register("fail", "sh", "-c", "echo broken >&2; exit 3")

	ctx := context.Background()

	t.Run("Executes Registered Command", func(t *testing.T) {
		out, err := runner.Execute(ctx, "hello", nil)
		require.NoError(t, err)
		assert.Equal(t, "hello", out)
	})

	t.Run("Fails For Unregistered Command", func(t *testing.T) {
		_, err := runner.Execute(ctx, "hacker_script", nil)
		assert.ErrorIs(t, err, ErrNotRegistered)
	})

	t.Run("Passes Arguments via Env Vars", func(t *testing.T) {
		out, err := runner.Execute(ctx, "echo_env", map[string]any{"msg": "SecretMessage"})
		require.NoError(t, err)
		assert.Equal(t, "SecretMessage", out)
	})

	t.Run("Decodes JSON Output", func(t *testing.T) {
		out, err := runner.Execute(ctx, "json", map[string]any{"x": 21})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"value": float64(21)}, out)
	})

	t.Run("Reports Stderr", func(t *testing.T) {
		_, err := runner.Execute(ctx, "fail", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "broken")
	})

	assert.Equal(t, []string{"echo_env", "fail", "hello", "json"}, runner.Names())
}

func TestEnvHelpers(t *testing.T) {
	assert.Equal(t, "SAMPLE_RATE_2", envName("sample-rate.2"))
	assert.Equal(t, "1.5", envValue(1.5))
	assert.Equal(t, "", envValue(nil))
	assert.Equal(t, `[1,2]`, envValue([]int{1, 2}))
}

func TestHandler_InContainer(t *testing.T) {
	skipOnWindows(t)
	runner := NewRunner(WithProcesses(map[string]Config{
		"double": {Name: "double", Command: "sh", Args: []string{"-c", "echo $((NTRODE_ARG_ITEM * 2))"}},
	}))
	r := handlers.NewRegistry()
	Register(r, runner)

	n, err := ntrode.New([]domain.HandlerSpec{
		{Kind: handlers.KindCounter, Config: map[string]any{"limit": 3, "start": 1}},
		{Kind: Kind, Config: map[string]any{"process": "double", "args": []string{"item"}, "into": "doubled", "timeout": "5s"}},
	}, ntrode.WithRegistry(r), ntrode.WithContinuation(ntrode.UntilExhausted()))
	require.NoError(t, err)
	require.NoError(t, n.Run(context.Background()))

	v, _ := n.Memory().Get("doubled")
	assert.Equal(t, "6", v)
	assert.Equal(t, 3, n.Handlers()[1].(*Handler).Runs())
}

func TestHandler_Timeout(t *testing.T) {
	skipOnWindows(t)
	runner := NewRunner()
	runner.Register("slow", "sleep", "5")

	h, err := NewHandler(runner, HandlerConfig{Process: "slow", Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	r := handlers.NewRegistry()
	r.Register("slow", func(map[string]any) (domain.Handler, error) { return h, nil })
	n, err := ntrode.New([]domain.HandlerSpec{{Kind: "slow"}}, ntrode.WithRegistry(r))
	require.NoError(t, err)
	require.NoError(t, n.Initialise(context.Background()))

	require.NoError(t, n.Cycle(context.Background())) // INPUT
	start := time.Now()
	err = n.Cycle(context.Background()) // PROCESS
	require.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
	assert.Equal(t, domain.StateProcess, n.State(), "a failed action does not advance the state")
}

func TestNewHandler_Validation(t *testing.T) {
	runner := NewRunner()
	runner.Register("ok", "true")

	_, err := NewHandler(nil, HandlerConfig{Process: "ok"})
	assert.Error(t, err)
	_, err = NewHandler(runner, HandlerConfig{})
	assert.Error(t, err)
	_, err = NewHandler(runner, HandlerConfig{Process: "missing"})
	assert.ErrorIs(t, err, ErrNotRegistered)
	_, err = NewHandler(runner, HandlerConfig{Process: "ok", State: "LATER"})
	assert.Error(t, err)
}

func TestLoadProcesses(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "processes.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
processes:
  - name: fft
    command: python3
    args: [fft.py]
    env: {MODE: fast}
  - command: ignored
`), 0644))
	procs, err := LoadProcesses(yamlPath)
	require.NoError(t, err)
	require.Len(t, procs, 1)
	assert.Equal(t, "python3", procs["fft"].Command)
	assert.Equal(t, "fast", procs["fft"].Environment["MODE"])

	tomlPath := filepath.Join(dir, "processes.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("[[processes]]\nname = \"a\"\ncommand = \"true\"\n"), 0644))
	procs, err = LoadProcesses(tomlPath)
	require.NoError(t, err)
	assert.Contains(t, procs, "a")

	procs, err = LoadProcesses(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, procs)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	_, err = LoadProcesses(bad)
	assert.Error(t, err)
}

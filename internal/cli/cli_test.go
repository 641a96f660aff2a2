package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/ntrode"
	"github.com/aretw0/ntrode/internal/config"
	"github.com/aretw0/ntrode/internal/logging"
	"github.com/aretw0/ntrode/internal/testutils"
	"github.com/aretw0/ntrode/pkg/adapters/process"
	"github.com/aretw0/ntrode/pkg/adapters/queue"
	"github.com/aretw0/ntrode/pkg/adapters/redis"
	"github.com/aretw0/ntrode/pkg/domain"
	"github.com/aretw0/ntrode/pkg/handlers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const counters = `
ntrodes:
  - name: a
    until_exhausted: true
    handlers:
      - kind: counter
        config: {limit: 3}
  - name: b
    max_cycles: 8
    handlers:
      - kind: counter
      - kind: copy
        config: {from: item, to: last}
`

func TestExecute_Counters(t *testing.T) {
	var out bytes.Buffer
	err := Execute(context.Background(), RunOptions{
		ConfigPath: writeConfig(t, "ntrode.yaml", counters),
		LogLevel:   "error",
		Output:     &out,
	})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "running 2 ntrode(s)")
	// a: OFF, INIT, then three rounds of INPUT/PROCESS/OUTPUT. b: eight cycles.
	assert.Contains(t, text, "done: 19 cycles across 2 ntrode(s)")
}

func TestExecute_QueueChain(t *testing.T) {
	cfg := `
ntrodes:
  - name: producer
    until_exhausted: true
    handlers:
      - kind: counter
        config: {limit: 4}
      - kind: queue-sink
        config: {queue: samples, close_on_finalise: true}
  - name: consumer
    until_exhausted: true
    handlers:
      - kind: queue-source
        config: {queue: samples}
      - kind: log
`
	var out bytes.Buffer
	err := Execute(context.Background(), RunOptions{
		ConfigPath: writeConfig(t, "chain.yml", cfg),
		LogLevel:   "error",
		Output:     &out,
	})
	require.NoError(t, err)
	// producer: 2 + 4*3 cycles; consumer: the same plus the INPUT that finds the queue closed.
	assert.Contains(t, out.String(), "done: 29 cycles across 2 ntrode(s)")
}

func TestExecute_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	_, err := mr.Push("lab:ch1", "1", "2")
	require.NoError(t, err)

	cfg := fmt.Sprintf(`{
  "redis": {"addr": %q, "prefix": "lab:"},
  "ntrodes": [{
    "name": "ch1",
    "until_exhausted": true,
    "handlers": [
      {"kind": "redis-source", "config": {"key": "ch1", "stop_on_empty": true}},
      {"kind": "redis-sink", "config": {"key": "ch1:out"}}
    ]
  }]
}`, mr.Addr())

	err = Execute(context.Background(), RunOptions{
		ConfigPath: writeConfig(t, "ntrode.json", cfg),
		LogLevel:   "error",
		Quiet:      true,
		Output:     io.Discard,
	})
	require.NoError(t, err)

	out, err := mr.List("lab:ch1:out")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, out)
}

func TestExecute_StatusServer(t *testing.T) {
	cfg := `
timeout = "10s"

[[ntrodes]]
name = "paced"

[[ntrodes.handlers]]
kind = "counter"

[[ntrodes.handlers]]
kind = "sleep"
config = { interval = "5ms" }
`
	logFile := filepath.Join(t.TempDir(), "ntrode.log")
	addrCh := make(chan net.Addr, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- Execute(ctx, RunOptions{
			ConfigPath: writeConfig(t, "ntrode.toml", cfg),
			LogLevel:   "info",
			LogFile:    logFile,
			HTTPAddr:   "127.0.0.1:0",
			Quiet:      true,
			Listening:  func(a net.Addr) { addrCh <- a },
		})
	}()

	var base string
	select {
	case a := <-addrCh:
		base = "http://" + a.String()
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/ntrodes/paced")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK && !strings.Contains(string(body), `"cycles":0`)
	}, 5*time.Second, 20*time.Millisecond)

	resp, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `ntrode_cycles_total{ntrode="paced"`)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Execute did not return after cancellation")
	}

	logged, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(logged), `"msg":"ntrode started"`)
	assert.Contains(t, string(logged), `"msg":"finalised"`)
}

func TestExecute_BadConfig(t *testing.T) {
	err := Execute(context.Background(), RunOptions{
		ConfigPath: writeConfig(t, "bad.yaml", "ntrodes:\n  - {name: a, handlers: [{kind: nope}]}\n"),
		Quiet:      true,
	})
	assert.ErrorIs(t, err, domain.ErrUnknownKind)

	err = Execute(context.Background(), RunOptions{
		ConfigPath: writeConfig(t, "bad.yaml", "ntrodes:\n  - {name: a, handlers: [{kind: counter, config: {bogus: 1}}]}\n"),
		Quiet:      true,
	})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	err = Execute(context.Background(), RunOptions{
		ConfigPath: writeConfig(t, "ok.yaml", counters),
		LogLevel:   "loud",
		Quiet:      true,
	})
	assert.ErrorContains(t, err, "invalid log level")
}

// Each container gets its own recorder log: they run concurrently.
func failingContainer(t *testing.T) *ntrode.NTrode {
	t.Helper()
	n, err := ntrode.New([]domain.HandlerSpec{{Kind: testutils.KindRecorder, Config: map[string]any{"id": "bad", "fail_on": "invoke", "fail_state": "OUTPUT"}}},
		ntrode.WithName("bad"), ntrode.WithRegistry(testutils.NewRegistry(&testutils.Log{})))
	require.NoError(t, err)
	return n
}

func TestSupervise_IndependentFailures(t *testing.T) {
	failing := failingContainer(t)
	healthy, err := ntrode.New(testutils.RecorderSpecs("good"),
		ntrode.WithName("good"), ntrode.WithRegistry(testutils.NewRegistry(&testutils.Log{})), ntrode.WithMaxCycles(50))
	require.NoError(t, err)

	err = Supervise(context.Background(), []*ntrode.NTrode{failing, healthy}, false, logging.NewNop())
	require.ErrorIs(t, err, testutils.ErrInjected)
	assert.Contains(t, err.Error(), `ntrode "bad"`)
	assert.Equal(t, uint64(50), healthy.Cycles(), "a failing sibling does not stop the others")
}

func TestSupervise_FailFast(t *testing.T) {
	failing := failingContainer(t)
	endless, err := ntrode.New([]domain.HandlerSpec{{Kind: handlers.KindCounter}, {Kind: handlers.KindSleep, Config: map[string]any{"interval": "1ms"}}},
		ntrode.WithName("endless"))
	require.NoError(t, err)

	err = Supervise(context.Background(), []*ntrode.NTrode{failing, endless}, true, logging.NewNop())
	require.ErrorIs(t, err, testutils.ErrInjected)
	assert.False(t, endless.Running())
}

func TestContinuation(t *testing.T) {
	assert.Nil(t, continuation(config.NTrode{}))

	n, err := ntrode.New([]domain.HandlerSpec{{Kind: handlers.KindCounter}})
	require.NoError(t, err)
	cont := continuation(config.NTrode{MaxCycles: 3, UntilExhausted: true})
	require.NotNil(t, cont)
	assert.True(t, cont(context.Background(), n))

	n.Memory().Set(handlers.KeyExhausted, true)
	assert.False(t, cont(context.Background(), n))
}

func TestValidateAndKinds(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Validate(writeConfig(t, "ntrode.yaml", counters), &out))
	assert.Equal(t, "a: 1 handler(s) counter(limit=3)\nb: 2 handler(s) counter copy(from=item, to=last)\n", out.String())

	err := Validate(writeConfig(t, "ntrode.yaml", "redis: {addr: \"127.0.0.1:1\"}\nntrodes:\n  - {name: a, handlers: [{kind: redis-sink}]}\n"), io.Discard)
	assert.ErrorIs(t, err, domain.ErrConfiguration, "redis-sink without key")

	kinds := Kinds()
	for _, k := range []string{handlers.KindCounter, handlers.KindCopy, handlers.KindLog, handlers.KindSleep, queue.KindSource, queue.KindSink, process.Kind, redis.KindSource, redis.KindSink} {
		assert.Contains(t, kinds, k)
	}
}

func TestExecute_Process(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses sh")
	}
	path := writeConfig(t, "ntrode.yaml", `
processes:
  - name: square
    command: sh
    args: ["-c", "echo $((NTRODE_ARG_ITEM * NTRODE_ARG_ITEM)) > squares.txt; cat squares.txt"]
ntrodes:
  - name: sq
    until_exhausted: true
    handlers:
      - {kind: counter, config: {limit: 4, start: 1}}
      - {kind: process, config: {process: square, args: [item]}}
`)
	var out bytes.Buffer
	require.NoError(t, Execute(context.Background(), RunOptions{ConfigPath: path, LogLevel: "error", Output: &out}))
	assert.Contains(t, out.String(), "done: 14 cycles across 1 ntrode(s)")

	written, err := os.ReadFile(filepath.Join(filepath.Dir(path), "squares.txt"))
	require.NoError(t, err)
	assert.Equal(t, "16\n", string(written), "processes run from the configuration directory")

	err = Validate(writeConfig(t, "ntrode.yaml", "ntrodes:\n  - {name: a, handlers: [{kind: process, config: {process: rm}}]}\n"), io.Discard)
	assert.ErrorContains(t, err, "process not registered: rm")
}

func TestPrintBanner(t *testing.T) {
	var out bytes.Buffer
	PrintBanner(&out, "1.2.3\n")
	assert.Contains(t, out.String(), "v1.2.3")
	assert.Contains(t, out.String(), `|_| \_|`)
}

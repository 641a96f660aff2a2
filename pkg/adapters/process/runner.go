// Package process runs allow-listed external commands as a pipeline stage.
//
// A container hands memory values to the command through environment variables
// (NTRODE_ARG_<NAME>) and stores its standard output back into memory, so
// processing algorithms can live outside the Go process.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"sync"
)

// ErrNotRegistered is returned for a command name missing from the allow-list.
var ErrNotRegistered = errors.New("process not registered")

// EnvPrefix prefixes the environment variables carrying memory values.
const EnvPrefix = "NTRODE_ARG_"

// Runner executes local processes.
// It follows a strict registry pattern for security (allow-listing): only
// registered commands run, and values are never passed as command-line flags.
type Runner struct {
	mu       sync.RWMutex
	registry map[string]RegisteredProcess
	baseDir  string
}

// RegisteredProcess defines an allowed command execution.
type RegisteredProcess struct {
	Command string
	Args    []string
	Env     map[string]string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithProcesses populates the allow-list from loaded configs.
func WithProcesses(procs map[string]Config) RunnerOption {
	return func(r *Runner) {
		for name, p := range procs {
			r.registry[name] = RegisteredProcess{Command: p.Command, Args: p.Args, Env: p.Environment}
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a new process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]RegisteredProcess),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted script/command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registry[name] = RegisteredProcess{
		Command: command,
		Args:    args,
	}
}

// Has reports whether name is allow-listed.
func (r *Runner) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.registry[name]
	return ok
}

// Names returns the allow-listed names, sorted.
func (r *Runner) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs the named process with args exposed as environment variables.
// Standard output that parses as a JSON object or array is returned decoded,
// anything else as a trimmed string.
func (r *Runner) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	r.mu.RLock()
	proc, ok := r.registry[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir

	env := cmd.Environ()
	for k, v := range proc.Env {
		env = append(env, k+"="+v)
	}
	for k, v := range args {
		env = append(env, fmt.Sprintf("%s%s=%s", EnvPrefix, envName(k), envValue(v)))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("process %s failed: %w. Stderr: %s", name, err, strings.TrimSpace(stderr.String()))
	}

	trimmed := strings.TrimSpace(stdout.String())
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			return decoded, nil
		}
	}
	return trimmed, nil
}

// envName upper-cases k and replaces anything but letters, digits and '_'.
func envName(k string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '_'
	}, k)
}

// envValue formats primitives directly and anything else as JSON.
func envValue(v any) string {
	switch v.(type) {
	case string, int, int64, float64, bool:
		return fmt.Sprintf("%v", v)
	case nil:
		return ""
	}
	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", v)
}

package process

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/arche"
	"github.com/aretw0/arche/internal/logging"
)

// ErrNotRegistered is returned by Run for solvers missing from the allow-list.
var ErrNotRegistered = errors.New("solver not registered")

const (
	// DefaultMaxLineSize bounds one line of solver output.
	DefaultMaxLineSize = 4 << 20
	// DefaultWaitDelay bounds how long Run waits for output pipes to close
	// once the solver has exited or been killed.
	DefaultWaitDelay = 5 * time.Second
)

// Sink receives the deliveries parsed from a solver's output. *arche.Project implements it.
type Sink interface {
	ID() string
	Deliver(d arche.Delivery) error
}

// Result summarizes a solver run.
type Result struct {
	Delivered int    `json:"delivered"`
	Rejected  int    `json:"rejected"`
	Ignored   int    `json:"ignored"`
	ExitCode  int    `json:"exitCode"`
	Stderr    string `json:"stderr,omitempty"`
}

// Runner executes registered solver processes and streams the progress
// deliveries they print on stdout, one JSON object per line, into a Sink.
// It follows a Strict Registry pattern (allow-listing): only registered
// solvers can be run.
type Runner struct {
	registry    map[string]SolverConfig
	baseDir     string
	maxLineSize int
	waitDelay   time.Duration
	logger      *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(solvers map[string]SolverConfig) RunnerOption {
	return func(r *Runner) {
		for name, s := range solvers {
			s.Name = name
			r.registry[name] = s
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithMaxLineSize sets the longest stdout line Run accepts. A longer line
// stops delivery; the rest of the output is discarded and Run fails with
// bufio.ErrTooLong.
func WithMaxLineSize(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.maxLineSize = n
		}
	}
}

// WithWaitDelay overrides DefaultWaitDelay.
func WithWaitDelay(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.waitDelay = d
	}
}

// WithLogger sets the logger for rejected deliveries and ignored output.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a new solver Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry:    make(map[string]SolverConfig),
		maxLineSize: DefaultMaxLineSize,
		waitDelay:   DefaultWaitDelay,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted solver command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = SolverConfig{Name: name, Command: command, Args: args}
}

// Solvers returns the registered names, sorted.
func (r *Runner) Solvers() []string {
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run starts the named solver and delivers each stdout line that decodes
// as an arche.Delivery to sink while the process runs. Other lines are
// ignored; rejected deliveries are counted and logged.
//
// Parameters reach the process as ARCHE_<KEY> environment variables, never
// as flags; ARCHE_PROJECT_ID is always set. A non-zero exit is reported in
// Result.ExitCode with a nil error; a canceled ctx kills the solver and
// Run returns the context error.
func (r *Runner) Run(ctx context.Context, name string, sink Sink, params map[string]string) (Result, error) {
	solver, ok := r.registry[name]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	cmd := exec.CommandContext(ctx, solver.Command, solver.Args...)
	cmd.Dir = r.baseDir
	cmd.WaitDelay = r.waitDelay

	env := cmd.Environ()
	for k, v := range solver.Environment {
		env = append(env, k+"="+v)
	}
	env = append(env, "ARCHE_PROJECT_ID="+sink.ID())
	for k, v := range params {
		env = append(env, fmt.Sprintf("ARCHE_%s=%s", strings.ToUpper(k), v))
	}
	cmd.Env = env

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, err
	}

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("start %s: %w", name, err)
	}
	r.logger.Info("Solver started", "solver", name, "project_id", sink.ID(), "pid", cmd.Process.Pid)

	// Closing the read end unblocks the scan when a child of the solver
	// keeps stdout open after ctx ends.
	stop := context.AfterFunc(ctx, func() { stdout.Close() })

	var result Result
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, min(64*1024, r.maxLineSize)), r.maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "{") {
			if line != "" {
				result.Ignored++
			}
			continue
		}

		var d arche.Delivery
		if err := json.Unmarshal([]byte(line), &d); err != nil {
			r.logger.Debug("Solver output is not a delivery", "solver", name, "line", line, "err", err)
			result.Ignored++
			continue
		}
		if err := sink.Deliver(d); err != nil {
			r.logger.Warn("Solver delivery rejected", "solver", name, "err", err)
			result.Rejected++
			continue
		}
		result.Delivered++
	}
	scanErr := scanner.Err()
	if scanErr != nil && ctx.Err() == nil {
		r.logger.Warn("Solver output unreadable, discarding the rest", "solver", name, "err", scanErr)
		_, _ = io.Copy(io.Discard, stdout)
	}
	stop()

	err = cmd.Wait()
	result.Stderr = stderr.String()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, fmt.Errorf("solver %s: %w", name, ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
		r.logger.Warn("Solver exited with error", "solver", name, "code", result.ExitCode)
	case err != nil:
		return result, fmt.Errorf("wait %s: %w", name, err)
	case scanErr != nil:
		return result, fmt.Errorf("read %s output: %w", name, scanErr)
	}

	r.logger.Info("Solver finished", "solver", name, "delivered", result.Delivered, "rejected", result.Rejected)
	return result, nil
}

package killer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"broom/internal/config"
	"broom/internal/logging"
)

// Result carries the outcome of one kill pass.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Matched reports whether any process matched the kill pattern.
func (r Result) Matched() bool { return r.ExitCode == 0 }

// Runner terminates processes matching a configured pattern. Kill returns
// immediately; done is invoked from a background goroutine once the pass
// finishes. The error is nil when the pass ran to completion, including the
// nothing-matched case.
type Runner interface {
	Kill(ctx context.Context, done func(Result, error))
}

type commandRunner interface {
	Run(ctx context.Context, name string, args ...string) (int, []byte, []byte, error)
}

type execCommandRunner struct{}

func (execCommandRunner) Run(ctx context.Context, name string, args ...string) (int, []byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
			err = nil
		}
	}
	return exitCode, stdout.Bytes(), stderr.Bytes(), err
}

// Pkill is a Runner backed by the pkill binary.
type Pkill struct {
	binary  string
	pattern string
	timeout time.Duration
	runner  commandRunner
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewPkill constructs a pattern killer from configuration.
func NewPkill(cfg *config.Config, logger *slog.Logger) *Pkill {
	timeout := time.Duration(cfg.Killer.PkillTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Pkill{
		binary:  cfg.PkillBinary(),
		pattern: cfg.KillPattern(),
		timeout: timeout,
		runner:  execCommandRunner{},
		logger:  logging.NewComponentLogger(logger, "killer"),
	}
}

// Pattern returns the configured match pattern.
func (k *Pkill) Pattern() string { return k.pattern }

func (k *Pkill) Kill(ctx context.Context, done func(Result, error)) {
	k.wg.Add(1)
	go func() {
		defer k.wg.Done()
		result, err := k.run(ctx)
		if done != nil {
			done(result, err)
		}
	}()
}

// Wait blocks until all in-flight kill passes have completed.
func (k *Pkill) Wait() { k.wg.Wait() }

func (k *Pkill) run(ctx context.Context) (Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	exitCode, stdout, stderr, err := k.runner.Run(runCtx, k.binary, "-f", k.pattern)
	result := Result{
		ExitCode: exitCode,
		Stdout:   strings.TrimSpace(string(stdout)),
		Stderr:   strings.TrimSpace(string(stderr)),
	}
	if err != nil {
		return result, fmt.Errorf("%s -f %s: %w", k.binary, k.pattern, err)
	}

	switch {
	case exitCode == 0:
		k.logger.Info("terminated lingering processes",
			logging.String(logging.FieldEventType, "kill_completed"),
			logging.String("pattern", k.pattern),
		)
	case exitCode == 1:
		// No processes matched; the daemons were already gone.
		k.logger.Debug("no processes matched kill pattern", logging.String("pattern", k.pattern))
	default:
		logging.WarnWithContext(k.logger, "kill pass failed", "kill_failed",
			logging.Int("exit_code", exitCode),
			logging.String("pattern", k.pattern),
			logging.String("stderr", result.Stderr),
			logging.String(logging.FieldErrorHint, "check pkill availability and the configured pattern"),
			logging.String(logging.FieldImpact, "lingering processes may survive until the next pass"),
		)
		return result, fmt.Errorf("%s -f %s: exit %d", k.binary, k.pattern, exitCode)
	}
	return result, nil
}

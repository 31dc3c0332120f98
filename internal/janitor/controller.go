package janitor

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"broom/internal/apps"
	"broom/internal/history"
	"broom/internal/killer"
	"broom/internal/lifecycle"
	"broom/internal/logging"
	"broom/internal/notifications"
)

// State names the controller phases.
type State string

const (
	// StateIdle means no cleanup is pending.
	StateIdle State = "idle"
	// StateCountingDown means a qualifying exit armed the grace timer.
	StateCountingDown State = "counting_down"
	// StateCleaning means a cleanup pass is in flight.
	StateCleaning State = "cleaning"
)

// appQueryTimeout bounds the live-application snapshot taken while the
// watcher is suspended.
const appQueryTimeout = 15 * time.Second

// SweepRecorder persists finished sweeps. *history.Store satisfies it.
type SweepRecorder interface {
	RecordSweep(ctx context.Context, sweep history.Sweep) (history.Sweep, error)
}

// Deps collects the controller's collaborators.
type Deps struct {
	// NewWatcher builds the lifecycle watcher that feeds the controller.
	NewWatcher func(lifecycle.Sink) lifecycle.Watcher
	Directory  apps.Directory
	Killer     killer.Runner
	Notifier   notifications.Service
	// Recorder may be nil when history is disabled.
	Recorder SweepRecorder
}

// Controller owns the cleanup state machine.
type Controller struct {
	policy    Policy
	watcher   lifecycle.Watcher
	directory apps.Directory
	killer    killer.Runner
	notifier  notifications.Service
	recorder  SweepRecorder
	logger    *slog.Logger

	mu            sync.Mutex
	running       bool
	state         State
	timer         *time.Timer
	countdownEnds time.Time
	lastSweep     *history.Sweep

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewController wires a controller from its policy and collaborators.
func NewController(policy Policy, deps Deps, logger *slog.Logger) *Controller {
	controller := &Controller{
		policy:    policy,
		directory: deps.Directory,
		killer:    deps.Killer,
		notifier:  deps.Notifier,
		recorder:  deps.Recorder,
		logger:    logging.NewComponentLogger(logger, "janitor"),
		state:     StateIdle,
	}
	if deps.NewWatcher != nil {
		controller.watcher = deps.NewWatcher(controller.HandleEvent)
	}
	return controller
}

// Start begins watching and schedules the bootstrap sweep, which clears
// anything left over from a previous session.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("janitor already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.ctx = runCtx
	c.cancel = cancel
	c.running = true
	c.state = StateIdle
	c.mu.Unlock()

	if err := c.watcher.Start(runCtx); err != nil {
		c.mu.Lock()
		c.running = false
		c.cancel = nil
		c.mu.Unlock()
		cancel()
		return err
	}

	c.logger.Info("janitor started",
		logging.String(logging.FieldEventType, "janitor_started"),
		logging.String("vendor_prefix", c.policy.VendorPrefix),
		logging.Duration("grace_period", c.policy.GracePeriod),
	)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if _, err := c.sweep(runCtx, history.CauseBootstrap); err != nil && !errors.Is(err, context.Canceled) {
			logging.ErrorWithContext(c.logger, "bootstrap sweep failed", "bootstrap_sweep_failed", logging.Error(err))
		}
	}()
	return nil
}

// Stop halts the watcher and waits for in-flight work.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	cancel := c.cancel
	c.cancel = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.state = StateIdle
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.watcher.Stop()
	c.wg.Wait()
}

// HandleEvent is the lifecycle sink. Only exits of real vendor
// applications arm or re-arm the grace timer; launches, foreign or absent
// identifiers, and ignored daemons are no-ops. A launch during the
// countdown does not cancel it: the timer fires anyway and the
// live-application check skips the kill.
func (c *Controller) HandleEvent(event lifecycle.Event) {
	if event.Kind != lifecycle.Terminated {
		return
	}
	identifier := event.App.Identifier
	if !strings.HasPrefix(identifier, c.policy.VendorPrefix) {
		return
	}
	if c.policy.Ignored(identifier) {
		c.logger.Debug("ignoring background process exit",
			logging.String(logging.FieldEventType, string(event.Kind)),
			logging.String(logging.FieldIdentifier, identifier),
		)
		return
	}
	c.armCountdown(identifier)
}

func (c *Controller) armCountdown(identifier string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.policy.GracePeriod, c.onCountdownFired)
	c.countdownEnds = time.Now().Add(c.policy.GracePeriod)
	if c.state != StateCleaning {
		c.state = StateCountingDown
	}

	c.logger.Info("grace period armed",
		logging.String(logging.FieldEventType, "countdown_armed"),
		logging.String(logging.FieldIdentifier, identifier),
		logging.Duration("grace_period", c.policy.GracePeriod),
	)
}

func (c *Controller) onCountdownFired() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	if c.state == StateCleaning {
		// A pass is already in flight; try again after another full window.
		c.timer = time.AfterFunc(c.policy.GracePeriod, c.onCountdownFired)
		c.countdownEnds = time.Now().Add(c.policy.GracePeriod)
		c.mu.Unlock()
		return
	}
	c.timer = nil
	ctx := c.ctx
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if _, err := c.sweep(ctx, history.CauseDebounce); err != nil && !errors.Is(err, context.Canceled) {
			logging.ErrorWithContext(c.logger, "debounce sweep failed", "debounce_sweep_failed", logging.Error(err))
		}
	}()
}

// Sweep runs a cleanup pass immediately, bypassing the countdown. The
// live-application check still applies.
func (c *Controller) Sweep(ctx context.Context) (history.Sweep, error) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return history.Sweep{}, errors.New("janitor not running")
	}
	c.mu.Unlock()
	return c.sweep(ctx, history.CauseManual)
}

func (c *Controller) sweep(ctx context.Context, cause string) (history.Sweep, error) {
	if err := ctx.Err(); err != nil {
		return history.Sweep{}, err
	}
	started := time.Now().UTC()
	c.beginCleaning()
	defer c.finishCleaning()

	survivors, err := c.liveRealApps(ctx)
	if err != nil {
		sweep := c.record(ctx, history.Sweep{
			Cause:     cause,
			Decision:  history.DecisionFailed,
			Pattern:   c.pattern(),
			Stderr:    err.Error(),
			StartedAt: started,
		})
		return sweep, err
	}

	if len(survivors) > 0 {
		c.logger.Info("cleanup skipped; applications still running",
			logging.String(logging.FieldEventType, "cleanup_skipped"),
			logging.String("cause", cause),
			logging.Int("running_apps", len(survivors)),
		)
		sweep := c.record(ctx, history.Sweep{
			Cause:     cause,
			Decision:  history.DecisionSkipped,
			Pattern:   c.pattern(),
			Survivors: survivors,
			StartedAt: started,
		})
		return sweep, nil
	}

	result, killErr := c.runKill(ctx)
	if killErr != nil && (errors.Is(killErr, context.Canceled) || ctx.Err() != nil) {
		return history.Sweep{}, ctx.Err()
	}

	decision := history.DecisionSwept
	if killErr != nil {
		decision = history.DecisionFailed
	}
	sweep := c.record(ctx, history.Sweep{
		Cause:     cause,
		Decision:  decision,
		Pattern:   c.pattern(),
		ExitCode:  result.ExitCode,
		Stdout:    result.Stdout,
		Stderr:    result.Stderr,
		StartedAt: started,
	})

	c.notifyCompleted(ctx, result)
	return sweep, nil
}

// liveRealApps suspends the watcher, snapshots running applications, and
// restarts the watcher before returning. Lifecycle events during the
// suspension are lost; the poller re-baselines on restart.
func (c *Controller) liveRealApps(ctx context.Context) ([]string, error) {
	c.watcher.Stop()
	defer c.resumeWatcher()

	queryCtx, cancel := context.WithTimeout(ctx, appQueryTimeout)
	defer cancel()

	handles, err := c.directory.Running(queryCtx)
	if err != nil {
		logging.ErrorWithContext(c.logger, "application snapshot failed; cleanup aborted", "app_query_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check /proc availability and permissions"),
		)
		return nil, err
	}

	seen := make(map[string]struct{})
	var real []string
	for _, handle := range handles {
		if !c.policy.Qualifies(handle.Identifier) {
			continue
		}
		if _, dup := seen[handle.Identifier]; dup {
			continue
		}
		seen[handle.Identifier] = struct{}{}
		real = append(real, handle.Identifier)
	}
	sort.Strings(real)
	return real, nil
}

func (c *Controller) resumeWatcher() {
	c.mu.Lock()
	running := c.running
	ctx := c.ctx
	c.mu.Unlock()
	if !running {
		return
	}
	if err := c.watcher.Start(ctx); err != nil {
		logging.ErrorWithContext(c.logger, "watcher restart failed", "watcher_restart_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "restart the daemon to recover lifecycle tracking"),
		)
	}
}

func (c *Controller) runKill(ctx context.Context) (killer.Result, error) {
	type outcome struct {
		result killer.Result
		err    error
	}
	done := make(chan outcome, 1)
	c.killer.Kill(ctx, func(result killer.Result, err error) {
		done <- outcome{result, err}
	})

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		return killer.Result{}, ctx.Err()
	}
}

func (c *Controller) record(ctx context.Context, sweep history.Sweep) history.Sweep {
	sweep.FinishedAt = time.Now().UTC()
	if c.recorder != nil {
		recorded, err := c.recorder.RecordSweep(ctx, sweep)
		if err != nil {
			logging.WarnWithContext(c.logger, "sweep not recorded", "history_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "history output will miss this sweep"),
			)
		} else {
			sweep = recorded
		}
	}

	c.mu.Lock()
	copied := sweep
	c.lastSweep = &copied
	c.mu.Unlock()
	return sweep
}

func (c *Controller) notifyCompleted(ctx context.Context, result killer.Result) {
	if c.notifier == nil {
		return
	}
	err := c.notifier.NotifyCleanupCompleted(ctx, notifications.CleanupOutcome{
		Pattern:  c.pattern(),
		ExitCode: result.ExitCode,
		Matched:  result.Matched(),
	})
	if err != nil {
		logging.WarnWithContext(c.logger, "cleanup notification failed", "notify_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "no push notification was delivered"),
		)
	}
}

func (c *Controller) beginCleaning() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.state = StateCleaning
}

func (c *Controller) finishCleaning() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateCleaning {
		return
	}
	if c.timer != nil {
		c.state = StateCountingDown
	} else {
		c.state = StateIdle
	}
}

func (c *Controller) pattern() string {
	type patterned interface{ Pattern() string }
	if p, ok := c.killer.(patterned); ok {
		return p.Pattern()
	}
	return c.policy.VendorPrefix
}

// Status describes the controller for IPC consumers.
type Status struct {
	State              State          `json:"state"`
	VendorPrefix       string         `json:"vendor_prefix"`
	Pattern            string         `json:"pattern"`
	GracePeriod        time.Duration  `json:"grace_period"`
	CountdownRemaining time.Duration  `json:"countdown_remaining"`
	LastSweep          *history.Sweep `json:"last_sweep,omitempty"`
}

// Status returns a snapshot of the controller state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := Status{
		State:        c.state,
		VendorPrefix: c.policy.VendorPrefix,
		Pattern:      c.pattern(),
		GracePeriod:  c.policy.GracePeriod,
	}
	if c.state == StateCountingDown {
		if remaining := time.Until(c.countdownEnds); remaining > 0 {
			status.CountdownRemaining = remaining
		}
	}
	if c.lastSweep != nil {
		copied := *c.lastSweep
		status.LastSweep = &copied
	}
	return status
}

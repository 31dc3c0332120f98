package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"broom/internal/apps"
	"broom/internal/config"
	"broom/internal/history"
	"broom/internal/janitor"
	"broom/internal/killer"
	"broom/internal/lifecycle"
	"broom/internal/logging"
	"broom/internal/notifications"
)

// retentionInterval is how often old sweeps are purged from history.
const retentionInterval = 12 * time.Hour

// Daemon owns the janitor controller and its supporting services for one
// broomd process. A file lock keeps it single-instance per log directory.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	lockPath string
	lock     *flock.Flock

	store      *history.Store
	notifier   notifications.Service
	controller *janitor.Controller

	mu           sync.Mutex
	running      bool
	retainCancel context.CancelFunc
	retainWg     sync.WaitGroup
	startedAt    time.Time
}

// Status reports daemon-level state to IPC consumers.
type Status struct {
	Running       bool
	PID           int
	LockFilePath  string
	HistoryDBPath string
	LogPath       string
	StartedAt     time.Time
	Janitor       janitor.Status
}

// New wires a daemon from configuration. The history store is opened
// immediately; the controller does not start until Start.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires configuration")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	daemon := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		lockPath: filepath.Join(cfg.Paths.LogDir, "broomd.lock"),
		notifier: notifications.NewService(cfg),
	}
	daemon.lock = flock.New(daemon.lockPath)

	if cfg.History.Enabled {
		store, err := history.Open(cfg)
		if err != nil {
			return nil, fmt.Errorf("open history store: %w", err)
		}
		daemon.store = store
	}

	directory := apps.NewProcDirectory(logger)
	deps := janitor.Deps{
		NewWatcher: func(sink lifecycle.Sink) lifecycle.Watcher {
			poller := lifecycle.NewPoller(cfg, directory, sink, logger)
			poller.OnDegraded = daemon.reportWatcherDegraded
			return poller
		},
		Directory: directory,
		Killer:    killer.NewPkill(cfg, logger),
		Notifier:  daemon.notifier,
	}
	if daemon.store != nil {
		deps.Recorder = daemon.store
	}
	daemon.controller = janitor.NewController(janitor.PolicyFromConfig(cfg), deps, logger)

	return daemon, nil
}

// Start acquires the daemon lock and begins watching.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another broom daemon holds %s", d.lockPath)
	}

	if err := d.controller.Start(ctx); err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("start janitor: %w", err)
	}

	if d.store != nil {
		retainCtx, cancel := context.WithCancel(ctx)
		d.retainCancel = cancel
		d.retainWg.Add(1)
		go d.retentionLoop(retainCtx)
	}

	d.running = true
	d.startedAt = time.Now()
	d.logger.Info("broom daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
	)
	return nil
}

// Stop halts the controller and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	retainCancel := d.retainCancel
	d.retainCancel = nil
	d.mu.Unlock()

	if retainCancel != nil {
		retainCancel()
	}
	d.retainWg.Wait()
	d.controller.Stop()

	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale lock may block the next start"),
		)
	}
	d.logger.Info("broom daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close releases resources held since New. Call after Stop.
func (d *Daemon) Close() error {
	return d.store.Close()
}

// Running reports whether Start has succeeded and Stop has not been called.
func (d *Daemon) Running() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// Status collects daemon and janitor state.
func (d *Daemon) Status(context.Context) Status {
	d.mu.Lock()
	running := d.running
	startedAt := d.startedAt
	d.mu.Unlock()

	status := Status{
		Running:      running,
		PID:          os.Getpid(),
		LockFilePath: d.lockPath,
		LogPath:      d.LogPath(),
		StartedAt:    startedAt,
		Janitor:      d.controller.Status(),
	}
	if d.store != nil {
		status.HistoryDBPath = filepath.Join(d.cfg.Paths.LogDir, "history.db")
	}
	return status
}

// Sweep runs a cleanup pass immediately.
func (d *Daemon) Sweep(ctx context.Context) (history.Sweep, error) {
	return d.controller.Sweep(ctx)
}

// History returns recent sweeps, newest first.
func (d *Daemon) History(ctx context.Context, limit int) ([]history.Sweep, error) {
	if d.store == nil {
		return nil, errors.New("history is disabled in configuration")
	}
	return d.store.RecentSweeps(ctx, limit)
}

// TestNotification sends a test push and reports the outcome.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, err.Error(), err
	}
	return true, "test notification sent", nil
}

// LogPath returns the daemon log file location.
func (d *Daemon) LogPath() string {
	return filepath.Join(d.cfg.Paths.LogDir, "broom.log")
}

func (d *Daemon) reportWatcherDegraded(cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.notifier.NotifyWatcherDegraded(ctx, cause); err != nil {
		logging.WarnWithContext(d.logger, "degradation notification failed", "notify_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "no push notification was delivered"),
		)
	}
}

func (d *Daemon) retentionLoop(ctx context.Context) {
	defer d.retainWg.Done()

	retention := time.Duration(d.cfg.History.RetentionDays) * 24 * time.Hour
	d.purge(ctx, retention)

	ticker := time.NewTicker(retentionInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.purge(ctx, retention)
		}
	}
}

func (d *Daemon) purge(ctx context.Context, retention time.Duration) {
	removed, err := d.store.PurgeOlderThan(ctx, retention)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		logging.WarnWithContext(d.logger, "history retention purge failed", "history_purge_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "old sweeps will accumulate until the next purge"),
		)
		return
	}
	if removed > 0 {
		d.logger.Info("purged old sweeps",
			logging.String(logging.FieldEventType, "history_purged"),
			logging.Int64("removed", removed),
		)
	}
}

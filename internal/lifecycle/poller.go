package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"broom/internal/apps"
	"broom/internal/config"
	"broom/internal/logging"
)

// degradedThreshold is the number of consecutive snapshot failures before the
// watcher reports itself degraded.
const degradedThreshold = 3

// Poller is a Watcher that diffs application directory snapshots on a fixed
// cadence.
type Poller struct {
	directory apps.Directory
	prefix    string
	interval  time.Duration
	sink      Sink
	logger    *slog.Logger

	// OnDegraded, when set, fires once per degradation episode after
	// several consecutive snapshot failures.
	OnDegraded func(error)

	mu       sync.Mutex
	running  bool
	snapshot map[int32]string
	failures int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPoller builds a poller over the configured vendor namespace. Events for
// identifiers outside the namespace are never delivered.
func NewPoller(cfg *config.Config, directory apps.Directory, sink Sink, logger *slog.Logger) *Poller {
	interval := time.Duration(cfg.Watch.PollInterval) * time.Second
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Poller{
		directory: directory,
		prefix:    cfg.Watch.VendorPrefix,
		interval:  interval,
		sink:      sink,
		logger:    logging.NewComponentLogger(logger, "lifecycle"),
	}
}

func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return errors.New("lifecycle poller already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.ctx = runCtx
	p.cancel = cancel
	p.running = true
	p.snapshot = nil
	p.failures = 0

	p.wg.Add(1)
	go p.loop(runCtx)
	return nil
}

func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()

	// The first poll only records the baseline.
	p.poll(ctx, false)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx, true)
		}
	}
}

func (p *Poller) poll(ctx context.Context, emit bool) {
	queryCtx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	handles, err := p.directory.Running(queryCtx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.recordFailure(err)
		return
	}
	p.recordSuccess()

	current := make(map[int32]string, len(handles))
	for _, handle := range handles {
		if !strings.HasPrefix(handle.Identifier, p.prefix) {
			continue
		}
		current[handle.PID] = handle.Identifier
	}

	p.mu.Lock()
	previous := p.snapshot
	p.snapshot = current
	p.mu.Unlock()

	if !emit {
		return
	}

	now := time.Now()
	for pid, identifier := range previous {
		if _, alive := current[pid]; alive {
			continue
		}
		p.deliver(Event{Kind: Terminated, App: apps.Handle{PID: pid, Identifier: identifier}, At: now})
	}
	for pid, identifier := range current {
		if _, known := previous[pid]; known {
			continue
		}
		p.deliver(Event{Kind: Launched, App: apps.Handle{PID: pid, Identifier: identifier}, At: now})
	}
}

func (p *Poller) deliver(event Event) {
	p.logger.Debug("lifecycle event",
		logging.String(logging.FieldEventType, string(event.Kind)),
		logging.String(logging.FieldIdentifier, event.App.Identifier),
		logging.Int("pid", int(event.App.PID)),
	)
	if p.sink != nil {
		p.sink(event)
	}
}

func (p *Poller) recordFailure(err error) {
	p.mu.Lock()
	p.failures++
	failures := p.failures
	p.mu.Unlock()

	logging.WarnWithContext(p.logger, "application snapshot failed; will retry", "snapshot_failed",
		logging.Error(err),
		logging.Int("consecutive_failures", failures),
		logging.String(logging.FieldErrorHint, "check /proc availability and permissions"),
		logging.String(logging.FieldImpact, "lifecycle events may be delayed"),
	)

	if failures == degradedThreshold && p.OnDegraded != nil {
		p.OnDegraded(err)
	}
}

func (p *Poller) recordSuccess() {
	p.mu.Lock()
	p.failures = 0
	p.mu.Unlock()
}

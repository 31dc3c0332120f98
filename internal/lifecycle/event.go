package lifecycle

import (
	"context"
	"time"

	"broom/internal/apps"
)

// Kind discriminates lifecycle event types.
type Kind string

const (
	// Launched marks a process appearing in the watched namespace.
	Launched Kind = "launched"
	// Terminated marks a watched process exiting.
	Terminated Kind = "terminated"
)

// Event describes one application lifecycle transition.
type Event struct {
	Kind Kind
	App  apps.Handle
	At   time.Time
}

// Sink receives lifecycle events. Implementations must not block; events are
// delivered sequentially from a single watcher goroutine.
type Sink func(Event)

// Watcher produces lifecycle events between Start and Stop. Stopping and
// restarting discards everything that happened in between.
type Watcher interface {
	Start(ctx context.Context) error
	Stop()
}

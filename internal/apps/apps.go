package apps

import "context"

// Handle describes one running process that carries an application identifier.
// Multi-process applications yield one handle per live PID.
type Handle struct {
	PID        int32
	Identifier string
}

// Directory enumerates the currently running identified applications.
type Directory interface {
	Running(ctx context.Context) ([]Handle, error)
}

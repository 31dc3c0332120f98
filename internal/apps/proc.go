package apps

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/process"

	"broom/internal/logging"
)

// ProcDirectory resolves running applications from the local process table.
type ProcDirectory struct {
	logger   *slog.Logger
	procRoot string
}

// NewProcDirectory constructs a directory backed by /proc.
func NewProcDirectory(logger *slog.Logger) *ProcDirectory {
	return &ProcDirectory{
		logger:   logging.NewComponentLogger(logger, "apps"),
		procRoot: "/proc",
	}
}

// Running returns one handle per live process with a determinable
// application identifier.
func (d *ProcDirectory) Running(ctx context.Context) ([]Handle, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}

	handles := make([]Handle, 0, 16)
	for _, proc := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		identifier := d.identify(ctx, proc)
		if identifier == "" {
			continue
		}
		handles = append(handles, Handle{PID: proc.Pid, Identifier: identifier})
	}
	return handles, nil
}

func (d *ProcDirectory) identify(ctx context.Context, proc *process.Process) string {
	data, err := os.ReadFile(filepath.Join(d.procRoot, strconv.Itoa(int(proc.Pid)), "cgroup"))
	if err == nil {
		if id := identifierFromCgroup(data); id != "" {
			return id
		}
	}

	// Sandboxed helpers can live outside an app scope; the runtime still
	// stamps their environment.
	env, err := proc.EnvironWithContext(ctx)
	if err != nil {
		// Routinely fails for other users' processes and kernel threads.
		d.logger.Debug("environment unavailable", logging.Int("pid", int(proc.Pid)), logging.Error(err))
		return ""
	}
	for _, entry := range env {
		if value, ok := strings.CutPrefix(entry, "FLATPAK_ID="); ok {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// Package deps reports availability of the external pieces broom relies on:
// the pkill binary used for cleanup and the proc filesystem used to watch
// application lifecycles.
package deps

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"broom/internal/config"
)

// Requirement defines an external dependency broom relies on.
type Requirement struct {
	Name        string
	Command     string
	Path        string
	Description string
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Available   bool
	Detail      string
}

// ForConfig returns the requirements implied by the given configuration.
func ForConfig(cfg *config.Config) []Requirement {
	pkill := "pkill"
	if cfg != nil {
		pkill = cfg.PkillBinary()
	}
	return []Requirement{
		{
			Name:        "pkill",
			Command:     pkill,
			Description: "terminates lingering vendor daemons",
		},
		{
			Name:        "procfs",
			Path:        "/proc",
			Description: "process table used to watch application lifecycles",
		},
	}
}

// Check evaluates the provided requirements and reports availability.
func Check(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, check(req))
	}
	return results
}

// Available reports whether every requirement is satisfied.
func Available(statuses []Status) bool {
	for _, status := range statuses {
		if !status.Available {
			return false
		}
	}
	return true
}

func check(req Requirement) Status {
	status := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
	}

	if path := strings.TrimSpace(req.Path); path != "" {
		info, err := os.Stat(path)
		switch {
		case err != nil:
			status.Detail = fmt.Sprintf("path %q not accessible", path)
		case !info.IsDir():
			status.Detail = fmt.Sprintf("path %q is not a directory", path)
		default:
			status.Available = true
		}
		return status
	}

	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	if _, err := exec.LookPath(status.Command); err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}
	status.Available = true
	return status
}

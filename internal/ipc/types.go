package ipc

import (
	"path/filepath"
	"time"

	"broom/internal/config"
	"broom/internal/history"
)

// SocketPath returns the daemon control socket location.
func SocketPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "broomd.sock")
}

// SweepRecord mirrors a history sweep for IPC consumers.
type SweepRecord struct {
	ID         string    `json:"id"`
	Cause      string    `json:"cause"`
	Decision   string    `json:"decision"`
	Pattern    string    `json:"pattern"`
	ExitCode   int       `json:"exit_code"`
	Stdout     string    `json:"stdout"`
	Stderr     string    `json:"stderr"`
	Survivors  []string  `json:"survivors"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

func fromSweep(sweep history.Sweep) SweepRecord {
	return SweepRecord{
		ID:         sweep.ID,
		Cause:      sweep.Cause,
		Decision:   sweep.Decision,
		Pattern:    sweep.Pattern,
		ExitCode:   sweep.ExitCode,
		Stdout:     sweep.Stdout,
		Stderr:     sweep.Stderr,
		Survivors:  append([]string(nil), sweep.Survivors...),
		StartedAt:  sweep.StartedAt,
		FinishedAt: sweep.FinishedAt,
	}
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse describes daemon and janitor state.
type StatusResponse struct {
	Running         bool         `json:"running"`
	PID             int          `json:"pid"`
	State           string       `json:"state"`
	VendorPrefix    string       `json:"vendor_prefix"`
	Pattern         string       `json:"pattern"`
	GracePeriodSecs int          `json:"grace_period_secs"`
	CountdownSecs   int          `json:"countdown_secs"`
	LockPath        string       `json:"lock_path"`
	HistoryDBPath   string       `json:"history_db_path"`
	LastSweep       *SweepRecord `json:"last_sweep,omitempty"`
}

// StopRequest shuts the daemon down.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// SweepRequest runs a cleanup pass immediately.
type SweepRequest struct{}

// SweepResponse carries the recorded sweep.
type SweepResponse struct {
	Sweep SweepRecord `json:"sweep"`
}

// HistoryRequest fetches recent sweeps.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// HistoryResponse contains sweeps, newest first.
type HistoryResponse struct {
	Sweeps []SweepRecord `json:"sweeps"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}

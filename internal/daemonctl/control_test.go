package daemonctl

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLaunchRequiresExecutablePath(t *testing.T) {
	if err := Launch("  ", LaunchOptions{}); err == nil {
		t.Fatal("expected error for empty executable path")
	}
}

func TestWaitForClientTimesOut(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "missing.sock")
	if _, err := WaitForClient(socket, 50*time.Millisecond); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestProcessInfoMissingSocket(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "missing.sock")
	reachable, pid, err := ProcessInfo(socket)
	if err != nil {
		t.Fatalf("ProcessInfo: %v", err)
	}
	if reachable || pid != 0 {
		t.Fatalf("expected unreachable daemon, got reachable=%v pid=%d", reachable, pid)
	}
}

func TestProcessAlive(t *testing.T) {
	if !ProcessAlive(os.Getpid()) {
		t.Fatal("current process must be alive")
	}
	if ProcessAlive(0) {
		t.Fatal("pid 0 must not count as alive")
	}
}

func TestForceKillProcessRefusesSelf(t *testing.T) {
	dir := t.TempDir()
	pidPath := filepath.Join(dir, "broomd.pid")
	if err := os.WriteFile(pidPath, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write pid file: %v", err)
	}

	if _, err := ForceKillProcess(pidPath, "", os.Getpid()); err == nil {
		t.Fatal("expected refusal to kill the current process")
	}
}

func TestStopAndTerminateWithoutDaemon(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "broomd.sock")
	if _, err := StopAndTerminate(socket, 50*time.Millisecond); err != ErrDaemonNotRunning {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

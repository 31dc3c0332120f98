package ipc_test

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"broom/internal/config"
	"broom/internal/daemon"
	"broom/internal/ipc"
	"broom/internal/logging"
)

func startServer(t *testing.T) (*ipc.Client, func() bool) {
	t.Helper()
	cfg := config.Default()
	cfg.Watch.VendorPrefix = "com.acme."
	cfg.Paths.LogDir = t.TempDir()

	d, err := daemon.New(&cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	var stopped atomic.Bool
	socket := filepath.Join(cfg.Paths.LogDir, "broomd.sock")
	server, err := ipc.NewServer(context.Background(), socket, d, func() { stopped.Store(true) }, logging.NewNop())
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	server.Serve()
	t.Cleanup(server.Close)

	client, err := ipc.Dial(socket)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, stopped.Load
}

func TestStatusRoundTrip(t *testing.T) {
	client, _ := startServer(t)

	status, err := client.Status()
	if err != nil {
		t.Fatalf("client.Status: %v", err)
	}
	if status.Running {
		t.Fatal("daemon was never started; status must not report running")
	}
	if status.VendorPrefix != "com.acme." {
		t.Fatalf("unexpected vendor prefix %q", status.VendorPrefix)
	}
	if status.State != "idle" {
		t.Fatalf("unexpected state %q", status.State)
	}
}

func TestHistoryRoundTripEmpty(t *testing.T) {
	client, _ := startServer(t)

	resp, err := client.History(10)
	if err != nil {
		t.Fatalf("client.History: %v", err)
	}
	if len(resp.Sweeps) != 0 {
		t.Fatalf("expected empty history, got %d sweeps", len(resp.Sweeps))
	}
}

func TestStopInvokesShutdownHook(t *testing.T) {
	client, wasStopped := startServer(t)

	resp, err := client.Stop()
	if err != nil {
		t.Fatalf("client.Stop: %v", err)
	}
	if !resp.Stopped {
		t.Fatal("expected stopped response")
	}
	if !wasStopped() {
		t.Fatal("expected shutdown hook to fire")
	}
}

func TestSweepBeforeStartReturnsError(t *testing.T) {
	client, _ := startServer(t)

	if _, err := client.Sweep(); err == nil {
		t.Fatal("expected sweep to fail before daemon start")
	}
}

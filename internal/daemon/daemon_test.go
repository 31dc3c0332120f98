package daemon

import (
	"context"
	"testing"

	"broom/internal/config"
	"broom/internal/logging"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Watch.VendorPrefix = "com.acme."
	cfg.Paths.LogDir = t.TempDir()
	return &cfg
}

func TestNewOpensHistoryStore(t *testing.T) {
	cfg := testConfig(t)
	d, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	if d.store == nil {
		t.Fatal("expected history store when history is enabled")
	}

	status := d.Status(context.Background())
	if status.Running {
		t.Fatal("daemon must not report running before Start")
	}
	if status.HistoryDBPath == "" {
		t.Fatal("expected history db path in status")
	}
	if status.Janitor.VendorPrefix != "com.acme." {
		t.Fatalf("unexpected janitor status %+v", status.Janitor)
	}
}

func TestNewSkipsHistoryWhenDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.History.Enabled = false

	d, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	if d.store != nil {
		t.Fatal("expected no history store when history is disabled")
	}
	if _, err := d.History(context.Background(), 5); err == nil {
		t.Fatal("expected History to fail when disabled")
	}
}

func TestSweepFailsBeforeStart(t *testing.T) {
	d, err := New(testConfig(t), logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	if _, err := d.Sweep(context.Background()); err == nil {
		t.Fatal("expected Sweep to fail before Start")
	}
}

func TestStopBeforeStartIsSafe(t *testing.T) {
	d, err := New(testConfig(t), logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	d.Stop()
	if d.Running() {
		t.Fatal("daemon must not report running")
	}
}

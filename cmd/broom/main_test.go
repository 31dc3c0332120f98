package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"broom/internal/config"
	"broom/internal/daemon"
	"broom/internal/ipc"
	"broom/internal/logging"
)

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
	cancel     context.CancelFunc
}

// setupCLITestEnv wires a daemon behind a live IPC socket without starting
// the janitor, so no watcher polls and no pkill runs during tests.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Watch.VendorPrefix = "com.acme."
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, &cfgVal)

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	d, err := daemon.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(cfg.Paths.LogDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, func() {}, logging.NewNop())
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})

	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[watch]\nvendor_prefix = %q\n\n[paths]\nlog_dir = %q\n",
		cfg.Watch.VendorPrefix,
		cfg.Paths.LogDir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("expected output to contain %q, got %q", want, output)
	}
}

func TestCLIStatusAgainstStoppedDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "stopped")
	requireContains(t, out, "com.acme.")
	requireContains(t, out, "idle")
}

func TestCLIStatusWithoutSocket(t *testing.T) {
	env := setupCLITestEnv(t)
	missing := filepath.Join(t.TempDir(), "missing.sock")

	out, _, err := runCLI(t, []string{"status"}, missing, env.configPath)
	if err != nil {
		t.Fatalf("status without socket: %v", err)
	}
	requireContains(t, out, "not running")
}

func TestCLIHistoryEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"history"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No sweeps recorded")
}

func TestCLISweepRequiresRunningJanitor(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"sweep"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected sweep to fail while the janitor is stopped")
	}
}

func TestCLITestNotifyWithNotificationsDisabled(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "test notification sent")
}

func TestCLIStopWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	missing := filepath.Join(t.TempDir(), "missing.sock")

	out, _, err := runCLI(t, []string{"stop"}, missing, env.configPath)
	if err != nil {
		t.Fatalf("stop without daemon: %v", err)
	}
	requireContains(t, out, "Daemon is not running")
}

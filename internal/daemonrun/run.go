// Package daemonrun hosts the broomd runtime loop shared by the broomd
// binary and the hidden "broom daemon" command.
package daemonrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"broom/internal/config"
	"broom/internal/daemon"
	"broom/internal/deps"
	"broom/internal/ipc"
	"broom/internal/logging"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
}

// Run starts the broom daemon runtime loop and blocks until a signal or an
// IPC stop request arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return errors.New("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logStartupSnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.LogDir, "broomd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	d, err := daemon.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	// An IPC stop tears the whole process down, same as a signal.
	stopCtx, requestStop := context.WithCancel(signalCtx)
	defer requestStop()

	ipcServer, err := ipc.NewServer(stopCtx, ipc.SocketPath(cfg), d, requestStop, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(stopCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check configuration and that no other broom daemon is running"),
		)
		return err
	}
	defer d.Stop()

	<-stopCtx.Done()
	logger.Info("broom daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logStartupSnapshot(logger *slog.Logger, cfg *config.Config) {
	statuses := deps.Check(deps.ForConfig(cfg))
	logger.Info("startup snapshot",
		logging.String(logging.FieldEventType, "startup_snapshot"),
		logging.String("vendor_prefix", cfg.Watch.VendorPrefix),
		logging.Int("ignore_count", len(cfg.Watch.Ignore)),
		logging.Int("grace_period_secs", cfg.Watch.GracePeriod),
		logging.String("kill_pattern", cfg.KillPattern()),
		logging.Bool("dependencies_available", deps.Available(statuses)),
		logging.Bool("notifications_enabled", strings.TrimSpace(cfg.Notifications.NtfyTopic) != ""),
		logging.Bool("history_enabled", cfg.History.Enabled),
	)
	for _, status := range statuses {
		if status.Available {
			continue
		}
		logging.WarnWithContext(logger, "dependency unavailable", "dependency_missing",
			logging.String("dependency", status.Name),
			logging.String("detail", status.Detail),
			logging.String(logging.FieldImpact, status.Description),
		)
	}
}

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"broom/internal/config"
	"broom/internal/daemonctl"
	"broom/internal/deps"
	"broom/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the broom daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the broom daemon (completely terminates the process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the broom daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				5*time.Second,
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.WasRunning {
				if result.Stop.ForcedKill && result.Stop.PID > 0 {
					fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.Stop.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}
			fmt.Fprintln(stdout, "Daemon restarted")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and janitor status",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newStyler(cmd.OutOrStdout())

			renderDependencies(out, ctx.configValue())
			out.blank()

			client, err := ctx.dialClient()
			if err != nil {
				out.heading("Daemon Status")
				out.line("Daemon", statusError, "not running")
				fmt.Fprintln(cmd.OutOrStdout(), "Start the daemon with `broom start`")
				return nil
			}
			defer client.Close()

			status, err := client.Status()
			if err != nil {
				return fmt.Errorf("fetch daemon status: %w", err)
			}
			renderStatus(out, status)
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			opts.ConfigPath = config
		}
	}
	return opts
}

func renderDependencies(out *styler, cfg *config.Config) {
	out.heading("Dependencies")
	for _, status := range deps.Check(deps.ForConfig(cfg)) {
		if status.Available {
			out.line(status.Name, statusOK, "Ready")
			continue
		}
		detail := status.Detail
		if detail == "" {
			detail = "not available"
		}
		out.line(status.Name, statusError, detail)
	}
}

func renderStatus(out *styler, status *ipc.StatusResponse) {
	out.heading("Daemon Status")

	daemonKind := statusOK
	daemonDetail := fmt.Sprintf("running (pid %d)", status.PID)
	if !status.Running {
		daemonKind = statusWarn
		daemonDetail = "stopped"
	}
	out.line("Daemon", daemonKind, daemonDetail)
	out.line("Janitor state", janitorStateKind(status.State), status.State)
	out.line("Vendor prefix", statusInfo, status.VendorPrefix)
	out.line("Kill pattern", statusInfo, status.Pattern)
	out.line("Grace period", statusInfo, formatSeconds(status.GracePeriodSecs))
	if status.State == "counting_down" {
		out.line("Cleanup in", statusWarn, formatSeconds(status.CountdownSecs))
	}
	out.line("History", statusInfo, historyDetail(status.HistoryDBPath))

	if status.LastSweep != nil {
		out.blank()
		out.heading("Last Sweep")
		sweep := status.LastSweep
		out.line("When", statusInfo, sweep.FinishedAt.Local().Format(time.RFC1123))
		out.line("Cause", statusInfo, sweep.Cause)
		out.line("Decision", decisionKind(sweep.Decision), sweep.Decision)
		if len(sweep.Survivors) > 0 {
			out.line("Survivors", statusInfo, strings.Join(sweep.Survivors, ", "))
		}
	}
}

func janitorStateKind(state string) statusKind {
	switch state {
	case "counting_down":
		return statusWarn
	case "cleaning":
		return statusWarn
	default:
		return statusOK
	}
}

func decisionKind(decision string) statusKind {
	switch decision {
	case "failed":
		return statusError
	case "skipped":
		return statusWarn
	default:
		return statusOK
	}
}

func historyDetail(dbPath string) string {
	if strings.TrimSpace(dbPath) == "" {
		return "disabled"
	}
	return dbPath
}

func formatSeconds(secs int) string {
	return (time.Duration(secs) * time.Second).String()
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"broom/internal/ipc"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run a cleanup pass immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Sweep()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				sweep := resp.Sweep
				switch sweep.Decision {
				case "swept":
					fmt.Fprintf(stdout, "Swept: killed processes matching %q (pkill exit %d)\n", sweep.Pattern, sweep.ExitCode)
				case "skipped":
					if len(sweep.Survivors) > 0 {
						fmt.Fprintf(stdout, "Skipped: applications still running (%s)\n", strings.Join(sweep.Survivors, ", "))
					} else {
						fmt.Fprintln(stdout, "Skipped: nothing to clean up")
					}
				case "failed":
					fmt.Fprintf(stdout, "Failed: %s\n", sweep.Stderr)
				default:
					fmt.Fprintf(stdout, "Sweep finished with decision %q\n", sweep.Decision)
				}
				return nil
			})
		},
	}
}

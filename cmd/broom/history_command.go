package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"broom/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent cleanup sweeps",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(limit)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Sweeps) == 0 {
					fmt.Fprintln(stdout, "No sweeps recorded")
					return nil
				}
				fmt.Fprintln(stdout, renderSweepTable(resp.Sweeps))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of sweeps to show")
	return cmd
}

func renderSweepTable(sweeps []ipc.SweepRecord) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Finished", "Cause", "Decision", "Exit", "Survivors"})
	for _, sweep := range sweeps {
		tw.AppendRow(table.Row{
			sweep.FinishedAt.Local().Format(time.DateTime),
			sweep.Cause,
			sweep.Decision,
			sweep.ExitCode,
			strings.Join(sweep.Survivors, ", "),
		})
	}
	// Exit codes read right-aligned; everything else stays left.
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"broom/internal/ipc"
)

func newTestNotifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification through the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestNotification()
				if err != nil {
					return fmt.Errorf("test notification: %w", err)
				}
				if resp == nil {
					return errors.New("daemon returned no notification response")
				}
				if !resp.Sent {
					if resp.Message != "" {
						return fmt.Errorf("notification not sent: %s", resp.Message)
					}
					return errors.New("notification not sent")
				}

				stdout := cmd.OutOrStdout()
				if resp.Message != "" {
					fmt.Fprintln(stdout, resp.Message)
				} else {
					fmt.Fprintln(stdout, "Test notification sent")
				}
				return nil
			})
		},
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether a desktop is running",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := newClient().GetStatus()
		if err != nil {
			return err
		}
		fmt.Printf("session_id:     %s\n", status.SessionID)
		fmt.Printf("version:        %s\n", status.Version)
		fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
		fmt.Printf("open_windows:   %d\n", status.OpenWindows)
		fmt.Printf("focused:        %s\n", status.Focused)
		fmt.Printf("state_version:  %d\n", status.StateVersion)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

package handlers

import (
	"github.com/spf13/cobra"

	"commentlens/internal/tui"
)

var watchCmd = &cobra.Command{
	Use:   "watch <job-id>",
	Short: "Watch an analysis job's progress in the terminal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		return tui.Run(a.service, args[0])
	},
}

package handlers

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var maintenanceMaxAge time.Duration

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show system statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		stats, err := a.service.SystemStats()
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var maintenanceCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Purge expired cache entries and stale records",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.service.Maintenance(maintenanceMaxAge); err != nil {
			return err
		}
		fmt.Println("Maintenance complete.")
		return nil
	},
}

func init() {
	maintenanceCmd.Flags().DurationVar(&maintenanceMaxAge, "max-age", 30*24*time.Hour, "age past which terminal jobs and superseded results are removed")
}

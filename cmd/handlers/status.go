package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the status of an analysis job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		job, err := a.store.GetJob(args[0])
		if err != nil {
			return err
		}

		if statusJSON {
			out, err := json.MarshalIndent(job, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		fmt.Printf("Job:      %s\n", job.ID)
		fmt.Printf("Post:     %s\n", job.PostID)
		fmt.Printf("Status:   %s\n", job.Status)
		fmt.Printf("Progress: %d%%\n", job.Progress)
		if job.StepDescription != "" {
			fmt.Printf("Step:     %s (%d/%d)\n", job.StepDescription, job.CurrentStep, job.TotalSteps)
		}
		fmt.Printf("Attempts: %d\n", job.Attempts)
		if job.Error != "" {
			fmt.Printf("Error:    %s\n", job.Error)
		}
		return nil
	},
}

var resultCmd = &cobra.Command{
	Use:   "result <post-id>",
	Short: "Show the latest analysis result for a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		result, err := a.store.FindLatestResult(args[0])
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("no result for post %s", args[0])
		}
		return printResult(result)
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <job-id>",
	Short: "Cancel a pending or running analysis job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.service.Cancel(args[0]); err != nil {
			return err
		}
		fmt.Printf("Job %s cancelled.\n", args[0])
		return nil
	},
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "print the job as JSON")
	resultCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the result as JSON")
}

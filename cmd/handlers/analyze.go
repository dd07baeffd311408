package handlers

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"commentlens/internal/core"
)

var (
	analyzeUser     string
	analyzeComments []string
	analyzeInput    string
	analyzeJSON     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <post-id>",
	Short: "Analyze the comments on a post",
	Long: `Submits an analysis job for the post and waits for it to finish. A fresh
cached result is returned immediately without running the pipeline. Use
--input to import a JSON comment file before analyzing.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

var importCmd = &cobra.Command{
	Use:   "import <comments.json>",
	Short: "Import comments from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeUser, "user", "", "requesting user id")
	analyzeCmd.Flags().StringSliceVar(&analyzeComments, "comments", nil, "restrict analysis to these comment ids")
	analyzeCmd.Flags().StringVar(&analyzeInput, "input", "", "JSON comment file to import first")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print the result as JSON")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	postID := args[0]

	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	if analyzeInput != "" {
		if err := importFile(a, analyzeInput); err != nil {
			return err
		}
	}

	job, cached, err := a.service.RequestAnalysis(postID, analyzeUser, analyzeComments)
	if err != nil {
		return err
	}
	if cached != nil {
		fmt.Println("Served from cache.")
		return printResult(cached)
	}

	fmt.Printf("Job %s submitted.\n", job.ID)

	final, err := waitForJob(a, job.ID)
	if err != nil {
		return err
	}

	switch final.Status {
	case core.JobCompleted:
		result, err := a.service.GetResult(job.ID)
		if err != nil {
			return err
		}
		return printResult(result)
	case core.JobFailed:
		return fmt.Errorf("job failed after %d attempts: %s", final.Attempts, final.Error)
	default:
		return fmt.Errorf("job ended %s", final.Status)
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	return importFile(a, args[0])
}

func importFile(a *app, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read comment file: %w", err)
	}

	var comments []core.Comment
	if err := json.Unmarshal(data, &comments); err != nil {
		return fmt.Errorf("failed to parse comment file: %w", err)
	}

	if err := a.service.ImportComments(comments); err != nil {
		return err
	}
	fmt.Printf("Imported %d comments.\n", len(comments))
	return nil
}

// waitForJob polls the job until it reaches a terminal state, printing
// progress transitions along the way.
func waitForJob(a *app, jobID string) (*core.AnalysisJob, error) {
	lastStep := -1
	for {
		job, err := a.service.GetStatus(jobID)
		if err != nil {
			return nil, err
		}
		if job.CurrentStep != lastStep && job.StepDescription != "" {
			fmt.Printf("  [%d%%] %s\n", job.Progress, job.StepDescription)
			lastStep = job.CurrentStep
		}
		if job.Terminal() {
			return job, nil
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func printResult(result *core.AnalysisResult) error {
	if analyzeJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Println()
	fmt.Printf("Post %s (analyzed %s)\n", result.PostID, result.AnalyzedAt.Format(time.RFC3339))
	fmt.Printf("Quality %.2f", result.QualityScore)
	if result.ModelUsed != "" {
		fmt.Printf("  (model: %s)", result.ModelUsed)
	} else {
		fmt.Printf("  (heuristic fallback)")
	}
	fmt.Println()
	fmt.Println()
	fmt.Println(result.Summary)
	fmt.Println()

	fmt.Printf("Sentiment: %.0f%% positive / %.0f%% negative / %.0f%% neutral\n",
		result.Breakdown.Positive*100, result.Breakdown.Negative*100, result.Breakdown.Neutral*100)
	fmt.Printf("Comments: %d received, %d filtered\n", result.TotalComments, result.FilteredComments)

	if len(result.Emotions) > 0 {
		parts := make([]string, 0, len(result.Emotions))
		for _, e := range result.Emotions {
			parts = append(parts, fmt.Sprintf("%s (%.0f%%)", e.Emotion, e.Prevalence))
		}
		fmt.Printf("Emotions: %s\n", strings.Join(parts, ", "))
	}
	if len(result.KeyInsights) > 0 {
		fmt.Println("\nKey insights:")
		for _, in := range result.KeyInsights {
			fmt.Printf("  - %s\n", in)
		}
	}
	if len(result.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for _, rec := range result.Recommendations {
			fmt.Printf("  - %s\n", rec)
		}
	}
	return nil
}

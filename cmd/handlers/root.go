package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"commentlens/internal/cache"
	"commentlens/internal/config"
	"commentlens/internal/jobs"
	"commentlens/internal/llm"
	"commentlens/internal/logger"
	"commentlens/internal/pipeline"
	"commentlens/internal/preprocess"
	"commentlens/internal/sentiment"
	"commentlens/internal/services"
	"commentlens/internal/store"
	"commentlens/internal/summary"
	"commentlens/internal/themes"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "commentlens",
	Short: "Comment analytics for social-media posts",
	Long: `commentlens analyzes the comments on a social-media post: it filters
spam and toxicity, classifies sentiment, clusters discussion themes and
produces a quality-scored narrative summary.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Init()

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		logger.SetLevel(cfg.Logging.Level)
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default .commentlens.yaml)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(resultCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(maintenanceCmd)
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app bundles the wired components behind the service facade.
type app struct {
	service      *services.AnalysisService
	orchestrator *jobs.Orchestrator
	cache        *cache.ResultCache
	store        *store.Store
}

// buildApp wires store, cache, model client, pipeline and orchestrator from
// the loaded config. The orchestrator's scheduler is started.
func buildApp() (*app, error) {
	st, err := store.NewStore(cfg.App.DataDir)
	if err != nil {
		return nil, err
	}

	resultCache := cache.NewResultCache(
		cfg.Cache.MaxEntries,
		config.GetDuration(cfg.Cache.TTL, cache.DefaultTTL),
		st)

	gen := buildGenerator()

	retryDelay := config.GetDuration(cfg.Pipeline.RetryDelay, 0)
	classifier := sentiment.NewClassifier(gen, cfg.Pipeline.BatchSize, cfg.Pipeline.RetryAttempts, retryDelay)
	engine := themes.NewEngine(cfg.Clustering.SimilarityThreshold, cfg.Clustering.MinKeywordFrequency, cfg.Clustering.MaxThemes)
	generator := summary.NewGenerator(gen, cfg.Pipeline.RetryAttempts, retryDelay,
		cfg.Summary.MinWords, cfg.Summary.MaxWords, cfg.Summary.QualityThreshold)

	runner := pipeline.NewRunner(st, st, resultCache, preprocess.NewPreprocessor(), classifier, engine, generator)

	orchestrator := jobs.NewOrchestrator(
		cfg.Pipeline.MaxConcurrentJobs,
		cfg.Pipeline.RetryAttempts,
		config.GetDuration(cfg.Pipeline.SchedulerTick, 0),
		st)
	orchestrator.RegisterPipeline(runner)
	orchestrator.Start()

	return &app{
		service:      services.NewAnalysisService(orchestrator, resultCache, st),
		orchestrator: orchestrator,
		cache:        resultCache,
		store:        st,
	}, nil
}

// buildGenerator selects the model client per config. A missing key degrades
// to the unavailable generator so heuristic fallbacks still produce results.
func buildGenerator() llm.TextGenerator {
	switch cfg.AI.Provider {
	case "openai":
		timeout := config.GetDuration(cfg.AI.OpenAI.Timeout, 0)
		client, err := llm.NewOpenAIClient(cfg.AI.OpenAI.Model, cfg.AI.OpenAI.BaseURL, timeout)
		if err != nil {
			logger.Warn("openai client unavailable, falling back to heuristics", "error", err.Error())
			return llm.Unavailable{Reason: err.Error()}
		}
		return client
	default:
		timeout := config.GetDuration(cfg.AI.Gemini.Timeout, 0)
		client, err := llm.NewClient(cfg.AI.Gemini.Model, timeout)
		if err != nil {
			logger.Warn("gemini client unavailable, falling back to heuristics", "error", err.Error())
			return llm.Unavailable{Reason: err.Error()}
		}
		return client
	}
}

func (a *app) close() {
	a.orchestrator.Stop()
	if err := a.store.Close(); err != nil {
		logger.Warn("failed to close store", "error", err.Error())
	}
}

package pipeline

import (
	"context"
	"fmt"

	"commentlens/internal/core"
	"commentlens/internal/logger"
	"commentlens/internal/preprocess"
	"commentlens/internal/sentiment"
	"commentlens/internal/summary"
	"commentlens/internal/themes"
)

// Step descriptions surfaced through job progress.
const (
	StepPreprocess = "Filtering spam, toxicity and duplicates"
	StepClassify   = "Classifying sentiment"
	StepCluster    = "Clustering themes"
	StepSummarize  = "Generating summary"
	StepPersist    = "Persisting result"
)

// CommentSource supplies the comments under analysis. The SQLite store
// satisfies it.
type CommentSource interface {
	FindComments(postID string) ([]core.Comment, error)
}

// ResultSink receives the terminal artifact. The SQLite store satisfies it.
type ResultSink interface {
	SaveAnalysisResult(result core.AnalysisResult) error
}

// ResultCache is the hot tier populated after persistence.
type ResultCache interface {
	Put(result core.AnalysisResult)
}

// Runner executes the five-stage analysis pipeline for one job: preprocess,
// classify, cluster, summarize, persist. Model failures degrade to fallbacks
// inside the stages; only infrastructure failures surface as errors.
type Runner struct {
	source       CommentSource
	sink         ResultSink
	cache        ResultCache
	preprocessor *preprocess.Preprocessor
	classifier   *sentiment.Classifier
	engine       *themes.Engine
	generator    *summary.Generator
}

// NewRunner wires the pipeline stages. cache may be nil.
func NewRunner(source CommentSource, sink ResultSink, cache ResultCache, preprocessor *preprocess.Preprocessor, classifier *sentiment.Classifier, engine *themes.Engine, generator *summary.Generator) *Runner {
	return &Runner{
		source:       source,
		sink:         sink,
		cache:        cache,
		preprocessor: preprocessor,
		classifier:   classifier,
		engine:       engine,
		generator:    generator,
	}
}

// Run performs one analysis attempt for the job. report is invoked after each
// completed step.
func (r *Runner) Run(ctx context.Context, job core.AnalysisJob, report func(step int, description string)) (*core.AnalysisResult, error) {
	comments, err := r.source.FindComments(job.PostID)
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}
	comments = selectComments(comments, job.CommentIDs)

	// Step 1: preprocess.
	filtered := r.preprocessor.Filter(comments)
	report(1, StepPreprocess)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Debug("preprocessing done",
		"post_id", job.PostID,
		"total", filtered.Stats.Total,
		"passed", filtered.Stats.Passed)

	// Step 2: classify sentiment.
	results, sentimentSummary := r.classifier.AnalyzeBatch(ctx, filtered.Filtered)
	report(2, StepClassify)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 3: cluster themes and extract keywords.
	analysis := r.engine.AnalyzeThemes(filtered.Filtered, results)
	report(3, StepCluster)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 4: generate the narrative summary.
	result := r.generator.Generate(ctx, summary.Stats{
		PostID:           job.PostID,
		Comments:         filtered.Filtered,
		Results:          results,
		Breakdown:        sentimentSummary.Breakdown,
		Themes:           analysis.Themes,
		Keywords:         analysis.Keywords,
		TotalComments:    filtered.Stats.Total,
		FilteredComments: filtered.Stats.Total - filtered.Stats.Passed,
	})
	report(4, StepSummarize)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 5: persist to the store and warm the cache.
	if r.sink != nil {
		if err := r.sink.SaveAnalysisResult(result); err != nil {
			return nil, fmt.Errorf("failed to persist result: %w", err)
		}
	}
	if r.cache != nil {
		r.cache.Put(result)
	}
	report(5, StepPersist)

	return &result, nil
}

// selectComments restricts the input to an explicit comment ID subset when
// the job carries one.
func selectComments(comments []core.Comment, ids []string) []core.Comment {
	if len(ids) == 0 {
		return comments
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	selected := make([]core.Comment, 0, len(ids))
	for _, c := range comments {
		if wanted[c.ID] {
			selected = append(selected, c)
		}
	}
	return selected
}

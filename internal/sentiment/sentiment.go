package sentiment

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"commentlens/internal/core"
	"commentlens/internal/llm"
	"commentlens/internal/logger"
)

// BatchPromptTemplate asks the model for one structured line per comment.
// Kept as a named template rendered from a parameter struct so prompt content
// is testable without a network call.
const BatchPromptTemplate = `You are a sentiment classifier for social-media comments.
For each numbered comment below, output exactly one line in this format:

<number>|<POSITIVE or NEGATIVE or NEUTRAL>|<confidence between 0.0 and 1.0>|<comma-separated emotion tags or "none">

Output nothing but those lines.

Comments:
%s`

// BatchPrompt is the parameter record for BatchPromptTemplate.
type BatchPrompt struct {
	Comments []core.Comment
}

// Render produces the final prompt text.
func (p BatchPrompt) Render() string {
	var b strings.Builder
	for i, c := range p.Comments {
		fmt.Fprintf(&b, "%d. %s\n", i+1, c.Text)
	}
	return fmt.Sprintf(BatchPromptTemplate, b.String())
}

// Summary aggregates a classification run.
type Summary struct {
	Breakdown     core.SentimentBreakdown `json:"breakdown"`
	PositiveCount int                     `json:"positive_count"`
	NegativeCount int                     `json:"negative_count"`
	NeutralCount  int                     `json:"neutral_count"`
	FallbackCount int                     `json:"fallback_count"` // Results produced without the model
	Issues        []string                `json:"issues"`         // Validation findings, informational only
}

// Classifier batches comments, calls the language model for structured
// per-comment sentiment, and falls back to lexical heuristics when the model
// is unavailable or returns unusable output. It never fails a batch outright.
type Classifier struct {
	gen           llm.TextGenerator
	batchSize     int
	retryAttempts int
	retryDelay    time.Duration
}

// NewClassifier creates a classifier. Zero values select the defaults
// (batch size 20, 3 attempts, 2s base delay).
func NewClassifier(gen llm.TextGenerator, batchSize, retryAttempts int, retryDelay time.Duration) *Classifier {
	if batchSize <= 0 {
		batchSize = 20
	}
	if retryAttempts <= 0 {
		retryAttempts = 3
	}
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}
	return &Classifier{
		gen:           gen,
		batchSize:     batchSize,
		retryAttempts: retryAttempts,
		retryDelay:    retryDelay,
	}
}

// AnalyzeBatch classifies all comments and returns per-comment results plus an
// aggregate summary. Results are returned in input order.
func (c *Classifier) AnalyzeBatch(ctx context.Context, comments []core.Comment) ([]core.SentimentResult, Summary) {
	var results []core.SentimentResult

	for start := 0; start < len(comments); start += c.batchSize {
		end := start + c.batchSize
		if end > len(comments) {
			end = len(comments)
		}
		results = append(results, c.classifyChunk(ctx, comments[start:end])...)
	}

	summary := Summarize(results)
	summary.Issues = ValidateResults(results, summary.Breakdown)
	return results, summary
}

// classifyChunk classifies one batch via the model, retrying with linearly
// increasing delay; exhausted retries fall back to heuristic classification.
func (c *Classifier) classifyChunk(ctx context.Context, comments []core.Comment) []core.SentimentResult {
	prompt := BatchPrompt{Comments: comments}.Render()

	var lastErr error
	for attempt := 1; attempt <= c.retryAttempts; attempt++ {
		response, err := c.gen.GenerateText(ctx, prompt, llm.TextGenerationOptions{
			MaxTokens:   int32(64 * len(comments)),
			Temperature: 0.1,
		})
		if err == nil {
			return c.parseResponse(response, comments)
		}
		lastErr = err
		logger.Warn("sentiment batch call failed", "attempt", attempt, "error", err.Error())
		if attempt < c.retryAttempts {
			select {
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				attempt = c.retryAttempts
			}
		}
	}

	logger.Error("sentiment batch fell back to heuristics", lastErr, "comments", len(comments))
	results := make([]core.SentimentResult, 0, len(comments))
	for _, comment := range comments {
		results = append(results, ClassifyHeuristic(comment))
	}
	return results
}

// parseResponse maps model output lines back onto comments. Comments whose
// line is absent or malformed receive a neutral zero-confidence fallback.
func (c *Classifier) parseResponse(response string, comments []core.Comment) []core.SentimentResult {
	parsed := make(map[int]core.SentimentResult)

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		parts := strings.Split(line, "|")
		if len(parts) < 3 {
			continue
		}

		idx, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil || idx < 1 || idx > len(comments) {
			continue
		}

		class, ok := parseClass(parts[1])
		if !ok {
			continue
		}

		confidence, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil || confidence < 0 || confidence > 1 {
			continue
		}

		var emotions []string
		if len(parts) > 3 {
			for _, e := range strings.Split(parts[3], ",") {
				e = strings.ToLower(strings.TrimSpace(e))
				if e != "" && e != "none" {
					emotions = append(emotions, e)
				}
			}
		}

		parsed[idx-1] = core.SentimentResult{
			CommentID:  comments[idx-1].ID,
			Sentiment:  class,
			Confidence: confidence,
			Emotions:   emotions,
			Source:     "model",
		}
	}

	results := make([]core.SentimentResult, 0, len(comments))
	for i, comment := range comments {
		if r, ok := parsed[i]; ok {
			results = append(results, r)
			continue
		}
		results = append(results, core.SentimentResult{
			CommentID:  comment.ID,
			Sentiment:  core.SentimentNeutral,
			Confidence: 0,
			Source:     "fallback",
		})
	}
	return results
}

func parseClass(s string) (core.SentimentClass, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "POSITIVE":
		return core.SentimentPositive, true
	case "NEGATIVE":
		return core.SentimentNegative, true
	case "NEUTRAL":
		return core.SentimentNeutral, true
	}
	return "", false
}

// Summarize computes the sentiment breakdown over a result set.
func Summarize(results []core.SentimentResult) Summary {
	s := Summary{}
	for _, r := range results {
		switch r.Sentiment {
		case core.SentimentPositive:
			s.PositiveCount++
		case core.SentimentNegative:
			s.NegativeCount++
		default:
			s.NeutralCount++
		}
		if r.Source == "fallback" {
			s.FallbackCount++
		}
	}
	total := len(results)
	if total > 0 {
		s.Breakdown = core.SentimentBreakdown{
			Positive: float64(s.PositiveCount) / float64(total),
			Negative: float64(s.NegativeCount) / float64(total),
			Neutral:  float64(s.NeutralCount) / float64(total),
		}
	}
	return s
}

// ValidateResults checks the aggregate distribution for internal consistency
// and reports issues without failing the batch.
func ValidateResults(results []core.SentimentResult, breakdown core.SentimentBreakdown) []string {
	var issues []string

	if len(results) > 0 {
		sum := breakdown.Positive + breakdown.Negative + breakdown.Neutral
		if sum < 0.99 || sum > 1.01 {
			issues = append(issues, fmt.Sprintf("sentiment fractions sum to %.3f, expected ~1", sum))
		}
	}

	for _, r := range results {
		if r.Confidence < 0 || r.Confidence > 1 {
			issues = append(issues, fmt.Sprintf("comment %s has confidence %.3f outside [0,1]", r.CommentID, r.Confidence))
		}
	}

	return issues
}

package summary

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"commentlens/internal/core"
	"commentlens/internal/llm"
	"commentlens/internal/logger"
	"commentlens/internal/sentiment"
)

// NarrativePromptTemplate requests the narrative report. Kept as a named
// template rendered from a parameter struct so prompt content is testable
// without a network call.
const NarrativePromptTemplate = `You are writing an analytics report on social-media comments for a post.

Statistics:
- Total comments analyzed: %d
- Sentiment: %.0f%% positive, %.0f%% negative, %.0f%% neutral
- Top themes: %s
- Top keywords: %s

Write a 3-5 sentence narrative summary (75-150 words) of how the audience
responded. Mention at least one percentage figure. Write plain prose with no
markdown, lists or headings.`

// PromptParams is the parameter record for NarrativePromptTemplate.
type PromptParams struct {
	TotalComments int
	Breakdown     core.SentimentBreakdown
	Themes        []core.Theme
	Keywords      []core.Keyword
}

// Render produces the final prompt text.
func (p PromptParams) Render() string {
	themes := make([]string, 0, 3)
	for i, t := range p.Themes {
		if i >= 3 {
			break
		}
		themes = append(themes, fmt.Sprintf("%s (%d comments, %s)", t.Name, t.Frequency, strings.ToLower(string(t.Sentiment))))
	}
	if len(themes) == 0 {
		themes = append(themes, "none detected")
	}

	keywords := make([]string, 0, 5)
	for i, k := range p.Keywords {
		if i >= 5 {
			break
		}
		keywords = append(keywords, k.Token)
	}
	if len(keywords) == 0 {
		keywords = append(keywords, "none")
	}

	return fmt.Sprintf(NarrativePromptTemplate,
		p.TotalComments,
		p.Breakdown.Positive*100, p.Breakdown.Negative*100, p.Breakdown.Neutral*100,
		strings.Join(themes, "; "),
		strings.Join(keywords, ", "))
}

// Stats is the aggregated input to summary generation.
type Stats struct {
	PostID           string
	Comments         []core.Comment // Comments that passed the preprocessor
	Results          []core.SentimentResult
	Breakdown        core.SentimentBreakdown
	Themes           []core.Theme
	Keywords         []core.Keyword
	TotalComments    int // Comments received by the pipeline
	FilteredComments int // Comments excluded by the preprocessor
}

// Generator synthesizes the narrative analysis report. Invalid or erroring
// generations are retried with linear backoff; exhausted retries produce a
// deterministic template-based fallback so the pipeline always terminates
// with a result.
type Generator struct {
	gen              llm.TextGenerator
	retryAttempts    int
	retryDelay       time.Duration
	minWords         int
	maxWords         int
	qualityThreshold float64
}

// NewGenerator creates a generator; zero values select the defaults
// (3 attempts, 2s base delay, 75-150 word target, 0.6 quality threshold).
func NewGenerator(gen llm.TextGenerator, retryAttempts int, retryDelay time.Duration, minWords, maxWords int, qualityThreshold float64) *Generator {
	if retryAttempts <= 0 {
		retryAttempts = 3
	}
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}
	if minWords <= 0 {
		minWords = 75
	}
	if maxWords <= 0 {
		maxWords = 150
	}
	if qualityThreshold <= 0 {
		qualityThreshold = 0.6
	}
	return &Generator{
		gen:              gen,
		retryAttempts:    retryAttempts,
		retryDelay:       retryDelay,
		minWords:         minWords,
		maxWords:         maxWords,
		qualityThreshold: qualityThreshold,
	}
}

// Generate produces the AnalysisResult for the aggregated stats.
func (g *Generator) Generate(ctx context.Context, stats Stats) core.AnalysisResult {
	if len(stats.Comments) == 0 {
		return g.emptyResult(stats)
	}

	emotions := g.deriveEmotions(stats)
	insights := g.deriveInsights(stats)
	recommendations := g.deriveRecommendations(stats)

	prompt := PromptParams{
		TotalComments: len(stats.Comments),
		Breakdown:     stats.Breakdown,
		Themes:        stats.Themes,
		Keywords:      stats.Keywords,
	}.Render()

	for attempt := 1; attempt <= g.retryAttempts; attempt++ {
		text, err := g.gen.GenerateText(ctx, prompt, llm.TextGenerationOptions{
			MaxTokens:   512,
			Temperature: 0.5,
		})
		if err != nil {
			logger.Warn("summary generation failed", "attempt", attempt, "error", err.Error())
		} else {
			text = PostProcess(text)
			result := g.assemble(stats, text, emotions, insights, recommendations, g.gen.ModelName())
			quality, issues := Validate(result, g.minWords, g.maxWords)
			result.QualityScore = quality

			if len(issues) == 0 && quality >= g.qualityThreshold {
				return result
			}
			logger.Warn("summary failed quality rubric", "attempt", attempt, "quality", quality, "issues", strings.Join(issues, "; "))
		}

		if attempt < g.retryAttempts {
			select {
			case <-time.After(g.retryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				attempt = g.retryAttempts
			}
		}
	}

	logger.Warn("summary generation exhausted retries, using fallback", "post_id", stats.PostID)
	return g.fallbackResult(stats, emotions, insights, recommendations)
}

// emptyResult is returned immediately for zero eligible comments; no model call.
func (g *Generator) emptyResult(stats Stats) core.AnalysisResult {
	return core.AnalysisResult{
		ID:               uuid.NewString(),
		PostID:           stats.PostID,
		Summary:          "No comments were eligible for analysis. The post has not received enough analyzable engagement yet.",
		WordCount:        17,
		QualityScore:     0.5,
		TotalComments:    stats.TotalComments,
		FilteredComments: stats.FilteredComments,
		AnalyzedAt:       time.Now().UTC(),
	}
}

// fallbackResult builds a deterministic summary purely from the aggregated
// statistics, guaranteeing output even under total model outage.
func (g *Generator) fallbackResult(stats Stats, emotions []core.EmotionScore, insights, recommendations []string) core.AnalysisResult {
	var b strings.Builder
	total := len(stats.Comments)
	fmt.Fprintf(&b, "Analysis of %d comments shows %.0f%% positive, %.0f%% negative and %.0f%% neutral sentiment. ",
		total, stats.Breakdown.Positive*100, stats.Breakdown.Negative*100, stats.Breakdown.Neutral*100)

	if len(stats.Themes) > 0 {
		top := stats.Themes[0]
		fmt.Fprintf(&b, "The most discussed theme is %q with %d comments and an overall %s tone. ",
			top.Name, top.Frequency, strings.ToLower(string(top.Sentiment)))
	}
	if len(stats.Keywords) > 0 {
		fmt.Fprintf(&b, "The term %q appears most prominently across the discussion. ", stats.Keywords[0].Token)
	}
	if stats.FilteredComments > 0 {
		fmt.Fprintf(&b, "%d comments were excluded as spam, toxic or duplicates before analysis.", stats.FilteredComments)
	}

	text := PostProcess(b.String())
	result := g.assemble(stats, text, emotions, insights, recommendations, "")
	result.QualityScore = 0.4 // Fixed depressed score signals degraded confidence.
	return result
}

func (g *Generator) assemble(stats Stats, text string, emotions []core.EmotionScore, insights, recommendations []string, model string) core.AnalysisResult {
	return core.AnalysisResult{
		ID:               uuid.NewString(),
		PostID:           stats.PostID,
		Summary:          text,
		WordCount:        len(strings.Fields(text)),
		Emotions:         emotions,
		KeyInsights:      insights,
		Recommendations:  recommendations,
		Breakdown:        stats.Breakdown,
		TotalComments:    stats.TotalComments,
		FilteredComments: stats.FilteredComments,
		ModelUsed:        model,
		AnalyzedAt:       time.Now().UTC(),
	}
}

// deriveEmotions infers up to 3 dominant emotions from classifier tags and the
// emotion lexicon. Prevalence is the percentage of comments exhibiting the
// emotion, so each value is bounded by 100.
func (g *Generator) deriveEmotions(stats Stats) []core.EmotionScore {
	tagged := make(map[string][]string) // emotion -> sample texts
	counts := make(map[string]int)

	modelTags := make(map[string][]string, len(stats.Results))
	for _, r := range stats.Results {
		modelTags[r.CommentID] = r.Emotions
	}

	for _, c := range stats.Comments {
		seen := make(map[string]bool)
		for _, tag := range modelTags[c.ID] {
			seen[tag] = true
		}
		for _, tag := range sentiment.DetectEmotions(c.Text) {
			seen[tag] = true
		}
		for tag := range seen {
			counts[tag]++
			if len(tagged[tag]) < 3 {
				tagged[tag] = append(tagged[tag], c.Text)
			}
		}
	}

	emotions := make([]core.EmotionScore, 0, len(counts))
	total := float64(len(stats.Comments))
	for tag, count := range counts {
		emotions = append(emotions, core.EmotionScore{
			Emotion:    tag,
			Prevalence: float64(count) / total * 100,
			Samples:    tagged[tag],
		})
	}

	sort.Slice(emotions, func(i, j int) bool {
		if emotions[i].Prevalence != emotions[j].Prevalence {
			return emotions[i].Prevalence > emotions[j].Prevalence
		}
		return emotions[i].Emotion < emotions[j].Emotion
	})
	if len(emotions) > 3 {
		emotions = emotions[:3]
	}
	return emotions
}

// deriveInsights templates up to 4 key insights from the aggregates.
func (g *Generator) deriveInsights(stats Stats) []string {
	var insights []string
	total := len(stats.Comments)

	switch {
	case stats.Breakdown.Positive >= 0.6:
		insights = append(insights, fmt.Sprintf("Audience response is strongly positive (%.0f%% of comments).", stats.Breakdown.Positive*100))
	case stats.Breakdown.Negative >= 0.6:
		insights = append(insights, fmt.Sprintf("Audience response is strongly negative (%.0f%% of comments).", stats.Breakdown.Negative*100))
	case stats.Breakdown.Positive > stats.Breakdown.Negative:
		insights = append(insights, fmt.Sprintf("Sentiment leans positive (%.0f%% vs %.0f%% negative).", stats.Breakdown.Positive*100, stats.Breakdown.Negative*100))
	default:
		insights = append(insights, fmt.Sprintf("Sentiment leans negative (%.0f%% vs %.0f%% positive).", stats.Breakdown.Negative*100, stats.Breakdown.Positive*100))
	}

	if len(stats.Themes) > 0 && total > 0 {
		top := stats.Themes[0]
		share := float64(top.Frequency) / float64(total) * 100
		insights = append(insights, fmt.Sprintf("The theme %q accounts for %.0f%% of the discussion.", top.Name, share))
	}

	if len(stats.Keywords) > 0 {
		kw := stats.Keywords[0]
		insights = append(insights, fmt.Sprintf("The keyword %q appears %d times with %s sentiment.", kw.Token, kw.Frequency, strings.ToLower(string(kw.Sentiment))))
	}

	if stats.TotalComments > 0 && stats.FilteredComments > 0 {
		ratio := float64(stats.FilteredComments) / float64(stats.TotalComments) * 100
		insights = append(insights, fmt.Sprintf("%.0f%% of incoming comments were filtered as spam, toxic or duplicate.", ratio))
	}

	if len(insights) > 4 {
		insights = insights[:4]
	}
	return insights
}

// deriveRecommendations templates up to 3 recommendations from polarity and
// engagement volume.
func (g *Generator) deriveRecommendations(stats Stats) []string {
	var recs []string

	switch {
	case stats.Breakdown.Negative >= 0.5:
		recs = append(recs, "Address the most common complaints directly in a follow-up post or pinned reply.")
	case stats.Breakdown.Positive >= 0.5:
		recs = append(recs, "Amplify this content format; the audience responds well to it.")
	default:
		recs = append(recs, "Engage the neutral majority with a question or call to action to surface stronger signals.")
	}

	if len(stats.Themes) > 0 {
		recs = append(recs, fmt.Sprintf("Create follow-up content around %q, the most active discussion theme.", stats.Themes[0].Name))
	}

	if len(stats.Comments) >= 50 {
		recs = append(recs, "Engagement volume is high; consider enabling comment moderation to keep discussion quality up.")
	} else if len(stats.Comments) > 0 {
		recs = append(recs, "Reply to top comments to boost engagement while volume is manageable.")
	}

	if len(recs) > 3 {
		recs = recs[:3]
	}
	return recs
}

package themes

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"commentlens/internal/core"
)

const (
	// DefaultSimilarityThreshold is the Jaccard similarity required for a
	// comment to be absorbed into a cluster on the first pass.
	DefaultSimilarityThreshold = 0.15
	// DefaultMaxThemes caps the number of retained themes.
	DefaultMaxThemes = 10
	// singletonCoherence is assigned to single-member clusters, which have no
	// pairwise similarities to average.
	singletonCoherence = 0.5
	// smallSetLimit relaxes the retention rule for sparse inputs.
	smallSetLimit = 6

	maxThemeKeywords        = 5
	maxRepresentatives      = 3
	fallbackThemeName       = "General Discussion"
	representativeWeightLen = 0.7
	representativeWeightLik = 0.3
)

// Analysis is the output of a clustering run.
type Analysis struct {
	Themes   []core.Theme   `json:"themes"`
	Keywords []core.Keyword `json:"keywords"`
	Summary  ThemeSummary   `json:"summary"`
}

// ThemeSummary aggregates clustering statistics.
type ThemeSummary struct {
	ThemeCount        int    `json:"theme_count"`
	ClusteredComments int    `json:"clustered_comments"`
	TopTheme          string `json:"top_theme"`
}

// Engine clusters comments into named themes by lexical similarity and
// extracts weighted keywords. Purely deterministic; no model calls.
type Engine struct {
	similarityThreshold float64
	minKeywordFrequency int
	maxThemes           int
}

// NewEngine creates an engine; zero values select the defaults.
func NewEngine(similarityThreshold float64, minKeywordFrequency, maxThemes int) *Engine {
	if similarityThreshold <= 0 {
		similarityThreshold = DefaultSimilarityThreshold
	}
	if minKeywordFrequency <= 0 {
		minKeywordFrequency = 2
	}
	if maxThemes <= 0 {
		maxThemes = DefaultMaxThemes
	}
	return &Engine{
		similarityThreshold: similarityThreshold,
		minKeywordFrequency: minKeywordFrequency,
		maxThemes:           maxThemes,
	}
}

// AnalyzeThemes extracts keywords and clusters the comments into themes.
// sentimentResults are matched to comments by CommentID.
func (e *Engine) AnalyzeThemes(comments []core.Comment, sentimentResults []core.SentimentResult) Analysis {
	sentiments := make(map[string]core.SentimentClass, len(sentimentResults))
	for _, r := range sentimentResults {
		sentiments[r.CommentID] = r.Sentiment
	}

	keywords := ExtractKeywords(comments, sentiments, e.minKeywordFrequency)

	tokenSets := make([]map[string]bool, len(comments))
	for i, c := range comments {
		tokenSets[i] = toSet(Tokenize(c.Text))
	}

	matrix := similarityMatrix(tokenSets)
	clusters := e.cluster(comments, tokenSets, sentiments, matrix)

	themes := e.buildThemes(clusters, comments, tokenSets, sentiments, matrix, keywords)

	summary := ThemeSummary{ThemeCount: len(themes)}
	for _, t := range themes {
		summary.ClusteredComments += t.Frequency
	}
	if len(themes) > 0 {
		summary.TopTheme = themes[0].Name
	}

	return Analysis{Themes: themes, Keywords: keywords, Summary: summary}
}

// similarityMatrix builds the symmetric pairwise Jaccard matrix over the
// comments' token sets.
func similarityMatrix(tokenSets []map[string]bool) [][]float64 {
	n := len(tokenSets)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim := jaccard(tokenSets[i], tokenSets[j])
			matrix[i][j] = sim
			matrix[j][i] = sim
		}
	}
	return matrix
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// cluster greedily groups comments in original order. A seed absorbs every
// still-unassigned comment whose similarity meets the threshold; singleton
// seeds get a relaxed second pass based on shared-token counts.
func (e *Engine) cluster(comments []core.Comment, tokenSets []map[string]bool, sentiments map[string]core.SentimentClass, matrix [][]float64) [][]int {
	n := len(comments)
	assigned := make([]bool, n)
	var clusters [][]int

	for i := 0; i < n; i++ {
		if assigned[i] {
			continue
		}

		members := []int{i}
		assigned[i] = true

		for j := 0; j < n; j++ {
			if assigned[j] {
				continue
			}
			if matrix[i][j] >= e.similarityThreshold {
				members = append(members, j)
				assigned[j] = true
			}
		}

		// Relaxed pass: a lone seed absorbs comments sharing two tokens, or a
		// single token when the sentiment also matches.
		if len(members) == 1 {
			for j := 0; j < n; j++ {
				if assigned[j] {
					continue
				}
				shared := sharedTokens(tokenSets[i], tokenSets[j])
				if shared >= 2 || (shared >= 1 && sentiments[comments[i].ID] == sentiments[comments[j].ID]) {
					members = append(members, j)
					assigned[j] = true
				}
			}
		}

		clusters = append(clusters, members)
	}

	return clusters
}

func sharedTokens(a, b map[string]bool) int {
	count := 0
	for tok := range a {
		if b[tok] {
			count++
		}
	}
	return count
}

// buildThemes applies the retention rules, caps and sorts clusters, and
// materializes each retained cluster as a named Theme.
func (e *Engine) buildThemes(clusters [][]int, comments []core.Comment, tokenSets []map[string]bool, sentiments map[string]core.SentimentClass, matrix [][]float64, keywords []core.Keyword) []core.Theme {
	smallSet := len(comments) <= smallSetLimit

	var retained [][]int
	for _, members := range clusters {
		if len(members) >= 2 {
			retained = append(retained, members)
			continue
		}
		// Sparse inputs still yield themes for any comment with real tokens.
		if smallSet && len(members) == 1 && len(tokenSets[members[0]]) > 0 {
			retained = append(retained, members)
		}
	}

	sort.SliceStable(retained, func(i, j int) bool {
		return len(retained[i]) > len(retained[j])
	})
	if len(retained) > e.maxThemes {
		retained = retained[:e.maxThemes]
	}

	keywordSet := make(map[string]bool, len(keywords))
	for _, kw := range keywords {
		keywordSet[kw.Token] = true
	}

	themes := make([]core.Theme, 0, len(retained))
	for _, members := range retained {
		theme := core.Theme{
			ID:        uuid.NewString(),
			Coherence: coherence(members, matrix),
		}

		for _, idx := range members {
			theme.CommentIDs = append(theme.CommentIDs, comments[idx].ID)
		}
		theme.Frequency = len(theme.CommentIDs)

		theme.Sentiment = dominantSentiment(members, comments, sentiments)
		theme.Keywords = topClusterTokens(members, tokenSets, keywordSet, maxThemeKeywords)
		theme.Representative = representatives(members, comments)
		theme.Name = themeName(theme.Keywords, theme.Representative)

		themes = append(themes, theme)
	}

	return themes
}

// coherence is the mean pairwise similarity among members; singletons default
// to 0.5.
func coherence(members []int, matrix [][]float64) float64 {
	if len(members) < 2 {
		return singletonCoherence
	}
	var sum float64
	var pairs int
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			sum += matrix[members[i]][members[j]]
			pairs++
		}
	}
	return sum / float64(pairs)
}

func dominantSentiment(members []int, comments []core.Comment, sentiments map[string]core.SentimentClass) core.SentimentClass {
	votes := make(map[core.SentimentClass]int)
	for _, idx := range members {
		class := sentiments[comments[idx].ID]
		if class == "" {
			class = core.SentimentNeutral
		}
		votes[class]++
	}
	dominant := core.SentimentNeutral
	best := -1
	for _, class := range []core.SentimentClass{core.SentimentPositive, core.SentimentNegative, core.SentimentNeutral} {
		if votes[class] > best {
			best = votes[class]
			dominant = class
		}
	}
	return dominant
}

// topClusterTokens picks the most frequent tokens across member comments,
// preferring tokens that also appear in the extracted keyword list. Ties
// break alphabetically so naming is deterministic.
func topClusterTokens(members []int, tokenSets []map[string]bool, keywordSet map[string]bool, limit int) []string {
	counts := make(map[string]int)
	for _, idx := range members {
		for tok := range tokenSets[idx] {
			counts[tok]++
		}
	}

	tokens := make([]string, 0, len(counts))
	for tok := range counts {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool {
		ki, kj := keywordSet[tokens[i]], keywordSet[tokens[j]]
		if ki != kj {
			return ki
		}
		if counts[tokens[i]] != counts[tokens[j]] {
			return counts[tokens[i]] > counts[tokens[j]]
		}
		return tokens[i] < tokens[j]
	})

	if len(tokens) > limit {
		tokens = tokens[:limit]
	}
	return tokens
}

// representatives returns up to 3 member comments maximizing
// textLength*0.7 + likeCount*0.3.
func representatives(members []int, comments []core.Comment) []core.Comment {
	scored := make([]core.Comment, 0, len(members))
	for _, idx := range members {
		scored = append(scored, comments[idx])
	}
	sort.SliceStable(scored, func(i, j int) bool {
		si := float64(len(scored[i].Text))*representativeWeightLen + float64(scored[i].LikeCount)*representativeWeightLik
		sj := float64(len(scored[j].Text))*representativeWeightLen + float64(scored[j].LikeCount)*representativeWeightLik
		return si > sj
	})
	if len(scored) > maxRepresentatives {
		scored = scored[:maxRepresentatives]
	}
	return scored
}

// themeName builds a display name from the top 2-3 cluster tokens. Absent any
// candidate, it falls back deterministically to the representative comment's
// leading tokens, then to a fixed label.
func themeName(tokens []string, representative []core.Comment) string {
	if len(tokens) > 3 {
		tokens = tokens[:3]
	}
	if len(tokens) >= 2 {
		return titleCase(strings.Join(tokens[:min(3, len(tokens))], " "))
	}
	if len(tokens) == 1 {
		return titleCase(tokens[0])
	}

	if len(representative) > 0 {
		lead := Tokenize(representative[0].Text)
		if len(lead) > 0 {
			if len(lead) > 2 {
				lead = lead[:2]
			}
			return titleCase(strings.Join(lead, " "))
		}
	}
	return fallbackThemeName
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func toSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// String renders a short human-readable description, used by CLI output.
func (a Analysis) String() string {
	return fmt.Sprintf("%d themes over %d comments (top: %s)", a.Summary.ThemeCount, a.Summary.ClusteredComments, a.Summary.TopTheme)
}

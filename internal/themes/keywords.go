package themes

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"commentlens/internal/core"
)

const (
	minTokenLength = 3
	maxContexts    = 5
	contextWindow  = 4 // tokens on each side of an occurrence
)

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true, "not": true,
	"you": true, "all": true, "can": true, "her": true, "was": true, "one": true,
	"our": true, "out": true, "has": true, "have": true, "had": true, "this": true,
	"that": true, "with": true, "they": true, "them": true, "their": true,
	"from": true, "just": true, "like": true, "will": true, "would": true,
	"there": true, "what": true, "when": true, "where": true, "which": true,
	"your": true, "about": true, "been": true, "were": true, "these": true,
	"those": true, "than": true, "then": true, "some": true, "very": true,
	"into": true, "over": true, "also": true, "because": true, "really": true,
	"more": true, "most": true, "much": true, "such": true, "only": true,
	"its": true, "it's": true, "dont": true, "don't": true, "doesn't": true,
	"i'm": true, "im": true, "get": true, "got": true, "how": true, "who": true,
	"why": true, "does": true, "did": true, "doing": true, "being": true,
	"should": true, "could": true, "here": true, "still": true, "even": true,
}

// Tokenize splits text into analysis tokens: lowercased, punctuation stripped,
// stop-words and pure numerals dropped, minimum length 3.
func Tokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	flush := func() {
		tok := current.String()
		current.Reset()
		if len(tok) < minTokenLength || stopWords[tok] || isNumeric(tok) {
			return
		}
		tokens = append(tokens, tok)
	}

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			current.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()

	return tokens
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(s) > 0
}

// ExtractKeywords computes TF-IDF weighted keywords over the comment set.
// Tokens below minFrequency total occurrences are dropped. Each keyword
// carries the dominant sentiment of the comments it appears in (majority vote
// weighted by occurrence count) and up to 5 sample contexts.
func ExtractKeywords(comments []core.Comment, sentiments map[string]core.SentimentClass, minFrequency int) []core.Keyword {
	if minFrequency <= 0 {
		minFrequency = 2
	}

	type tokenStats struct {
		frequency int
		docs      int
		votes     map[core.SentimentClass]int
		contexts  []string
	}
	stats := make(map[string]*tokenStats)

	n := len(comments)
	for _, comment := range comments {
		tokens := Tokenize(comment.Text)
		seen := make(map[string]bool)
		sentiment := sentiments[comment.ID]
		if sentiment == "" {
			sentiment = core.SentimentNeutral
		}

		for i, tok := range tokens {
			ts, ok := stats[tok]
			if !ok {
				ts = &tokenStats{votes: make(map[core.SentimentClass]int)}
				stats[tok] = ts
			}
			ts.frequency++
			ts.votes[sentiment]++
			if !seen[tok] {
				ts.docs++
				seen[tok] = true
			}
			if len(ts.contexts) < maxContexts {
				ts.contexts = append(ts.contexts, contextAround(tokens, i))
			}
		}
	}

	var keywords []core.Keyword
	for tok, ts := range stats {
		if ts.frequency < minFrequency {
			continue
		}

		dominant, purity := dominantVote(ts.votes, ts.frequency)
		score := float64(ts.frequency) * math.Log(float64(n)/float64(ts.docs))

		keywords = append(keywords, core.Keyword{
			Token:     tok,
			Frequency: ts.frequency,
			Sentiment: dominant,
			Score:     score,
			Purity:    purity,
			Contexts:  ts.contexts,
		})
	}

	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Score != keywords[j].Score {
			return keywords[i].Score > keywords[j].Score
		}
		return keywords[i].Token < keywords[j].Token
	})

	return keywords
}

// contextAround renders a small token window around position i.
func contextAround(tokens []string, i int) string {
	lo := i - contextWindow
	if lo < 0 {
		lo = 0
	}
	hi := i + contextWindow + 1
	if hi > len(tokens) {
		hi = len(tokens)
	}
	return strings.Join(tokens[lo:hi], " ")
}

// dominantVote returns the majority sentiment and the share of occurrences
// agreeing with it.
func dominantVote(votes map[core.SentimentClass]int, total int) (core.SentimentClass, float64) {
	dominant := core.SentimentNeutral
	best := -1
	for _, class := range []core.SentimentClass{core.SentimentPositive, core.SentimentNegative, core.SentimentNeutral} {
		if votes[class] > best {
			best = votes[class]
			dominant = class
		}
	}
	if total == 0 {
		return dominant, 0
	}
	return dominant, float64(best) / float64(total)
}

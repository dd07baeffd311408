package summary

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"commentlens/internal/core"
)

var (
	percentPattern  = regexp.MustCompile(`\d+(\.\d+)?\s*(%|percent)`)
	emphasisPattern = regexp.MustCompile("[*_#`]+")
	wsPattern       = regexp.MustCompile(`\s+`)
	sentencePattern = regexp.MustCompile(`([.!?])([A-Z])`)
)

// Validate scores a generated result against the quality rubric. The score
// starts at 1.0 and is floored at 0; every deduction is also reported as an
// issue. A result is valid only when issues is empty and the score meets the
// caller's threshold.
func Validate(result core.AnalysisResult, minWords, maxWords int) (float64, []string) {
	quality := 1.0
	var issues []string

	deduct := func(amount float64, issue string) {
		quality -= amount
		issues = append(issues, issue)
	}

	words := len(strings.Fields(result.Summary))
	if words < minWords {
		deduct(0.2, fmt.Sprintf("summary is %d words, below the %d-word target", words, minWords))
	} else if words > maxWords {
		deduct(0.1, fmt.Sprintf("summary is %d words, above the %d-word target", words, maxWords))
	}

	if len(result.Summary) < 50 {
		deduct(0.3, "summary text is under 50 characters")
	}

	if !percentPattern.MatchString(result.Summary) {
		deduct(0.1, "summary contains no percentage figure")
	}

	if len(result.Emotions) == 0 && result.TotalComments-result.FilteredComments > 5 {
		deduct(0.15, "no emotions detected despite more than 5 comments")
	}

	var prevalenceSum float64
	for _, e := range result.Emotions {
		prevalenceSum += e.Prevalence
	}
	if prevalenceSum > 100 {
		deduct(0.2, fmt.Sprintf("aggregate emotion prevalence %.0f exceeds 100", prevalenceSum))
	}

	if len(result.KeyInsights) == 0 {
		deduct(0.1, "no key insights")
	}

	if len(result.Recommendations) == 0 && result.TotalComments > 0 {
		deduct(0.1, "no recommendations for a non-empty dataset")
	}

	if quality < 0 {
		quality = 0
	}
	return quality, issues
}

// PostProcess normalizes model output into presentable prose: markdown
// emphasis stripped, whitespace collapsed, sentence spacing restored, first
// letter capitalized, terminal punctuation ensured.
func PostProcess(text string) string {
	text = emphasisPattern.ReplaceAllString(text, "")
	text = wsPattern.ReplaceAllString(text, " ")
	text = sentencePattern.ReplaceAllString(text, "$1 $2")
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}

	runes := []rune(text)
	runes[0] = unicode.ToUpper(runes[0])
	text = string(runes)

	switch text[len(text)-1] {
	case '.', '!', '?':
	default:
		text += "."
	}
	return text
}

package preprocess

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"commentlens/internal/core"
)

// Result holds the outcome of preprocessing a batch of comments.
type Result struct {
	Filtered []core.Comment // Comments that passed every check, text cleaned
	Spam     []core.Comment // Comments excluded as spam
	Toxic    []core.Comment // Comments excluded as toxic
	Stats    core.FilterStats
}

// Preprocessor cleans comment text and filters spam, toxic and near-duplicate
// comments before analysis. It is deterministic and makes no external calls.
type Preprocessor struct {
	duplicateThreshold float64
}

// NewPreprocessor creates a preprocessor with the default near-duplicate threshold.
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{duplicateThreshold: 0.9}
}

var (
	urlPattern      = regexp.MustCompile(`https?://\S+|www\.\S+`)
	repeatedPattern = regexp.MustCompile(`(.)\1{5,}`)
	wsPattern       = regexp.MustCompile(`\s+`)

	spamKeywords = []string{
		"buy now", "click here", "free money", "limited offer", "subscribe to my",
		"check out my channel", "dm me", "earn cash", "work from home",
		"promo code", "giveaway winner", "crypto signals", "follow back",
	}

	toxicPatterns = []string{
		"idiot", "stupid", "moron", "loser", "trash human", "kill yourself",
		"kys", "hate you", "go die", "dumbass", "pathetic",
	}
)

// Filter applies cleaning, spam, toxicity and duplicate checks to the batch.
// Excluded comments are still returned (flagged) so callers can report stats.
func (p *Preprocessor) Filter(comments []core.Comment) Result {
	res := Result{Stats: core.FilterStats{Total: len(comments)}}

	var accepted []core.Comment
	for _, c := range comments {
		c.Text = CleanText(c.Text)

		if reason, spam := p.checkSpam(c.Text); spam {
			c.IsSpam = true
			c.SpamReason = reason
			res.Spam = append(res.Spam, c)
			res.Stats.Spam++
			continue
		}

		if reason, toxic := p.checkToxicity(c.Text); toxic {
			c.IsToxic = true
			c.ToxicReason = reason
			res.Toxic = append(res.Toxic, c)
			res.Stats.Toxic++
			continue
		}

		if dupOf := p.findDuplicate(c, accepted); dupOf != "" {
			c.IsDuplicate = true
			c.DuplicateOfID = dupOf
			res.Stats.Duplicates++
			continue
		}

		accepted = append(accepted, c)
	}

	res.Filtered = accepted
	res.Stats.Passed = len(accepted)
	return res
}

// CleanText normalizes a comment body: strips HTML fragments that platform
// connectors sometimes deliver, and collapses whitespace.
func CleanText(text string) string {
	if strings.ContainsAny(text, "<>") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
			doc.Find("script, style").Remove()
			text = doc.Text()
		}
	}
	return strings.TrimSpace(wsPattern.ReplaceAllString(text, " "))
}

// checkSpam applies the spam heuristics: keyword lists, URL density,
// excessive capitalization, character repetition and emoji flooding.
func (p *Preprocessor) checkSpam(text string) (string, bool) {
	lower := strings.ToLower(text)

	for _, kw := range spamKeywords {
		if strings.Contains(lower, kw) {
			return fmt.Sprintf("spam keyword: %q", kw), true
		}
	}

	if urls := urlPattern.FindAllString(text, -1); len(urls) >= 2 {
		return fmt.Sprintf("url density: %d links", len(urls)), true
	}

	if letters, upper := countLetters(text); letters >= 12 {
		ratio := float64(upper) / float64(letters)
		if ratio > 0.7 {
			return "excessive capitalization", true
		}
	}

	if repeatedPattern.MatchString(text) {
		return "excessive character repetition", true
	}

	if emoji, total := countEmoji(text); total > 0 && emoji > 10 {
		return "excessive emoji", true
	}

	return "", false
}

// checkToxicity applies the profanity/hate-speech pattern list.
func (p *Preprocessor) checkToxicity(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, pattern := range toxicPatterns {
		if strings.Contains(lower, pattern) {
			return fmt.Sprintf("toxic pattern: %q", pattern), true
		}
	}
	return "", false
}

// findDuplicate returns the id of an already-accepted comment this one
// near-duplicates, or "" if none. Similarity is token-set Jaccard.
func (p *Preprocessor) findDuplicate(c core.Comment, accepted []core.Comment) string {
	tokens := tokenSet(c.Text)
	if len(tokens) == 0 {
		return ""
	}
	for _, other := range accepted {
		if jaccard(tokens, tokenSet(other.Text)) >= p.duplicateThreshold {
			return other.ID
		}
	}
	return ""
}

func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, f := range strings.Fields(strings.ToLower(text)) {
		f = strings.Trim(f, ".,!?;:\"'()")
		if f != "" {
			set[f] = true
		}
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
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

func countLetters(text string) (letters, upper int) {
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	return letters, upper
}

func countEmoji(text string) (emoji, total int) {
	for _, r := range text {
		total++
		if r >= 0x1F300 && r <= 0x1FAFF {
			emoji++
		}
	}
	return emoji, total
}

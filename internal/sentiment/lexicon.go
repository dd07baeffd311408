package sentiment

import (
	"strings"

	"commentlens/internal/core"
)

// Polarity lexicons for heuristic classification when the model endpoint is
// unavailable. Weights reflect how strongly a word signals its polarity.
var positiveLexicon = map[string]float64{
	"love": 1.0, "amazing": 0.9, "excellent": 0.9, "awesome": 0.9, "perfect": 0.8,
	"great": 0.7, "fantastic": 0.8, "wonderful": 0.8, "best": 0.7, "good": 0.6,
	"beautiful": 0.7, "brilliant": 0.8, "helpful": 0.6, "thanks": 0.5, "thank": 0.5,
	"enjoy": 0.6, "enjoyed": 0.6, "happy": 0.6, "glad": 0.5, "impressive": 0.7,
	"favorite": 0.6, "recommend": 0.6, "useful": 0.5, "works": 0.4, "nice": 0.5,
	"win": 0.5, "winner": 0.5, "solid": 0.4, "quality": 0.4, "fast": 0.3,
}

var negativeLexicon = map[string]float64{
	"hate": -1.0, "terrible": -0.9, "awful": -0.9, "horrible": -0.9, "worst": -0.8,
	"bad": -0.6, "disappointing": -0.7, "disappointed": -0.7, "useless": -0.7,
	"broken": -0.6, "scam": -0.8, "waste": -0.6, "poor": -0.6, "slow": -0.4,
	"annoying": -0.5, "boring": -0.5, "wrong": -0.4, "problem": -0.4, "issue": -0.3,
	"fail": -0.6, "failed": -0.6, "refund": -0.5, "bug": -0.4, "crash": -0.5,
	"ugly": -0.5, "overpriced": -0.5, "misleading": -0.6, "never": -0.2,
}

// Emotion tags inferred alongside heuristic polarity.
var emotionLexicon = map[string][]string{
	"joy":          {"love", "happy", "glad", "enjoy", "enjoyed", "wonderful", "amazing"},
	"excitement":   {"awesome", "fantastic", "brilliant", "incredible", "wow", "excited"},
	"satisfaction": {"great", "good", "perfect", "recommend", "quality", "works", "solid"},
	"frustration":  {"annoying", "broken", "slow", "bug", "crash", "problem", "issue", "fail", "failed"},
	"anger":        {"hate", "terrible", "awful", "horrible", "worst", "scam"},
	"disappointment": {"disappointing", "disappointed", "waste", "poor", "refund", "misleading"},
}

// ClassifyHeuristic classifies a single comment using the polarity lexicons.
// Confidence scales with the strength of the matched signal.
func ClassifyHeuristic(comment core.Comment) core.SentimentResult {
	var score float64
	var hits int

	words := strings.Fields(strings.ToLower(comment.Text))
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:\"'()")
		if weight, ok := positiveLexicon[w]; ok {
			score += weight
			hits++
		}
		if weight, ok := negativeLexicon[w]; ok {
			score += weight
			hits++
		}
	}

	class := core.SentimentNeutral
	if score > 0.2 {
		class = core.SentimentPositive
	} else if score < -0.2 {
		class = core.SentimentNegative
	}

	confidence := 0.0
	if hits > 0 {
		confidence = score / float64(hits)
		if confidence < 0 {
			confidence = -confidence
		}
		if confidence > 1 {
			confidence = 1
		}
		// Heuristic results never claim full confidence.
		confidence *= 0.6
	}

	return core.SentimentResult{
		CommentID:  comment.ID,
		Sentiment:  class,
		Confidence: confidence,
		Emotions:   DetectEmotions(comment.Text),
		Source:     "fallback",
	}
}

// DetectEmotions returns emotion tags whose lexicon words appear in the text.
func DetectEmotions(text string) []string {
	lower := " " + strings.ToLower(text) + " "
	var tags []string
	for _, emotion := range []string{"joy", "excitement", "satisfaction", "frustration", "anger", "disappointment"} {
		for _, word := range emotionLexicon[emotion] {
			if strings.Contains(lower, " "+word) {
				tags = append(tags, emotion)
				break
			}
		}
	}
	return tags
}

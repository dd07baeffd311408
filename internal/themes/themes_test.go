package themes

import (
	"math"
	"reflect"
	"testing"

	"commentlens/internal/core"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"basic", "The camera quality blew me away", []string{"camera", "quality", "blew", "away"}},
		{"stopwords dropped", "this is the one that they like", nil},
		{"short tokens dropped", "it is ok to go", nil},
		{"numerals dropped", "scored 100 out of 100 points", []string{"scored", "points"}},
		{"punctuation split", "battery-life: solid!", []string{"battery", "life", "solid"}},
		{"apostrophes kept", "editor's cut", []string{"editor's", "cut"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestJaccard(t *testing.T) {
	a := toSet([]string{"camera", "quality", "great"})
	b := toSet([]string{"camera", "quality", "poor"})

	got := jaccard(a, b)
	want := 2.0 / 4.0
	if math.Abs(got-want) > 0.001 {
		t.Errorf("jaccard = %f, want %f", got, want)
	}

	if jaccard(a, a) != 1.0 {
		t.Error("identical sets must have similarity 1")
	}
	if jaccard(a, map[string]bool{}) != 0 {
		t.Error("empty set must have similarity 0")
	}
}

func TestExtractKeywords(t *testing.T) {
	comments := []core.Comment{
		{ID: "c1", Text: "camera quality amazing camera"},
		{ID: "c2", Text: "camera quality disappointing"},
		{ID: "c3", Text: "shipping took forever"},
	}
	sentiments := map[string]core.SentimentClass{
		"c1": core.SentimentPositive,
		"c2": core.SentimentNegative,
		"c3": core.SentimentNegative,
	}

	keywords := ExtractKeywords(comments, sentiments, 2)

	byToken := make(map[string]core.Keyword)
	for _, kw := range keywords {
		byToken[kw.Token] = kw
	}

	camera, ok := byToken["camera"]
	if !ok {
		t.Fatal("keyword 'camera' missing")
	}
	if camera.Frequency != 3 {
		t.Errorf("camera frequency = %d, want 3", camera.Frequency)
	}
	// tf-idf: 3 * ln(3/2)
	want := 3 * math.Log(3.0/2.0)
	if math.Abs(camera.Score-want) > 0.001 {
		t.Errorf("camera score = %f, want %f", camera.Score, want)
	}
	if camera.Sentiment != core.SentimentPositive {
		t.Errorf("camera sentiment = %s (2 positive occurrences in c1 dominate)", camera.Sentiment)
	}
	if len(camera.Contexts) == 0 || len(camera.Contexts) > 5 {
		t.Errorf("camera contexts = %d, want 1..5", len(camera.Contexts))
	}

	// Below min frequency.
	if _, ok := byToken["shipping"]; ok {
		t.Error("'shipping' appears once and should be dropped")
	}

	for i := 1; i < len(keywords); i++ {
		if keywords[i-1].Score < keywords[i].Score {
			t.Fatal("keywords not sorted by score descending")
		}
	}
}

func TestAnalyzeThemesClustering(t *testing.T) {
	comments := []core.Comment{
		{ID: "c1", Text: "the camera quality is amazing in daylight"},
		{ID: "c2", Text: "camera quality amazing especially daylight shots"},
		{ID: "c3", Text: "battery drains way too fast overnight"},
		{ID: "c4", Text: "battery drains fast even overnight standby"},
		{ID: "c5", Text: "shipping box arrived dented"},
	}
	results := []core.SentimentResult{
		{CommentID: "c1", Sentiment: core.SentimentPositive},
		{CommentID: "c2", Sentiment: core.SentimentPositive},
		{CommentID: "c3", Sentiment: core.SentimentNegative},
		{CommentID: "c4", Sentiment: core.SentimentNegative},
		{CommentID: "c5", Sentiment: core.SentimentNeutral},
	}

	analysis := NewEngine(0, 0, 0).AnalyzeThemes(comments, results)

	if len(analysis.Themes) < 2 {
		t.Fatalf("got %d themes, want at least the camera and battery clusters", len(analysis.Themes))
	}

	for _, theme := range analysis.Themes {
		if theme.Frequency != len(theme.CommentIDs) {
			t.Errorf("theme %q: Frequency %d != len(CommentIDs) %d", theme.Name, theme.Frequency, len(theme.CommentIDs))
		}
		if theme.ID == "" || theme.Name == "" {
			t.Errorf("theme missing id or name: %+v", theme)
		}
		if theme.Coherence < 0 || theme.Coherence > 1 {
			t.Errorf("theme %q coherence %f outside [0,1]", theme.Name, theme.Coherence)
		}
		if len(theme.Representative) == 0 || len(theme.Representative) > 3 {
			t.Errorf("theme %q has %d representatives, want 1..3", theme.Name, len(theme.Representative))
		}
		if len(theme.Keywords) > 5 {
			t.Errorf("theme %q has %d keywords, want at most 5", theme.Name, len(theme.Keywords))
		}
	}

	// Themes sorted by size descending.
	for i := 1; i < len(analysis.Themes); i++ {
		if analysis.Themes[i-1].Frequency < analysis.Themes[i].Frequency {
			t.Fatal("themes not sorted by frequency")
		}
	}

	if analysis.Summary.ThemeCount != len(analysis.Themes) {
		t.Errorf("summary theme count mismatch")
	}
	if analysis.Summary.TopTheme != analysis.Themes[0].Name {
		t.Errorf("top theme %q != first theme %q", analysis.Summary.TopTheme, analysis.Themes[0].Name)
	}
}

func TestAnalyzeThemesGrouping(t *testing.T) {
	comments := []core.Comment{
		{ID: "c1", Text: "the camera quality is amazing in daylight"},
		{ID: "c2", Text: "camera quality amazing especially daylight shots"},
		{ID: "c3", Text: "battery drains way too fast overnight"},
	}
	results := []core.SentimentResult{
		{CommentID: "c1", Sentiment: core.SentimentPositive},
		{CommentID: "c2", Sentiment: core.SentimentPositive},
		{CommentID: "c3", Sentiment: core.SentimentNegative},
	}

	analysis := NewEngine(0, 0, 0).AnalyzeThemes(comments, results)

	var cameraTheme *core.Theme
	for i := range analysis.Themes {
		for _, id := range analysis.Themes[i].CommentIDs {
			if id == "c1" {
				cameraTheme = &analysis.Themes[i]
			}
		}
	}
	if cameraTheme == nil {
		t.Fatal("no theme contains c1")
	}

	member := map[string]bool{}
	for _, id := range cameraTheme.CommentIDs {
		member[id] = true
	}
	if !member["c2"] {
		t.Error("c1 and c2 share most tokens and should cluster together")
	}
	if member["c3"] {
		t.Error("c3 is unrelated and should not join the camera cluster")
	}
	if cameraTheme.Sentiment != core.SentimentPositive {
		t.Errorf("camera cluster sentiment = %s, want POSITIVE", cameraTheme.Sentiment)
	}
}

func TestAnalyzeThemesSingletonRetention(t *testing.T) {
	// Small input: singleton clusters with real tokens still become themes.
	comments := []core.Comment{
		{ID: "c1", Text: "camera quality impressed everyone here"},
		{ID: "c2", Text: "shipping speed disappointed customers severely"},
	}
	analysis := NewEngine(0, 0, 0).AnalyzeThemes(comments, nil)

	if len(analysis.Themes) != 2 {
		t.Fatalf("got %d themes, want 2 singletons retained for a small set", len(analysis.Themes))
	}
	for _, theme := range analysis.Themes {
		if theme.Coherence != singletonCoherence {
			t.Errorf("singleton coherence = %f, want %f", theme.Coherence, singletonCoherence)
		}
	}
}

func TestAnalyzeThemesMaxCap(t *testing.T) {
	var comments []core.Comment
	texts := []string{
		"camera lens sharp", "battery drain slow", "screen bright outdoors",
		"speaker sound tinny", "shipping arrived late", "packaging felt cheap",
	}
	for i, text := range texts {
		comments = append(comments, core.Comment{ID: string(rune('a' + i)), Text: text})
	}

	analysis := NewEngine(0.99, 0, 2).AnalyzeThemes(comments, nil)
	if len(analysis.Themes) > 2 {
		t.Errorf("got %d themes, want at most the cap of 2", len(analysis.Themes))
	}
}

func TestAnalyzeThemesEmpty(t *testing.T) {
	analysis := NewEngine(0, 0, 0).AnalyzeThemes(nil, nil)
	if len(analysis.Themes) != 0 || len(analysis.Keywords) != 0 {
		t.Errorf("empty input should produce no themes or keywords")
	}
}

func TestThemeName(t *testing.T) {
	if got := themeName([]string{"camera", "quality"}, nil); got != "Camera Quality" {
		t.Errorf("themeName = %q, want %q", got, "Camera Quality")
	}
	if got := themeName([]string{"battery"}, nil); got != "Battery" {
		t.Errorf("themeName = %q, want %q", got, "Battery")
	}

	rep := []core.Comment{{Text: "shipping delays everywhere"}}
	if got := themeName(nil, rep); got != "Shipping Delays" {
		t.Errorf("themeName fallback = %q, want representative tokens", got)
	}

	if got := themeName(nil, nil); got != fallbackThemeName {
		t.Errorf("themeName final fallback = %q, want %q", got, fallbackThemeName)
	}
}

func TestRepresentativeScoring(t *testing.T) {
	comments := []core.Comment{
		{ID: "short", Text: "nice", LikeCount: 0},
		{ID: "liked", Text: "nice", LikeCount: 1000},
		{ID: "long", Text: "a long and detailed comment about everything that happened", LikeCount: 0},
	}
	reps := representatives([]int{0, 1, 2}, comments)
	if reps[0].ID != "liked" {
		t.Errorf("top representative = %s, want the heavily liked comment", reps[0].ID)
	}
}

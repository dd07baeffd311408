package preprocess

import (
	"strings"
	"testing"

	"commentlens/internal/core"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain text untouched", "Great video, loved it", "Great video, loved it"},
		{"whitespace collapsed", "too   many\n\nspaces\there", "too many spaces here"},
		{"html stripped", "<p>Nice <b>work</b></p>", "Nice work"},
		{"script removed", "<script>alert(1)</script>hello", "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.input); got != tt.expected {
				t.Errorf("CleanText(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCheckSpam(t *testing.T) {
	p := NewPreprocessor()

	tests := []struct {
		name string
		text string
		spam bool
	}{
		{"spam keyword", "Buy now and use my promo code", true},
		{"url density", "look http://a.example and http://b.example", true},
		{"single url ok", "source: http://a.example for the curious", false},
		{"excessive caps", "THIS IS THE BEST CHANNEL EVER SUBSCRIBE", true},
		{"short caps ok", "WOW nice", false},
		{"character repetition", "soooooooo good", true},
		{"normal comment", "Really enjoyed the editing on this one", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reason, spam := p.checkSpam(tt.text)
			if spam != tt.spam {
				t.Errorf("checkSpam(%q) = (%q, %v), want spam=%v", tt.text, reason, spam, tt.spam)
			}
			if spam && reason == "" {
				t.Error("flagged spam must carry a reason")
			}
		})
	}
}

func TestFilter(t *testing.T) {
	p := NewPreprocessor()

	comments := []core.Comment{
		{ID: "c1", Text: "Love this, genuinely helpful content"},
		{ID: "c2", Text: "Click here for free money!!!"},
		{ID: "c3", Text: "you are an idiot"},
		{ID: "c4", Text: "Love this, genuinely helpful content"}, // duplicate of c1
		{ID: "c5", Text: "The pacing felt a bit slow in the middle"},
	}

	res := p.Filter(comments)

	if res.Stats.Total != 5 {
		t.Errorf("Total = %d, want 5", res.Stats.Total)
	}
	if res.Stats.Spam != 1 {
		t.Errorf("Spam = %d, want 1", res.Stats.Spam)
	}
	if res.Stats.Toxic != 1 {
		t.Errorf("Toxic = %d, want 1", res.Stats.Toxic)
	}
	if res.Stats.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", res.Stats.Duplicates)
	}
	if res.Stats.Passed != 2 {
		t.Errorf("Passed = %d, want 2", res.Stats.Passed)
	}
	if len(res.Filtered) != res.Stats.Passed {
		t.Errorf("len(Filtered) = %d, want %d", len(res.Filtered), res.Stats.Passed)
	}

	sum := res.Stats.Spam + res.Stats.Toxic + res.Stats.Duplicates + res.Stats.Passed
	if sum != res.Stats.Total {
		t.Errorf("filter stats do not add up: %d != %d", sum, res.Stats.Total)
	}

	for _, c := range res.Filtered {
		if c.IsSpam || c.IsToxic || c.IsDuplicate {
			t.Errorf("comment %s passed the filter but carries an exclusion flag", c.ID)
		}
	}

	if len(res.Spam) != 1 || !res.Spam[0].IsSpam || res.Spam[0].SpamReason == "" {
		t.Error("spam comment missing flag or reason")
	}
	if len(res.Toxic) != 1 || !res.Toxic[0].IsToxic || res.Toxic[0].ToxicReason == "" {
		t.Error("toxic comment missing flag or reason")
	}
}

func TestFilterDuplicateOrder(t *testing.T) {
	p := NewPreprocessor()

	// The first occurrence survives, later near-duplicates are dropped.
	comments := []core.Comment{
		{ID: "first", Text: "absolutely loved the second half of this video"},
		{ID: "second", Text: "absolutely loved the second half of this video!"},
	}

	res := p.Filter(comments)
	if len(res.Filtered) != 1 || res.Filtered[0].ID != "first" {
		t.Fatalf("expected only %q to survive, got %d comments", "first", len(res.Filtered))
	}
}

func TestFilterEmpty(t *testing.T) {
	res := NewPreprocessor().Filter(nil)
	if res.Stats.Total != 0 || res.Stats.Passed != 0 || len(res.Filtered) != 0 {
		t.Errorf("empty input should produce empty result, got %+v", res.Stats)
	}
}

func TestFilterCleansTextInPlace(t *testing.T) {
	res := NewPreprocessor().Filter([]core.Comment{
		{ID: "c1", Text: "<b>bold</b>   claim"},
	})
	if len(res.Filtered) != 1 {
		t.Fatalf("expected 1 comment, got %d", len(res.Filtered))
	}
	if got := res.Filtered[0].Text; strings.ContainsAny(got, "<>") || got != "bold claim" {
		t.Errorf("text not cleaned: %q", got)
	}
}

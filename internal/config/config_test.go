package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Pipeline.BatchSize != 20 {
		t.Errorf("batch size = %d, want 20", cfg.Pipeline.BatchSize)
	}
	if cfg.Pipeline.MaxConcurrentJobs != 3 {
		t.Errorf("max concurrent jobs = %d, want 3", cfg.Pipeline.MaxConcurrentJobs)
	}
	if cfg.Pipeline.RetryAttempts != 3 {
		t.Errorf("retry attempts = %d, want 3", cfg.Pipeline.RetryAttempts)
	}
	if cfg.Clustering.SimilarityThreshold != 0.15 {
		t.Errorf("similarity threshold = %f, want 0.15", cfg.Clustering.SimilarityThreshold)
	}
	if cfg.Clustering.MaxThemes != 10 {
		t.Errorf("max themes = %d, want 10", cfg.Clustering.MaxThemes)
	}
	if cfg.Summary.MinWords != 75 || cfg.Summary.MaxWords != 150 {
		t.Errorf("word targets = %d/%d, want 75/150", cfg.Summary.MinWords, cfg.Summary.MaxWords)
	}
	if cfg.Summary.QualityThreshold != 0.6 {
		t.Errorf("quality threshold = %f, want 0.6", cfg.Summary.QualityThreshold)
	}
	if cfg.Cache.MaxEntries != 100 || cfg.Cache.TTL != "1h" {
		t.Errorf("cache defaults = %d/%s, want 100/1h", cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}
	if cfg.AI.Provider != "gemini" {
		t.Errorf("provider = %q, want gemini", cfg.AI.Provider)
	}
}

func TestEnvOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("COMMENTLENS_PIPELINE_MAX_CONCURRENT_JOBS", "5")
	t.Setenv("COMMENTLENS_AI_PROVIDER", "openai")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Pipeline.MaxConcurrentJobs != 5 {
		t.Errorf("env override ignored: %d", cfg.Pipeline.MaxConcurrentJobs)
	}
	if cfg.AI.Provider != "openai" {
		t.Errorf("env override ignored: %q", cfg.AI.Provider)
	}
}

func TestGetDuration(t *testing.T) {
	tests := []struct {
		value    string
		fallback time.Duration
		expected time.Duration
	}{
		{"2s", time.Second, 2 * time.Second},
		{"", time.Second, time.Second},
		{"garbage", 30 * time.Second, 30 * time.Second},
		{"1h30m", 0, 90 * time.Minute},
	}

	for _, tt := range tests {
		if got := GetDuration(tt.value, tt.fallback); got != tt.expected {
			t.Errorf("GetDuration(%q) = %v, want %v", tt.value, got, tt.expected)
		}
	}
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        App        `mapstructure:"app"`
	AI         AI         `mapstructure:"ai"`
	Pipeline   Pipeline   `mapstructure:"pipeline"`
	Clustering Clustering `mapstructure:"clustering"`
	Summary    Summary    `mapstructure:"summary"`
	Cache      Cache      `mapstructure:"cache"`
	Logging    Logging    `mapstructure:"logging"`
}

// App holds general application configuration
type App struct {
	DataDir string `mapstructure:"data_dir"`
}

// AI holds AI/LLM configuration
type AI struct {
	Provider string       `mapstructure:"provider"` // "gemini" or "openai"
	Gemini   GeminiConfig `mapstructure:"gemini"`
	OpenAI   OpenAIConfig `mapstructure:"openai"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	Timeout     string  `mapstructure:"timeout"`
	MaxTokens   int32   `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
}

// OpenAIConfig holds OpenAI configuration
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
	Timeout string `mapstructure:"timeout"`
}

// Pipeline holds orchestrator and stage configuration
type Pipeline struct {
	BatchSize         int    `mapstructure:"batch_size"`          // Comments per classification batch
	RetryAttempts     int    `mapstructure:"retry_attempts"`      // Attempt cap for model calls and jobs
	RetryDelay        string `mapstructure:"retry_delay"`         // Base delay for linear backoff
	MaxConcurrentJobs int    `mapstructure:"max_concurrent_jobs"` // RUNNING job cap
	SchedulerTick     string `mapstructure:"scheduler_tick"`      // Scheduling tick interval
}

// Clustering holds theme clustering configuration
type Clustering struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"` // Jaccard threshold for cluster absorption
	MinKeywordFrequency int     `mapstructure:"min_keyword_frequency"`
	MaxThemes           int     `mapstructure:"max_themes"`
}

// Summary holds summary generation configuration
type Summary struct {
	MinWords         int     `mapstructure:"min_words"`
	MaxWords         int     `mapstructure:"max_words"`
	QualityThreshold float64 `mapstructure:"quality_threshold"`
}

// Cache holds result cache configuration
type Cache struct {
	MaxEntries int    `mapstructure:"max_entries"` // In-process tier capacity
	TTL        string `mapstructure:"ttl"`         // Freshness window for both tiers
}

// Logging holds logging configuration
type Logging struct {
	Level string `mapstructure:"level"`
}

// Load reads configuration from file, environment variables, and defaults.
// A missing config file is not an error; defaults and env vars still apply.
func Load(cfgFile string) (*Config, error) {
	// Load .env if present so COMMENTLENS_* and API key vars are visible.
	_ = godotenv.Load()

	v := viper.GetViper()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".commentlens")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	v.SetEnvPrefix("COMMENTLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.data_dir", ".commentlens-data")

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini.model", "gemini-1.5-flash")
	v.SetDefault("ai.gemini.timeout", "30s")
	v.SetDefault("ai.gemini.max_tokens", 1024)
	v.SetDefault("ai.gemini.temperature", 0.4)
	v.SetDefault("ai.openai.model", "gpt-4o-mini")
	v.SetDefault("ai.openai.timeout", "30s")

	v.SetDefault("pipeline.batch_size", 20)
	v.SetDefault("pipeline.retry_attempts", 3)
	v.SetDefault("pipeline.retry_delay", "2s")
	v.SetDefault("pipeline.max_concurrent_jobs", 3)
	v.SetDefault("pipeline.scheduler_tick", "1s")

	v.SetDefault("clustering.similarity_threshold", 0.15)
	v.SetDefault("clustering.min_keyword_frequency", 2)
	v.SetDefault("clustering.max_themes", 10)

	v.SetDefault("summary.min_words", 75)
	v.SetDefault("summary.max_words", 150)
	v.SetDefault("summary.quality_threshold", 0.6)

	v.SetDefault("cache.max_entries", 100)
	v.SetDefault("cache.ttl", "1h")

	v.SetDefault("logging.level", "info")
}

// GetDuration parses a duration field, falling back to a default on error.
func GetDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

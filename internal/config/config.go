// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

// ErrInvalidConfig is returned when a configuration value is out of range.
var ErrInvalidConfig = errors.New("config: invalid value")

// Config holds all configuration for the segmenter.
// Thresholds mirror the tuning knobs of the detection and fusion stages;
// each is validated at load time so that bad values fail before any
// processing begins.
type Config struct {
	// Slide-change detection settings
	SSIMThreshold  float64 `env:"SSIM_THRESHOLD, default=0.7" json:"ssim_threshold" validate:"gt=0,lt=1"`
	MinIntervalSec float64 `env:"MIN_INTERVAL_SEC, default=1.0" json:"min_interval_sec" validate:"gte=0"`
	ResizeWidth    int     `env:"RESIZE_WIDTH, default=640" json:"resize_width" validate:"gt=0"`
	SamplingFPS    float64 `env:"SAMPLING_FPS" json:"sampling_fps,omitempty" validate:"omitempty,gt=0"`
	NumWorkers     int     `env:"NUM_WORKERS, default=4" json:"num_workers" validate:"gte=1"`

	// Boundary fusion settings
	MinGapSec                   float64 `env:"MIN_GAP_SEC, default=2.0" json:"min_gap_sec" validate:"gte=0"`
	ToleranceWindowSec          float64 `env:"TOLERANCE_WINDOW_SEC, default=1.5" json:"tolerance_window_sec" validate:"gt=0"`
	SemanticSimilarityThreshold float64 `env:"SEMANTIC_SIMILARITY_THRESHOLD, default=0.6" json:"semantic_similarity_threshold" validate:"gt=0,lt=1"`
	MinChunkDurationSec         float64 `env:"MIN_CHUNK_DURATION_SEC, default=10.0" json:"min_chunk_duration_sec" validate:"gt=0"`
	UseSemanticCheck            bool    `env:"USE_SEMANTIC_CHECK, default=true" json:"use_semantic_check"`

	// Embedding oracle settings (optional; absence selects the no-op oracle)
	EmbeddingEndpoint string `env:"EMBEDDING_ENDPOINT" json:"embedding_endpoint,omitempty"`
	EmbeddingAPIKey   string `env:"EMBEDDING_API_KEY" json:"-"` // Masked in JSON

	// Tool paths (resolved via PATH when empty)
	FFmpegPath  string `env:"FFMPEG_PATH" json:"ffmpeg_path,omitempty"`
	FFprobePath string `env:"FFPROBE_PATH" json:"ffprobe_path,omitempty"`

	// Storage settings
	TempDir string `env:"TEMP_DIR, default=/tmp/lecture-segmenter" json:"temp_dir"`

	// Optional S3 settings for fetching input videos by s3:// reference
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 input fetching is configured.
func (c *Config) S3Enabled() bool {
	return c.S3Region != ""
}

// SemanticEnabled returns true if the semantic shift check should use a
// remote embedding oracle. When false the validator accepts all candidates.
func (c *Config) SemanticEnabled() bool {
	return c.UseSemanticCheck && c.EmbeddingEndpoint != ""
}

// Load reads configuration from environment variables using go-envconfig
// and validates value ranges. It returns an error wrapping ErrInvalidConfig
// for any out-of-range value.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all configuration values are within their allowed
// ranges using struct validation tags.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("%w: field %s failed %q (value %v)",
				ErrInvalidConfig, first.Field(), first.Tag(), first.Value())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{SSIMThreshold: %.2f, MinIntervalSec: %.2f, ResizeWidth: %d, SamplingFPS: %.2f, NumWorkers: %d, MinGapSec: %.2f, ToleranceWindowSec: %.2f, SemanticSimilarityThreshold: %.2f, MinChunkDurationSec: %.2f, UseSemanticCheck: %t, EmbeddingEndpoint: %s, TempDir: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.SSIMThreshold,
		c.MinIntervalSec,
		c.ResizeWidth,
		c.SamplingFPS,
		c.NumWorkers,
		c.MinGapSec,
		c.ToleranceWindowSec,
		c.SemanticSimilarityThreshold,
		c.MinChunkDurationSec,
		c.UseSemanticCheck,
		c.EmbeddingEndpoint,
		c.TempDir,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

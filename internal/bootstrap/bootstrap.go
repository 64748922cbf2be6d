// Package bootstrap provides dependency initialization for the segmenter.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edustream/lecture-segmenter/internal/chunker"
	"github.com/edustream/lecture-segmenter/internal/config"
	"github.com/edustream/lecture-segmenter/internal/detector"
	"github.com/edustream/lecture-segmenter/internal/frame"
	"github.com/edustream/lecture-segmenter/internal/job"
	"github.com/edustream/lecture-segmenter/internal/semantic"
	"github.com/edustream/lecture-segmenter/internal/storage"
)

// Dependencies holds all initialized dependencies for the worker.
type Dependencies struct {
	SegmentService *job.SegmentService
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	det, err := detector.New(detector.Options{
		SSIMThreshold:  cfg.SSIMThreshold,
		MinIntervalSec: cfg.MinIntervalSec,
		ResizeWidth:    cfg.ResizeWidth,
		SamplingFPS:    cfg.SamplingFPS,
		NumWorkers:     cfg.NumWorkers,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create detector: %w", err)
	}

	oracle, err := initOracle(cfg, logger)
	if err != nil {
		return nil, err
	}
	validator := semantic.NewValidator(oracle, cfg.ToleranceWindowSec, cfg.SemanticSimilarityThreshold, logger)

	fuser := chunker.NewFuser(cfg.MinChunkDurationSec, cfg.MinGapSec, validator, logger)

	opener := func(ctx context.Context, path string) (job.VideoSource, error) {
		return frame.OpenFFmpegSource(ctx, cfg.FFmpegPath, cfg.FFprobePath, path)
	}

	repo := job.NewMemoryRepository()

	svc := job.NewSegmentService(store, opener, det, fuser, repo, logger)

	return &Dependencies{
		SegmentService: svc,
	}, nil
}

// initStorage creates the appropriate store based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Store(cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 store: %w", err)
		}
		logger.Info("S3 input fetching configured",
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStore(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local store: %w", err)
	}
	logger.Info("local store configured",
		slog.String("temp_dir", cfg.TempDir),
	)
	return localStore, nil
}

// initOracle selects the semantic oracle at configuration time: an HTTP
// embedding client when the semantic check is enabled and an endpoint is
// set, the no-op oracle otherwise.
func initOracle(cfg *config.Config, logger *slog.Logger) (semantic.Oracle, error) {
	if !cfg.SemanticEnabled() {
		logger.Info("semantic shift check disabled")
		return semantic.NoopOracle{}, nil
	}

	oracle, err := semantic.NewHTTPOracle(cfg.EmbeddingEndpoint, semantic.WithAPIKey(cfg.EmbeddingAPIKey))
	if err != nil {
		return nil, fmt.Errorf("create embedding oracle: %w", err)
	}
	logger.Info("semantic shift check enabled",
		slog.String("endpoint", cfg.EmbeddingEndpoint),
	)
	return oracle, nil
}

// Package main provides the entry point for the lecture segmenter worker.
//
// Usage:
//
//	segmenter [-transcript lecture.json] [-timeout 30m] <video>
//
// The video argument is a local path or an s3://bucket/key reference. The
// result is written to stdout as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edustream/lecture-segmenter/internal/bootstrap"
	"github.com/edustream/lecture-segmenter/internal/chunker"
	"github.com/edustream/lecture-segmenter/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// result is the JSON document emitted on success.
type result struct {
	JobID         string          `json:"job_id"`
	VideoRef      string          `json:"video_ref"`
	VideoDuration float64         `json:"video_duration"`
	SlideChanges  []float64       `json:"slide_changes"`
	Chunks        []chunker.Chunk `json:"chunks"`
}

func run() error {
	transcriptPath := flag.String("transcript", "", "path to the ASR transcript JSON (optional)")
	timeout := flag.Duration("timeout", 30*time.Minute, "processing deadline")
	flag.Parse()

	if flag.NArg() != 1 {
		return fmt.Errorf("usage: %s [-transcript lecture.json] [-timeout 30m] <video>", os.Args[0])
	}
	videoRef := flag.Arg(0)

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Create structured logger
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting lecture segmenter",
		slog.String("video_ref", videoRef),
		slog.String("log_format", cfg.LogFormat),
		slog.String("log_level", cfg.LogLevel),
		slog.String("temp_dir", cfg.TempDir),
		slog.Int("num_workers", cfg.NumWorkers),
		slog.Bool("s3_enabled", cfg.S3Enabled()),
		slog.Bool("semantic_enabled", cfg.SemanticEnabled()),
	)

	// Initialize dependencies using bootstrap
	deps, err := bootstrap.NewDependencies(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize dependencies: %w", err)
	}

	// Cancel processing on SIGINT/SIGTERM or after the deadline
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	j, err := deps.SegmentService.Segment(ctx, videoRef, *transcriptPath)
	if err != nil {
		return fmt.Errorf("segment video: %w", err)
	}

	out := result{
		JobID:         j.ID,
		VideoRef:      j.VideoRef,
		VideoDuration: j.VideoDuration,
		SlideChanges:  j.SlideChanges,
		Chunks:        j.Chunks,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	return nil
}

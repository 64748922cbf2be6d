package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/edustream/lecture-segmenter/internal/chunker"
	"github.com/edustream/lecture-segmenter/internal/frame"
	"github.com/edustream/lecture-segmenter/internal/storage"
	"github.com/edustream/lecture-segmenter/internal/transcript"
)

// VideoSource is a frame source with a known duration that must be closed
// after use.
type VideoSource interface {
	frame.Source
	Duration() float64
	Close() error
}

// VideoOpener opens a local video file as a VideoSource.
type VideoOpener func(ctx context.Context, path string) (VideoSource, error)

// Detector finds slide-change timestamps in a frame source.
type Detector interface {
	Detect(ctx context.Context, src frame.Source) ([]float64, error)
}

// Fuser merges slide changes and transcript structure into chunks.
type Fuser interface {
	Fuse(ctx context.Context, slideTimes []float64, doc *transcript.Document, videoDurationSec float64) ([]chunker.Chunk, error)
}

// SegmentService orchestrates one segmentation run: fetch the video, detect
// slide changes, parse the transcript if present, and fuse boundaries into
// chunks. Every run is tracked as a Job in the repository.
type SegmentService struct {
	store    storage.Store
	opener   VideoOpener
	detector Detector
	fuser    Fuser
	repo     Repository
	logger   *slog.Logger
}

// NewSegmentService creates a new SegmentService.
func NewSegmentService(store storage.Store, opener VideoOpener, detector Detector, fuser Fuser, repo Repository, logger *slog.Logger) *SegmentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SegmentService{
		store:    store,
		opener:   opener,
		detector: detector,
		fuser:    fuser,
		repo:     repo,
		logger:   logger,
	}
}

// Segment runs the full segmentation pipeline for one video. The returned
// job is always persisted, in COMPLETED, FAILED or CANCELLED state; the
// error mirrors the job's failure when processing did not finish.
func (s *SegmentService) Segment(ctx context.Context, videoRef, transcriptPath string) (*Job, error) {
	j := New(videoRef, transcriptPath)

	s.logger.Info("creating segmentation job",
		slog.String("job_id", j.ID),
		slog.String("video_ref", videoRef),
		slog.Bool("has_transcript", transcriptPath != ""),
	)

	if err := s.repo.Save(ctx, j); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	if err := j.Start(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, j); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	duration, slideChanges, chunks, err := s.run(ctx, j)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			_ = j.Cancel()
		} else {
			_ = j.Fail(err.Error())
		}
		if saveErr := s.repo.Save(ctx, j); saveErr != nil {
			s.logger.Error("failed to persist job state",
				slog.String("job_id", j.ID),
				slog.String("error", saveErr.Error()),
			)
		}
		s.logger.Error("segmentation failed",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
		return j, err
	}

	j.SetResult(duration, slideChanges, chunks)
	if err := j.Complete(); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, j); err != nil {
		return nil, fmt.Errorf("save job: %w", err)
	}

	s.logger.Info("segmentation completed",
		slog.String("job_id", j.ID),
		slog.Int("slide_changes", len(slideChanges)),
		slog.Int("chunks", len(chunks)),
		slog.Float64("duration", duration),
	)

	return j, nil
}

// GetJob retrieves a job by ID.
func (s *SegmentService) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.FindByID(ctx, id)
}

// run executes the processing pipeline for a started job.
func (s *SegmentService) run(ctx context.Context, j *Job) (float64, []float64, []chunker.Chunk, error) {
	videoPath, temporary, err := s.store.FetchVideo(ctx, j.VideoRef)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("fetch video: %w", err)
	}
	if temporary {
		defer func() {
			if err := s.store.CleanupTemp(context.WithoutCancel(ctx), []string{videoPath}); err != nil {
				s.logger.Warn("failed to clean up downloaded video",
					slog.String("path", videoPath),
					slog.String("error", err.Error()),
				)
			}
		}()
	}

	var doc *transcript.Document
	if j.TranscriptPath != "" {
		doc, err = loadTranscript(j.TranscriptPath)
		if err != nil {
			return 0, nil, nil, err
		}
	}

	src, err := s.opener(ctx, videoPath)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("open video: %w", err)
	}
	defer func() { _ = src.Close() }()

	slideChanges, err := s.detector.Detect(ctx, src)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("detect slide changes: %w", err)
	}

	duration := src.Duration()
	chunks, err := s.fuser.Fuse(ctx, slideChanges, doc, duration)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("fuse boundaries: %w", err)
	}

	return duration, slideChanges, chunks, nil
}

// loadTranscript reads and parses an ASR document from disk.
func loadTranscript(path string) (*transcript.Document, error) {
	f, err := os.Open(path) // #nosec G304 - path is provided by trusted caller
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	defer func() { _ = f.Close() }()

	doc, err := transcript.Parse(f)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Package detector finds slide-change timestamps in a frame stream by
// comparing the structural similarity of consecutive sampled frames.
package detector

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/edustream/lecture-segmenter/internal/frame"
	"github.com/edustream/lecture-segmenter/internal/ssim"
)

// Options validation errors.
var (
	ErrInvalidThreshold = errors.New("detector: ssim threshold must be in (0, 1)")
	ErrInvalidInterval  = errors.New("detector: min interval must be non-negative")
	ErrInvalidWidth     = errors.New("detector: resize width must be positive")
	ErrInvalidWorkers   = errors.New("detector: num workers must be at least 1")
)

// Options configures slide-change detection.
type Options struct {
	// SSIMThreshold is the similarity score below which a pair of
	// consecutive frames counts as a slide change. Exclusive (0, 1).
	SSIMThreshold float64

	// MinIntervalSec is the cooldown after an accepted change during which
	// further changes are suppressed, in seconds of source time.
	MinIntervalSec float64

	// ResizeWidth is the width frames are normalized to before scoring.
	ResizeWidth int

	// SamplingFPS limits how many frames per second are scored. Zero or
	// negative scores every frame.
	SamplingFPS float64

	// NumWorkers sets the scoring worker pool size. 1 keeps scoring on the
	// controller goroutine path and produces the same output as sequential
	// detection.
	NumWorkers int
}

// DefaultOptions returns detection options tuned for lecture slides.
func DefaultOptions() Options {
	return Options{
		SSIMThreshold:  0.7,
		MinIntervalSec: 1.0,
		ResizeWidth:    640,
		NumWorkers:     4,
	}
}

// Validate checks option ranges.
func (o Options) Validate() error {
	if o.SSIMThreshold <= 0 || o.SSIMThreshold >= 1 {
		return ErrInvalidThreshold
	}
	if o.MinIntervalSec < 0 {
		return ErrInvalidInterval
	}
	if o.ResizeWidth <= 0 {
		return ErrInvalidWidth
	}
	if o.NumWorkers < 1 {
		return ErrInvalidWorkers
	}
	return nil
}

// Detector scans a frame source for slide changes.
type Detector struct {
	opts   Options
	logger *slog.Logger
}

// New creates a Detector. Options are validated up front so that bad
// configuration fails before any frame is decoded.
func New(opts Options, logger *slog.Logger) (*Detector, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Detector{opts: opts, logger: logger}, nil
}

// Detect returns the sorted, deduplicated timestamps (in seconds) at which
// the slide visible in src changes. With NumWorkers > 1 scoring runs on a
// worker pool; results can then differ slightly between runs because
// acceptance order depends on completion order.
func (d *Detector) Detect(ctx context.Context, src frame.Source) ([]float64, error) {
	sampler, err := frame.NewSampler(src, d.opts.SamplingFPS, d.opts.ResizeWidth)
	if err != nil {
		return nil, err
	}

	if d.opts.NumWorkers > 1 {
		return d.detectConcurrent(ctx, sampler)
	}
	return d.detectSequential(ctx, sampler)
}

// detectSequential scores every consecutive sampled pair in stream order.
func (d *Detector) detectSequential(ctx context.Context, src frame.Source) ([]float64, error) {
	cooldown := d.opts.MinIntervalSec * src.FPS()

	var changes []float64
	var prev *frame.Frame
	lastChangeIndex := -1

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f, ok, err := src.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		if prev != nil && eligible(f.Index, lastChangeIndex, cooldown) {
			score := ssim.Score(prev.Gray, f.Gray)
			if score < d.opts.SSIMThreshold {
				d.logger.Debug("slide change detected",
					"timestamp", f.Timestamp,
					"score", score,
				)
				changes = append(changes, f.Timestamp)
				lastChangeIndex = f.Index
			}
		}

		prev = &f
	}

	return normalize(changes), nil
}

// eligible reports whether a frame at index is outside the cooldown window
// following the last accepted change. No prior change means always eligible.
func eligible(index, lastChangeIndex int, cooldownFrames float64) bool {
	if lastChangeIndex < 0 {
		return true
	}
	return float64(index-lastChangeIndex) >= cooldownFrames
}

// normalize sorts timestamps and drops duplicates.
func normalize(changes []float64) []float64 {
	sort.Float64s(changes)
	out := changes[:0]
	for i, t := range changes {
		if i == 0 || t != changes[i-1] {
			out = append(out, t)
		}
	}
	return out
}

// Package chunker fuses visual slide changes with speech-structure signals
// into a contiguous list of topical video chunks.
package chunker

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/edustream/lecture-segmenter/internal/semantic"
	"github.com/edustream/lecture-segmenter/internal/transcript"
)

// ErrInvalidDuration is returned when the video duration is not positive.
var ErrInvalidDuration = errors.New("chunker: video duration must be positive")

// Candidate boundary sources.
const (
	SourceSlide   = "slide"
	SourceSilence = "silence"
)

// Candidate is a proposed chunk boundary.
type Candidate struct {
	Time   float64 `json:"time"`
	Source string  `json:"source"`
}

// Chunk is one segment of the video, in seconds.
type Chunk struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the chunk length in seconds.
func (c Chunk) Duration() float64 {
	return c.End - c.Start
}

// Fuser merges slide-change timestamps and silence gaps into chunk
// boundaries, optionally gated by a semantic shift validator.
type Fuser struct {
	minChunkDurationSec float64
	minGapSec           float64
	validator           *semantic.Validator
	logger              *slog.Logger
}

// NewFuser creates a Fuser. A nil validator disables the semantic gate and
// every candidate surviving the duration filter is accepted.
func NewFuser(minChunkDurationSec, minGapSec float64, validator *semantic.Validator, logger *slog.Logger) *Fuser {
	return &Fuser{
		minChunkDurationSec: minChunkDurationSec,
		minGapSec:           minGapSec,
		validator:           validator,
		logger:              logger,
	}
}

// Fuse combines slide-change timestamps with the silence structure of doc
// into a contiguous chunk list covering [0, videoDurationSec]. doc may be
// nil when no transcript is available; detection then falls back to
// slide-change candidates alone and the semantic gate is skipped.
func (f *Fuser) Fuse(ctx context.Context, slideTimes []float64, doc *transcript.Document, videoDurationSec float64) ([]Chunk, error) {
	if videoDurationSec <= 0 {
		return nil, ErrInvalidDuration
	}

	var sentences []transcript.Sentence
	if doc != nil {
		sentences = doc.AllSentences()
	}

	candidates := make([]Candidate, 0, len(slideTimes))
	for _, t := range slideTimes {
		candidates = append(candidates, Candidate{Time: t, Source: SourceSlide})
	}

	// Without any recognized speech there is no silence structure to mine
	// and nothing for the semantic check to read.
	hasSpeech := len(sentences) > 0
	if hasSpeech {
		for _, t := range transcript.SilenceGaps(sentences, f.minGapSec) {
			candidates = append(candidates, Candidate{Time: t, Source: SourceSilence})
		}
	}

	times := normalizeCandidates(candidates, videoDurationSec)

	f.logger.Debug("fusing boundary candidates",
		"slide_changes", len(slideTimes),
		"candidates", len(times),
		"duration", videoDurationSec,
	)

	var accepted []float64
	lastSplit := 0.0
	for _, t := range times {
		// A candidate landing exactly at lastSplit + minChunkDuration still
		// leaves too short a chunk and is rejected.
		if t-lastSplit <= f.minChunkDurationSec {
			continue
		}
		if hasSpeech && f.validator != nil && !f.validator.ShouldSplit(ctx, sentences, t) {
			f.logger.Debug("candidate rejected by semantic check", "timestamp", t)
			continue
		}
		accepted = append(accepted, t)
		lastSplit = t
	}

	boundaries := make([]float64, 0, len(accepted)+2)
	boundaries = append(boundaries, 0)
	boundaries = append(boundaries, accepted...)
	boundaries = append(boundaries, videoDurationSec)

	return mergeBoundaries(boundaries, f.minChunkDurationSec), nil
}

// normalizeCandidates sorts candidate times, drops duplicates and anything
// outside the open interval (0, duration).
func normalizeCandidates(candidates []Candidate, duration float64) []float64 {
	times := make([]float64, 0, len(candidates))
	for _, c := range candidates {
		if c.Time > 0 && c.Time < duration {
			times = append(times, c.Time)
		}
	}
	sort.Float64s(times)

	out := times[:0]
	for i, t := range times {
		if i == 0 || t != times[i-1] {
			out = append(out, t)
		}
	}
	return out
}

// mergeBoundaries walks the boundary list building chunks, extending any
// chunk shorter than minDuration forward over subsequent boundaries. The
// final chunk may stay short when no boundary remains to absorb.
func mergeBoundaries(boundaries []float64, minDuration float64) []Chunk {
	var chunks []Chunk
	for i := 0; i < len(boundaries)-1; {
		start := boundaries[i]
		end := boundaries[i+1]
		for end-start < minDuration && i+2 < len(boundaries) {
			i++
			end = boundaries[i+1]
		}
		chunks = append(chunks, Chunk{Start: start, End: end})
		i++
	}
	return chunks
}

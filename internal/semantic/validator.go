package semantic

import (
	"context"
	"log/slog"
	"strings"

	"github.com/edustream/lecture-segmenter/internal/transcript"
)

// Validator decides whether a candidate boundary coincides with a topical
// shift in the transcript. It compares the text spoken just before the
// boundary with the text spoken just after; a high similarity means the
// speaker is still on the same topic and the split should be rejected.
//
// The validator fails open: when a side has no speech, or the oracle is
// unavailable or errors, the candidate is accepted as-is.
type Validator struct {
	oracle              Oracle
	toleranceWindowSec  float64
	similarityThreshold float64
	logger              *slog.Logger
}

// NewValidator creates a Validator. A nil oracle behaves like an
// unavailable one.
func NewValidator(oracle Oracle, toleranceWindowSec, similarityThreshold float64, logger *slog.Logger) *Validator {
	if oracle == nil {
		oracle = NoopOracle{}
	}
	return &Validator{
		oracle:              oracle,
		toleranceWindowSec:  toleranceWindowSec,
		similarityThreshold: similarityThreshold,
		logger:              logger,
	}
}

// ShouldSplit reports whether a boundary at t seconds should be kept.
// Sentences must be ordered by begin time.
func (v *Validator) ShouldSplit(ctx context.Context, sentences []transcript.Sentence, t float64) bool {
	w := v.toleranceWindowSec

	before := windowText(sentences, t-w-w, t)
	after := windowText(sentences, t, t+w+w)

	// No speech on one side means there is nothing to compare; keep the
	// boundary.
	if before == "" || after == "" {
		return true
	}

	if !v.oracle.Available() {
		return true
	}

	score, err := v.oracle.Score(ctx, before, after)
	if err != nil {
		v.logger.Warn("semantic oracle failed, keeping candidate",
			"timestamp", t,
			"error", err,
		)
		return true
	}

	v.logger.Debug("semantic shift check",
		"timestamp", t,
		"similarity", score,
		"threshold", v.similarityThreshold,
	)
	return score < v.similarityThreshold
}

// windowText joins the text of every sentence overlapping [start, end].
func windowText(sentences []transcript.Sentence, start, end float64) string {
	var parts []string
	for _, s := range sentences {
		if s.EndSec() >= start && s.BeginSec() <= end {
			if text := strings.TrimSpace(s.Text); text != "" {
				parts = append(parts, text)
			}
		}
	}
	return strings.Join(parts, " ")
}

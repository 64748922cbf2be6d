// Package frame provides sequential access to grayscale video frames.
//
// A Source yields frames in display order; Sampler wraps a Source to apply
// temporal subsampling and spatial normalization before frames reach the
// detector. FFmpegSource decodes real video files through the ffmpeg CLI.
package frame

import (
	"errors"
	"image"
)

// ErrSourceUnavailable is returned when the underlying video stream cannot
// be opened or probed.
var ErrSourceUnavailable = errors.New("frame: source unavailable")

// Frame is a single grayscale video frame. Index is the position in the
// source frame sequence (before any subsampling); Timestamp is Index divided
// by the source frame rate, in seconds. Frames are immutable after creation.
type Frame struct {
	Index     int
	Timestamp float64
	Gray      *image.Gray
}

// Source yields grayscale frames sequentially. Next returns the next frame
// and true, or a zero Frame and false once the stream is exhausted. A
// non-nil error means the stream failed mid-read; no further frames follow.
type Source interface {
	// FPS returns the source frame rate.
	FPS() float64

	// Next returns the next frame in sequence.
	Next() (Frame, bool, error)
}

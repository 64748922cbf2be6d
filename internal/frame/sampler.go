package frame

import (
	"errors"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Sampler validation errors.
var (
	ErrInvalidFPS   = errors.New("frame: fps must be positive")
	ErrInvalidWidth = errors.New("frame: resize width must be positive")
)

// Sampler wraps a Source, keeping every step-th frame and resizing it to a
// fixed width while preserving aspect ratio. The step is derived from the
// source frame rate and a target sampling rate; a target of zero (or less)
// keeps every frame.
type Sampler struct {
	src         Source
	step        int
	resizeWidth int
}

// NewSampler creates a Sampler around src. samplingFPS <= 0 disables
// temporal subsampling.
func NewSampler(src Source, samplingFPS float64, resizeWidth int) (*Sampler, error) {
	fps := src.FPS()
	if fps <= 0 {
		return nil, ErrInvalidFPS
	}
	if resizeWidth <= 0 {
		return nil, ErrInvalidWidth
	}

	step := 1
	if samplingFPS > 0 {
		step = int(math.Round(fps / samplingFPS))
		if step < 1 {
			step = 1
		}
	}

	return &Sampler{
		src:         src,
		step:        step,
		resizeWidth: resizeWidth,
	}, nil
}

// FPS returns the underlying source frame rate. Timestamps of sampled frames
// stay on the source clock, so downstream cooldown math keeps working in
// source-frame units.
func (s *Sampler) FPS() float64 {
	return s.src.FPS()
}

// Step returns the subsampling stride.
func (s *Sampler) Step() int {
	return s.step
}

// Next returns the next sampled frame, resized to the configured width.
func (s *Sampler) Next() (Frame, bool, error) {
	for {
		f, ok, err := s.src.Next()
		if err != nil {
			return Frame{}, false, err
		}
		if !ok {
			return Frame{}, false, nil
		}
		if f.Index%s.step != 0 {
			continue
		}
		f.Gray = s.resize(f.Gray)
		return f, true, nil
	}
}

// resize scales img to the configured width, preserving aspect ratio.
// Images already at the target width pass through untouched.
func (s *Sampler) resize(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w == s.resizeWidth || w == 0 || h == 0 {
		return img
	}

	newH := int(math.Round(float64(h) * float64(s.resizeWidth) / float64(w)))
	if newH < 1 {
		newH = 1
	}

	dst := image.NewGray(image.Rect(0, 0, s.resizeWidth, newH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}

// Verify interface implementation at compile time.
var _ Source = (*Sampler)(nil)

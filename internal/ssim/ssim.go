// Package ssim computes structural similarity between grayscale images.
package ssim

import (
	"image"
	"math"
)

// Stabilization constants for 8-bit dynamic range.
const (
	c1 = (0.01 * 255) * (0.01 * 255)
	c2 = (0.03 * 255) * (0.03 * 255)

	windowSize = 8
)

// Score returns the mean structural similarity of two grayscale images in
// [0, 1], where 1.0 means identical. Images of different sizes are compared
// over their shared top-left region. Score is pure and safe for concurrent
// use.
func Score(a, b *image.Gray) float64 {
	width := min(a.Bounds().Dx(), b.Bounds().Dx())
	height := min(a.Bounds().Dy(), b.Bounds().Dy())
	if width == 0 || height == 0 {
		return 0
	}

	var total float64
	var windows int

	for y := 0; y+windowSize <= height; y += windowSize {
		for x := 0; x+windowSize <= width; x += windowSize {
			total += windowSSIM(a, b, x, y)
			windows++
		}
	}

	// Images smaller than one window fall back to a single full comparison.
	if windows == 0 {
		return regionSSIM(a, b, 0, 0, width, height)
	}

	score := total / float64(windows)
	return clamp01(score)
}

func windowSSIM(a, b *image.Gray, x, y int) float64 {
	return regionSSIM(a, b, x, y, windowSize, windowSize)
}

// regionSSIM computes SSIM over a w×h region at (x, y) in both images.
func regionSSIM(a, b *image.Gray, x, y, w, h int) float64 {
	n := float64(w * h)

	var sumA, sumB float64
	for dy := 0; dy < h; dy++ {
		rowA := a.PixOffset(a.Bounds().Min.X+x, a.Bounds().Min.Y+y+dy)
		rowB := b.PixOffset(b.Bounds().Min.X+x, b.Bounds().Min.Y+y+dy)
		for dx := 0; dx < w; dx++ {
			sumA += float64(a.Pix[rowA+dx])
			sumB += float64(b.Pix[rowB+dx])
		}
	}
	meanA := sumA / n
	meanB := sumB / n

	var varA, varB, cov float64
	for dy := 0; dy < h; dy++ {
		rowA := a.PixOffset(a.Bounds().Min.X+x, a.Bounds().Min.Y+y+dy)
		rowB := b.PixOffset(b.Bounds().Min.X+x, b.Bounds().Min.Y+y+dy)
		for dx := 0; dx < w; dx++ {
			da := float64(a.Pix[rowA+dx]) - meanA
			db := float64(b.Pix[rowB+dx]) - meanB
			varA += da * da
			varB += db * db
			cov += da * db
		}
	}
	varA /= n
	varB /= n
	cov /= n

	num := (2*meanA*meanB + c1) * (2*cov + c2)
	den := (meanA*meanA + meanB*meanB + c1) * (varA + varB + c2)
	return num / den
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

package processor

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

const midGrey = 128.0

// Brightness multiplies every colour channel by factor.
func Brightness(img image.Image, factor float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clamp8(float64(c.R) * factor),
			G: clamp8(float64(c.G) * factor),
			B: clamp8(float64(c.B) * factor),
			A: c.A,
		}
	})
}

// Contrast stretches every channel around mid-grey by factor.
func Contrast(img image.Image, factor float64) *image.NRGBA {
	scale := func(v uint8) uint8 {
		return clamp8((float64(v)-midGrey)*factor + midGrey)
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: c.A}
	})
}

// Enhance auto-levels luminance, ignoring the darkest and brightest clip fraction of pixels,
// then applies a light sharpen.
func Enhance(img image.Image, clip float64) *image.NRGBA {
	hist := luminanceHistogram(img)
	lo, hi := clipRange(hist, clip)

	out := imaging.Clone(img)
	if hi > lo {
		gain := 255.0 / float64(hi-lo)
		out = imaging.AdjustFunc(out, func(c color.NRGBA) color.NRGBA {
			return color.NRGBA{
				R: clamp8((float64(c.R) - float64(lo)) * gain),
				G: clamp8((float64(c.G) - float64(lo)) * gain),
				B: clamp8((float64(c.B) - float64(lo)) * gain),
				A: c.A,
			}
		})
	}
	return imaging.Sharpen(out, 0.6)
}

func luminanceHistogram(img image.Image) [256]int {
	var hist [256]int
	gray := imaging.Grayscale(img)
	for i := 0; i < len(gray.Pix); i += 4 {
		if gray.Pix[i+3] == 0 {
			continue
		}
		hist[gray.Pix[i]]++
	}
	return hist
}

// clipRange returns the luminance levels below and above which clip of the pixels fall.
func clipRange(hist [256]int, clip float64) (lo, hi int) {
	total := 0
	for _, n := range hist {
		total += n
	}
	if total == 0 {
		return 0, 255
	}
	limit := int(math.Floor(float64(total) * clip))

	acc := 0
	for lo = 0; lo < 255; lo++ {
		acc += hist[lo]
		if acc > limit {
			break
		}
	}
	acc = 0
	for hi = 255; hi > 0; hi-- {
		acc += hist[hi]
		if acc > limit {
			break
		}
	}
	return lo, hi
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}

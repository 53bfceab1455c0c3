package ocr

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// titleMaskRect is the fixed top-left region of a profile card that holds
// the decorative title/badge artwork. It is painted over before recognition
// so neither engine wastes confidence on ornamental text. Both engines must
// see the identical masked image for their confidences to be comparable.
var titleMaskRect = image.Rect(0, 0, 270, 110)

// MaskTitleRegion returns a copy of img with the title/badge region filled
// with a flat dark color close to the card background.
func MaskTitleRegion(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	fill := color.NRGBA{20, 20, 28, 255}
	b := out.Bounds().Intersect(titleMaskRect)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, fill)
		}
	}
	return out
}

// EnhanceVariant produces the aggressive fallback rendition used when the
// plain image recognizes poorly: grayscale, extreme contrast boost, mean
// adaptive threshold, then a 2x upscale so thin glyphs survive thresholding.
func EnhanceVariant(img image.Image) *image.NRGBA {
	gray := imaging.Grayscale(img)
	gray = imaging.AdjustContrast(gray, 80)
	out := adaptiveThreshold(gray, 15, 7)
	return imaging.Resize(out, out.Bounds().Dx()*2, 0, imaging.Lanczos)
}

// adaptiveThreshold performs a simple mean adaptive threshold over an
// integral image.
func adaptiveThreshold(img image.Image, window int, bias int) *image.NRGBA {
	if window < 3 {
		window = 3
	}
	if window%2 == 0 {
		window++
	}
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	out := imaging.New(w, h, color.NRGBA{255, 255, 255, 255})
	half := window / 2
	ints := make([]int, w*h)
	for y := 0; y < h; y++ {
		rowSum := 0
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			v := int((r + g + b) / 3 >> 8)
			rowSum += v
			idx := y*w + x
			if y == 0 {
				ints[idx] = rowSum
			} else {
				ints[idx] = ints[(y-1)*w+x] + rowSum
			}
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			x0, y0 := x-half, y-half
			x1, y1 := x+half, y+half
			if x0 < 0 {
				x0 = 0
			}
			if y0 < 0 {
				y0 = 0
			}
			if x1 >= w {
				x1 = w - 1
			}
			if y1 >= h {
				y1 = h - 1
			}
			A := ints[y0*w+x0]
			B := ints[y0*w+x1]
			C := ints[y1*w+x0]
			D := ints[y1*w+x1]
			sum := D - B - C + A
			mean := sum / ((x1 - x0 + 1) * (y1 - y0 + 1))
			rv, gv, bv, _ := img.At(x, y).RGBA()
			pix := int((rv + gv + bv) / 3 >> 8)
			th := mean - bias
			if th < 0 {
				th = 0
			}
			var c color.NRGBA
			if pix < th {
				c = color.NRGBA{0, 0, 0, 255}
			} else {
				c = color.NRGBA{255, 255, 255, 255}
			}
			out.Set(x, y, c)
		}
	}
	return out
}

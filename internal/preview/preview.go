// Package preview renders extraction previews: tinted mask overlays,
// downsampled coverage grids for terminal display, and thumbnails.
package preview

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/mat"

	"patchlab/pkg/colorutil"
)

// DefaultTint is the mask highlight used when a caller has no preference.
var DefaultTint = colorutil.Red

// DefaultOpacity is the blend strength of the mask highlight.
const DefaultOpacity = 0.45

// Overlay renders img with mask-positive pixels tinted. The mask and image
// are aligned at the origin; pixels outside their intersection pass
// through unchanged. Opacity runs from 0 (invisible) to 1 (solid tint).
func Overlay(img image.Image, mask *mat.Dense, tint color.RGBA, opacity float64) *image.RGBA {
	bounds := img.Bounds()
	result := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(result, result.Bounds(), img, bounds.Min, draw.Src)
	if mask == nil {
		return result
	}

	opacity = clamp(opacity, 0, 1)
	h, w := mask.Dims()
	if h > bounds.Dy() {
		h = bounds.Dy()
	}
	if w > bounds.Dx() {
		w = bounds.Dx()
	}

	tr := float64(tint.R) / 255.0
	tg := float64(tint.G) / 255.0
	tb := float64(tint.B) / 255.0

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if mask.At(y, x) <= 0 {
				continue
			}
			dr, dg, db, _ := result.At(x, y).RGBA()
			df := [3]float64{
				float64(dr) / 65535.0,
				float64(dg) / 65535.0,
				float64(db) / 65535.0,
			}
			result.Set(x, y, color.RGBA{
				R: uint8(clamp(tr*opacity+df[0]*(1-opacity), 0, 1) * 255),
				G: uint8(clamp(tg*opacity+df[1]*(1-opacity), 0, 1) * 255),
				B: uint8(clamp(tb*opacity+df[2]*(1-opacity), 0, 1) * 255),
				A: 255,
			})
		}
	}
	return result
}

// DensityGrid downsamples mask coverage into a rows x cols grid of means
// in [0, 1]. Cells that cover no pixels report 0. It returns nil when the
// mask is absent or the grid shape is degenerate.
func DensityGrid(mask *mat.Dense, cols, rows int) [][]float64 {
	if mask == nil || cols <= 0 || rows <= 0 {
		return nil
	}
	h, w := mask.Dims()
	if h == 0 || w == 0 {
		return nil
	}

	grid := make([][]float64, rows)
	for gy := 0; gy < rows; gy++ {
		grid[gy] = make([]float64, cols)
		y0, y1 := gy*h/rows, (gy+1)*h/rows
		for gx := 0; gx < cols; gx++ {
			x0, x1 := gx*w/cols, (gx+1)*w/cols
			count := (y1 - y0) * (x1 - x0)
			if count == 0 {
				continue
			}
			sum := 0.0
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					if mask.At(y, x) > 0 {
						sum++
					}
				}
			}
			grid[gy][gx] = sum / float64(count)
		}
	}
	return grid
}

// CoverageRatio returns the mean of the binary mask, 0 for an empty one.
func CoverageRatio(mask *mat.Dense) float64 {
	if mask == nil {
		return 0
	}
	h, w := mask.Dims()
	if h == 0 || w == 0 {
		return 0
	}
	return mat.Sum(mask) / float64(h*w)
}

// Thumbnail scales img to fit within w x h, preserving aspect ratio.
func Thumbnail(img image.Image, w, h int) image.Image {
	return imaging.Fit(img, w, h, imaging.Lanczos)
}

func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}

package preview

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func flatImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// halfMask returns an h x w mask whose top half is foreground.
func halfMask(h, w int) *mat.Dense {
	m := mat.NewDense(h, w, nil)
	for y := 0; y < h/2; y++ {
		for x := 0; x < w; x++ {
			m.Set(y, x, 1)
		}
	}
	return m
}

func TestOverlayTintsForegroundOnly(t *testing.T) {
	base := flatImage(4, 4, color.RGBA{R: 100, G: 100, B: 100, A: 255})
	mask := halfMask(4, 4)

	out := Overlay(base, mask, color.RGBA{R: 255, A: 255}, 1.0)

	top := out.RGBAAt(1, 0)
	if top.R != 255 || top.G != 0 || top.B != 0 {
		t.Fatalf("expected a solid tint on foreground pixels, got %+v", top)
	}
	bottom := out.RGBAAt(1, 3)
	if bottom.R != 100 || bottom.G != 100 || bottom.B != 100 {
		t.Fatalf("expected background pixels untouched, got %+v", bottom)
	}
}

func TestOverlayBlendsByOpacity(t *testing.T) {
	base := flatImage(2, 2, color.RGBA{A: 255})
	mask := mat.NewDense(2, 2, []float64{1, 1, 1, 1})

	out := Overlay(base, mask, color.RGBA{R: 255, A: 255}, 0.5)
	got := out.RGBAAt(0, 0)
	if got.R < 120 || got.R > 135 {
		t.Fatalf("expected roughly half tint on black, got R=%d", got.R)
	}
	if got.G != 0 || got.B != 0 {
		t.Fatalf("expected untinted channels to stay black, got %+v", got)
	}
}

func TestOverlayNilMask(t *testing.T) {
	base := flatImage(3, 3, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	out := Overlay(base, nil, DefaultTint, DefaultOpacity)
	got := out.RGBAAt(2, 2)
	if got.R != 10 || got.G != 20 || got.B != 30 {
		t.Fatalf("expected a plain copy without a mask, got %+v", got)
	}
}

func TestOverlayMaskLargerThanImage(t *testing.T) {
	base := flatImage(2, 2, color.RGBA{A: 255})
	mask := mat.NewDense(8, 8, nil)
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			mask.Set(y, x, 1)
		}
	}

	out := Overlay(base, mask, color.RGBA{R: 255, A: 255}, 1.0)
	if b := out.Bounds(); b.Dx() != 2 || b.Dy() != 2 {
		t.Fatalf("expected output to keep image bounds, got %v", b)
	}
	if got := out.RGBAAt(1, 1); got.R != 255 {
		t.Fatalf("expected the intersection tinted, got %+v", got)
	}
}

func TestDensityGrid(t *testing.T) {
	mask := halfMask(8, 8)

	grid := DensityGrid(mask, 2, 2)
	if len(grid) != 2 || len(grid[0]) != 2 {
		t.Fatalf("expected a 2x2 grid, got %v", grid)
	}
	for gx := 0; gx < 2; gx++ {
		if grid[0][gx] != 1.0 {
			t.Fatalf("expected full coverage in top row, got %v", grid[0][gx])
		}
		if grid[1][gx] != 0.0 {
			t.Fatalf("expected empty bottom row, got %v", grid[1][gx])
		}
	}
}

func TestDensityGridDegenerate(t *testing.T) {
	if got := DensityGrid(nil, 2, 2); got != nil {
		t.Fatalf("expected nil for a nil mask, got %v", got)
	}
	mask := mat.NewDense(4, 4, nil)
	if got := DensityGrid(mask, 0, 2); got != nil {
		t.Fatalf("expected nil for zero columns, got %v", got)
	}
}

func TestDensityGridFinerThanMask(t *testing.T) {
	mask := mat.NewDense(2, 2, []float64{1, 1, 1, 1})
	grid := DensityGrid(mask, 4, 4)
	if len(grid) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(grid))
	}
	for _, row := range grid {
		for _, v := range row {
			if v != 0 && v != 1 {
				t.Fatalf("expected cells to be empty or full, got %v", v)
			}
		}
	}
}

func TestCoverageRatio(t *testing.T) {
	if got := CoverageRatio(nil); got != 0 {
		t.Fatalf("expected 0 for a nil mask, got %v", got)
	}
	mask := halfMask(4, 4)
	if got := CoverageRatio(mask); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("expected 0.5, got %v", got)
	}
}

func TestThumbnailFits(t *testing.T) {
	img := flatImage(400, 200, color.White)
	thumb := Thumbnail(img, 100, 100)
	b := thumb.Bounds()
	if b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("expected 100x50 thumbnail, got %dx%d", b.Dx(), b.Dy())
	}
}

package patch

import (
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"gonum.org/v1/gonum/mat"

	"patchlab/internal/config"
	"patchlab/internal/imageio"
	"patchlab/internal/pairing"
	"patchlab/pkg/grid"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
}

// quadImage returns a size x size image whose quadrants have distinct colors.
func quadImage(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	half := size / 2
	colors := [2][2]color.NRGBA{
		{{R: 255, A: 255}, {G: 255, A: 255}},
		{{B: 255, A: 255}, {R: 255, G: 255, A: 255}},
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, colors[y/half][x/half])
		}
	}
	return img
}

// topHalfMask returns a size x size mask whose top half is foreground.
func topHalfMask(size int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size/2; y++ {
		for x := 0; x < size; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return img
}

// fullMask returns a size x size mask that is entirely foreground.
func fullMask(size int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	return img
}

// fixture writes an image/mask pair and returns a config rooted in a fresh
// temp tree plus the pair record.
func fixture(t *testing.T, img, msk image.Image) (config.Config, pairing.Pair) {
	t.Helper()
	root := t.TempDir()
	imgPath := filepath.Join(root, "sample.png")
	mskPath := filepath.Join(root, "sample_mask.png")
	writePNG(t, imgPath, img)
	writePNG(t, mskPath, msk)

	cfg := config.Default()
	cfg.DataRoot = root
	cfg.PatchRoot = filepath.Join(root, "out")
	return cfg, pairing.Pair{Image: imgPath, Mask: mskPath, Stem: "sample"}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestScore(t *testing.T) {
	data := make([]float64, 4*4)
	for i := 0; i < 8; i++ {
		data[i] = 1 // top two rows foreground
	}
	mask := mat.NewDense(4, 4, data)

	t.Run("Full coverage", func(t *testing.T) {
		ratio, ok := Score(mask, grid.Coord{Y: 0, X: 0}, 2)
		if !ok || ratio != 1.0 {
			t.Errorf("expected 1.0/ok, got %v/%v", ratio, ok)
		}
	})
	t.Run("Zero coverage", func(t *testing.T) {
		ratio, ok := Score(mask, grid.Coord{Y: 2, X: 0}, 2)
		if !ok || ratio != 0.0 {
			t.Errorf("expected 0.0/ok, got %v/%v", ratio, ok)
		}
	})
	t.Run("Half coverage", func(t *testing.T) {
		ratio, ok := Score(mask, grid.Coord{Y: 1, X: 0}, 2)
		if !ok || ratio != 0.5 {
			t.Errorf("expected 0.5/ok, got %v/%v", ratio, ok)
		}
	})
	t.Run("Out of bounds", func(t *testing.T) {
		if _, ok := Score(mask, grid.Coord{Y: 3, X: 3}, 2); ok {
			t.Error("expected ok=false past the mask edge")
		}
		if _, ok := Score(mask, grid.Coord{Y: 0, X: 0}, 5); ok {
			t.Error("expected ok=false for oversized patch")
		}
	})
}

func TestSample(t *testing.T) {
	coords := []grid.Coord{
		{Y: 0, X: 0},
		{Y: 0, X: 1},
		{Y: 0, X: 2},
		{Y: 1, X: 0},
		{Y: 1, X: 1},
	}

	t.Run("Zero cap keeps all", func(t *testing.T) {
		got := Sample(coords, 0, rand.New(rand.NewSource(1)))
		if !reflect.DeepEqual(got, coords) {
			t.Errorf("expected unchanged input, got %v", got)
		}
	})
	t.Run("Cap above count keeps all", func(t *testing.T) {
		got := Sample(coords, 10, rand.New(rand.NewSource(1)))
		if !reflect.DeepEqual(got, coords) {
			t.Errorf("expected unchanged input, got %v", got)
		}
	})
	t.Run("Cap enforced exactly", func(t *testing.T) {
		got := Sample(coords, 3, rand.New(rand.NewSource(1)))
		if len(got) != 3 {
			t.Fatalf("expected exactly 3, got %d", len(got))
		}
		seen := make(map[grid.Coord]struct{})
		for _, c := range got {
			seen[c] = struct{}{}
		}
		if len(seen) != 3 {
			t.Errorf("expected 3 distinct coords, got %v", got)
		}
	})
	t.Run("Deterministic for a fixed seed", func(t *testing.T) {
		a := Sample(coords, 3, rand.New(rand.NewSource(42)))
		b := Sample(coords, 3, rand.New(rand.NewSource(42)))
		if !reflect.DeepEqual(a, b) {
			t.Errorf("expected identical samples, got %v and %v", a, b)
		}
	})
	t.Run("Input not modified", func(t *testing.T) {
		orig := make([]grid.Coord, len(coords))
		copy(orig, coords)
		Sample(coords, 2, rand.New(rand.NewSource(7)))
		if !reflect.DeepEqual(coords, orig) {
			t.Errorf("input slice was mutated: %v", coords)
		}
	})
}

func TestExtractKeepsAll(t *testing.T) {
	cfg, pr := fixture(t, quadImage(512), fullMask(512))
	rng := rand.New(rand.NewSource(cfg.Seed))

	res, err := Extract(cfg, pr, rng)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Stats.TotalCoords != 4 || res.Stats.Kept != 4 {
		t.Errorf("expected 4/4, got %d/%d", res.Stats.TotalCoords, res.Stats.Kept)
	}
	if res.Stats.CoverageMean != 1.0 {
		t.Errorf("expected coverage mean 1.0, got %v", res.Stats.CoverageMean)
	}
	if res.Image == nil || res.Mask == nil {
		t.Error("expected preview payload in result")
	}

	want := []string{
		"sample_y0_x0.png",
		"sample_y0_x256.png",
		"sample_y256_x0.png",
		"sample_y256_x256.png",
	}
	if got := listDir(t, cfg.OutImagesDir()); !reflect.DeepEqual(got, want) {
		t.Errorf("image patches: expected %v, got %v", want, got)
	}
	if got := listDir(t, cfg.OutMasksDir()); !reflect.DeepEqual(got, want) {
		t.Errorf("mask patches: expected %v, got %v", want, got)
	}
}

func TestExtractCropContent(t *testing.T) {
	cfg, pr := fixture(t, quadImage(512), fullMask(512))
	if _, err := Extract(cfg, pr, rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	// The patch at (y=0, x=256) lies in the green quadrant.
	img, err := imageio.LoadImage(filepath.Join(cfg.OutImagesDir(), "sample_y0_x256.png"))
	if err != nil {
		t.Fatalf("load patch: %v", err)
	}
	if img.Bounds().Dx() != 256 || img.Bounds().Dy() != 256 {
		t.Fatalf("expected 256x256 patch, got %v", img.Bounds())
	}
	r, g, _, _ := img.At(img.Bounds().Min.X, img.Bounds().Min.Y).RGBA()
	if r != 0 || g == 0 {
		t.Errorf("expected green quadrant pixel, got r=%d g=%d", r, g)
	}
}

func TestExtractRatioFilter(t *testing.T) {
	cfg, pr := fixture(t, quadImage(512), topHalfMask(512))
	cfg.MinMaskRatio = 0.5

	res, err := Extract(cfg, pr, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Stats.TotalCoords != 4 || res.Stats.Kept != 2 {
		t.Errorf("expected 4 candidates / 2 kept, got %d/%d", res.Stats.TotalCoords, res.Stats.Kept)
	}
	// Mean over ALL evaluated candidates: (1+1+0+0)/4.
	if res.Stats.CoverageMean != 0.5 {
		t.Errorf("expected coverage mean 0.5, got %v", res.Stats.CoverageMean)
	}

	want := []string{"sample_y0_x0.png", "sample_y0_x256.png"}
	if got := listDir(t, cfg.OutImagesDir()); !reflect.DeepEqual(got, want) {
		t.Errorf("expected only top-half patches %v, got %v", want, got)
	}
}

func TestExtractRatioFilterDisabled(t *testing.T) {
	cfg, pr := fixture(t, quadImage(512), topHalfMask(512))
	cfg.MinMaskRatio = 0.9
	cfg.ApplyMinMaskRatio = false

	res, err := Extract(cfg, pr, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Stats.Kept != 4 {
		t.Errorf("expected all 4 kept with filter disabled, got %d", res.Stats.Kept)
	}
}

func TestExtractCapDeterministic(t *testing.T) {
	run := func() []string {
		cfg, pr := fixture(t, quadImage(512), fullMask(512))
		cfg.PatchSize = 128
		cfg.Stride = 128
		cfg.MaxPatchesPerImage = 5

		res, err := Extract(cfg, pr, rand.New(rand.NewSource(cfg.Seed)))
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if res.Stats.TotalCoords != 16 {
			t.Fatalf("expected 16 candidates, got %d", res.Stats.TotalCoords)
		}
		if res.Stats.Kept != 5 {
			t.Fatalf("expected exactly 5 kept, got %d", res.Stats.Kept)
		}
		return listDir(t, cfg.OutImagesDir())
	}

	first := run()
	second := run()
	if len(first) != 5 {
		t.Fatalf("expected 5 files, got %d", len(first))
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("same seed should keep the same patches: %v vs %v", first, second)
	}
}

func TestExtractTinyImageDiscards(t *testing.T) {
	cfg, pr := fixture(t, quadImage(100), fullMask(100))

	res, err := Extract(cfg, pr, rand.New(rand.NewSource(cfg.Seed)))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Stats.TotalCoords != 1 || res.Stats.Kept != 0 {
		t.Errorf("expected 1 candidate / 0 kept, got %d/%d", res.Stats.TotalCoords, res.Stats.Kept)
	}
	if res.Stats.CoverageMean != 0 {
		t.Errorf("expected 0 coverage mean with nothing evaluated, got %v", res.Stats.CoverageMean)
	}
	if _, err := os.Stat(cfg.OutImagesDir()); !os.IsNotExist(err) {
		t.Error("expected no output dirs when nothing was kept")
	}
}

func TestExtractMaskPatchValues(t *testing.T) {
	cfg, pr := fixture(t, quadImage(512), topHalfMask(512))

	if _, err := Extract(cfg, pr, rand.New(rand.NewSource(1))); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	img, err := imageio.LoadImage(filepath.Join(cfg.OutMasksDir(), "sample_y0_x0.png"))
	if err != nil {
		t.Fatalf("load mask patch: %v", err)
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			if v := r >> 8; v != 0 && v != 255 {
				t.Fatalf("mask pixel at (%d,%d) = %d, want 0 or 255", x, y, v)
			}
		}
	}
}

func TestExtractUnreadableImage(t *testing.T) {
	cfg, pr := fixture(t, quadImage(512), fullMask(512))
	if err := os.WriteFile(pr.Image, []byte("broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Extract(cfg, pr, rand.New(rand.NewSource(1))); err == nil {
		t.Error("expected error for undecodable image")
	}
}

func TestDryRunStats(t *testing.T) {
	s := DryRunStats()
	if s.TotalCoords != -1 || s.Kept != -1 || s.CoverageMean != -1.0 {
		t.Errorf("expected all-negative sentinel, got %+v", s)
	}
}

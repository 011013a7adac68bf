package patch

import (
	"fmt"
	"image"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"patchlab/internal/config"
	"patchlab/internal/imageio"
	"patchlab/internal/pairing"
	"patchlab/pkg/grid"
)

// Extract runs the full pipeline for one pair: decode both files, generate
// the coordinate grid, score and filter candidates, subsample to the
// configured cap, and materialize the kept patches. rng is the job's seeded
// stream, consumed once per pair in pair order.
//
// Any decode or write failure aborts the pair; the caller treats that as a
// whole-job failure.
func Extract(cfg config.Config, pr pairing.Pair, rng *rand.Rand) (Result, error) {
	img, err := imageio.LoadImage(pr.Image)
	if err != nil {
		return Result{}, err
	}
	mask, err := imageio.LoadMask(pr.Mask)
	if err != nil {
		return Result{}, err
	}

	bounds := img.Bounds()
	imgH, imgW := bounds.Dy(), bounds.Dx()
	maskH, maskW := mask.Dims()
	size := cfg.PatchSize

	coords := grid.Coords(imgH, imgW, size, cfg.Stride, cfg.IncludeBorders)

	ratios := make([]float64, 0, len(coords))
	kept := make([]grid.Coord, 0, len(coords))
	for _, c := range coords {
		// Degenerate fallback origins can exceed either surface; those
		// crops are discarded, not errors.
		if c.Y+size > imgH || c.X+size > imgW || c.Y+size > maskH || c.X+size > maskW {
			continue
		}
		ratio, ok := Score(mask, c, size)
		if !ok {
			continue
		}
		ratios = append(ratios, ratio)
		if cfg.ApplyMinMaskRatio && ratio < cfg.MinMaskRatio {
			continue
		}
		kept = append(kept, c)
	}

	kept = Sample(kept, cfg.MaxPatchesPerImage, rng)

	if err := materialize(cfg, pr.Stem, img, mask, kept); err != nil {
		return Result{}, err
	}

	stats := PairStats{TotalCoords: len(coords), Kept: len(kept)}
	if len(ratios) > 0 {
		stats.CoverageMean = stat.Mean(ratios, nil)
	}
	return Result{Stats: stats, Image: img, Mask: mask}, nil
}

// materialize crops and writes every kept patch for one pair. Destination
// directories are created idempotently before the first write.
func materialize(cfg config.Config, stem string, img image.Image, mask *mat.Dense, kept []grid.Coord) error {
	if len(kept) == 0 {
		return nil
	}

	outImages, outMasks := cfg.OutImagesDir(), cfg.OutMasksDir()
	for _, dir := range []string{outImages, outMasks} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	size := cfg.PatchSize
	for _, c := range kept {
		name := FileName(stem, c, cfg.SaveFormat)

		crop := imaging.Crop(img, image.Rect(c.X, c.Y, c.X+size, c.Y+size))
		if err := imaging.Save(crop, filepath.Join(outImages, name)); err != nil {
			return fmt.Errorf("save image patch %s: %w", name, err)
		}

		view := mask.Slice(c.Y, c.Y+size, c.X, c.X+size)
		if err := imaging.Save(imageio.GrayFromMatrix(view), filepath.Join(outMasks, name)); err != nil {
			return fmt.Errorf("save mask patch %s: %w", name, err)
		}
	}
	return nil
}

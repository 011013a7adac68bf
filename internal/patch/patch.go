// Package patch evaluates, samples, and materializes fixed-size square
// patches from one image/mask pair.
package patch

import (
	"image"

	"gonum.org/v1/gonum/mat"
)

// PairStats summarizes the evaluation of one pair.
type PairStats struct {
	// TotalCoords is the number of candidate origins the grid produced.
	TotalCoords int `json:"total_coords"`
	// Kept is the number of patches that survived filtering and sampling.
	Kept int `json:"kept"`
	// CoverageMean is the mean coverage ratio across all evaluated
	// candidates, kept or not. It is a diagnostic signal independent of
	// the filter decision.
	CoverageMean float64 `json:"coverage_mean"`
}

// DryRunStats returns the sentinel record reported when extraction is
// skipped. All fields are negative to signal "not computed".
func DryRunStats() PairStats {
	return PairStats{TotalCoords: -1, Kept: -1, CoverageMean: -1.0}
}

// Result carries the outcome of extracting one pair, including the decoded
// inputs for preview rendering.
type Result struct {
	Stats PairStats
	Image image.Image
	Mask  *mat.Dense
}

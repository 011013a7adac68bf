package patch

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"patchlab/pkg/grid"
)

// Score returns the mask-coverage ratio of the size-by-size crop at c: the
// mean of the crop's 0/1 values, always in [0,1]. ok is false when the crop
// extends past the mask bounds, which only happens for the degenerate
// fallback origin of images smaller than one patch.
func Score(mask *mat.Dense, c grid.Coord, size int) (ratio float64, ok bool) {
	h, w := mask.Dims()
	if c.Y < 0 || c.X < 0 || c.Y+size > h || c.X+size > w {
		return 0, false
	}
	view := mask.Slice(c.Y, c.Y+size, c.X, c.X+size)
	return mat.Sum(view) / float64(size*size), true
}

// Sample caps the kept coordinates at max by unordered random subsampling.
// With max <= 0 or fewer coordinates than max, the input is returned as is.
// The input slice is never modified; rng is the job's single seeded stream,
// so multi-pair runs stay reproducible.
func Sample(coords []grid.Coord, max int, rng *rand.Rand) []grid.Coord {
	if max <= 0 || len(coords) <= max {
		return coords
	}
	shuffled := make([]grid.Coord, len(coords))
	copy(shuffled, coords)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled[:max]
}

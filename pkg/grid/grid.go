// Package grid generates deterministic patch-origin grids over an image plane.
package grid

import "sort"

// Coord identifies the top-left corner of a square patch within an image,
// in row-major (Y, X) pixel units.
type Coord struct {
	Y int `json:"y"`
	X int `json:"x"`
}

// Less reports whether c orders before other, ascending by (Y, X).
func (c Coord) Less(other Coord) bool {
	if c.Y != other.Y {
		return c.Y < other.Y
	}
	return c.X < other.X
}

// Coords returns the origins of all p-by-p patches for an image of height h
// and width w, spaced stride s apart, deduplicated and sorted ascending by
// (Y, X).
//
// The base grid walks 0, s, 2s, … strictly below max(1, dim−p+1). The lower
// bound of 1 means an image smaller than one patch still yields one origin
// at 0; the resulting out-of-bounds crop is discarded downstream rather than
// rejected here. With borders enabled, a trailing row at y = h−p is added
// when the stride grid does not land exactly on the bottom edge, and
// symmetrically a trailing column at x = w−p.
func Coords(h, w, p, s int, borders bool) []Coord {
	if p <= 0 || s <= 0 {
		return nil
	}

	ys := axisSteps(h, p, s)
	xs := axisSteps(w, p, s)

	seen := make(map[Coord]struct{}, len(ys)*len(xs))
	for _, y := range ys {
		for _, x := range xs {
			seen[Coord{Y: y, X: x}] = struct{}{}
		}
	}

	if borders {
		if h > p && (h-p)%s != 0 {
			for _, x := range xs {
				seen[Coord{Y: h - p, X: x}] = struct{}{}
			}
		}
		if w > p && (w-p)%s != 0 {
			for _, y := range ys {
				seen[Coord{Y: y, X: w - p}] = struct{}{}
			}
		}
	}

	out := make([]Coord, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// axisSteps returns the base stride positions along one axis of length dim.
func axisSteps(dim, p, s int) []int {
	limit := dim - p + 1
	if limit < 1 {
		limit = 1
	}
	steps := make([]int, 0, (limit+s-1)/s)
	for v := 0; v < limit; v += s {
		steps = append(steps, v)
	}
	return steps
}

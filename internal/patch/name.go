package patch

import (
	"fmt"
	"regexp"
	"strconv"

	"patchlab/pkg/grid"
)

// FileName returns the deterministic output name for a patch of the given
// source stem at origin c. The position is recoverable from the name alone,
// and names never collide between patches of the same source image.
func FileName(stem string, c grid.Coord, format string) string {
	return fmt.Sprintf("%s_y%d_x%d.%s", stem, c.Y, c.X, format)
}

var patchNameRe = regexp.MustCompile(`^(.+)_y(\d+)_x(\d+)\.[A-Za-z0-9]+$`)

// ParseFileName recovers the source stem and origin from a name produced by
// FileName. ok is false for names in any other shape.
func ParseFileName(name string) (stem string, c grid.Coord, ok bool) {
	m := patchNameRe.FindStringSubmatch(name)
	if m == nil {
		return "", grid.Coord{}, false
	}
	y, errY := strconv.Atoi(m[2])
	x, errX := strconv.Atoi(m[3])
	if errY != nil || errX != nil {
		return "", grid.Coord{}, false
	}
	return m[1], grid.Coord{Y: y, X: x}, true
}

// Package pairing resolves image/mask file pairs by filename stem.
package pairing

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Pair associates an image file with the mask file sharing its stem.
type Pair struct {
	Image string
	Mask  string
	Stem  string
}

// Stem returns a file's base name without its extension, the join key for
// pairing.
func Stem(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// ListImages returns the regular files in dir matching any of the glob
// patterns, deduplicated and sorted lexicographically by path. A missing
// directory simply yields no matches. Only a malformed pattern is an error.
func ListImages(dir string, patterns []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, pat := range patterns {
		matches, err := filepath.Glob(filepath.Join(dir, pat))
		if err != nil {
			return nil, fmt.Errorf("bad extension pattern %q: %w", pat, err)
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || info.IsDir() {
				continue
			}
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// Resolve returns the pairs under the two directories whose filename stems
// match exactly, sorted by image path. Matching is by stem only, so the
// image and mask extensions may differ. Images without a mask are silently
// excluded; an empty result is a valid outcome, not an error.
//
// When several mask files share a stem, the lexicographically last path
// wins. This keeps the resolution deterministic regardless of directory
// enumeration order.
func Resolve(imagesDir, masksDir string, patterns []string) ([]Pair, error) {
	images, err := ListImages(imagesDir, patterns)
	if err != nil {
		return nil, err
	}
	masks, err := ListImages(masksDir, patterns)
	if err != nil {
		return nil, err
	}

	// masks is sorted, so later entries overwrite earlier ones and the
	// lexicographically last path ends up in the index.
	byStem := make(map[string]string, len(masks))
	for _, m := range masks {
		byStem[Stem(m)] = m
	}

	var pairs []Pair
	for _, img := range images {
		stem := Stem(img)
		if mask, ok := byStem[stem]; ok {
			pairs = append(pairs, Pair{Image: img, Mask: mask, Stem: stem})
		}
	}
	return pairs, nil
}

// Census summarizes a source tree without touching pixel data.
type Census struct {
	Images    int
	Masks     int
	Pairs     int
	Unmatched []string
}

// Scan counts images, masks, and resolvable pairs under the two
// directories, recording the stems of images that have no mask.
func Scan(imagesDir, masksDir string, patterns []string) (Census, error) {
	images, err := ListImages(imagesDir, patterns)
	if err != nil {
		return Census{}, err
	}
	masks, err := ListImages(masksDir, patterns)
	if err != nil {
		return Census{}, err
	}

	maskStems := make(map[string]struct{}, len(masks))
	for _, m := range masks {
		maskStems[Stem(m)] = struct{}{}
	}

	c := Census{Images: len(images), Masks: len(masks)}
	for _, img := range images {
		if _, ok := maskStems[Stem(img)]; ok {
			c.Pairs++
		} else {
			c.Unmatched = append(c.Unmatched, Stem(img))
		}
	}
	return c, nil
}

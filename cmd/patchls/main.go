// Command patchls summarizes an extracted patch tree by source stem.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"patchlab/internal/config"
	"patchlab/internal/imageio"
	"patchlab/internal/patch"
	"patchlab/internal/version"
	"patchlab/pkg/grid"
)

type stemSummary struct {
	patches int
	coords  []grid.Coord
	masks   int
}

func main() {
	dir := flag.String("dir", "", "Patch root produced by an extraction run")
	imageFolder := flag.String("image-folder", config.DefaultImageFolder, "Image subdirectory name")
	maskFolder := flag.String("mask-folder", config.DefaultMaskFolder, "Mask subdirectory name")
	showVersion := flag.Bool("version", false, "Print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *dir == "" {
		fmt.Println("Usage: patchls -dir <patch root>")
		os.Exit(1)
	}

	imagesDir := filepath.Join(*dir, *imageFolder)
	masksDir := filepath.Join(*dir, *maskFolder)

	summaries := map[string]*stemSummary{}
	skipped := 0

	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", imagesDir, err)
		os.Exit(1)
	}
	for _, entry := range entries {
		if entry.IsDir() || !imageio.IsSupportedFormat(entry.Name()) {
			continue
		}
		stem, coord, ok := patch.ParseFileName(entry.Name())
		if !ok {
			skipped++
			continue
		}
		s := summaries[stem]
		if s == nil {
			s = &stemSummary{}
			summaries[stem] = s
		}
		s.patches++
		s.coords = append(s.coords, coord)
	}

	// Count the mask side so orphaned patches stand out.
	if maskEntries, err := os.ReadDir(masksDir); err == nil {
		for _, entry := range maskEntries {
			if entry.IsDir() || !imageio.IsSupportedFormat(entry.Name()) {
				continue
			}
			stem, _, ok := patch.ParseFileName(entry.Name())
			if !ok {
				continue
			}
			if s := summaries[stem]; s != nil {
				s.masks++
			}
		}
	}

	if len(summaries) == 0 {
		fmt.Println("No patches found.")
		return
	}

	stems := make([]string, 0, len(summaries))
	for stem := range summaries {
		stems = append(stems, stem)
	}
	sort.Strings(stems)

	fmt.Printf("%-24s %8s %8s %14s %14s\n", "Stem", "Patches", "Masks", "Y range", "X range")
	totalPatches := 0
	for _, stem := range stems {
		s := summaries[stem]
		totalPatches += s.patches
		minY, maxY, minX, maxX := bounds(s.coords)
		flag := ""
		if s.masks != s.patches {
			flag = "  (mask mismatch)"
		}
		fmt.Printf("%-24s %8d %8d %6d-%-7d %6d-%-7d%s\n",
			stem, s.patches, s.masks, minY, maxY, minX, maxX, flag)
	}
	fmt.Printf("\n%d stems, %d patches", len(summaries), totalPatches)
	if skipped > 0 {
		fmt.Printf(", %d files skipped", skipped)
	}
	fmt.Println()
}

func bounds(coords []grid.Coord) (minY, maxY, minX, maxX int) {
	for i, c := range coords {
		if i == 0 || c.Y < minY {
			minY = c.Y
		}
		if c.Y > maxY {
			maxY = c.Y
		}
		if i == 0 || c.X < minX {
			minX = c.X
		}
		if c.X > maxX {
			maxX = c.X
		}
	}
	return minY, maxY, minX, maxX
}

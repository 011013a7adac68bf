// Command pairscan reports how a data tree resolves into image/mask pairs.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"patchlab/internal/config"
	"patchlab/internal/imageio"
	"patchlab/internal/pairing"
	"patchlab/internal/preview"
	"patchlab/internal/version"
	"patchlab/pkg/grid"
)

func main() {
	data := flag.String("data", "", "Data root containing the image and mask folders")
	imageFolder := flag.String("image-folder", config.DefaultImageFolder, "Image subdirectory name")
	maskFolder := flag.String("mask-folder", config.DefaultMaskFolder, "Mask subdirectory name")
	exts := flag.String("ext", "", "Comma-separated image glob patterns, e.g. *.png,*.jpg")
	size := flag.Int("size", 256, "Patch size for the candidate estimate")
	stride := flag.Int("stride", 256, "Stride for the candidate estimate")
	borders := flag.Bool("borders", true, "Include border-aligned patches in the estimate")
	detail := flag.Bool("detail", false, "Load every pair and report dimensions, coverage, and candidates")
	showVersion := flag.Bool("version", false, "Print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *data == "" {
		fmt.Println("Usage: pairscan -data <dir> [-detail] [-size 256] [-stride 256]")
		os.Exit(1)
	}

	patterns := config.Default().Extensions
	if *exts != "" {
		patterns = nil
		for _, part := range strings.Split(*exts, ",") {
			if part = strings.TrimSpace(part); part != "" {
				patterns = append(patterns, part)
			}
		}
	}

	imagesDir := filepath.Join(*data, *imageFolder)
	masksDir := filepath.Join(*data, *maskFolder)
	census, err := pairing.Scan(imagesDir, masksDir, patterns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Images: %d   Masks: %d   Pairs: %d\n",
		census.Images, census.Masks, census.Pairs)

	if len(census.Unmatched) > 0 {
		fmt.Printf("\nImages without a mask (%d):\n", len(census.Unmatched))
		for _, stem := range census.Unmatched {
			fmt.Printf("  %s\n", stem)
		}
	}

	if !*detail {
		return
	}

	pairs, err := pairing.Resolve(imagesDir, masksDir, patterns)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Resolve failed: %v\n", err)
		os.Exit(1)
	}
	if len(pairs) == 0 {
		return
	}

	fmt.Printf("\n%-24s %12s %10s %10s\n", "Pair", "Size", "Coverage", "Candidates")
	totalCandidates := 0
	for _, pr := range pairs {
		img, err := imageio.LoadImage(pr.Image)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", pr.Stem, err)
			continue
		}
		mask, err := imageio.LoadMask(pr.Mask)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s: %v\n", pr.Stem, err)
			continue
		}

		b := img.Bounds()
		coords := grid.Coords(b.Dy(), b.Dx(), *size, *stride, *borders)
		totalCandidates += len(coords)
		fmt.Printf("%-24s %5dx%-6d %9.1f%% %10d\n",
			pr.Stem, b.Dx(), b.Dy(), 100*preview.CoverageRatio(mask), len(coords))
	}
	fmt.Printf("\nTotal candidate patches: %d\n", totalCandidates)
}

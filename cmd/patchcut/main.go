// Command patchcut runs a patch extraction job from the command line.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"patchlab/internal/config"
	"patchlab/internal/history"
	"patchlab/internal/pairing"
	"patchlab/internal/runner"
	"patchlab/internal/version"
)

func main() {
	data := flag.String("data", "", "Data root containing the image and mask folders")
	out := flag.String("out", "", "Output root for extracted patches")
	size := flag.Int("size", 256, "Patch size in pixels")
	stride := flag.Int("stride", 256, "Stride between patch origins in pixels")
	minRatio := flag.Float64("min-ratio", 0.0, "Minimum mask coverage ratio to keep a patch")
	maxPatches := flag.Int("max-patches", 0, "Maximum patches kept per image, 0 for unlimited")
	format := flag.String("format", "png", "Save format: png, jpg, or tif")
	seed := flag.Int64("seed", 123, "Seed for patch subsampling")
	borders := flag.Bool("borders", true, "Include border-aligned patches")
	applyRatio := flag.Bool("apply-ratio", true, "Apply the minimum mask ratio filter")
	dryRun := flag.Bool("dry-run", false, "Count patches without writing any files")
	exts := flag.String("ext", "", "Comma-separated image glob patterns, e.g. *.png,*.jpg")
	imageFolder := flag.String("image-folder", "", "Image subdirectory name")
	maskFolder := flag.String("mask-folder", "", "Mask subdirectory name")
	configPath := flag.String("config", "", "Path to a JSON config file")
	saveConfig := flag.String("save-config", "", "Write the resolved config to a JSON file and exit")
	historyN := flag.Int("history", 0, "Show the N most recent runs and exit")
	noHistory := flag.Bool("no-history", false, "Do not record this run in the history database")
	verbose := flag.Bool("verbose", false, "Print per-pair log lines instead of a progress bar")
	showVersion := flag.Bool("version", false, "Print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *historyN > 0 {
		showHistory(*historyN)
		return
	}

	// .env before PATCHLAB_* so both can seed the config.
	_ = godotenv.Load()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg = config.FromEnv(cfg)

	// Explicit flags take precedence over file and environment values.
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["data"] {
		cfg.DataRoot = *data
	}
	if set["out"] {
		cfg.PatchRoot = *out
	}
	if set["size"] {
		cfg.PatchSize = *size
	}
	if set["stride"] {
		cfg.Stride = *stride
	}
	if set["min-ratio"] {
		cfg.MinMaskRatio = *minRatio
	}
	if set["max-patches"] {
		cfg.MaxPatchesPerImage = *maxPatches
	}
	if set["format"] {
		cfg.SaveFormat = *format
	}
	if set["seed"] {
		cfg.Seed = *seed
	}
	if set["borders"] {
		cfg.IncludeBorders = *borders
	}
	if set["apply-ratio"] {
		cfg.ApplyMinMaskRatio = *applyRatio
	}
	if set["dry-run"] {
		cfg.DryRun = *dryRun
	}
	if set["ext"] {
		cfg.Extensions = splitPatterns(*exts)
	}
	if set["image-folder"] {
		cfg.ImageFolderName = *imageFolder
	}
	if set["mask-folder"] {
		cfg.MaskFolderName = *maskFolder
	}

	if *saveConfig != "" {
		if err := cfg.SaveFile(*saveConfig); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to save config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote config to %s\n", *saveConfig)
		return
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		fmt.Println("Usage: patchcut -data <dir> -out <dir> [flags]")
		os.Exit(1)
	}

	census, err := pairing.Scan(cfg.ImagesDir(), cfg.MasksDir(), cfg.Extensions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to scan data root: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Found %d images, %d masks, %d pairs\n",
		census.Images, census.Masks, census.Pairs)
	if cfg.DryRun {
		fmt.Println("Dry run: no patches will be written")
	}

	ok, msg := execute(cfg, census.Pairs, *verbose, !*noHistory)
	if !ok {
		fmt.Fprintln(os.Stderr, msg)
		os.Exit(1)
	}
	fmt.Println(msg)
}

// execute drives a runner to completion, rendering progress and recording
// the run. It returns the terminal outcome.
func execute(cfg config.Config, pairs int, verbose, record bool) (bool, string) {
	r := runner.New(cfg)
	events := r.Events()

	// Interrupts cancel at the next pair boundary rather than killing the
	// process mid-write.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		for range sigCh {
			r.Cancel()
		}
	}()

	var p *mpb.Progress
	var bar *mpb.Bar
	if !verbose && pairs > 0 {
		p = mpb.New(mpb.WithWidth(80))
		bar = p.AddBar(int64(pairs),
			mpb.PrependDecorators(
				decor.Name("Extracting: "),
				decor.Percentage(decor.WCSyncSpace),
			),
			mpb.AppendDecorators(
				decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO), "done!"),
			),
		)
	}

	startedAt := time.Now()
	r.Start()

	ok := false
	msg := ""
	for ev := range events {
		switch ev.Type {
		case runner.EventStats:
			if bar != nil {
				bar.Increment()
			}
		case runner.EventLog:
			if verbose {
				fmt.Println(ev.Message)
			}
		case runner.EventDone:
			ok = ev.OK
			msg = ev.Message
		}
	}
	finishedAt := time.Now()

	if bar != nil {
		if !ok {
			bar.Abort(true)
		}
		p.Wait()
	}

	if record {
		appendHistory(r, cfg, startedAt, finishedAt)
	}
	return ok, msg
}

// appendHistory stores the finished run. Failures are reported but never
// change the run's outcome.
func appendHistory(r *runner.Runner, cfg config.Config, startedAt, finishedAt time.Time) {
	store, err := history.Open(history.DefaultPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open history: %v\n", err)
		return
	}
	defer store.Close()

	ok, msg := r.Outcome()
	_, err = store.Append(history.Record{
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Config:     cfg,
		State:      r.State().String(),
		OK:         ok,
		Message:    msg,
		Stats:      r.Stats(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not record run: %v\n", err)
	}
}

func showHistory(n int) {
	store, err := history.Open(history.DefaultPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open history: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	recs, err := store.Recent(n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read history: %v\n", err)
		os.Exit(1)
	}
	if len(recs) == 0 {
		fmt.Println("No recorded runs.")
		return
	}

	fmt.Printf("%-4s %-19s %-10s %8s  %s\n", "ID", "Finished", "State", "Patches", "Message")
	for _, rec := range recs {
		fmt.Printf("%-4d %-19s %-10s %8d  %s\n",
			rec.ID,
			rec.FinishedAt.Format("2006-01-02 15:04:05"),
			rec.State,
			rec.Stats.PatchesTotal,
			rec.Message)
	}
}

// splitPatterns parses a comma-separated pattern list, dropping blanks.
func splitPatterns(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

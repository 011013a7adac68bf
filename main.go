// Package main provides the entry point for the patchlab application.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"patchlab/internal/config"
	"patchlab/internal/history"
	"patchlab/internal/settings"
	"patchlab/internal/version"
	"patchlab/internal/watch"
	"patchlab/ui/tui"
)

func main() {
	configPath := flag.String("config", "", "Path to a JSON config file to preload into the form")
	showVersion := flag.Bool("version", false, "Print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	_ = godotenv.Load()

	sets := settings.Load()
	seedConfig(sets, *configPath)

	m := tui.NewModel(sets, history.DefaultPath())
	p := tea.NewProgram(m, tea.WithAltScreen())

	stopWatch := setupWatch(p, sets)
	defer stopWatch()

	if _, err := p.Run(); err != nil {
		log.Fatalf("patchlab: %v", err)
	}
}

// seedConfig decides what configuration the form opens with: an explicit
// -config file, else the stored last run, else PATCHLAB_* environment
// values when they point anywhere. The choice is kept in memory only; the
// settings file changes when a run starts.
func seedConfig(sets *settings.Settings, configPath string) {
	if configPath != "" {
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		sets.SetLastConfig(config.FromEnv(cfg))
		return
	}
	if cfg, ok := sets.LastConfig(); ok {
		sets.SetLastConfig(config.FromEnv(cfg))
		return
	}
	cfg := config.FromEnv(config.Default())
	if cfg.DataRoot != "" || cfg.PatchRoot != "" {
		sets.SetLastConfig(cfg)
	}
}

// setupWatch polls the last-used data directories and nudges the UI to
// rescan when they change.
func setupWatch(p *tea.Program, sets *settings.Settings) func() {
	cfg, ok := sets.LastConfig()
	if !ok {
		return func() {}
	}

	w := watch.NewDirWatcher(2*time.Second, cfg.ImagesDir(), cfg.MasksDir())
	w.OnChange(func() {
		p.Send(tui.DataChangedMsg{})
	})
	w.Start()
	return w.Stop
}

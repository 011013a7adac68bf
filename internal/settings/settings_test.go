package settings

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"patchlab/internal/config"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	s := Load()
	if got := s.ImageFolderName(); got != "Image" {
		t.Fatalf("expected default image folder, got %q", got)
	}
	if got := s.MaskFolderName(); got != "Mask" {
		t.Fatalf("expected default mask folder, got %q", got)
	}
	cfg, ok := s.LastConfig()
	if ok {
		t.Fatal("expected no stored config in a fresh settings file")
	}
	if !reflect.DeepEqual(cfg, config.Default()) {
		t.Fatalf("expected default config fallback, got %+v", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	s := Load()
	s.SetFolderNames("imgs", "labels")
	s.SetInt("window_rows", 40)
	s.SetBool("follow_log", true)
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded := Load()
	if got := reloaded.ImageFolderName(); got != "imgs" {
		t.Fatalf("expected %q, got %q", "imgs", got)
	}
	if got := reloaded.MaskFolderName(); got != "labels" {
		t.Fatalf("expected %q, got %q", "labels", got)
	}
	if got := reloaded.Int("window_rows", 0); got != 40 {
		t.Fatalf("expected 40, got %d", got)
	}
	if !reloaded.Bool("follow_log", false) {
		t.Fatal("expected follow_log true after reload")
	}
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path := filepath.Join(dir, "patchlab", "settings.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := Load()
	if got := s.ImageFolderName(); got != "Image" {
		t.Fatalf("corrupt file must fall back to defaults, got %q", got)
	}
	if got := s.String("anything", "fb"); got != "fb" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestTypedFallbacks(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	s := Load()
	if got := s.String("missing", "x"); got != "x" {
		t.Fatalf("expected %q, got %q", "x", got)
	}
	if got := s.Int("missing", 7); got != 7 {
		t.Fatalf("expected 7, got %d", got)
	}
	if !s.Bool("missing", true) {
		t.Fatal("expected fallback true")
	}

	s.SetString("name", "patches")
	if got := s.String("name", ""); got != "patches" {
		t.Fatalf("expected %q, got %q", "patches", got)
	}
	if got := s.Int("name", 3); got != 3 {
		t.Fatal("wrongly typed value must yield the fallback")
	}
}

func TestLastConfigRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	want := config.Default()
	want.DataRoot = "/data/slides"
	want.PatchRoot = "/data/patches"
	want.PatchSize = 128
	want.Stride = 64
	want.MinMaskRatio = 0.25
	want.Seed = 99
	want.DryRun = true

	s := Load()
	s.SetLastConfig(want)
	if err := s.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded := Load()
	got, ok := reloaded.LastConfig()
	if !ok {
		t.Fatal("expected a stored config after reload")
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestSnapshot(t *testing.T) {
	dir := t.TempDir()
	if fp := Snapshot(dir); fp.Files != 0 {
		t.Fatalf("expected empty fingerprint, got %+v", fp)
	}

	touch(t, filepath.Join(dir, "a.png"))
	touch(t, filepath.Join(dir, "b.png"))
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}

	fp := Snapshot(dir)
	if fp.Files != 2 {
		t.Fatalf("expected 2 files, got %d", fp.Files)
	}
	if fp.Latest.IsZero() {
		t.Fatal("expected a non-zero latest mod time")
	}
}

func TestSnapshotMissingDir(t *testing.T) {
	fp := Snapshot(filepath.Join(t.TempDir(), "nope"))
	if fp.Files != 0 || !fp.Latest.IsZero() {
		t.Fatalf("missing dir must fingerprint as empty, got %+v", fp)
	}
}

func TestWatcherDetectsNewFile(t *testing.T) {
	imgDir := filepath.Join(t.TempDir(), "Image")
	if err := os.MkdirAll(imgDir, 0o755); err != nil {
		t.Fatal(err)
	}

	w := NewDirWatcher(10*time.Millisecond, imgDir)
	changed := make(chan struct{}, 4)
	w.OnChange(func() { changed <- struct{}{} })
	w.Start()
	defer w.Stop()

	touch(t, filepath.Join(imgDir, "new.png"))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never reported the new file")
	}
}

func TestWatcherDetectsLateCreatedDir(t *testing.T) {
	root := t.TempDir()
	imgDir := filepath.Join(root, "Image")

	w := NewDirWatcher(10*time.Millisecond, imgDir)
	changed := make(chan struct{}, 4)
	w.OnChange(func() { changed <- struct{}{} })
	w.Start()
	defer w.Stop()

	touch(t, filepath.Join(imgDir, "first.png"))

	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never noticed the directory appearing")
	}
}

func TestWatcherKeepsReporting(t *testing.T) {
	dir := t.TempDir()
	w := NewDirWatcher(10*time.Millisecond, dir)
	changed := make(chan struct{}, 8)
	w.OnChange(func() { changed <- struct{}{} })
	w.Start()
	defer w.Stop()

	touch(t, filepath.Join(dir, "one.png"))
	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("first change not reported")
	}

	touch(t, filepath.Join(dir, "two.png"))
	select {
	case <-changed:
	case <-time.After(2 * time.Second):
		t.Fatal("second change not reported")
	}
}

func TestResetBaseline(t *testing.T) {
	dir := t.TempDir()
	w := NewDirWatcher(time.Hour, dir)

	touch(t, filepath.Join(dir, "a.png"))
	if got := w.Baseline().Files; got != 0 {
		t.Fatalf("expected stale baseline of 0 files, got %d", got)
	}

	w.ResetBaseline()
	if got := w.Baseline().Files; got != 1 {
		t.Fatalf("expected baseline of 1 file after reset, got %d", got)
	}
}

package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startWatcher(t *testing.T, dir string) *Watcher {
	t.Helper()
	w, err := New(dir, "commit_message.txt", "tag_message.txt")
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(w.Stop)
	return w
}

func waitEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev := <-w.Events:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestWatcherReportsArtifactEdit(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "alpha"), 0o755); err != nil {
		t.Fatal(err)
	}

	w := startWatcher(t, dir)

	path := filepath.Join(dir, "alpha", "tag_message.txt")
	if err := os.WriteFile(path, []byte("## Release 1.5.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ev := waitEvent(t, w)
	if ev.Package != "alpha" {
		t.Errorf("package = %q, want alpha", ev.Package)
	}
	if filepath.Base(ev.File) != "tag_message.txt" {
		t.Errorf("file = %q", ev.File)
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "alpha"), 0o755); err != nil {
		t.Fatal(err)
	}

	w := startWatcher(t, dir)

	if err := os.WriteFile(filepath.Join(dir, "alpha", "changes_since_tag.txt"), []byte("diff"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "alpha", "commit_message.txt"), []byte("fix: x"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Only the message artifact should surface.
	ev := waitEvent(t, w)
	if filepath.Base(ev.File) != "commit_message.txt" {
		t.Errorf("file = %q, want commit_message.txt", ev.File)
	}
}

func TestWatcherPicksUpNewPackageDir(t *testing.T) {
	dir := t.TempDir()

	w := startWatcher(t, dir)

	if err := os.MkdirAll(filepath.Join(dir, "beta"), 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the loop a moment to register the new directory watch.
	time.Sleep(300 * time.Millisecond)

	path := filepath.Join(dir, "beta", "tag_message.txt")
	if err := os.WriteFile(path, []byte("notes"), 0o644); err != nil {
		t.Fatal(err)
	}

	ev := waitEvent(t, w)
	if ev.Package != "beta" {
		t.Errorf("package = %q, want beta", ev.Package)
	}
}

package tle

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestSnapshotsWriteLoadLatest verifies round-tripping through the newest file.
func TestSnapshotsWriteLoadLatest(t *testing.T) {
	dir := t.TempDir()
	snaps := NewSnapshots(dir, 5)

	t0 := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	if err := snaps.Write("old data", t0); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := snaps.Write(issBlock, t0.Add(time.Hour)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	text, ts, err := snaps.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if text != issBlock {
		t.Errorf("LoadLatest returned wrong snapshot content")
	}
	if !ts.Equal(t0.Add(time.Hour)) {
		t.Errorf("LoadLatest ts = %v, want %v", ts, t0.Add(time.Hour))
	}
}

// TestSnapshotsPrune verifies old files are removed beyond the cap.
func TestSnapshotsPrune(t *testing.T) {
	dir := t.TempDir()
	snaps := NewSnapshots(dir, 3)

	t0 := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		if err := snaps.Write("data", t0.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d snapshot files after prune, want 3", len(entries))
	}

	// The survivors must be the three newest.
	text, ts, err := snaps.LoadLatest()
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if text != "data" || !ts.Equal(t0.Add(5*time.Minute)) {
		t.Errorf("LoadLatest = %q at %v, want newest snapshot", text, ts)
	}
}

// TestSnapshotsEmptyDir verifies LoadLatest fails cleanly with no snapshots.
func TestSnapshotsEmptyDir(t *testing.T) {
	snaps := NewSnapshots(t.TempDir(), 5)
	if _, _, err := snaps.LoadLatest(); err == nil {
		t.Fatal("expected error from empty snapshot dir")
	}

	// A missing dir behaves the same as an empty one.
	snaps = NewSnapshots(filepath.Join(t.TempDir(), "nope"), 5)
	if _, _, err := snaps.LoadLatest(); err == nil {
		t.Fatal("expected error from missing snapshot dir")
	}
}

// TestSnapshotsIgnoresForeignFiles verifies unrelated files in the dir are
// neither loaded nor pruned.
func TestSnapshotsIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "README.txt"), []byte("keep"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	snaps := NewSnapshots(dir, 1)
	t0 := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	if err := snaps.Write("a", t0); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := snaps.Write("b", t0.Add(time.Minute)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "README.txt")); err != nil {
		t.Errorf("foreign file was pruned: %v", err)
	}
	text, _, err := snaps.LoadLatest()
	if err != nil || text != "b" {
		t.Errorf("LoadLatest = %q, %v; want b", text, err)
	}
}

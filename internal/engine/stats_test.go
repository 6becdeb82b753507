package engine

import (
	"path/filepath"
	"testing"
	"time"
)

func TestCollectStats(t *testing.T) {
	dir := t.TempDir()

	const day = 24 * time.Hour
	writeAged(t, filepath.Join(dir, "all", "all.log"), 100, 0)
	writeAged(t, filepath.Join(dir, "all", "all.log.1.gz"), 50, 2*day)
	writeAged(t, filepath.Join(dir, "core", "core.log"), 200, 1*day)
	writeAged(t, filepath.Join(dir, "plugins", "weather", "plugin.log"), 300, 5*day)
	// A non-segment file must not be counted.
	writeAged(t, filepath.Join(dir, "core", "notes.txt"), 999, 0)

	st := CollectStats(dir)

	if st.TotalFiles != 4 {
		t.Errorf("TotalFiles = %d, want 4", st.TotalFiles)
	}
	if st.TotalSize != 650 {
		t.Errorf("TotalSize = %d, want 650", st.TotalSize)
	}
	if st.CompressedCount != 1 {
		t.Errorf("CompressedCount = %d, want 1", st.CompressedCount)
	}

	if ds := st.Directories["all"]; ds.Count != 2 || ds.Size != 150 {
		t.Errorf("all dir stats = %+v", ds)
	}
	if ds := st.Directories["plugins"]; ds.Count != 1 || ds.Size != 300 {
		t.Errorf("plugins dir stats = %+v", ds)
	}

	if st.OldestFile.After(st.NewestFile) {
		t.Error("oldest/newest ordering inverted")
	}
	if time.Since(st.OldestFile) < 4*day {
		t.Errorf("oldest mtime wrong: %v", st.OldestFile)
	}
}

func TestCollectStats_EmptyDir(t *testing.T) {
	st := CollectStats(t.TempDir())
	if st.TotalFiles != 0 || st.TotalSize != 0 {
		t.Errorf("empty dir stats = %+v", st)
	}
	if !st.OldestFile.IsZero() || !st.NewestFile.IsZero() {
		t.Error("timestamps should be zero for an empty scan")
	}
}

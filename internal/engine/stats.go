package engine

import (
	"path/filepath"
	"strings"
	"time"
)

// DirStats is the per-top-level-directory breakdown.
type DirStats struct {
	Count int   `json:"count"`
	Size  int64 `json:"size"`
}

// Stats is a point-in-time aggregate over all on-disk segments.
type Stats struct {
	TotalFiles      int                 `json:"total_files"`
	TotalSize       int64               `json:"total_size"`
	CompressedCount int                 `json:"compressed_count"`
	Directories     map[string]DirStats `json:"directories"`
	OldestFile      time.Time           `json:"oldest_file"`
	NewestFile      time.Time           `json:"newest_file"`
}

// CollectStats scans dataDir fresh on every call; nothing is cached.
// Segments disappearing mid-scan are simply not counted.
func CollectStats(dataDir string) Stats {
	stats := Stats{Directories: make(map[string]DirStats)}

	for _, seg := range scanSegments(dataDir) {
		stats.TotalFiles++
		stats.TotalSize += seg.Size
		if seg.Compressed {
			stats.CompressedCount++
		}

		top := topLevelDir(dataDir, seg.Path)
		ds := stats.Directories[top]
		ds.Count++
		ds.Size += seg.Size
		stats.Directories[top] = ds

		if stats.OldestFile.IsZero() || seg.ModTime.Before(stats.OldestFile) {
			stats.OldestFile = seg.ModTime
		}
		if seg.ModTime.After(stats.NewestFile) {
			stats.NewestFile = seg.ModTime
		}
	}
	return stats
}

// topLevelDir maps a segment path to its first directory under root,
// or "root" for files directly inside it.
func topLevelDir(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "root"
	}
	rel = filepath.ToSlash(rel)
	if i := strings.Index(rel, "/"); i >= 0 {
		return rel[:i]
	}
	return "root"
}

package engine

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Segment describes one on-disk log file, active or rotated.
type Segment struct {
	Path       string
	Size       int64
	ModTime    time.Time
	Compressed bool
}

// isSegmentName reports whether a file name belongs to the engine:
// <base>.log, <base>.log.N, or either with the compressed suffix.
func isSegmentName(name string) bool {
	return strings.HasSuffix(name, ".log") || strings.Contains(name, ".log.")
}

// scanSegments walks root and collects every segment, oldest first.
// Files that disappear mid-scan are skipped; the walk itself never
// fails the caller.
func scanSegments(root string) []Segment {
	var segs []Segment
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entry, keep walking
		}
		if d.IsDir() || !isSegmentName(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil // deleted under us
		}
		segs = append(segs, Segment{
			Path:       path,
			Size:       info.Size(),
			ModTime:    info.ModTime(),
			Compressed: strings.HasSuffix(path, CompressedSuffix),
		})
		return nil
	})
	sort.Slice(segs, func(i, j int) bool {
		return segs[i].ModTime.Before(segs[j].ModTime)
	})
	return segs
}

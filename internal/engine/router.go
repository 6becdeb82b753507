package engine

import (
	"path/filepath"
	"strings"
)

// pluginMarkers are path fragments that identify plugin-owned source
// files. The segment following the marker's last element is the plugin
// name.
var pluginMarkers = []string{
	"data/plugins",
	"astrbot/builtin_stars",
}

// Origin classifies where a record came from.
type Origin struct {
	Plugin bool
	Name   string // plugin name, empty for core records
}

// Classify determines a record's origin from its source file path.
// Pure and side-effect free; the dispatcher uses it to pick the
// destination sink and stats group files the same way.
func Classify(sourcePath string) Origin {
	norm := filepath.ToSlash(filepath.Clean(sourcePath))

	for _, marker := range pluginMarkers {
		if !strings.Contains(norm, marker) {
			continue
		}
		// Plugin name is the segment right after the marker.
		parts := strings.Split(norm, "/")
		last := marker[strings.LastIndex(marker, "/")+1:]
		for i, p := range parts {
			if p == last && i+1 < len(parts) {
				return Origin{Plugin: true, Name: parts[i+1]}
			}
		}
		return Origin{Plugin: true, Name: "unknown"}
	}
	return Origin{}
}

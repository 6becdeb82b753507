package engine

import (
	"os"
	"time"

	"github.com/phuslu/log"

	"github.com/lxfight/astrbot-plugin-logplus/internal/config"
)

// CleanupResult aggregates one retention pass. This is the only
// surface the command layer sees.
type CleanupResult struct {
	Compressed int   `json:"compressed"`
	Deleted    int   `json:"deleted"`
	FreedBytes int64 `json:"freed_bytes"`
}

// Cleaner enforces the compression grace period and the age/size
// retention budgets over the whole data directory. It owns no sinks;
// it only reads and deletes segments the dispatcher writes.
type Cleaner struct {
	dataDir string
	cfg     *config.Config
	comp    *Compressor

	now func() time.Time // overridable in tests
}

// NewCleaner wires a cleaner over dataDir.
func NewCleaner(dataDir string, cfg *config.Config, comp *Compressor) *Cleaner {
	return &Cleaner{
		dataDir: dataDir,
		cfg:     cfg,
		comp:    comp,
		now:     time.Now,
	}
}

// Cleanup runs one pass: compress aged segments, then delete oldest
// segments until both the age ceiling and the total-size ceiling hold.
// Per-segment failures are swallowed; the pass always completes.
func (c *Cleaner) Cleanup() CleanupResult {
	var res CleanupResult

	if c.cfg.EnableCompression {
		res.Compressed = c.compressSweep()
	}
	if c.cfg.AutoCleanEnabled {
		res.Deleted, res.FreedBytes = c.retentionSweep()
	}

	log.Info().
		Int("compressed", res.Compressed).
		Int("deleted", res.Deleted).
		Int64("freed_bytes", res.FreedBytes).
		Msg("cleanup pass finished")
	return res
}

// compressSweep compresses every uncompressed segment older than the
// grace period, inline through the shared single-concurrency
// compressor.
func (c *Cleaner) compressSweep() int {
	count := 0
	threshold := c.now().AddDate(0, 0, -c.cfg.CompressionAfterDays)

	for _, seg := range scanSegments(c.dataDir) {
		if seg.Compressed || !seg.ModTime.Before(threshold) {
			continue
		}
		done, err := c.comp.Compress(seg.Path)
		if err != nil {
			log.Warn().Err(err).Str("path", seg.Path).Msg("compression sweep failed")
			continue
		}
		if done {
			count++
		}
	}
	return count
}

// retentionSweep walks segments oldest first, deleting any that exceed
// the age limit or that are visited while the running total still
// exceeds the size budget. The single ascending pass guarantees the
// oldest segments are sacrificed first when size must shrink.
func (c *Cleaner) retentionSweep() (int, int64) {
	deleted := 0
	var freed int64

	threshold := c.now().AddDate(0, 0, -c.cfg.MaxAgeDays)
	maxTotal := c.cfg.MaxTotalBytes()

	segs := scanSegments(c.dataDir) // already sorted by mtime ascending
	var total int64
	for _, seg := range segs {
		total += seg.Size
	}

	for _, seg := range segs {
		expired := seg.ModTime.Before(threshold)
		overBudget := total > maxTotal
		if !expired && !overBudget {
			continue
		}
		if err := os.Remove(seg.Path); err != nil {
			// Compression may have renamed it away concurrently; a
			// missing file still shrinks the running total.
			if os.IsNotExist(err) {
				total -= seg.Size
			} else {
				log.Warn().Err(err).Str("path", seg.Path).Msg("retention delete failed")
			}
			continue
		}
		deleted++
		freed += seg.Size
		total -= seg.Size
	}
	return deleted, freed
}

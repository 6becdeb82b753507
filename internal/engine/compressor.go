package engine

import (
	"io"
	"os"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/phuslu/log"
)

// CompressedSuffix marks a segment that has been through the
// compression transform. Compressed segments are never re-expanded.
const CompressedSuffix = ".gz"

// Compressor runs compression jobs one at a time to bound disk
// contention. Rollover hands segments in asynchronously via Submit;
// the retention sweep compresses inline via Compress. Both paths are
// serialized on the same mutex so at most one transform runs at once.
type Compressor struct {
	jobs chan string
	wg   sync.WaitGroup
	mu   sync.Mutex // serializes the actual file transform

	qmu    sync.Mutex // guards closed and sends on jobs
	closed bool

	closeOnce sync.Once
}

// NewCompressor starts the single background worker.
func NewCompressor() *Compressor {
	c := &Compressor{
		jobs: make(chan string, 64),
	}
	c.wg.Add(1)
	go c.run()
	return c
}

func (c *Compressor) run() {
	defer c.wg.Done()
	for path := range c.jobs {
		if _, err := c.Compress(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("background compression failed")
		}
	}
}

// Submit queues a file for background compression. Best-effort: if the
// queue is full, or the compressor has been closed by a racing
// shutdown, the job is dropped and the file stays uncompressed until a
// later retention pass picks it up.
func (c *Compressor) Submit(path string) {
	c.qmu.Lock()
	defer c.qmu.Unlock()
	if c.closed {
		log.Debug().Str("path", path).Msg("compressor closed, job dropped")
		return
	}
	select {
	case c.jobs <- path:
	default:
		log.Debug().Str("path", path).Msg("compression queue full, job dropped")
	}
}

// Compress gzips path into path.gz and removes the original.
// Returns whether a transform actually happened. A missing source is a
// successful no-op: retention may have deleted it, or an earlier job
// already compressed it.
func (c *Compressor) Compress(path string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return false, err
	}

	dstPath := path + CompressedSuffix
	dst, err := os.Create(dstPath)
	if err != nil {
		return false, err
	}

	gw := gzip.NewWriter(dst)
	if _, err := io.Copy(gw, src); err != nil {
		gw.Close()
		dst.Close()
		os.Remove(dstPath)
		return false, err
	}
	if err := gw.Close(); err != nil {
		dst.Close()
		os.Remove(dstPath)
		return false, err
	}
	if err := dst.Close(); err != nil {
		os.Remove(dstPath)
		return false, err
	}

	// Keep the segment's age: retention measures from mtime, and
	// compression must not reset the clock.
	os.Chtimes(dstPath, info.ModTime(), info.ModTime())

	// Not atomic with the copy above: a crash here leaves both files,
	// which scans treat as the uncompressed one still being valid.
	src.Close()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return true, err
	}
	return true, nil
}

// Close drains the queue and stops the worker. Safe to call more than
// once; Submit calls racing or following Close drop their job instead
// of panicking on the closed channel.
func (c *Compressor) Close() {
	c.closeOnce.Do(func() {
		c.qmu.Lock()
		c.closed = true
		c.qmu.Unlock()
		close(c.jobs)
	})
	c.wg.Wait()
}

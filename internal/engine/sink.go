package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"
)

// SinkPolicy controls when a sink rolls its active segment over.
type SinkPolicy struct {
	Strategy    string // "size", "time" or "hybrid" (hybrid rolls on size)
	Interval    string // "hourly" or "daily", time strategy only
	MaxBytes    int64
	BackupCount int
	Compress    bool
}

// Sink is an append-only log destination with automatic segmentation.
// One active file plus numbered backups .1 (newest) through
// .BackupCount (oldest). Writes are serialized per sink; distinct
// sinks share nothing and may be written concurrently.
type Sink struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	size     int64
	policy   SinkPolicy
	comp     *Compressor
	nextRoll time.Time

	now func() time.Time // overridable in tests
}

// NewSink opens (or creates) the active segment at path.
func NewSink(path string, policy SinkPolicy, comp *Compressor) (*Sink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	s := &Sink{
		path:   path,
		policy: policy,
		comp:   comp,
		now:    time.Now,
	}
	if err := s.open(); err != nil {
		return nil, err
	}
	if policy.Strategy == "time" {
		s.nextRoll = nextBoundary(s.now(), policy.Interval)
	}
	return s, nil
}

func (s *Sink) open() error {
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	s.file = f
	s.size = info.Size()
	return nil
}

// nextBoundary returns the next wall-clock rollover instant.
func nextBoundary(now time.Time, interval string) time.Time {
	if interval == "hourly" {
		return now.Truncate(time.Hour).Add(time.Hour)
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
}

// Write appends p to the active segment, rolling over first if a time
// boundary has passed and afterwards if the size threshold is
// exceeded. The caller blocks through the rename sequence but never
// waits on compression.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return 0, fmt.Errorf("sink %s is closed", s.path)
	}

	if s.policy.Strategy == "time" {
		now := s.now()
		if !s.nextRoll.IsZero() && !now.Before(s.nextRoll) {
			if err := s.rollover(); err != nil {
				log.Warn().Err(err).Str("path", s.path).Msg("time rollover failed")
			}
			s.nextRoll = nextBoundary(now, s.policy.Interval)
		}
	}

	n, err := s.file.Write(p)
	s.size += int64(n)
	if err != nil {
		return n, err
	}

	if s.sizeTriggered() && s.size > s.policy.MaxBytes {
		if err := s.rollover(); err != nil {
			log.Warn().Err(err).Str("path", s.path).Msg("size rollover failed")
		}
	}
	return n, nil
}

func (s *Sink) sizeTriggered() bool {
	return s.policy.MaxBytes > 0 &&
		(s.policy.Strategy == "size" || s.policy.Strategy == "hybrid")
}

// Flush forces buffered bytes to disk.
func (s *Sink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	return s.file.Sync()
}

// Rollover closes the active segment, shifts backups up one index and
// reopens a fresh active file.
func (s *Sink) Rollover() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rollover()
}

// rollover holds s.mu. Backups are shifted from the highest index down
// so that a crash mid-shift loses at most the oldest backup and never
// touches the active file until the final rename.
func (s *Sink) rollover() error {
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}

	if s.policy.BackupCount > 0 {
		// The segment about to fall off the end goes to the
		// compression queue before the shift discards it.
		if s.policy.Compress && s.sizeTriggered() {
			oldest := s.backupName(s.policy.BackupCount)
			if _, err := os.Stat(oldest); err == nil {
				s.comp.Submit(oldest)
			}
		}

		for i := s.policy.BackupCount - 1; i > 0; i-- {
			sfn := s.backupName(i)
			dfn := s.backupName(i + 1)
			if _, err := os.Stat(sfn); err != nil {
				continue
			}
			os.Remove(dfn)
			if err := os.Rename(sfn, dfn); err != nil {
				log.Warn().Err(err).Str("path", sfn).Msg("backup shift failed")
			}
		}

		dfn := s.backupName(1)
		os.Remove(dfn)
		if err := os.Rename(s.path, dfn); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", s.path).Msg("active rename failed")
		}

		// Time-based sinks retire backups by age rather than index
		// pressure: anything a day old gets queued.
		if s.policy.Compress && s.policy.Strategy == "time" {
			s.submitAgedBackups()
		}
	}

	return s.open()
}

// submitAgedBackups queues uncompressed siblings of the active file
// older than one day.
func (s *Sink) submitAgedBackups() {
	dir := filepath.Dir(s.path)
	base := filepath.Base(s.path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	cutoff := s.now().Add(-24 * time.Hour)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == base || !strings.HasPrefix(name, base) {
			continue
		}
		if strings.HasSuffix(name, CompressedSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		s.comp.Submit(filepath.Join(dir, name))
	}
}

func (s *Sink) backupName(i int) string {
	return fmt.Sprintf("%s.%d", s.path, i)
}

// Path returns the active segment path.
func (s *Sink) Path() string {
	return s.path
}

// Close flushes and closes the active segment. The sink rejects writes
// afterwards.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

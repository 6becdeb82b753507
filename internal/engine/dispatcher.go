package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/phuslu/log"

	"github.com/lxfight/astrbot-plugin-logplus/internal/config"
	"github.com/lxfight/astrbot-plugin-logplus/internal/model"
)

// Fixed sink keys. Plugin sinks use "plugin_<name>".
const (
	sinkAll   = "all"
	sinkCore  = "core"
	sinkError = "error"
)

// Dispatcher fans each record out to its destinations: the "all" sink,
// the origin sink (core or per-plugin, lazily created), and the error
// sink for records at ERROR and above. It exclusively owns the sink
// map; emission from any number of goroutines is safe.
type Dispatcher struct {
	dataDir string
	cfg     *config.Config
	red     *Redactor
	comp    *Compressor

	mu     sync.RWMutex
	sinks  map[string]*Sink
	closed bool
}

// NewDispatcher creates the directory layout and the statically
// enabled sinks.
func NewDispatcher(dataDir string, cfg *config.Config, red *Redactor, comp *Compressor) (*Dispatcher, error) {
	d := &Dispatcher{
		dataDir: dataDir,
		cfg:     cfg,
		red:     red,
		comp:    comp,
		sinks:   make(map[string]*Sink),
	}

	for _, sub := range []string{"all", "core", "errors", "plugins"} {
		if err := os.MkdirAll(filepath.Join(dataDir, sub), 0o755); err != nil {
			return nil, err
		}
	}

	if cfg.EnableAllLog {
		if err := d.addSink(sinkAll, filepath.Join(dataDir, "all", "all.log")); err != nil {
			return nil, err
		}
	}
	if cfg.EnableCoreLog {
		if err := d.addSink(sinkCore, filepath.Join(dataDir, "core", "core.log")); err != nil {
			return nil, err
		}
	}
	if cfg.EnableErrorLog {
		if err := d.addSink(sinkError, filepath.Join(dataDir, "errors", "error.log")); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Dispatcher) policy() SinkPolicy {
	return SinkPolicy{
		Strategy:    d.cfg.RotationStrategy,
		Interval:    d.cfg.RotationInterval,
		MaxBytes:    d.cfg.MaxFileBytes(),
		BackupCount: d.cfg.BackupCount,
		Compress:    d.cfg.EnableCompression,
	}
}

func (d *Dispatcher) addSink(key, path string) error {
	s, err := NewSink(path, d.policy(), d.comp)
	if err != nil {
		return err
	}
	d.sinks[key] = s
	return nil
}

// Emit redacts rec and writes it to every qualifying sink. A failure
// on one sink never blocks delivery to the rest, and nothing
// propagates back to the producing caller.
func (d *Dispatcher) Emit(rec model.Record) {
	d.mu.RLock()
	closed := d.closed
	d.mu.RUnlock()
	if closed {
		return // shutting down, record dropped
	}

	rec = d.red.MaskRecord(rec)
	line := []byte(formatLine(rec))

	var written []*Sink
	writeTo := func(s *Sink) {
		if s == nil {
			return
		}
		if _, err := s.Write(line); err != nil {
			log.Warn().Err(err).Str("sink", s.Path()).Msg("sink write failed")
			return
		}
		written = append(written, s)
	}

	writeTo(d.lookup(sinkAll))

	origin := Classify(rec.File)
	if origin.Plugin {
		if d.cfg.EnablePluginSeparation {
			s, err := d.pluginSink(origin.Name)
			if err != nil {
				log.Warn().Err(err).Str("plugin", origin.Name).Msg("plugin sink unavailable")
			} else {
				writeTo(s)
			}
		}
	} else {
		writeTo(d.lookup(sinkCore))
	}

	if rec.Level >= model.LevelError {
		writeTo(d.lookup(sinkError))
	}

	// Flush synchronously so a crash loses at most the record in
	// flight.
	for _, s := range written {
		if err := s.Flush(); err != nil {
			log.Warn().Err(err).Str("sink", s.Path()).Msg("sink flush failed")
		}
	}
}

func (d *Dispatcher) lookup(key string) *Sink {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.sinks[key]
}

// pluginSink returns the sink for a plugin, creating it on first use.
// Double-checked under the write lock so racing producers cannot
// create duplicate sinks for the same name.
func (d *Dispatcher) pluginSink(name string) (*Sink, error) {
	key := "plugin_" + name

	d.mu.RLock()
	s := d.sinks[key]
	d.mu.RUnlock()
	if s != nil {
		return s, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, fmt.Errorf("dispatcher closed")
	}
	if s := d.sinks[key]; s != nil {
		return s, nil
	}
	path := filepath.Join(d.dataDir, "plugins", name, "plugin.log")
	s, err := NewSink(path, d.policy(), d.comp)
	if err != nil {
		return nil, err
	}
	d.sinks[key] = s
	return s, nil
}

// Close closes every sink and drops records emitted afterwards.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for key, s := range d.sinks {
		if err := s.Close(); err != nil {
			log.Warn().Err(err).Str("sink", key).Msg("sink close failed")
		}
	}
	d.sinks = make(map[string]*Sink)
}

// formatLine renders a record into the stable on-disk line format:
// [2006-01-02 15:04:05] [LEVEL] [file.go:123]: message
func formatLine(rec model.Record) string {
	return fmt.Sprintf("[%s] [%-5s] [%s:%d]: %s\n",
		rec.Timestamp.Format("2006-01-02 15:04:05"),
		model.DecodeLevel(rec.Level),
		filepath.Base(rec.File),
		rec.Line,
		rec.Render(),
	)
}

package engine

import (
	"context"
	"sync"
	"time"

	"github.com/phuslu/log"
	"github.com/robfig/cron/v3"

	"github.com/lxfight/astrbot-plugin-logplus/internal/config"
	"github.com/lxfight/astrbot-plugin-logplus/internal/model"
)

// Engine is the explicitly owned instance that embeds the whole
// pipeline: redactor, dispatcher, compression worker and the scheduled
// retention pass. One engine per data directory.
type Engine struct {
	cfg     *config.Config
	dataDir string

	red   *Redactor
	comp  *Compressor
	disp  *Dispatcher
	clean *Cleaner
	cron  *cron.Cron

	minLevel uint8

	mu      sync.Mutex
	started bool
	stopped bool
}

// New wires an engine over dataDir. Nothing runs until Start.
func New(dataDir string, cfg config.Config) (*Engine, error) {
	cfg.Normalize()

	e := &Engine{
		cfg:      &cfg,
		dataDir:  dataDir,
		minLevel: model.EncodeLevel(cfg.LogLevel),
	}
	e.red = NewRedactor(cfg.Keywords(), cfg.EnableSensitiveFilter)
	e.comp = NewCompressor()

	disp, err := NewDispatcher(dataDir, e.cfg, e.red, e.comp)
	if err != nil {
		e.comp.Close()
		return nil, err
	}
	e.disp = disp
	e.clean = NewCleaner(dataDir, e.cfg, e.comp)
	return e, nil
}

// Start schedules the background retention pass. Idempotent.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return nil
	}

	e.cron = cron.New()
	if _, err := e.cron.AddFunc(e.cfg.CleanupSchedule, func() {
		e.clean.Cleanup()
	}); err != nil {
		// Bad schedule falls back to the default rather than failing.
		if _, err := e.cron.AddFunc("@hourly", func() {
			e.clean.Cleanup()
		}); err != nil {
			return err
		}
		log.Warn().Str("schedule", e.cfg.CleanupSchedule).Msg("invalid cleanup schedule, using @hourly")
	}
	e.cron.Start()
	e.started = true
	log.Info().Str("data_dir", e.dataDir).Msg("logplus engine started")
	return nil
}

// Stop cancels the retention schedule, waits for an in-flight pass to
// finish (bounded by ctx), drains the compression queue and closes all
// sinks. Deterministic: after Stop returns no engine goroutine is
// alive.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return nil
	}
	e.stopped = true

	if e.cron != nil {
		stopCtx := e.cron.Stop()
		select {
		case <-stopCtx.Done():
		case <-ctx.Done():
			log.Warn().Msg("shutdown deadline reached with cleanup pass in flight")
		}
	}
	// Sinks first: once they are closed no rollover can hand the
	// compressor new work, then the queue drains.
	e.disp.Close()
	e.comp.Close()
	log.Info().Msg("logplus engine stopped")
	return ctx.Err()
}

// Log is the record-emission entry point for producers: severity,
// source location, message template and optional substitution values.
// Best-effort; nothing it does can fail the caller.
func (e *Engine) Log(level uint8, file string, line int, msg string, args ...any) {
	if level < e.minLevel {
		return
	}
	e.Emit(model.Record{
		Timestamp: time.Now(),
		Level:     level,
		File:      file,
		Line:      line,
		Message:   msg,
		Args:      args,
	})
}

// Emit routes a fully formed record through the pipeline.
func (e *Engine) Emit(rec model.Record) {
	if rec.Level < e.minLevel {
		return
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}
	e.disp.Emit(rec)
}

// Cleanup triggers one retention pass on demand.
func (e *Engine) Cleanup() CleanupResult {
	return e.clean.Cleanup()
}

// Stats scans the data directory and returns fresh aggregates.
func (e *Engine) Stats() Stats {
	return CollectStats(e.dataDir)
}

// UpdateKeywords swaps the redaction keyword set atomically.
func (e *Engine) UpdateKeywords(keywords []string) {
	e.cfg.SetKeywords(keywords)
	e.red.UpdateKeywords(keywords)
}

package model

import (
	"fmt"
	"strings"
	"time"
)

// Severity levels, ordered. Comparisons like lvl >= LevelError are valid.
const (
	LevelDebug uint8 = 0
	LevelInfo  uint8 = 1
	LevelWarn  uint8 = 2
	LevelError uint8 = 3
	LevelFatal uint8 = 4
)

// EncodeLevel converts a level name to its numeric form.
// Unknown names default to INFO.
func EncodeLevel(l string) uint8 {
	switch strings.ToUpper(l) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// DecodeLevel converts a numeric level to its name.
func DecodeLevel(l uint8) string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Record is one log record as handed to the engine by a producer.
// Records are passed by value through the pipeline; redaction returns
// a modified copy so that one destination's masking never leaks into
// another destination's view.
type Record struct {
	Timestamp time.Time
	Level     uint8
	File      string // source file path of the call site
	Line      int
	Message   string // message template, printf-style when Args is set
	Args      []any
}

// Render expands the message template with its substitution args.
func (r Record) Render() string {
	if len(r.Args) == 0 {
		return r.Message
	}
	return fmt.Sprintf(r.Message, r.Args...)
}

package engine

import (
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"

	"github.com/lxfight/astrbot-plugin-logplus/internal/model"
)

// Mask is the replacement token for redacted values.
const Mask = "***"

// Redactor rewrites sensitive key/value pairs in log text to key=***.
// Pattern sets are swapped atomically so that Mask calls racing an
// UpdateKeywords see either the old or the new set, never a mix.
type Redactor struct {
	enabled  bool
	patterns atomic.Pointer[[]*regexp.Regexp]

	mu sync.Mutex // serializes UpdateKeywords
}

// NewRedactor compiles patterns for the given keywords. A keyword that
// fails to compile is skipped; the rest still take effect.
func NewRedactor(keywords []string, enabled bool) *Redactor {
	r := &Redactor{enabled: enabled}
	p := compilePatterns(keywords)
	r.patterns.Store(&p)
	return r
}

// compilePatterns builds, per keyword, matchers for the three shapes
// key=value, key: value, and "key": "value". Values are maximal runs of
// characters excluding quotes, whitespace, commas, '}' and ']'.
func compilePatterns(keywords []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(keywords)*3)
	for _, kw := range keywords {
		k := regexp.QuoteMeta(kw)
		shapes := []string{
			fmt.Sprintf(`(?i)(%s)\s*=\s*["']?([^"'\s,}\]]+)["']?`, k),
			fmt.Sprintf(`(?i)(%s)\s*:\s*["']?([^"'\s,}\]]+)["']?`, k),
			fmt.Sprintf(`(?i)["'](%s)["']\s*:\s*["']([^"']+)["']`, k),
		}
		for _, s := range shapes {
			re, err := regexp.Compile(s)
			if err != nil {
				continue // malformed keyword, keep the rest
			}
			patterns = append(patterns, re)
		}
	}
	return patterns
}

// UpdateKeywords recompiles the pattern set and installs it atomically.
func (r *Redactor) UpdateKeywords(keywords []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := compilePatterns(keywords)
	r.patterns.Store(&p)
}

// MaskRecord returns a redacted copy of rec. The input is never
// mutated: the message and each substitution arg are masked
// independently, each arg as if it were standalone text. When the
// redactor is disabled the original record is passed through as-is.
func (r *Redactor) MaskRecord(rec model.Record) model.Record {
	if !r.enabled {
		return rec
	}

	rec.Message = r.MaskText(rec.Message)
	if len(rec.Args) > 0 {
		masked := make([]any, len(rec.Args))
		for i, arg := range rec.Args {
			masked[i] = r.MaskText(fmt.Sprint(arg))
		}
		rec.Args = masked
	}
	return rec
}

// MaskText applies every compiled pattern to text in keyword order.
// Output is canonical key=*** regardless of the matched separator.
func (r *Redactor) MaskText(text string) string {
	if !r.enabled {
		return text
	}
	for _, re := range *r.patterns.Load() {
		text = re.ReplaceAllString(text, "${1}="+Mask)
	}
	return text
}

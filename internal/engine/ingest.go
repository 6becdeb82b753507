package engine

import (
	"fmt"
	"time"

	"github.com/valyala/fastjson"

	"github.com/lxfight/astrbot-plugin-logplus/internal/model"
)

var parserPool fastjson.ParserPool

// EmitJSON accepts a host-supplied record batch as a JSON object or an
// array of objects and emits each through the pipeline. Recognized
// fields: level, message (or msg), file, line, args, timestamp (unix
// nanoseconds). Returns how many records were emitted.
func (e *Engine) EmitJSON(body []byte) (int, error) {
	p := parserPool.Get()
	defer parserPool.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return 0, fmt.Errorf("invalid JSON: %w", err)
	}

	count := 0
	emitOne := func(val *fastjson.Value) {
		ts := val.GetInt64("timestamp")
		if ts == 0 {
			ts = time.Now().UnixNano()
		}

		msg := string(val.GetStringBytes("message"))
		if msg == "" {
			msg = string(val.GetStringBytes("msg"))
		}
		if msg == "" {
			return
		}

		var args []any
		for _, a := range val.GetArray("args") {
			if sb := a.GetStringBytes(); sb != nil {
				args = append(args, string(sb))
			} else {
				args = append(args, a.String())
			}
		}

		e.Emit(model.Record{
			Timestamp: time.Unix(0, ts),
			Level:     model.EncodeLevel(string(val.GetStringBytes("level"))),
			File:      string(val.GetStringBytes("file")),
			Line:      val.GetInt("line"),
			Message:   msg,
			Args:      args,
		})
		count++
	}

	if v.Type() == fastjson.TypeArray {
		arr, _ := v.Array()
		for _, val := range arr {
			emitOne(val)
		}
	} else {
		emitOne(v)
	}
	return count, nil
}

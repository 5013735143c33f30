// Package logtrace provides leveled, prefix-aware trace logging for the
// VM, in the style of a width-padded step tracer.
package logtrace

import (
	"fmt"
	"strings"
)

// Logger holds an optional sink and pads "mark" columns (e.g. a PC or a
// lowering phase name) to a stable width as wider marks are seen.
type Logger struct {
	Logf func(mess string, args ...interface{})

	markWidth int
}

// WithPrefix makes log prepend prefix to every message until the returned
// func is called, which restores the previous sink.
func (log *Logger) WithPrefix(prefix string) (restore func()) {
	logf := log.Logf
	log.Logf = func(mess string, args ...interface{}) {
		logf(prefix+mess, args...)
	}
	return func() { log.Logf = logf }
}

// Tracef logs mess (after padding mark to the widest mark seen so far).
func (log *Logger) Tracef(mark, mess string, args ...interface{}) {
	if log.Logf == nil {
		return
	}
	if n := log.markWidth - len(mark); n > 0 {
		for _, r := range mark {
			mark = strings.Repeat(string(r), n) + mark
			break
		}
	} else if n < 0 {
		log.markWidth = len(mark)
	}
	if len(args) > 0 {
		mess = fmt.Sprintf(mess, args...)
	}
	log.Logf("%v %v", mark, mess)
}

// Enabled reports whether a sink is attached.
func (log *Logger) Enabled() bool { return log.Logf != nil }

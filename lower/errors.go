package lower

import (
	"fmt"

	"github.com/hanoi-lang/hanoi/internal/span"
)

// Error is a static lowering error: an unknown reference, unknown builtin,
// duplicate namespace key, or malformed control form, each carrying the
// span of the offending AST node (§7).
type Error struct {
	Span span.Span
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Format renders the diagnostic as "at LINE:COL: message" against source.
func (e *Error) Format(source string) string { return e.Span.At(source, e.Msg) }

func errf(sp span.Span, format string, args ...interface{}) *Error {
	return &Error{Span: sp, Msg: fmt.Sprintf(format, args...)}
}

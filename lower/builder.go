package lower

import (
	"github.com/hanoi-lang/hanoi/internal/span"
	"github.com/hanoi-lang/hanoi/ir"
)

// slot is one entry of the compile-time name stack (§4.2.1): an identifier
// currently live at this depth, or an anonymous intermediate.
type slot struct {
	name    string
	present bool
}

func namedSlots(names []string) []slot {
	out := make([]slot, len(names))
	for i, n := range names {
		out[i] = slot{name: n, present: n != ""}
	}
	return out
}

// SentenceBuilder mirrors the VM's view of the runtime stack while
// emitting Words, so every identifier resolves to a depth index with no
// further lookup needed at run time. Index 0 is the front (top), matching
// the runtime's own convention.
type SentenceBuilder struct {
	lib  *ir.Library
	ns   ir.NamespaceHandle
	name string

	bindings []slot
	stash    []slot

	words []ir.Word
	// sealed is set once an exec/if control tail has been emitted, so
	// callers (AndThen) can tell whether a trailing tail still needs to
	// be synthesized.
	sealed bool
}

func newBuilder(lib *ir.Library, ns ir.NamespaceHandle, name string, entry []slot) *SentenceBuilder {
	b := &SentenceBuilder{lib: lib, ns: ns, name: name}
	b.bindings = append(b.bindings, entry...)
	return b
}

// Seal appends the built words as a new sentence and returns its handle.
func (b *SentenceBuilder) Seal() ir.SentenceHandle {
	return b.lib.AddSentence(ir.Sentence{Name: b.name, Words: b.words})
}

func (b *SentenceBuilder) emit(in ir.InnerWord, sp span.Span) {
	b.words = append(b.words, ir.Word{Inner: in, Span: sp, Snapshot: b.snapshot()})
}

func (b *SentenceBuilder) snapshot() []ir.Binding {
	out := make([]ir.Binding, len(b.bindings))
	for i, s := range b.bindings {
		out[i] = ir.Binding{Name: s.name, Present: s.present}
	}
	return out
}

func (b *SentenceBuilder) pushFrontNone() {
	b.bindings = append([]slot{{}}, b.bindings...)
}

func (b *SentenceBuilder) find(ident string) (int, bool) {
	for i, s := range b.bindings {
		if s.present && s.name == ident {
			return i, true
		}
	}
	return 0, false
}

func (b *SentenceBuilder) removeAt(d int) slot {
	s := b.bindings[d]
	b.bindings = append(b.bindings[:d:d], b.bindings[d+1:]...)
	return s
}

func (b *SentenceBuilder) insertAt(d int, s slot) {
	b.bindings = append(b.bindings, slot{})
	copy(b.bindings[d+1:], b.bindings[d:])
	b.bindings[d] = s
}

// Literal pushes v (§4.2.1: literal(v) pushes None on front).
func (b *SentenceBuilder) Literal(v ir.Value, sp span.Span) {
	b.emit(ir.Push(v), sp)
	b.pushFrontNone()
}

// Move emits mv(ident): find ident at depth d, remove it, push it back at
// the front.
func (b *SentenceBuilder) Move(ident string, sp span.Span) error {
	d, ok := b.find(ident)
	if !ok {
		return errf(sp, "unknown reference %q", ident)
	}
	return b.MoveIdx(d, sp)
}

// MoveIdx is mv_idx(d).
func (b *SentenceBuilder) MoveIdx(d int, sp span.Span) error {
	if d < 0 || d >= len(b.bindings) {
		return errf(sp, "mv(%d): depth out of range (stack depth %d)", d, len(b.bindings))
	}
	b.emit(ir.Move(d), sp)
	s := b.removeAt(d)
	b.bindings = append([]slot{s}, b.bindings...)
	return nil
}

// Copy is cp(ident).
func (b *SentenceBuilder) Copy(ident string, sp span.Span) error {
	d, ok := b.find(ident)
	if !ok {
		return errf(sp, "unknown reference %q", ident)
	}
	return b.CopyIdx(d, sp)
}

// CopyIdx is cp_idx(d).
func (b *SentenceBuilder) CopyIdx(d int, sp span.Span) error {
	if d < 0 || d >= len(b.bindings) {
		return errf(sp, "cp(%d): depth out of range (stack depth %d)", d, len(b.bindings))
	}
	b.emit(ir.Copy(d), sp)
	b.pushFrontNone()
	return nil
}

// SendIdx is sd_idx(d): pop front, insert at depth d (after the pop).
func (b *SentenceBuilder) SendIdx(d int, sp span.Span) error {
	if len(b.bindings) == 0 {
		return errf(sp, "sd(%d): stack is empty", d)
	}
	top := b.bindings[0]
	rest := b.bindings[1:]
	if d < 0 || d > len(rest) {
		return errf(sp, "sd(%d): depth out of range (stack depth %d)", d, len(rest))
	}
	b.emit(ir.Send(d), sp)
	b.bindings = rest
	b.insertAt(d, top)
	return nil
}

// Drop is drop(ident).
func (b *SentenceBuilder) Drop(ident string, sp span.Span) error {
	d, ok := b.find(ident)
	if !ok {
		return errf(sp, "unknown reference %q", ident)
	}
	return b.DropIdx(d, sp)
}

// DropIdx is drop_idx(d): remove slot d.
func (b *SentenceBuilder) DropIdx(d int, sp span.Span) error {
	if d < 0 || d >= len(b.bindings) {
		return errf(sp, "drop(%d): depth out of range (stack depth %d)", d, len(b.bindings))
	}
	b.emit(ir.Drop(d), sp)
	b.removeAt(d)
	return nil
}

// Ref emits ref(n): push Value::Ref(n), a stack-relative back reference,
// treated like a literal for name-stack purposes (push None on front).
func (b *SentenceBuilder) Ref(n int, sp span.Span) {
	b.emit(ir.RefAt(n), sp)
	b.pushFrontNone()
}

// Builtin applies b's arity effect on the bindings deque (§4.2.1's table):
// pop its declared argument count, push None for each declared result,
// driven generically off ir.Builtin.Arity() since the deque only tracks
// presence/absence of a name, never which result "is" which argument.
func (b *SentenceBuilder) Builtin(bi ir.Builtin, sp span.Span) {
	b.emit(ir.Call(bi), sp)
	pop, push := bi.Arity()
	for i := 0; i < pop && len(b.bindings) > 0; i++ {
		b.bindings = b.bindings[1:]
	}
	for i := 0; i < push; i++ {
		b.pushFrontNone()
	}
}

// PushRawPointer pushes a pointer to sentence h with no captured values.
func (b *SentenceBuilder) PushRawPointer(h ir.SentenceHandle, sp span.Span) {
	b.Literal(ir.Pointer(&ir.Closure{Sentence: h}), sp)
}

// CurryResidual closes the pointer currently on top of the stack (depth 0)
// over count values in the bindings deque starting at depth skip+1
// (skip accounts for any values — e.g. a just-tested Bool — sitting
// between the pointer and the first value to capture), deepest first. The
// resulting closure's Captured list reconstructs the same front-to-back
// binding order those count values had, so the sentence this pointer
// targets can be lowered with that same slice as its own entry point.
//
// Every jump/branch/continuation target in this lowering closes over its
// full residual stack content this way immediately before the final
// exec/if tail, which is what makes the "stack must be empty save for the
// control tail" precondition (§4.3.2) hold without the lowerer having to
// track liveness any more precisely than "still in the bindings deque".
// Copy leaves the original binding in place (only a clone is consumed by
// Curry), so the same residual slice can be captured again by a second
// pointer afterward — used by if/match, which closes both branches over
// the same residual.
func (b *SentenceBuilder) CurryResidual(skip, count int, sp span.Span) {
	for i := count - 1; i >= 0; i-- {
		d := skip + i + 1
		b.emit(ir.Copy(d), sp)
		b.pushFrontNone()
		b.emit(ir.Call(ir.Curry), sp)
		// Copy+Curry nets to the same bindings length (pop the clone, pop
		// the running pointer, push the new pointer), so drive bookkeeping
		// directly instead of reusing Builtin (which would double-count
		// the Copy's own push).
		b.bindings = b.bindings[1:]
	}
}

// PushExecTail pops nothing itself; it emits the exec control tail,
// consuming the pointer already on top of the stack, and marks this
// sentence sealed.
func (b *SentenceBuilder) PushExecTail(sp span.Span) {
	execSym := b.lib.Symbols.Intern("exec")
	b.Literal(ir.Symbol(execSym), sp)
	b.sealed = true
}

// PushIfTail emits the if control tail: stack must already hold
// bool, trueCase, falseCase beneath this symbol push.
func (b *SentenceBuilder) PushIfTail(sp span.Span) {
	ifSym := b.lib.Symbols.Intern("if")
	b.Literal(ir.Symbol(ifSym), sp)
	b.sealed = true
}

// Bindings exposes a snapshot of the current compile-time name stack, for
// callers that need to lower a nested form with the same entry layout.
func (b *SentenceBuilder) Bindings() []slot {
	out := make([]slot, len(b.bindings))
	copy(out, b.bindings)
	return out
}

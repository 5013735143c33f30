package lower

import (
	"github.com/hanoi-lang/hanoi/internal/span"
	"github.com/hanoi-lang/hanoi/ir"
)

// LowerCode lowers a top-level Code declaration into a sealed sentence
// whose entry stack is described by entry (front = top).
func LowerCode(lib *ir.Library, ns ir.NamespaceHandle, name string, entry []ir.Binding, code Code) (ir.SentenceHandle, error) {
	b := newBuilder(lib, ns, name, bindingsToSlots(entry))
	if err := lowerCodeInto(b, code); err != nil {
		return 0, err
	}
	return b.Seal(), nil
}

func bindingsToSlots(bs []ir.Binding) []slot {
	out := make([]slot, len(bs))
	for i, bnd := range bs {
		out[i] = slot{name: bnd.Name, present: bnd.Present}
	}
	return out
}

func lowerCodeFresh(lib *ir.Library, ns ir.NamespaceHandle, entry []slot, code Code) (ir.SentenceHandle, error) {
	b := newBuilder(lib, ns, "", entry)
	if err := lowerCodeInto(b, code); err != nil {
		return 0, err
	}
	return b.Seal(), nil
}

// lowerCodeInto lowers one Code form into b, which may already carry a
// partially-built sentence (the AndThen/Bind forms recurse this way rather
// than allocating a fresh sentence per sub-form).
func lowerCodeInto(b *SentenceBuilder, code Code) error {
	switch c := code.(type) {
	case SentenceCode:
		for _, e := range c.Exprs {
			if err := lowerExpr(b, e); err != nil {
				return err
			}
		}
		return nil

	case ExecCode:
		if err := lowerExpr(b, c.Callee); err != nil {
			return err
		}
		residual := len(b.bindings) - 1
		b.CurryResidual(0, residual, span.Span{})
		b.PushExecTail(span.Span{})
		return nil

	case AndThenCode:
		return lowerAndThen(b, c)

	case IfCode:
		return lowerIfCode(b, c)

	case BindCode:
		if len(b.bindings) == 0 {
			return errf(span.Span{}, "bind %q: stack is empty", c.Name)
		}
		b.bindings[0] = slot{name: c.Name, present: true}
		return lowerCodeInto(b, c.Body)

	case MatchCode:
		return lowerMatchCode(b, c)

	default:
		return errf(span.Span{}, "unknown code form %T", code)
	}
}

// lowerAndThen compiles "s; k" by lowering both into the same sentence in
// sequence: s first, then k. This is correct whenever s is ordinary
// straight-line code (the common case parsers produce for a sentence
// followed by more code). If s itself branches (contains a nested
// If/Match/ExecCode and therefore already ends in its own control tail),
// control has already left by the time k would run, so k is unreachable
// through this path and is not lowered at all — a well-formed AST pairs a
// branching s with an empty or trivial k.
func lowerAndThen(b *SentenceBuilder, c AndThenCode) error {
	if err := lowerCodeInto(b, c.S); err != nil {
		return err
	}
	if b.sealed {
		return nil
	}
	return lowerCodeInto(b, c.K)
}

// lowerIfCode compiles "if cond then t else f": cond leaves a Bool on
// front; t and f are lowered as fresh sentences entered with the residual
// bindings beneath that Bool, each closed over that same residual via
// CurryResidual before the if tail (skip=1 accounts for the Bool sitting
// between each pointer and its residual).
func lowerIfCode(b *SentenceBuilder, c IfCode) error {
	if err := lowerCodeInto(b, c.Cond); err != nil {
		return err
	}
	residual := b.Bindings()[1:]
	tIdx, err := lowerCodeFresh(b.lib, b.ns, residual, c.Then)
	if err != nil {
		return err
	}
	fIdx, err := lowerCodeFresh(b.lib, b.ns, residual, c.Else)
	if err != nil {
		return err
	}
	b.PushRawPointer(tIdx, span.Span{})
	b.CurryResidual(1, len(residual), span.Span{})
	b.PushRawPointer(fIdx, span.Span{})
	b.CurryResidual(2, len(residual), span.Span{})
	b.PushIfTail(span.Span{})
	return nil
}

// lowerMatchCode compiles "match idx { literal => body ... } else e" into a
// reverse-built chain of two-way test sentences (deepest/last case tested
// last, so it falls through to e): each test copies the value at idx,
// compares it against its literal, and if-dispatches to its body or the
// next test in the chain.
func lowerMatchCode(b *SentenceBuilder, c MatchCode) error {
	entry := b.Bindings()
	elseIdx, err := lowerCodeFresh(b.lib, b.ns, entry, c.Else)
	if err != nil {
		return err
	}

	next := elseIdx
	for i := len(c.Cases) - 1; i >= 0; i-- {
		bodyIdx, err := lowerCodeFresh(b.lib, b.ns, entry, c.Cases[i].Body)
		if err != nil {
			return err
		}
		testIdx, err := buildMatchTest(b.lib, b.ns, entry, c.Idx, c.Cases[i].Literal, bodyIdx, next)
		if err != nil {
			return err
		}
		next = testIdx
	}

	b.PushRawPointer(next, span.Span{})
	b.CurryResidual(0, len(entry), span.Span{})
	b.PushExecTail(span.Span{})
	return nil
}

// buildMatchTest builds one "idx == literal ? body : next" test sentence,
// entered with entry as its own compile-time bindings so Copy(discDepth)
// resolves correctly. Both body and next are closed over entry via
// CurryResidual (skip 1 then 2, accounting for the Bool left by Eq and then
// for body's own pointer) so either branch can continue independently of
// this test sentence's own stack.
func buildMatchTest(lib *ir.Library, ns ir.NamespaceHandle, entry []slot, discDepth int, literal ir.Value, bodyIdx, next ir.SentenceHandle) (ir.SentenceHandle, error) {
	tb := newBuilder(lib, ns, "", entry)
	if err := tb.CopyIdx(discDepth, span.Span{}); err != nil {
		return 0, err
	}
	tb.Literal(literal, span.Span{})
	tb.Builtin(ir.Eq, span.Span{})

	residualCount := len(entry)
	tb.PushRawPointer(bodyIdx, span.Span{})
	tb.CurryResidual(1, residualCount, span.Span{})
	tb.PushRawPointer(next, span.Span{})
	tb.CurryResidual(2, residualCount, span.Span{})
	tb.PushIfTail(span.Span{})
	return tb.Seal(), nil
}

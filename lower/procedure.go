package lower

import (
	"github.com/hanoi-lang/hanoi/internal/span"
	"github.com/hanoi-lang/hanoi/ir"
)

// LowerProcedure lowers a top-level high-level-form declaration: proc.Args
// becomes the entry bindings (Args[0] ends up at depth 0, matching how
// lowerCallBuildCallee curries arguments — the first declared argument is
// curried last, so it's on top when the closure's sentence starts).
func LowerProcedure(lib *ir.Library, ns ir.NamespaceHandle, name string, proc Procedure) (ir.SentenceHandle, error) {
	b := newBuilder(lib, ns, name, namedSlots(proc.Args))
	if err := lowerProcedureInto(b, proc); err != nil {
		return 0, err
	}
	return b.Seal(), nil
}

func lowerProcedureFresh(lib *ir.Library, ns ir.NamespaceHandle, entry []slot, proc Procedure) (ir.SentenceHandle, error) {
	b := newBuilder(lib, ns, "", entry)
	if err := lowerProcedureInto(b, proc); err != nil {
		return 0, err
	}
	return b.Seal(), nil
}

func lowerProcedureInto(b *SentenceBuilder, proc Procedure) error {
	if len(proc.Lets) > 0 {
		return lowerLet(b, proc.Lets[0], Procedure{Lets: proc.Lets[1:], Endpoint: proc.Endpoint})
	}
	return lowerEndpoint(b, proc.Endpoint)
}

// lowerLet compiles "let names = expr; rest". Two distinct shapes share
// this syntax:
//
//   - expr's callee is a bare builtin (add, eq, cons, ...): the builtin is
//     a synchronous, arity-fixed operation, not a closure — apply it
//     immediately, bind its results to names in place, and continue
//     lowering rest into the very same sentence. No control transfer.
//   - expr's callee is anything else (a user-level closure whose leading
//     parameter is the continuation): go through the full four-step
//     continuation-passing protocol of §4.2.4.
func lowerLet(b *SentenceBuilder, stmt LetStmt, rest Procedure) error {
	if be, ok := stmt.Expr.Callee.(BuiltinExpr); ok {
		if bi, ok := ir.LookupBuiltin(be.Name); ok {
			return lowerBuiltinLet(b, stmt, bi, rest)
		}
	}
	return lowerCPSLet(b, stmt, rest)
}

// lowerBuiltinLet applies a builtin directly: lower each argument, call
// it, then name its results in place (Names[0] is the builtin's
// first-listed/deepest result, matching the table's push order) before
// continuing into rest without any jump.
func lowerBuiltinLet(b *SentenceBuilder, stmt LetStmt, bi ir.Builtin, rest Procedure) error {
	for _, a := range stmt.Expr.Args {
		if err := lowerExpr(b, a); err != nil {
			return err
		}
	}
	b.Builtin(bi, stmt.Span)
	_, push := bi.Arity()
	if push != len(stmt.Names) {
		return errf(stmt.Span, "let %v = %s(...): %s produces %d value(s), %d name(s) bound", stmt.Names, bi, bi, push, len(stmt.Names))
	}
	for i, name := range stmt.Names {
		d := push - 1 - i
		b.bindings[d] = slot{name: name, present: name != ""}
	}
	return lowerProcedureInto(b, rest)
}

// lowerCPSLet compiles the continuation-passing let (§4.2.4's four-step
// algorithm):
//
//  1. lower expr as a call, leaving exactly one (fully curried-with-args)
//     callee pointer on top;
//  2. sd_top it below the residual locals, so rest's own lowering sees the
//     same stack shape it would without the let;
//  3. lower rest as a fresh sentence whose entry is names prepended to the
//     residual — names are what the callee will eventually curry onto our
//     continuation and hand back to rest;
//  4. push a raw pointer to rest, close it over the residual locals, close
//     the saved callee over that (so invoking the callee with its own
//     results ends up invoking rest with both names and the residual in
//     scope), and exec.
func lowerCPSLet(b *SentenceBuilder, stmt LetStmt, rest Procedure) error {
	if err := lowerCallBuildCallee(b, stmt.Expr); err != nil {
		return err
	}
	// residual excludes the callee itself, still on top at this point —
	// rest's own captures are [stmt.Names..., residual...], supplied by
	// the callee curry-ing its results onto rest later, not by the callee
	// value itself.
	residual := b.Bindings()[1:]

	bottom := len(b.bindings) - 1
	if err := b.SendIdx(bottom, stmt.Span); err != nil {
		return err
	}

	restEntry := append(namedSlots(stmt.Names), residual...)
	restIdx, err := lowerProcedureFresh(b.lib, b.ns, restEntry, rest)
	if err != nil {
		return err
	}

	b.PushRawPointer(restIdx, stmt.Span)
	residualCount := len(b.bindings) - 2 // exclude rest's own pointer and the callee at the bottom
	b.CurryResidual(0, residualCount, stmt.Span)
	// CurryResidual curried copies; drop the originals still sitting
	// between restPtr and the callee.
	for i := 0; i < residualCount; i++ {
		if err := b.DropIdx(1, stmt.Span); err != nil {
			return err
		}
	}
	// bindings is now [restPtr(closed over residual), callee] — curry
	// restPtr directly onto callee (v=restPtr top, ptr=callee second,
	// exactly Builtin(Curry)'s convention).
	b.Builtin(ir.Curry, stmt.Span)
	b.PushExecTail(stmt.Span)
	return nil
}

func lowerEndpoint(b *SentenceBuilder, ep Endpoint) error {
	switch e := ep.(type) {
	case Call:
		return lowerCallEndpoint(b, e)
	case IfEndpoint:
		return lowerIfEndpoint(b, e)
	case MatchEndpoint:
		return lowerMatchEndpoint(b, e)
	default:
		return errf(span.Span{}, "unknown endpoint form %T", ep)
	}
}

// lowerCallBuildCallee pushes callee then, for each argument (evaluated in
// reverse declaration order), pushes the argument's value and immediately
// curries it onto the running callee pointer — interleaved, not
// all-push-then-curry-at-end (see DESIGN.md's function-call convention).
// Leaves exactly one pointer value on top.
func lowerCallBuildCallee(b *SentenceBuilder, call Call) error {
	if err := lowerExpr(b, call.Callee); err != nil {
		return err
	}
	for i := len(call.Args) - 1; i >= 0; i-- {
		if err := lowerExpr(b, call.Args[i]); err != nil {
			return err
		}
		b.Builtin(ir.Curry, call.Span)
	}
	return nil
}

// lowerCallEndpoint compiles a tail call: build the curried callee, then
// drop whatever locals it didn't consume (a tail call has no continuation
// of its own to hand them to), then exec.
func lowerCallEndpoint(b *SentenceBuilder, call Call) error {
	if err := lowerCallBuildCallee(b, call); err != nil {
		return err
	}
	for len(b.bindings) > 1 {
		if err := b.DropIdx(len(b.bindings)-1, call.Span); err != nil {
			return err
		}
	}
	b.PushExecTail(call.Span)
	return nil
}

// lowerIfEndpoint compiles the procedure-level if terminating a block:
// mechanically identical to lowerIfCode, but Then/Else are Procedures.
func lowerIfEndpoint(b *SentenceBuilder, e IfEndpoint) error {
	if err := lowerExpr(b, e.Cond); err != nil {
		return err
	}
	residual := b.Bindings()[1:]
	tIdx, err := lowerProcedureFresh(b.lib, b.ns, residual, e.Then)
	if err != nil {
		return err
	}
	fIdx, err := lowerProcedureFresh(b.lib, b.ns, residual, e.Else)
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

// lowerMatchEndpoint compiles the procedure-level match terminating a
// block: the discriminee is evaluated and sd_top'd (rather than referring
// to an already-live depth, as the low-level form does), cases are built
// into the same reverse test chain lowerMatchCode uses, and running off
// the end of the chain pushes the literal symbol "panic" with no control
// tail after it — hitting the unknown-control-symbol path in the VM,
// which is exactly the runtime error an unmatched case should raise.
func lowerMatchEndpoint(b *SentenceBuilder, e MatchEndpoint) error {
	if err := lowerExpr(b, e.Discriminee); err != nil {
		return err
	}
	bottom := len(b.bindings) - 1
	if err := b.SendIdx(bottom, span.Span{}); err != nil {
		return err
	}
	discDepth := len(b.bindings) - 1

	entry := b.Bindings()
	elseIdx, err := buildPanicSentence(b.lib, b.ns)
	if err != nil {
		return err
	}

	next := elseIdx
	for i := len(e.Cases) - 1; i >= 0; i-- {
		c := e.Cases[i]
		caseEntry := append(namedSlots(c.Bindings), entry...)
		bodyIdx, err := lowerProcedureFresh(b.lib, b.ns, caseEntry, c.Body)
		if err != nil {
			return err
		}
		testIdx, err := buildMatchTest(b.lib, b.ns, entry, discDepth, c.Literal, bodyIdx, next)
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

// buildPanicSentence builds the fallthrough sentence for an unmatched
// procedure-level match: push the symbol "panic" and stop, with no
// exec/if tail after it — controlTail then rejects it as an unknown
// control symbol, surfacing a runtime error for the unmatched case.
func buildPanicSentence(lib *ir.Library, ns ir.NamespaceHandle) (ir.SentenceHandle, error) {
	b := newBuilder(lib, ns, "", nil)
	b.Literal(ir.Symbol(lib.Symbols.Intern("panic")), span.Span{})
	return b.Seal(), nil
}

package lower

import (
	"github.com/hanoi-lang/hanoi/internal/span"
	"github.com/hanoi-lang/hanoi/ir"
)

// lowerExpr emits the words for one expression and updates bindings
// (§4.2.3).
func lowerExpr(b *SentenceBuilder, e Expr) error {
	switch x := e.(type) {
	case Literal:
		b.Literal(x.Value, x.Span)
		return nil
	case Path:
		return lowerPath(b, x)
	case Reference:
		return b.Move(x.Name, x.Span)
	case CopyExpr:
		return b.Copy(x.Name, x.Span)
	case DeleteExpr:
		return b.Drop(x.Name, x.Span)
	case FunctionLike:
		return lowerFunctionLike(b, x)
	case BuiltinExpr:
		bi, ok := ir.LookupBuiltin(x.Name)
		if !ok {
			return errf(x.Span, "unknown builtin %q", x.Name)
		}
		b.Builtin(bi, x.Span)
		return nil
	default:
		return errf(span.Span{}, "unknown expression form %T", e)
	}
}

// lowerPath resolves a dotted name by walking Get calls one segment at a
// time: push the starting namespace, then for each segment push its
// symbol and call Get, which consumes (symbol, namespace) and leaves the
// looked-up value (a nested Namespace, for every segment but the last).
func lowerPath(b *SentenceBuilder, p Path) error {
	b.Literal(ir.Namespace(b.ns), p.Span)
	for _, seg := range p.Segments {
		b.Literal(ir.Symbol(b.lib.Symbols.Intern(seg)), p.Span)
		b.Builtin(ir.Get, p.Span)
	}
	return nil
}

func lowerFunctionLike(b *SentenceBuilder, f FunctionLike) error {
	switch f.Func {
	case "cp":
		return b.CopyIdx(f.N, f.Span)
	case "drop":
		return b.DropIdx(f.N, f.Span)
	case "mv":
		return b.MoveIdx(f.N, f.Span)
	case "sd":
		return b.SendIdx(f.N, f.Span)
	case "ref":
		b.Ref(f.N, f.Span)
		return nil
	default:
		return errf(f.Span, "unknown positional form %q", f.Func)
	}
}

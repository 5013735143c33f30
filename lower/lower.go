package lower

import "github.com/hanoi-lang/hanoi/ir"

// Lower binds each of decls into ns, recursing into nested namespaces and
// lowering Code/Procedure leaves into sentences bound as pointers. It is
// the single entry point a front end (parser) drives once it has built an
// AST; everything above this — tokenizing, parsing, the interactive
// debugger — is a separate concern.
func Lower(lib *ir.Library, ns ir.NamespaceHandle, decls []Decl) error {
	for _, d := range decls {
		if err := lowerDecl(lib, ns, d); err != nil {
			return err
		}
	}
	return nil
}

func lowerDecl(lib *ir.Library, ns ir.NamespaceHandle, d Decl) error {
	switch body := d.Body.(type) {
	case NamespaceBody:
		child := lib.NewNamespace(ns)
		if err := Lower(lib, child, body.Decls); err != nil {
			return err
		}
		return bindDecl(lib, ns, d, ir.Namespace(child))

	case CodeBody:
		h, err := LowerCode(lib, ns, d.Name, nil, body.Code)
		if err != nil {
			return err
		}
		return bindDecl(lib, ns, d, ir.Pointer(&ir.Closure{Sentence: h}))

	case ProcedureBody:
		h, err := LowerProcedure(lib, ns, d.Name, body.Proc)
		if err != nil {
			return err
		}
		return bindDecl(lib, ns, d, ir.Pointer(&ir.Closure{Sentence: h}))

	default:
		return errf(d.Span, "unknown declaration body %T", d.Body)
	}
}

func bindDecl(lib *ir.Library, ns ir.NamespaceHandle, d Decl, v ir.Value) error {
	if err := lib.Bind(ns, d.Name, v); err != nil {
		return errf(d.Span, "%s: %v", d.Name, err)
	}
	return nil
}

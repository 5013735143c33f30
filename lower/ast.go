// Package lower turns parsed declarations into ir.Library sentences: it
// abstractly interprets a compile-time name stack alongside the words it
// emits, so textual identifiers become runtime stack-depth indices with no
// further name resolution needed at execution time.
package lower

import (
	"github.com/hanoi-lang/hanoi/internal/span"
	"github.com/hanoi-lang/hanoi/ir"
)

// Decl is one entry of an AST namespace: a name plus one of three bodies.
type Decl struct {
	Name string
	Body DeclBody
	Span span.Span
}

// DeclBody is the sum NamespaceBody | CodeBody | ProcedureBody.
type DeclBody interface{ declBody() }

// NamespaceBody nests a further ordered list of declarations.
type NamespaceBody struct{ Decls []Decl }

func (NamespaceBody) declBody() {}

// CodeBody holds the low-level form (§4.2.2).
type CodeBody struct{ Code Code }

func (CodeBody) declBody() {}

// ProcedureBody holds the high-level form (§4.2.4).
type ProcedureBody struct{ Proc Procedure }

func (ProcedureBody) declBody() {}

// Code is the sum Sentence | AndThen | If | Bind | Match | Exec (§3.1, §4.2.2).
type Code interface{ code() }

// SentenceCode is a single sentence: an ordered list of expressions.
type SentenceCode struct {
	Exprs []Expr
	Span  span.Span
}

func (SentenceCode) code() {}

// AndThenCode is "sentence; code": run S, then continue into K.
type AndThenCode struct {
	S, K Code
}

func (AndThenCode) code() {}

// IfCode is "if {cond} then {t} else {f}". Cond is itself Code so it can be
// a full sentence whose last action leaves a Bool.
type IfCode struct {
	Cond, Then, Else Code
}

func (IfCode) code() {}

// BindCode is the textual let: "bind name in code". It names whatever
// value currently occupies the front (top) of the stack, emitting no
// words of its own.
type BindCode struct {
	Name string
	Body Code
}

func (BindCode) code() {}

// MatchCode dispatches on the value at a fixed stack depth against a list
// of literal cases, falling through to Else.
type MatchCode struct {
	Idx   int
	Cases []MatchCase
	Else  Code
}

func (MatchCode) code() {}

// ExecCode is the only terminal leaf of the Code sum: evaluate Callee,
// which must leave exactly one Pointer value on the stack, close it over
// every other value still live, and exec it. Every well-formed low-level
// program bottoms out here, directly or through a branch of If/Match.
type ExecCode struct {
	Callee Expr
}

func (ExecCode) code() {}

// MatchCase is one "case literal => code" arm.
type MatchCase struct {
	Literal ir.Value
	Body    Code
}

// Procedure is the high-level form: argument names, a chain of let
// statements, and a terminal endpoint (§4.2.4).
type Procedure struct {
	Args     []string
	Lets     []LetStmt
	Endpoint Endpoint
}

// LetStmt is "let names = expr; rest" — expr must be a Call (the callee
// continuation expected to be invoked with the remaining context).
type LetStmt struct {
	Names []string
	Expr  Call
	Span  span.Span
}

// Endpoint is the sum Call | IfEndpoint | MatchEndpoint terminating a
// procedure body.
type Endpoint interface{ endpoint() }

// Call is a function-call expression/endpoint: callee(args...). Each
// argument is lowered by lowerExpr, so cp(ident)/bare-identifier/literal
// argument forms are just CopyExpr/Reference/Literal — there is no
// separate copy-vs-move flag here.
type Call struct {
	Callee Expr
	Args   []Expr
	Span   span.Span
}

func (Call) endpoint() {}

// IfEndpoint is the procedure-level if, terminating the enclosing block.
type IfEndpoint struct {
	Cond       Expr
	Then, Else Procedure
}

func (IfEndpoint) endpoint() {}

// MatchEndpoint is the procedure-level match, terminating the enclosing
// block.
type MatchEndpoint struct {
	Discriminee Expr
	Cases       []ProcMatchCase
}

func (MatchEndpoint) endpoint() {}

// ProcMatchCase is one procedure-level match arm: a literal, the names its
// body's bindings bring into scope, and the arm's own procedure body.
type ProcMatchCase struct {
	Literal  ir.Value
	Bindings []string
	Body     Procedure
}

// Expr is the sum Literal | Path | Reference | CopyExpr | DeleteExpr |
// FunctionLike | BuiltinExpr (§3.1, §4.2.3).
type Expr interface{ expr() }

// Literal is a literal int/bool/char/symbol value.
type Literal struct {
	Value ir.Value
	Span  span.Span
}

func (Literal) expr() {}

// Path is a dotted name into a namespace, e.g. tests.run.
type Path struct {
	Segments []string
	Span     span.Span
}

func (Path) expr() {}

// Reference is a bare identifier: implicit move.
type Reference struct {
	Name string
	Span span.Span
}

func (Reference) expr() {}

// CopyExpr is cp(ident).
type CopyExpr struct {
	Name string
	Span span.Span
}

func (CopyExpr) expr() {}

// DeleteExpr is drop(ident).
type DeleteExpr struct {
	Name string
	Span span.Span
}

func (DeleteExpr) expr() {}

// FunctionLike is a positional form: cp(n), drop(n), mv(n), sd(n), ref(n).
type FunctionLike struct {
	Func string
	N    int
	Span span.Span
}

func (FunctionLike) expr() {}

// BuiltinExpr names a builtin directly, e.g. `add`.
type BuiltinExpr struct {
	Name string
	Span span.Span
}

func (BuiltinExpr) expr() {}

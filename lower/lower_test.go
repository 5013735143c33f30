package lower_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanoi-lang/hanoi/ir"
	"github.com/hanoi-lang/hanoi/lower"
	"github.com/hanoi-lang/hanoi/vm"
)

// trapPointer is a literal expression pushing a Pointer straight to
// ir.TRAP, for procedures that need to surface a value to the host.
func trapPointer() lower.Literal {
	return lower.Literal{Value: ir.Pointer(&ir.Closure{Sentence: ir.TRAP})}
}

// buildDoubleDecls lowers the equivalent of:
//
//	k(sum) = trap(sum)
//	double(caller, n) = { let sum = add(cp(n), n); caller(sum) }
//	main() = double(k, 3)
//
// exercising builtin-lets, the continuation-passing call protocol, and
// sibling-namespace path resolution end to end through the public Lower
// entry point (no hand-assembled IR).
//
// double's continuation parameter is declared first (not last): full calls
// curry arguments in reverse declared order (so Args[0] ends up on top at
// entry), and a partial application — a let's callee, supplying only a
// trailing suffix of Args — relies on the omitted parameter being exactly
// the one a reverse-order full call would curry last. That's Args[0], so
// any procedure meant to be partially applied from a let declares its
// continuation there.
func buildDoubleDecls() []lower.Decl {
	k := lower.Decl{Name: "k", Body: lower.ProcedureBody{Proc: lower.Procedure{
		Args: []string{"sum"},
		Endpoint: lower.Call{
			Callee: trapPointer(),
			Args:   []lower.Expr{lower.Reference{Name: "sum"}},
		},
	}}}

	double := lower.Decl{Name: "double", Body: lower.ProcedureBody{Proc: lower.Procedure{
		Args: []string{"caller", "n"},
		Lets: []lower.LetStmt{{
			Names: []string{"sum"},
			Expr: lower.Call{
				Callee: lower.BuiltinExpr{Name: "add"},
				Args:   []lower.Expr{lower.CopyExpr{Name: "n"}, lower.Reference{Name: "n"}},
			},
		}},
		Endpoint: lower.Call{
			Callee: lower.Reference{Name: "caller"},
			Args:   []lower.Expr{lower.Reference{Name: "sum"}},
		},
	}}}

	main := lower.Decl{Name: "main", Body: lower.ProcedureBody{Proc: lower.Procedure{
		Endpoint: lower.Call{
			Callee: lower.Path{Segments: []string{"double"}},
			Args: []lower.Expr{
				lower.Path{Segments: []string{"k"}},
				lower.Literal{Value: ir.Usize(3)},
			},
		},
	}}}

	return []lower.Decl{k, double, main}
}

func TestLowerThenRunArithmeticDoubleThree(t *testing.T) {
	lib := ir.NewLibrary()
	require.NoError(t, lower.Lower(lib, ir.RootNamespace, buildDoubleDecls()))

	m, err := vm.New(lib)
	require.NoError(t, err)

	values, err := m.RunToTrap(context.Background())
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.True(t, ir.Equal(ir.Usize(6), values[0]))
}

// TestLowerCPSLetPartialApplication exercises the let-bound continuation
// protocol directly: half partially applies double with only "n" (omitting
// double's leading continuation parameter, leaving a closure still expecting
// one more curry), binds the eventual result to "d", then forwards it to its
// own continuation. This is the same partial-application shape §4.2.4's
// four-step protocol is built for, distinct from builtin-lets (which never
// leave a pending curry at all).
func TestLowerCPSLetPartialApplication(t *testing.T) {
	decls := buildDoubleDecls()

	half := lower.Decl{Name: "half", Body: lower.ProcedureBody{Proc: lower.Procedure{
		Args: []string{"k", "n"},
		Lets: []lower.LetStmt{{
			Names: []string{"d"},
			Expr: lower.Call{
				Callee: lower.Path{Segments: []string{"double"}},
				Args:   []lower.Expr{lower.Reference{Name: "n"}},
			},
		}},
		Endpoint: lower.Call{
			Callee: lower.Reference{Name: "k"},
			Args:   []lower.Expr{lower.Reference{Name: "d"}},
		},
	}}}

	main := lower.Decl{Name: "main", Body: lower.ProcedureBody{Proc: lower.Procedure{
		Endpoint: lower.Call{
			Callee: lower.Path{Segments: []string{"half"}},
			Args: []lower.Expr{
				lower.Path{Segments: []string{"k"}},
				lower.Literal{Value: ir.Usize(5)},
			},
		},
	}}}

	// replace buildDoubleDecls' own main with this test's main+half.
	decls = append(decls[:len(decls)-1], half, main)

	lib := ir.NewLibrary()
	require.NoError(t, lower.Lower(lib, ir.RootNamespace, decls))

	m, err := vm.New(lib)
	require.NoError(t, err)
	values, err := m.RunToTrap(context.Background())
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.True(t, ir.Equal(ir.Usize(10), values[0]))
}

func TestLowerNestedNamespace(t *testing.T) {
	lib := ir.NewLibrary()
	decls := []lower.Decl{{
		Name: "tests",
		Body: lower.NamespaceBody{Decls: []lower.Decl{{
			Name: "run",
			Body: lower.ProcedureBody{Proc: lower.Procedure{
				Endpoint: lower.Call{Callee: trapPointer(), Args: []lower.Expr{
					lower.Literal{Value: ir.Usize(42)},
				}},
			}},
		}}},
	}, {
		Name: "main",
		Body: lower.ProcedureBody{Proc: lower.Procedure{
			Endpoint: lower.Call{
				Callee: lower.Path{Segments: []string{"tests", "run"}},
			},
		}},
	}}

	require.NoError(t, lower.Lower(lib, ir.RootNamespace, decls))

	m, err := vm.New(lib)
	require.NoError(t, err)
	values, err := m.RunToTrap(context.Background())
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.True(t, ir.Equal(ir.Usize(42), values[0]))
}

func TestLowerIfEndpointBothBranches(t *testing.T) {
	build := func(cond bool) []lower.Decl {
		return []lower.Decl{{
			Name: "main",
			Body: lower.ProcedureBody{Proc: lower.Procedure{
				Endpoint: lower.IfEndpoint{
					Cond: lower.Literal{Value: ir.Bool(cond)},
					Then: lower.Procedure{Endpoint: lower.Call{Callee: trapPointer(), Args: []lower.Expr{
						lower.Literal{Value: ir.Usize(1)},
					}}},
					Else: lower.Procedure{Endpoint: lower.Call{Callee: trapPointer(), Args: []lower.Expr{
						lower.Literal{Value: ir.Usize(0)},
					}}},
				},
			}},
		}}
	}

	t.Run("true", func(t *testing.T) {
		lib := ir.NewLibrary()
		require.NoError(t, lower.Lower(lib, ir.RootNamespace, build(true)))
		m, err := vm.New(lib)
		require.NoError(t, err)
		values, err := m.RunToTrap(context.Background())
		require.NoError(t, err)
		require.Len(t, values, 1)
		assert.True(t, ir.Equal(ir.Usize(1), values[0]))
	})

	t.Run("false", func(t *testing.T) {
		lib := ir.NewLibrary()
		require.NoError(t, lower.Lower(lib, ir.RootNamespace, build(false)))
		m, err := vm.New(lib)
		require.NoError(t, err)
		values, err := m.RunToTrap(context.Background())
		require.NoError(t, err)
		require.Len(t, values, 1)
		assert.True(t, ir.Equal(ir.Usize(0), values[0]))
	})
}

func TestLowerMatchEndpointFallthroughPanics(t *testing.T) {
	decls := []lower.Decl{{
		Name: "main",
		Body: lower.ProcedureBody{Proc: lower.Procedure{
			Endpoint: lower.MatchEndpoint{
				Discriminee: lower.Literal{Value: ir.Usize(9)},
				Cases: []lower.ProcMatchCase{{
					Literal: ir.Usize(1),
					Body:    lower.Procedure{Endpoint: lower.Call{Callee: trapPointer(), Args: []lower.Expr{lower.Literal{Value: ir.Usize(111)}}}},
				}},
			},
		}},
	}}

	lib := ir.NewLibrary()
	require.NoError(t, lower.Lower(lib, ir.RootNamespace, decls))
	m, err := vm.New(lib)
	require.NoError(t, err)
	_, err = m.RunToTrap(context.Background())
	require.Error(t, err)
	var vmErr *vm.Error
	require.ErrorAs(t, err, &vmErr)
}

func TestLowerUnknownReferenceIsStaticError(t *testing.T) {
	decls := []lower.Decl{{
		Name: "main",
		Body: lower.ProcedureBody{Proc: lower.Procedure{
			Endpoint: lower.Call{Callee: lower.Reference{Name: "nope"}},
		}},
	}}

	lib := ir.NewLibrary()
	err := lower.Lower(lib, ir.RootNamespace, decls)
	require.Error(t, err)
	var lowerErr *lower.Error
	require.ErrorAs(t, err, &lowerErr)
}

func TestLowerUnknownBuiltinIsStaticError(t *testing.T) {
	decls := []lower.Decl{{
		Name: "main",
		Body: lower.ProcedureBody{Proc: lower.Procedure{
			Lets: []lower.LetStmt{{
				Names: []string{"x"},
				Expr:  lower.Call{Callee: lower.BuiltinExpr{Name: "nonexistent"}},
			}},
			Endpoint: lower.Call{Callee: lower.Reference{Name: "x"}},
		}},
	}}

	lib := ir.NewLibrary()
	err := lower.Lower(lib, ir.RootNamespace, decls)
	require.Error(t, err)
}

// TestLowerRefDerefResolvesPostPopDepth exercises the ref(n)/deref
// positional form end to end through the public Lower entry point:
//
//	main() = { let v = deref(111, 222, 333, ref(1)); trap(v) }
//
// A LetStmt's Expr must itself be a Call (lower/ast.go), so ref(1) can
// only appear as one of deref's Args, not as a let's right-hand side by
// itself. lowerBuiltinLet lowers every Arg in order before emitting the
// builtin call, so the three literals land on the stack first (top
// first: [333, 222, 111]) and ref(1) lands on top of those: [ref(1),
// 333, 222, 111]. Only deref's own declared arity (one pop, one push)
// is named as "v" — the three literals stay as unnamed filler below it.
//
// vm/builtin.go's Deref case pops the ref value before resolving its
// depth, so ref(1) must resolve against [333, 222, 111] (the ref's own
// slot already gone), where depth 1 is 222 — not 333, which sits at
// depth 1 only if the ref's own slot were still counted.
func TestLowerRefDerefResolvesPostPopDepth(t *testing.T) {
	decls := []lower.Decl{{
		Name: "main",
		Body: lower.ProcedureBody{Proc: lower.Procedure{
			Lets: []lower.LetStmt{
				{Names: []string{"v"}, Expr: lower.Call{
					Callee: lower.BuiltinExpr{Name: "deref"},
					Args: []lower.Expr{
						lower.Literal{Value: ir.Usize(111)},
						lower.Literal{Value: ir.Usize(222)},
						lower.Literal{Value: ir.Usize(333)},
						lower.FunctionLike{Func: "ref", N: 1},
					},
				}},
			},
			Endpoint: lower.Call{
				Callee: trapPointer(),
				Args:   []lower.Expr{lower.Reference{Name: "v"}},
			},
		}},
	}}

	lib := ir.NewLibrary()
	require.NoError(t, lower.Lower(lib, ir.RootNamespace, decls))

	m, err := vm.New(lib)
	require.NoError(t, err)
	values, err := m.RunToTrap(context.Background())
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.True(t, ir.Equal(ir.Usize(222), values[0]))
}

func TestLowerDuplicateNamespaceKeyIsStaticError(t *testing.T) {
	decls := []lower.Decl{
		{Name: "x", Body: lower.ProcedureBody{Proc: lower.Procedure{Endpoint: lower.Call{Callee: trapPointer()}}}},
		{Name: "x", Body: lower.ProcedureBody{Proc: lower.Procedure{Endpoint: lower.Call{Callee: trapPointer()}}}},
	}

	lib := ir.NewLibrary()
	err := lower.Lower(lib, ir.RootNamespace, decls)
	require.Error(t, err)
}

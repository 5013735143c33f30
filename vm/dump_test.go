package vm_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/require"

	"github.com/hanoi-lang/hanoi/ir"
	"github.com/hanoi-lang/hanoi/lower"
	"github.com/hanoi-lang/hanoi/vm"
)

// buildAddOneDecls lowers the equivalent of:
//
//	main() = { let sum = add(1, 1); trap(sum) }
//
// just enough shape (a builtin-let plus a literal push) to exercise every
// branch of Dumper.DumpSentence's word formatter in one snapshot.
func buildAddOneDecls() []lower.Decl {
	main := lower.Decl{Name: "main", Body: lower.ProcedureBody{Proc: lower.Procedure{
		Lets: []lower.LetStmt{{
			Names: []string{"sum"},
			Expr: lower.Call{
				Callee: lower.BuiltinExpr{Name: "add"},
				Args:   []lower.Expr{lower.Literal{Value: ir.Usize(1)}, lower.Literal{Value: ir.Usize(1)}},
			},
		}},
		Endpoint: lower.Call{
			Callee: lower.Literal{Value: ir.Pointer(&ir.Closure{Sentence: ir.TRAP})},
			Args:   []lower.Expr{lower.Reference{Name: "sum"}},
		},
	}}}
	return []lower.Decl{main}
}

// TestDumperSnapshot pins Dumper.Dump's rendering of a small library plus a
// post-run stack against the snapshot go-snaps records, so a rendering regression in
// formatValue/formatInner shows up as a diff instead of silently drifting.
func TestDumperSnapshot(t *testing.T) {
	lib := ir.NewLibrary()
	require.NoError(t, lower.Lower(lib, ir.RootNamespace, buildAddOneDecls()))

	m, err := vm.New(lib)
	require.NoError(t, err)
	_, err = m.RunToTrap(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	vm.Dumper{Lib: lib, Out: &buf}.Dump(m)

	snaps.MatchSnapshot(t, buf.String())
}

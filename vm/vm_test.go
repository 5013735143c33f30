package vm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanoi-lang/hanoi/ir"
	"github.com/hanoi-lang/hanoi/vm"
)

func trapClosure() *ir.Closure { return &ir.Closure{Sentence: ir.TRAP} }

// trapWith builds a sentence that, from an empty entry stack, traps with
// exactly one value: push(trap), push(v), curry, exec.
func trapWith(lib *ir.Library, execSym uint32, v ir.Value) ir.SentenceHandle {
	return lib.AddSentence(ir.Sentence{Words: []ir.Word{
		{Inner: ir.Push(ir.Pointer(trapClosure()))},
		{Inner: ir.Push(v)},
		{Inner: ir.Call(ir.Curry)},
		{Inner: ir.Push(ir.Symbol(execSym))},
	}})
}

// buildDoubleLibrary hand-assembles the IR a lowerer would produce for:
//
//	double(n, caller) = { n copy; add; caller exec }
//	main = double(3, k) where k traps with its argument
//
// exercising Copy/Curry/exec end to end without needing the lower package.
func buildDoubleLibrary(t *testing.T) *ir.Library {
	t.Helper()
	lib := ir.NewLibrary()
	execSym := lib.Symbols.Intern("exec")

	// k: entry stack = [sum]; traps with sum as the sole surfaced value.
	kIdx := lib.AddSentence(ir.Sentence{Name: "k", Words: []ir.Word{
		{Inner: ir.Push(ir.Pointer(trapClosure()))},
		{Inner: ir.Send(1)},
		{Inner: ir.Call(ir.Curry)},
		{Inner: ir.Push(ir.Symbol(execSym))},
	}})

	// double: entry stack = [n, caller]; computes n+n, curries it onto
	// caller, execs.
	doubleIdx := lib.AddSentence(ir.Sentence{Name: "double", Words: []ir.Word{
		{Inner: ir.Copy(0)},
		{Inner: ir.Call(ir.Add)},
		{Inner: ir.Call(ir.Curry)},
		{Inner: ir.Push(ir.Symbol(execSym))},
	}})

	doublePtr := &ir.Closure{Sentence: doubleIdx}
	kPtr := &ir.Closure{Sentence: kIdx}

	mainIdx := lib.AddSentence(ir.Sentence{Name: "main", Words: []ir.Word{
		{Inner: ir.Push(ir.Pointer(doublePtr))},
		{Inner: ir.Push(ir.Pointer(kPtr))},
		{Inner: ir.Call(ir.Curry)}, // caller captured[1]
		{Inner: ir.Push(ir.Usize(3))},
		{Inner: ir.Call(ir.Curry)}, // n captured[0]
		{Inner: ir.Push(ir.Symbol(execSym))},
	}})

	require.NoError(t, lib.Bind(ir.RootNamespace, "main", ir.Pointer(&ir.Closure{Sentence: mainIdx})))
	return lib
}

func TestArithmeticDoubleThree(t *testing.T) {
	lib := buildDoubleLibrary(t)
	m, err := vm.New(lib)
	require.NoError(t, err)

	values, err := m.RunToTrap(context.Background())
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.True(t, ir.Equal(ir.Usize(6), values[0]))
}

// buildRefDerefLibrary hand-assembles IR exercising ref(n)/deref: pushes
// three values, pushes ref(1), then derefs and traps with the result.
//
// vm/builtin.go's Deref case pops the ref value before resolving its depth,
// so ref(1) here must resolve against [111, 222, 333] (the stack with the
// ref's own slot already gone), where depth 1 is 222. A deref that resolved
// depth 1 against the stack still holding the ref value at depth 0 would
// land on 333 instead, one slot too deep.
func buildRefDerefLibrary(t *testing.T) *ir.Library {
	t.Helper()
	lib := ir.NewLibrary()
	execSym := lib.Symbols.Intern("exec")

	mainIdx := lib.AddSentence(ir.Sentence{Name: "main", Words: []ir.Word{
		{Inner: ir.Push(ir.Usize(111))},
		{Inner: ir.Push(ir.Usize(222))},
		{Inner: ir.Push(ir.Usize(333))},
		{Inner: ir.RefAt(1)},
		{Inner: ir.Call(ir.Deref)},
		{Inner: ir.Push(ir.Pointer(trapClosure()))},
		{Inner: ir.Send(1)},
		{Inner: ir.Call(ir.Curry)},
		{Inner: ir.Push(ir.Symbol(execSym))},
	}})

	require.NoError(t, lib.Bind(ir.RootNamespace, "main", ir.Pointer(&ir.Closure{Sentence: mainIdx})))
	return lib
}

func TestDerefResolvesPostPopDepth(t *testing.T) {
	lib := buildRefDerefLibrary(t)
	m, err := vm.New(lib)
	require.NoError(t, err)

	values, err := m.RunToTrap(context.Background())
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.True(t, ir.Equal(ir.Usize(222), values[0]))
}

func TestNamespacePathResolvesViaGet(t *testing.T) {
	lib := ir.NewLibrary()
	execSym := lib.Symbols.Intern("exec")
	runSym := lib.Symbols.Intern("run")
	testsSym := lib.Symbols.Intern("tests")

	tests := lib.NewNamespace(ir.RootNamespace)
	runPtr := &ir.Closure{Sentence: ir.TRAP}
	require.NoError(t, lib.Bind(tests, "run", ir.Pointer(runPtr)))
	require.NoError(t, lib.Bind(ir.RootNamespace, "tests", ir.Namespace(tests)))

	mainIdx := lib.AddSentence(ir.Sentence{Name: "main", Words: []ir.Word{
		{Inner: ir.Push(ir.Namespace(ir.RootNamespace))},
		{Inner: ir.Push(ir.Symbol(testsSym))},
		{Inner: ir.Call(ir.Get)}, // resolves root.tests -> Namespace(tests)
		{Inner: ir.Push(ir.Symbol(runSym))},
		{Inner: ir.Call(ir.Get)}, // resolves tests.run -> Pointer(runPtr)
		{Inner: ir.Push(ir.Pointer(trapClosure()))},
		{Inner: ir.Send(1)},
		{Inner: ir.Call(ir.Curry)},
		{Inner: ir.Push(ir.Symbol(execSym))},
	}})
	require.NoError(t, lib.Bind(ir.RootNamespace, "main", ir.Pointer(&ir.Closure{Sentence: mainIdx})))

	m, err := vm.New(lib)
	require.NoError(t, err)
	values, err := m.RunToTrap(context.Background())
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.True(t, ir.Equal(ir.Pointer(runPtr), values[0]))
}

func TestAssertEqPassAndFail(t *testing.T) {
	build := func(lib *ir.Library, execSym uint32, a, b ir.Value) ir.SentenceHandle {
		return lib.AddSentence(ir.Sentence{Name: "main", Words: []ir.Word{
			{Inner: ir.Push(a)},
			{Inner: ir.Push(b)},
			{Inner: ir.Call(ir.AssertEq)},
			{Inner: ir.Push(ir.Pointer(trapClosure()))},
			{Inner: ir.Push(ir.Symbol(execSym))},
		}})
	}

	t.Run("pass", func(t *testing.T) {
		lib := ir.NewLibrary()
		execSym := lib.Symbols.Intern("exec")
		idx := build(lib, execSym, ir.Usize(2), ir.Usize(2))
		require.NoError(t, lib.Bind(ir.RootNamespace, "main", ir.Pointer(&ir.Closure{Sentence: idx})))
		m, err := vm.New(lib)
		require.NoError(t, err)
		_, err = m.RunToTrap(context.Background())
		assert.NoError(t, err)
	})

	t.Run("fail", func(t *testing.T) {
		lib := ir.NewLibrary()
		execSym := lib.Symbols.Intern("exec")
		idx := build(lib, execSym, ir.Usize(3), ir.Usize(2))
		require.NoError(t, lib.Bind(ir.RootNamespace, "main", ir.Pointer(&ir.Closure{Sentence: idx})))
		m, err := vm.New(lib)
		require.NoError(t, err)
		_, err = m.RunToTrap(context.Background())
		require.Error(t, err)
		var vmErr *vm.Error
		require.ErrorAs(t, err, &vmErr)
	})
}

// TestGeneratorDrainedByHostDrivenJumpTo exercises the trap/jump_to
// suspension mechanism §5 describes: the VM traps, the host inspects the
// yielded value, and resumes by jumping to a closure of its choosing. This
// drives four independent trap points directly (skipping the lowerer,
// which this test does not use) to isolate the VM mechanism the
// generator protocol is built from.
func TestGeneratorDrainedByHostDrivenJumpTo(t *testing.T) {
	lib := ir.NewLibrary()
	execSym := lib.Symbols.Intern("exec")
	eosSym := lib.Symbols.Intern("eos")

	yield1 := trapWith(lib, execSym, ir.Usize(1))
	yield2 := trapWith(lib, execSym, ir.Usize(2))
	yield3 := trapWith(lib, execSym, ir.Usize(3))
	eos := trapWith(lib, execSym, ir.Symbol(eosSym))

	require.NoError(t, lib.Bind(ir.RootNamespace, "main", ir.Pointer(&ir.Closure{Sentence: yield1})))

	m, err := vm.New(lib)
	require.NoError(t, err)

	var drained []ir.Value
	next := []ir.SentenceHandle{yield2, yield3, eos}
	for {
		values, err := m.RunToTrap(context.Background())
		require.NoError(t, err)
		require.Len(t, values, 1)
		if values[0].Kind == ir.KindSymbol {
			assert.Equal(t, "eos", lib.Symbols.String(values[0].Sym))
			break
		}
		drained = append(drained, values[0])
		require.NotEmpty(t, next)
		m.JumpTo(&ir.Closure{Sentence: next[0]})
		next = next[1:]
	}

	require.Len(t, drained, 3)
	assert.True(t, ir.Equal(ir.Usize(1), drained[0]))
	assert.True(t, ir.Equal(ir.Usize(2), drained[1]))
	assert.True(t, ir.Equal(ir.Usize(3), drained[2]))
}

// Package vm executes a Library's sentences on a stack machine: per-word
// evaluation, cross-sentence control transfer through the exec/if control
// tail, builtin dispatch, and trap semantics.
package vm

import (
	"fmt"

	"github.com/hanoi-lang/hanoi/internal/logtrace"
	"github.com/hanoi-lang/hanoi/internal/span"
	"github.com/hanoi-lang/hanoi/ir"
)

// PC is the program counter: a sentence handle plus an index into its
// Words.
type PC struct {
	Sentence ir.SentenceHandle
	Word     int
}

func (pc PC) String() string { return fmt.Sprintf("%v@%v", pc.Sentence, pc.Word) }

// VM is a stack machine over an immutable Library. The Library and the
// live Stack/PC are the only state; there is no scheduler, no goroutines,
// no locking, matching a single-threaded cooperative execution model.
type VM struct {
	Lib   *ir.Library
	PC    PC
	Stack []ir.Value
	stash []ir.Value

	log logtrace.Logger

	stepLimit  uint64
	stepCount  uint64
}

// New constructs a VM over lib, with PC initialized to the sentence bound
// to the root namespace's "main" entry, which must be a Pointer(closure).
func New(lib *ir.Library, opts ...Option) (*VM, error) {
	vm := &VM{Lib: lib}
	for _, opt := range opts {
		opt.apply(vm)
	}

	v, ok := lib.Lookup(ir.RootNamespace, "main")
	if !ok {
		return nil, fmt.Errorf("root namespace has no %q entry", "main")
	}
	if v.Kind != ir.KindPointer || v.Ptr == nil {
		return nil, fmt.Errorf("%q must be a pointer, got %v", "main", v.Kind)
	}
	vm.jumpTo(v.Ptr)
	return vm, nil
}

// NewAt constructs a VM starting directly from closure c, bypassing the
// root namespace's "main" lookup New performs. Entry points other than
// main — the test-driver protocol's tests.enumerate/tests.run, or any host
// resuming a trapped generator via a fresh VM instance — start here.
func NewAt(lib *ir.Library, c *ir.Closure, opts ...Option) *VM {
	vm := &VM{Lib: lib}
	for _, opt := range opts {
		opt.apply(vm)
	}
	vm.jumpTo(c)
	return vm
}

// Error is a runtime error: a type mismatch, stack underflow, assert_eq
// failure, unknown control symbol, or key-not-found, each carrying the
// span of the word that triggered it.
type Error struct {
	Span span.Span
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Format renders the diagnostic as "at LINE:COL: message" against source,
// the original text the offending span was carried from.
func (e *Error) Format(source string) string { return e.Span.At(source, e.Msg) }

func runtimeErrf(sp span.Span, format string, args ...interface{}) *Error {
	return &Error{Span: sp, Msg: fmt.Sprintf(format, args...)}
}

// Result is returned by Step.
type Result uint8

const (
	Continue Result = iota
	Trapped
)

func (r Result) String() string {
	if r == Trapped {
		return "trap"
	}
	return "continue"
}

// depth converts a front-is-top depth index into a slice index, or -1 if
// out of range.
func (vm *VM) depth(n int) int {
	i := len(vm.Stack) - 1 - n
	if i < 0 || n < 0 {
		return -1
	}
	return i
}

func (vm *VM) push(v ir.Value) { vm.Stack = append(vm.Stack, v) }

func (vm *VM) pop() (ir.Value, bool) {
	if len(vm.Stack) == 0 {
		return ir.Value{}, false
	}
	i := len(vm.Stack) - 1
	v := vm.Stack[i]
	vm.Stack = vm.Stack[:i]
	return v, true
}

func (vm *VM) peekAt(n int) (ir.Value, bool) {
	i := vm.depth(n)
	if i < 0 {
		return ir.Value{}, false
	}
	return vm.Stack[i], true
}

func (vm *VM) removeAt(n int) (ir.Value, bool) {
	i := vm.depth(n)
	if i < 0 {
		return ir.Value{}, false
	}
	v := vm.Stack[i]
	vm.Stack = append(vm.Stack[:i], vm.Stack[i+1:]...)
	return v, true
}

func (vm *VM) insertAt(n int, v ir.Value) bool {
	// n is the depth *after* the insert, matching Send's contract: "pop
	// top, insert at depth n (after pop)".
	i := len(vm.Stack) - n
	if i < 0 || i > len(vm.Stack) {
		return false
	}
	vm.Stack = append(vm.Stack, ir.Value{})
	copy(vm.Stack[i+1:], vm.Stack[i:])
	vm.Stack[i] = v
	return true
}

// jumpTo installs closure's captured values as the live stack (captured[0]
// ends at depth 0) and sets PC to the closure's sentence. Used both by the
// exec/if control tail and by the host-facing JumpTo.
func (vm *VM) jumpTo(c *ir.Closure) {
	stack := make([]ir.Value, len(c.Captured))
	for i, v := range c.Captured {
		stack[len(c.Captured)-1-i] = v
	}
	vm.Stack = stack
	vm.PC = PC{Sentence: c.Sentence, Word: 0}
}

// JumpTo implements the host API's jump_to: install closure as the next
// continuation, discarding whatever is left of the current stack (it was
// already surfaced to the host by the preceding Trap).
func (vm *VM) JumpTo(c *ir.Closure) {
	vm.jumpTo(c)
}

// WithLogf attaches a trace sink; see internal/logtrace.
func (vm *VM) WithLogf(logf func(string, ...interface{})) { vm.log.Logf = logf }

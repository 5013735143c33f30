package htest

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hanoi-lang/hanoi/ir"
	"github.com/hanoi-lang/hanoi/vm"
)

// Driver is the Go-side half of §6.3's generator protocol: it speaks the
// (resume_closure, value, symbol) yield convention and the pass/fail
// convention from outside the trap boundary, starting a fresh vm.VM at
// each resumption point. A fresh VM per step is deliberate, not an
// implementation shortcut: the protocol's whole reason to exist is that
// the host, not the VM, owns suspension — the VM itself has no notion of
// "the generator I was running a moment ago".
type Driver struct {
	Lib  *ir.Library
	Opts []vm.Option
}

// trapClosure is the continuation every driven call traps straight into:
// whatever ends up curried onto it becomes the values RunToTrap returns.
func trapClosure() *ir.Closure { return &ir.Closure{Sentence: ir.TRAP} }

// Enumerate drains tests.ns's enumerate generator to completion, returning
// the yielded test names in order.
func (d *Driver) Enumerate(ctx context.Context, ns ir.NamespaceHandle) ([]string, error) {
	enumPtr, err := d.lookupPointer(ns, "enumerate")
	if err != nil {
		return nil, err
	}

	var names []string
	next := &ir.Closure{Sentence: enumPtr.Sentence, Captured: append([]ir.Value{ir.Pointer(trapClosure())}, enumPtr.Captured...)}
	for {
		m := vm.NewAt(d.Lib, next, d.Opts...)
		values, err := m.RunToTrap(ctx)
		if err != nil {
			return nil, fmt.Errorf("htest: enumerate: %w", err)
		}

		switch len(values) {
		case 1: // (symbol("eos"))
			return names, nil

		case 3: // (resume_closure, value, symbol("yield"))
			resume, value, tag := values[0], values[1], values[2]
			if tag.Kind != ir.KindSymbol || d.Lib.Symbols.String(tag.Sym) != "yield" {
				return nil, fmt.Errorf("htest: enumerate: expected yield tag, got %v", tag.Kind)
			}
			if value.Kind != ir.KindSymbol {
				return nil, fmt.Errorf("htest: enumerate: expected a symbol test name, got %v", value.Kind)
			}
			if resume.Kind != ir.KindPointer || resume.Ptr == nil {
				return nil, fmt.Errorf("htest: enumerate: expected a resume pointer, got %v", resume.Kind)
			}
			names = append(names, d.Lib.Symbols.String(value.Sym))
			next = &ir.Closure{Sentence: resume.Ptr.Sentence, Captured: append([]ir.Value{ir.Pointer(trapClosure())}, resume.Ptr.Captured...)}

		default:
			return nil, fmt.Errorf("htest: enumerate: unexpected trapped value count %d", len(values))
		}
	}
}

// RunTest drives tests.ns's run entry point for one named test, reporting
// pass as true. A runtime error escaping the test body (e.g. a failed
// assert_eq) is returned as an error, distinct from an explicit
// Symbol("fail") result — this driver never treats the two as the same
// kind of failure, since only the latter is the generator protocol working
// as designed.
func (d *Driver) RunTest(ctx context.Context, ns ir.NamespaceHandle, name string) (bool, error) {
	runPtr, err := d.lookupPointer(ns, "run")
	if err != nil {
		return false, err
	}

	nameSym := ir.Symbol(d.Lib.Symbols.Intern(name))
	closure := &ir.Closure{
		Sentence: runPtr.Sentence,
		Captured: append([]ir.Value{ir.Pointer(trapClosure()), nameSym}, runPtr.Captured...),
	}

	m := vm.NewAt(d.Lib, closure, d.Opts...)
	values, err := m.RunToTrap(ctx)
	if err != nil {
		return false, fmt.Errorf("htest: run %q: %w", name, err)
	}
	if len(values) != 1 || values[0].Kind != ir.KindSymbol {
		return false, fmt.Errorf("htest: run %q: expected a single symbol result", name)
	}
	switch d.Lib.Symbols.String(values[0].Sym) {
	case "pass":
		return true, nil
	case "fail":
		return false, nil
	default:
		return false, fmt.Errorf("htest: run %q: unexpected result symbol %q", name, d.Lib.Symbols.String(values[0].Sym))
	}
}

// Result is one test's outcome from RunAll.
type Result struct {
	Name   string
	Passed bool
	Err    error
}

// RunAll enumerates ns's tests and runs every one concurrently, one fresh
// VM per test over the same immutable Library — safe because Library
// carries no mutable state once lowering has finished (§5's supplement).
func (d *Driver) RunAll(ctx context.Context, ns ir.NamespaceHandle) ([]Result, error) {
	names, err := d.Enumerate(ctx, ns)
	if err != nil {
		return nil, err
	}

	results := make([]Result, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			passed, err := d.RunTest(gctx, ns, name)
			results[i] = Result{Name: name, Passed: passed, Err: err}
			return nil // a single test's error belongs in its Result, not the group
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (d *Driver) lookupPointer(ns ir.NamespaceHandle, name string) (*ir.Closure, error) {
	v, ok := d.Lib.Lookup(ns, name)
	if !ok {
		return nil, fmt.Errorf("htest: tests namespace has no %q entry", name)
	}
	if v.Kind != ir.KindPointer || v.Ptr == nil {
		return nil, fmt.Errorf("htest: %q must be a pointer, got %v", name, v.Kind)
	}
	return v.Ptr, nil
}

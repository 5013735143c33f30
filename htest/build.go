// Package htest is a reference implementation of §6.3's test-driver
// protocol: a tests namespace exposing enumerate (a generator yielding test
// names) and run (executes one named test), plus the Go-side driver that
// speaks that protocol from the host side of the trap boundary. Nothing
// here is part of the core ABI itself — a real test harness only needs to
// know the two well-known entry points and the generator convention; this
// package is one concrete, working implementation of both sides of that
// convention, grounded in the uniform continuation ABI of spec.md §9.
package htest

import (
	"fmt"

	"github.com/hanoi-lang/hanoi/ir"
	"github.com/hanoi-lang/hanoi/lower"
)

// Case names one registered test body. Body's Args must be exactly ["k"]:
// the test decides its own outcome and must end by tail-calling k with
// Symbol("pass") or Symbol("fail") — the same uniform continuation ABI
// every other control-flow form in this language already uses, rather than
// a distinguished return value or exception. A test that instead lets a
// builtin like assert_eq fail raises an ordinary runtime error, which
// Driver.RunTest reports as a genuine error rather than a fail result —
// the VM has no exception handling to soften that into a value.
type Case struct {
	Name string
	Body lower.Procedure
}

// BuildTestsNamespace lowers a tests sub-namespace of root containing
// enumerate and run, and returns its handle. cases defines both: the order
// enumerate yields names in, and the set run's match dispatches over.
func BuildTestsNamespace(lib *ir.Library, root ir.NamespaceHandle, cases []Case) (ir.NamespaceHandle, error) {
	ns := lib.NewNamespace(root)

	for _, c := range cases {
		if len(c.Body.Args) != 1 || c.Body.Args[0] != "k" {
			return 0, fmt.Errorf("htest: case %q: Body.Args must be exactly [\"k\"]", c.Name)
		}
		h, err := lower.LowerProcedure(lib, ns, c.Name, c.Body)
		if err != nil {
			return 0, fmt.Errorf("htest: case %q: %w", c.Name, err)
		}
		if err := lib.Bind(ns, c.Name, ir.Pointer(&ir.Closure{Sentence: h})); err != nil {
			return 0, fmt.Errorf("htest: case %q: %w", c.Name, err)
		}
	}

	enumIdx, err := buildEnumerate(lib, ns, cases)
	if err != nil {
		return 0, fmt.Errorf("htest: building enumerate: %w", err)
	}
	if err := lib.Bind(ns, "enumerate", ir.Pointer(&ir.Closure{Sentence: enumIdx})); err != nil {
		return 0, err
	}

	runIdx, err := buildRun(lib, ns, cases)
	if err != nil {
		return 0, fmt.Errorf("htest: building run: %w", err)
	}
	if err := lib.Bind(ns, "run", ir.Pointer(&ir.Closure{Sentence: runIdx})); err != nil {
		return 0, err
	}

	return ns, nil
}

// buildEnumerate builds the generator chain backing §6.3's enumerate: one
// zero-capture, single-Arg("k") state procedure per case plus a terminal
// eos state, built bottom-up (the terminal state first) since each
// non-terminal state's body is a Literal Pointer to the NEXT state's
// already-sealed sentence handle — the same "build the continuation
// first, reference it by handle" shape lowerMatchCode/lowerIfCode already
// use for if/match chains, just driven directly through LowerProcedure
// instead of through a SentenceBuilder's own branch helpers.
//
// Each yield hands the driver three values in declared order
// (resume_closure, value, symbol("yield")) by calling its own continuation
// k with exactly those three Args — Call.Args declaration order is
// preserved through to the values a host observes at trap, so this
// directly matches §6.3's prose tuple notation.
func buildEnumerate(lib *ir.Library, ns ir.NamespaceHandle, cases []Case) (ir.SentenceHandle, error) {
	eosProc := lower.Procedure{
		Args: []string{"k"},
		Endpoint: lower.Call{
			Callee: lower.Reference{Name: "k"},
			Args:   []lower.Expr{lower.Literal{Value: ir.Symbol(lib.Symbols.Intern("eos"))}},
		},
	}
	next, err := lower.LowerProcedure(lib, ns, "", eosProc)
	if err != nil {
		return 0, err
	}

	for i := len(cases) - 1; i >= 0; i-- {
		resume := ir.Pointer(&ir.Closure{Sentence: next})
		yieldProc := lower.Procedure{
			Args: []string{"k"},
			Endpoint: lower.Call{
				Callee: lower.Reference{Name: "k"},
				Args: []lower.Expr{
					lower.Literal{Value: resume},
					lower.Literal{Value: ir.Symbol(lib.Symbols.Intern(cases[i].Name))},
					lower.Literal{Value: ir.Symbol(lib.Symbols.Intern("yield"))},
				},
			},
		}
		h, err := lower.LowerProcedure(lib, ns, "", yieldProc)
		if err != nil {
			return 0, err
		}
		next = h
	}

	return next, nil
}

// buildRun builds tests.run(k, name): a match over name tail-calling the
// matching case's own procedure with k, so the case decides pass/fail
// itself. An unregistered name falls through to the match's built-in
// panic sentinel (see lower/procedure.go's buildPanicSentence), surfacing
// as a runtime error rather than a silent no-op.
func buildRun(lib *ir.Library, ns ir.NamespaceHandle, cases []Case) (ir.SentenceHandle, error) {
	matchCases := make([]lower.ProcMatchCase, len(cases))
	for i, c := range cases {
		matchCases[i] = lower.ProcMatchCase{
			Literal:  ir.Symbol(lib.Symbols.Intern(c.Name)),
			Bindings: nil,
			Body: lower.Procedure{
				Endpoint: lower.Call{
					Callee: lower.Path{Segments: []string{c.Name}},
					Args:   []lower.Expr{lower.Reference{Name: "k"}},
				},
			},
		}
	}

	runProc := lower.Procedure{
		Args: []string{"k", "name"},
		Endpoint: lower.MatchEndpoint{
			Discriminee: lower.Reference{Name: "name"},
			Cases:       matchCases,
		},
	}
	return lower.LowerProcedure(lib, ns, "", runProc)
}

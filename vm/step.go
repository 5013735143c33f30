package vm

import (
	"context"

	"github.com/hanoi-lang/hanoi/internal/span"
	"github.com/hanoi-lang/hanoi/ir"
)

// Step executes exactly one word, or (if the current sentence has ended)
// performs exactly one control transfer. It never silently loops.
func (vm *VM) Step() (Result, []ir.Value, error) {
	sentence := vm.Lib.Sentence(vm.PC.Sentence)

	vm.stepCount++
	if vm.stepLimit != 0 && vm.stepCount > vm.stepLimit {
		return Continue, nil, runtimeErrf(lastSpan(sentence), "step limit %d exceeded", vm.stepLimit)
	}

	if vm.PC.Word < len(sentence.Words) {
		w := sentence.Words[vm.PC.Word]
		vm.traceWord(sentence, w)
		if err := vm.execWord(w); err != nil {
			return Continue, nil, err
		}
		vm.PC.Word++
		return Continue, nil, nil
	}

	return vm.controlTail(sentence)
}

func (vm *VM) traceWord(s ir.Sentence, w ir.Word) {
	if !vm.log.Enabled() {
		return
	}
	vm.log.Tracef(vm.PC.String(), "%v.%v %v stack:%v", s.Name, vm.PC.Word, w.Inner.Op, vm.Stack)
}

// execWord applies a single word's effect to the stack (§4.3.1).
func (vm *VM) execWord(w ir.Word) error {
	switch w.Inner.Op {
	case ir.OpPush:
		vm.push(w.Inner.Value)
		return nil

	case ir.OpCopy:
		v, ok := vm.peekAt(w.Inner.N)
		if !ok {
			return runtimeErrf(w.Span, "copy(%d): stack underflow (depth %d)", w.Inner.N, len(vm.Stack))
		}
		vm.push(v)
		return nil

	case ir.OpDrop:
		if _, ok := vm.removeAt(w.Inner.N); !ok {
			return runtimeErrf(w.Span, "drop(%d): stack underflow (depth %d)", w.Inner.N, len(vm.Stack))
		}
		return nil

	case ir.OpMove:
		v, ok := vm.removeAt(w.Inner.N)
		if !ok {
			return runtimeErrf(w.Span, "move(%d): stack underflow (depth %d)", w.Inner.N, len(vm.Stack))
		}
		vm.push(v)
		return nil

	case ir.OpSend:
		v, ok := vm.pop()
		if !ok {
			return runtimeErrf(w.Span, "send(%d): stack underflow", w.Inner.N)
		}
		if !vm.insertAt(w.Inner.N, v) {
			return runtimeErrf(w.Span, "send(%d): target depth out of range", w.Inner.N)
		}
		return nil

	case ir.OpRef:
		vm.push(ir.Ref(uint64(w.Inner.N)))
		return nil

	case ir.OpBuiltin:
		return vm.runBuiltin(w.Inner.Builtin, w.Span)

	default:
		return runtimeErrf(w.Span, "invalid word op %v", w.Inner.Op)
	}
}

// controlTail reads the control tail off the top of the stack and performs
// the transfer described by §4.3.2.
func (vm *VM) controlTail(s ir.Sentence) (Result, []ir.Value, error) {
	tailSpan := lastSpan(s)

	sym, ok := vm.pop()
	if !ok || sym.Kind != ir.KindSymbol {
		return Continue, nil, runtimeErrf(tailSpan, "missing control tail symbol at end of sentence %q", s.Name)
	}

	switch vm.Lib.Symbols.String(sym.Sym) {
	case "exec":
		ptr, ok := vm.pop()
		if !ok || ptr.Kind != ir.KindPointer || ptr.Ptr == nil {
			return Continue, nil, runtimeErrf(tailSpan, "exec: expected a pointer on top of stack")
		}
		return vm.transfer(ptr.Ptr)

	case "if":
		falseCase, ok1 := vm.pop()
		trueCase, ok2 := vm.pop()
		cond, ok3 := vm.pop()
		if !ok1 || !ok2 || !ok3 || falseCase.Kind != ir.KindPointer || trueCase.Kind != ir.KindPointer || cond.Kind != ir.KindBool {
			return Continue, nil, runtimeErrf(tailSpan, "if: expected bool, pointer, pointer on stack")
		}
		if cond.Bool {
			return vm.transfer(trueCase.Ptr)
		}
		return vm.transfer(falseCase.Ptr)

	default:
		return Continue, nil, runtimeErrf(tailSpan, "unknown control symbol %q", vm.Lib.Symbols.String(sym.Sym))
	}
}

func (vm *VM) transfer(c *ir.Closure) (Result, []ir.Value, error) {
	if !vm.Lib.ValidSentence(c.Sentence) {
		return Continue, nil, runtimeErrf(span.Span{}, "jump to invalid sentence handle %v", c.Sentence)
	}
	vm.jumpTo(c)
	if c.Sentence == ir.TRAP {
		values := make([]ir.Value, len(vm.Stack))
		for i, v := range vm.Stack {
			values[len(vm.Stack)-1-i] = v
		}
		return Trapped, values, nil
	}
	return Continue, nil, nil
}

func lastSpan(s ir.Sentence) (sp span.Span) {
	if n := len(s.Words); n > 0 {
		return s.Words[n-1].Span
	}
	return
}

// RunToTrap steps the VM until it traps or errors, matching the host API's
// run_to_trap. ctx is checked between steps so a host can bound runaway
// execution without the VM itself needing a scheduler.
func (vm *VM) RunToTrap(ctx context.Context) ([]ir.Value, error) {
	for {
		result, values, err := vm.Step()
		if err != nil {
			return nil, err
		}
		if result == Trapped {
			return values, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

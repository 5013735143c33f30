package vm

import (
	"github.com/hanoi-lang/hanoi/internal/span"
	"github.com/hanoi-lang/hanoi/ir"
)

// runBuiltin dispatches one entry of the fixed builtin table (§4.3.3).
// Popped-argument order always matches the table's listed order, top
// first. Where the table leaves push order unconstrained, this
// implementation pushes results in listed order (first-listed ends up
// deepest, last-listed ends on top) except where an explicit inverse
// relationship (cons/snoc) requires mirroring the matching op's pop order.
func (vm *VM) runBuiltin(b ir.Builtin, sp span.Span) error {
	switch b {
	case ir.Add:
		a, b2, err := vm.pop2(sp, b)
		if err != nil {
			return err
		}
		if a.Kind != ir.KindUsize || b2.Kind != ir.KindUsize {
			return runtimeErrf(sp, "add: expected two usize, got %v and %v", a.Kind, b2.Kind)
		}
		vm.push(ir.Usize(a.Num + b2.Num))
		return nil

	case ir.Eq:
		a, b2, err := vm.pop2(sp, b)
		if err != nil {
			return err
		}
		vm.push(ir.Bool(ir.Equal(a, b2)))
		return nil

	case ir.AssertEq:
		a, b2, err := vm.pop2(sp, b)
		if err != nil {
			return err
		}
		if !ir.Equal(a, b2) {
			return runtimeErrf(sp, "assert_eq failed: %v != %v", a, b2)
		}
		return nil

	case ir.Curry:
		v, ptr, err := vm.pop2(sp, b)
		if err != nil {
			return err
		}
		if ptr.Kind != ir.KindPointer || ptr.Ptr == nil {
			return runtimeErrf(sp, "curry: expected a pointer, got %v", ptr.Kind)
		}
		vm.push(ir.Pointer(ir.Curry(v, ptr.Ptr)))
		return nil

	case ir.And, ir.Or:
		a, b2, err := vm.pop2(sp, b)
		if err != nil {
			return err
		}
		if a.Kind != ir.KindBool || b2.Kind != ir.KindBool {
			return runtimeErrf(sp, "%v: expected two bool, got %v and %v", b, a.Kind, b2.Kind)
		}
		if b == ir.And {
			vm.push(ir.Bool(a.Bool && b2.Bool))
		} else {
			vm.push(ir.Bool(a.Bool || b2.Bool))
		}
		return nil

	case ir.Not:
		a, err := vm.pop1(sp, b)
		if err != nil {
			return err
		}
		if a.Kind != ir.KindBool {
			return runtimeErrf(sp, "not: expected bool, got %v", a.Kind)
		}
		vm.push(ir.Bool(!a.Bool))
		return nil

	case ir.Get:
		sym, ns, err := vm.pop2(sp, b)
		if err != nil {
			return err
		}
		if sym.Kind != ir.KindSymbol || ns.Kind != ir.KindNamespace {
			return runtimeErrf(sp, "get: expected (symbol, namespace), got (%v, %v)", sym.Kind, ns.Kind)
		}
		name := vm.Lib.Symbols.String(sym.Sym)
		v, ok := vm.Lib.Lookup(ns.NS, name)
		if !ok {
			return vm.notFoundErr(sp, ns.NS, name)
		}
		vm.push(v)
		return nil

	case ir.SymbolCharAt:
		i, s, err := vm.pop2(sp, b)
		if err != nil {
			return err
		}
		if i.Kind != ir.KindUsize || s.Kind != ir.KindSymbol {
			return runtimeErrf(sp, "symbol_char_at: expected (usize, symbol), got (%v, %v)", i.Kind, s.Kind)
		}
		text := []rune(vm.Lib.Symbols.String(s.Sym))
		if int(i.Num) >= len(text) {
			return runtimeErrf(sp, "symbol_char_at: index %d out of range (len %d)", i.Num, len(text))
		}
		vm.push(ir.Char(text[i.Num]))
		return nil

	case ir.SymbolLen:
		s, err := vm.pop1(sp, b)
		if err != nil {
			return err
		}
		if s.Kind != ir.KindSymbol {
			return runtimeErrf(sp, "symbol_len: expected symbol, got %v", s.Kind)
		}
		vm.push(ir.Usize(uint64(len([]rune(vm.Lib.Symbols.String(s.Sym))))))
		return nil

	case ir.NsEmpty:
		vm.push(ir.NamespaceValue(ir.EmptyDict()))
		return nil

	case ir.NsInsert:
		ns, sym, val, err := vm.pop3(sp, b)
		if err != nil {
			return err
		}
		if ns.Kind != ir.KindNamespaceValue || sym.Kind != ir.KindSymbol {
			return runtimeErrf(sp, "ns_insert: expected (namespace_value, symbol, value), got (%v, %v, %v)", ns.Kind, sym.Kind, val.Kind)
		}
		next, err := ns.Dict.Insert(sym.Sym, val)
		if err != nil {
			return runtimeErrf(sp, "ns_insert: %v", err)
		}
		vm.push(ir.NamespaceValue(next))
		return nil

	case ir.NsGet:
		ns, sym, err := vm.pop2(sp, b)
		if err != nil {
			return err
		}
		if ns.Kind != ir.KindNamespaceValue || sym.Kind != ir.KindSymbol {
			return runtimeErrf(sp, "ns_get: expected (namespace_value, symbol), got (%v, %v)", ns.Kind, sym.Kind)
		}
		val, err := ns.Dict.Get(sym.Sym)
		if err != nil {
			return runtimeErrf(sp, "ns_get: %v", err)
		}
		vm.push(ns)
		vm.push(val)
		return nil

	case ir.NsRemove:
		ns, sym, err := vm.pop2(sp, b)
		if err != nil {
			return err
		}
		if ns.Kind != ir.KindNamespaceValue || sym.Kind != ir.KindSymbol {
			return runtimeErrf(sp, "ns_remove: expected (namespace_value, symbol), got (%v, %v)", ns.Kind, sym.Kind)
		}
		next, val, err := ns.Dict.Remove(sym.Sym)
		if err != nil {
			return runtimeErrf(sp, "ns_remove: %v", err)
		}
		vm.push(ir.NamespaceValue(next))
		vm.push(val)
		return nil

	case ir.Cons:
		cdr, car, err := vm.pop2(sp, b)
		if err != nil {
			return err
		}
		vm.push(ir.Cons(car, cdr))
		return nil

	case ir.Snoc:
		v, err := vm.pop1(sp, b)
		if err != nil {
			return err
		}
		if v.Kind != ir.KindCons {
			return runtimeErrf(sp, "snoc: expected cons, got %v", v.Kind)
		}
		// mirror cons's own pop order (cdr popped first/top, car second)
		// so snoc exactly inverts the stack layout cons consumed.
		vm.push(v.Cons.Car)
		vm.push(v.Cons.Cdr)
		return nil

	case ir.Deref:
		v, err := vm.pop1(sp, b)
		if err != nil {
			return err
		}
		if v.Kind != ir.KindRef {
			return runtimeErrf(sp, "deref: expected ref, got %v", v.Kind)
		}
		resolved, ok := vm.peekAt(int(v.Num))
		if !ok {
			return runtimeErrf(sp, "deref: depth %d out of range", v.Num)
		}
		vm.push(resolved)
		return nil

	case ir.Stash:
		v, err := vm.pop1(sp, b)
		if err != nil {
			return err
		}
		vm.stash = append(vm.stash, v)
		return nil

	case ir.Unstash:
		if len(vm.stash) == 0 {
			return runtimeErrf(sp, "unstash: stash is empty")
		}
		i := len(vm.stash) - 1
		v := vm.stash[i]
		vm.stash = vm.stash[:i]
		vm.push(v)
		return nil

	case ir.IsCode:
		v, err := vm.pop1(sp, b)
		if err != nil {
			return err
		}
		vm.push(ir.Bool(v.Kind == ir.KindPointer))
		return nil

	default:
		return runtimeErrf(sp, "unknown builtin %v", b)
	}
}

func (vm *VM) pop1(sp span.Span, b ir.Builtin) (ir.Value, error) {
	v, ok := vm.pop()
	if !ok {
		return ir.Value{}, runtimeErrf(sp, "%v: stack underflow", b)
	}
	return v, nil
}

func (vm *VM) pop2(sp span.Span, b ir.Builtin) (ir.Value, ir.Value, error) {
	a, ok1 := vm.pop()
	bb, ok2 := vm.pop()
	if !ok1 || !ok2 {
		return ir.Value{}, ir.Value{}, runtimeErrf(sp, "%v: stack underflow", b)
	}
	return a, bb, nil
}

func (vm *VM) pop3(sp span.Span, b ir.Builtin) (ir.Value, ir.Value, ir.Value, error) {
	a, ok1 := vm.pop()
	bb, ok2 := vm.pop()
	cc, ok3 := vm.pop()
	if !ok1 || !ok2 || !ok3 {
		return ir.Value{}, ir.Value{}, ir.Value{}, runtimeErrf(sp, "%v: stack underflow", b)
	}
	return a, bb, cc, nil
}

func (vm *VM) notFoundErr(sp span.Span, ns ir.NamespaceHandle, name string) error {
	if best, ok := vm.Lib.Suggest(ns, name); ok {
		return runtimeErrf(sp, "get: %q not found (did you mean %q?)", name, best)
	}
	return runtimeErrf(sp, "get: %q not found", name)
}

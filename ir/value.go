package ir

import "fmt"

// Kind discriminates the Value sum type.
type Kind uint8

const (
	KindSymbol Kind = iota
	KindUsize
	KindBool
	KindChar
	KindNil
	KindCons
	KindList
	KindNamespace
	KindNamespaceValue
	KindPointer
	KindHandle
	KindRef
)

func (k Kind) String() string {
	switch k {
	case KindSymbol:
		return "symbol"
	case KindUsize:
		return "usize"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindNil:
		return "nil"
	case KindCons:
		return "cons"
	case KindList:
		return "list"
	case KindNamespace:
		return "namespace"
	case KindNamespaceValue:
		return "namespace_value"
	case KindPointer:
		return "pointer"
	case KindHandle:
		return "handle"
	case KindRef:
		return "ref"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is the recursive tagged sum every stack slot and namespace binding
// holds. It is a plain Go struct so that copying a Value (e.g. Copy(n)) is a
// cheap, independent clone by default: pointer fields (Cons, Closure) and
// the NamespaceValue's entry slice are shared structurally on copy, which is
// permitted but never required by any invariant.
type Value struct {
	Kind Kind

	Sym  uint32 // KindSymbol: interned id
	Num  uint64 // KindUsize, KindHandle, KindRef
	Bool bool   // KindBool
	Char rune   // KindChar

	Cons *ConsCell       // KindCons
	List []Value         // KindList (legacy)
	NS   NamespaceHandle // KindNamespace
	Dict *Dict           // KindNamespaceValue
	Ptr  *Closure        // KindPointer
}

// ConsCell is a persistent pair; Cons(car, cdr) prepends car.
type ConsCell struct {
	Car, Cdr Value
}

// Closure is a continuation value: a list of already-pushed captured
// values plus the sentence to resume into. curry is an O(1) prepend onto
// Captured.
type Closure struct {
	Captured []Value
	Sentence SentenceHandle
}

func Symbol(sym uint32) Value     { return Value{Kind: KindSymbol, Sym: sym} }
func Usize(n uint64) Value        { return Value{Kind: KindUsize, Num: n} }
func Bool(b bool) Value           { return Value{Kind: KindBool, Bool: b} }
func Char(r rune) Value           { return Value{Kind: KindChar, Char: r} }
func Nil() Value                  { return Value{Kind: KindNil} }
func Cons(car, cdr Value) Value   { return Value{Kind: KindCons, Cons: &ConsCell{Car: car, Cdr: cdr}} }
func List(vs []Value) Value       { return Value{Kind: KindList, List: vs} }
func Namespace(h NamespaceHandle) Value {
	return Value{Kind: KindNamespace, NS: h}
}
func NamespaceValue(d *Dict) Value { return Value{Kind: KindNamespaceValue, Dict: d} }
func Pointer(c *Closure) Value     { return Value{Kind: KindPointer, Ptr: c} }
func Handle(n uint64) Value        { return Value{Kind: KindHandle, Num: n} }
func Ref(n uint64) Value           { return Value{Kind: KindRef, Num: n} }

// IsSmall reports whether v copies in O(1) without chasing a pointer chain
// of unbounded depth: scalars and closures with few captures qualify; Cons
// chains, Lists and Dicts may be arbitrarily large. The VM does not special
// case either: Go's value-copy semantics make both cheap to clone regardless.
func (v Value) IsSmall() bool {
	switch v.Kind {
	case KindSymbol, KindUsize, KindBool, KindChar, KindNil, KindNamespace, KindHandle, KindRef:
		return true
	case KindPointer:
		return v.Ptr == nil || len(v.Ptr.Captured) <= 4
	default:
		return false
	}
}

// Equal reports structural equality, matching the eq builtin's contract.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindSymbol:
		return a.Sym == b.Sym
	case KindUsize, KindHandle, KindRef:
		return a.Num == b.Num
	case KindBool:
		return a.Bool == b.Bool
	case KindChar:
		return a.Char == b.Char
	case KindNil:
		return true
	case KindCons:
		return Equal(a.Cons.Car, b.Cons.Car) && Equal(a.Cons.Cdr, b.Cons.Cdr)
	case KindList:
		if len(a.List) != len(b.List) {
			return false
		}
		for i := range a.List {
			if !Equal(a.List[i], b.List[i]) {
				return false
			}
		}
		return true
	case KindNamespace:
		return a.NS == b.NS
	case KindNamespaceValue:
		return a.Dict.equal(b.Dict)
	case KindPointer:
		if a.Ptr == nil || b.Ptr == nil {
			return a.Ptr == b.Ptr
		}
		if a.Ptr.Sentence != b.Ptr.Sentence || len(a.Ptr.Captured) != len(b.Ptr.Captured) {
			return false
		}
		for i := range a.Ptr.Captured {
			if !Equal(a.Ptr.Captured[i], b.Ptr.Captured[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Curry prepends v onto p's captured list, returning a new closure value.
// This is the single O(1) operation backing the curry builtin.
func Curry(v Value, p *Closure) *Closure {
	captured := make([]Value, 0, len(p.Captured)+1)
	captured = append(captured, v)
	captured = append(captured, p.Captured...)
	return &Closure{Captured: captured, Sentence: p.Sentence}
}

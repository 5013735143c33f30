package ir

import "github.com/hanoi-lang/hanoi/internal/span"

// Op discriminates the six primitive stack operations, plus Builtin
// dispatch, that a Word may perform.
type Op uint8

const (
	OpPush Op = iota
	OpCopy
	OpDrop
	OpMove
	OpSend
	OpRef
	OpBuiltin
)

func (op Op) String() string {
	switch op {
	case OpPush:
		return "push"
	case OpCopy:
		return "copy"
	case OpDrop:
		return "drop"
	case OpMove:
		return "move"
	case OpSend:
		return "send"
	case OpRef:
		return "ref"
	case OpBuiltin:
		return "builtin"
	default:
		return "op(?)"
	}
}

// InnerWord is the sum Push(Value) | Copy(n) | Drop(n) | Move(n) | Send(n)
// | Ref(n) | Builtin(B). N is a 0-based depth index into the runtime stack,
// front (index 0) is the top.
type InnerWord struct {
	Op      Op
	Value   Value
	N       int
	Builtin Builtin
}

func Push(v Value) InnerWord       { return InnerWord{Op: OpPush, Value: v} }
func Copy(n int) InnerWord         { return InnerWord{Op: OpCopy, N: n} }
func Drop(n int) InnerWord         { return InnerWord{Op: OpDrop, N: n} }
func Move(n int) InnerWord         { return InnerWord{Op: OpMove, N: n} }
func Send(n int) InnerWord         { return InnerWord{Op: OpSend, N: n} }
func RefAt(n int) InnerWord        { return InnerWord{Op: OpRef, N: n} }
func Call(b Builtin) InnerWord     { return InnerWord{Op: OpBuiltin, Builtin: b} }

// Binding is a debugger-only snapshot of one slot of the lowerer's
// compile-time name stack, recorded immediately before a Word executes.
type Binding struct {
	Name    string
	Present bool
}

// Word pairs an InnerWord with its source span and (optionally) a snapshot
// of the name stack the lowerer believed was live just before this word
// runs. Both are for diagnostics only; neither affects execution.
type Word struct {
	Inner    InnerWord
	Span     span.Span
	Snapshot []Binding
}

// Sentence is a linear sequence of Words, the IR's unit of code. Sentences
// never embed other sentences: cross-sentence control happens only via
// Pointer values and the exec/if control tail.
type Sentence struct {
	Name  string
	Words []Word
}

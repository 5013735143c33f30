package vm

import (
	"fmt"
	"io"
	"strconv"

	"github.com/hanoi-lang/hanoi/ir"
)

// Dumper pretty-prints a Library and a live VM's stack for debugger and
// test-failure output, in the style of an incremental line-buffered dump.
type Dumper struct {
	Lib *ir.Library
	Out io.Writer
}

// Dump writes the whole library (every sentence, every namespace) plus, if
// vm is non-nil, its current stack.
func (d Dumper) Dump(vm *VM) {
	fmt.Fprintf(d.Out, "# Library dump\n")
	for h := range d.Lib.Sentences {
		d.DumpSentence(ir.SentenceHandle(h))
	}
	for h := range d.Lib.Namespaces {
		d.DumpNamespace(ir.NamespaceHandle(h))
	}
	if vm != nil {
		fmt.Fprintf(d.Out, "# Stack\n  %v\n", d.formatStack(vm.Stack))
	}
}

// DumpSentence writes one sentence's words, each tagged with its span (if
// any) and its name-stack snapshot (if recorded).
func (d Dumper) DumpSentence(h ir.SentenceHandle) {
	s := d.Lib.Sentence(h)
	fmt.Fprintf(d.Out, "sentence %v %q:\n", h, s.Name)
	for i, w := range s.Words {
		fmt.Fprintf(d.Out, "  %2d: %v", i, d.formatInner(w.Inner))
		if !w.Span.Zero() {
			fmt.Fprintf(d.Out, "  @%v", w.Span)
		}
		if len(w.Snapshot) > 0 {
			fmt.Fprintf(d.Out, "  names:%v", d.formatSnapshot(w.Snapshot))
		}
		fmt.Fprintln(d.Out)
	}
}

// DumpNamespace writes one namespace's entries.
func (d Dumper) DumpNamespace(h ir.NamespaceHandle) {
	ns := d.Lib.Namespace(h)
	fmt.Fprintf(d.Out, "namespace %v:\n", h)
	for _, e := range ns.Entries {
		fmt.Fprintf(d.Out, "  %s = %v\n", e.Name, d.formatValue(e.Value))
	}
}

func (d Dumper) formatInner(in ir.InnerWord) string {
	switch in.Op {
	case ir.OpPush:
		return fmt.Sprintf("push(%v)", d.formatValue(in.Value))
	case ir.OpBuiltin:
		return fmt.Sprintf("builtin(%v)", in.Builtin)
	default:
		return fmt.Sprintf("%v(%d)", in.Op, in.N)
	}
}

// FormatValue renders a single value the same way Dump renders stack
// entries and namespace bindings, for hosts that only need to print a
// handful of trapped return values rather than a whole library.
func (d Dumper) FormatValue(v ir.Value) string { return d.formatValue(v) }

func (d Dumper) formatValue(v ir.Value) string {
	switch v.Kind {
	case ir.KindSymbol:
		return "@" + d.Lib.Symbols.String(v.Sym)
	case ir.KindUsize:
		return strconv.FormatUint(v.Num, 10)
	case ir.KindBool:
		return strconv.FormatBool(v.Bool)
	case ir.KindChar:
		return strconv.QuoteRune(v.Char)
	case ir.KindNil:
		return "nil"
	case ir.KindCons:
		return fmt.Sprintf("cons(%v, %v)", d.formatValue(v.Cons.Car), d.formatValue(v.Cons.Cdr))
	case ir.KindList:
		return fmt.Sprintf("%v", v.List)
	case ir.KindNamespace:
		return fmt.Sprintf("namespace(%v)", v.NS)
	case ir.KindNamespaceValue:
		return "namespace_value{...}"
	case ir.KindPointer:
		if v.Ptr == nil {
			return "pointer(nil)"
		}
		return fmt.Sprintf("pointer(captured:%d, sentence:%v)", len(v.Ptr.Captured), v.Ptr.Sentence)
	case ir.KindHandle:
		return fmt.Sprintf("handle(%d)", v.Num)
	case ir.KindRef:
		return fmt.Sprintf("ref(%d)", v.Num)
	default:
		return fmt.Sprintf("value(kind=%v)", v.Kind)
	}
}

func (d Dumper) formatStack(stack []ir.Value) string {
	out := make([]string, len(stack))
	for i, v := range stack {
		out[len(stack)-1-i] = d.formatValue(v)
	}
	return fmt.Sprintf("%v", out)
}

func (d Dumper) formatSnapshot(bindings []ir.Binding) string {
	out := make([]string, len(bindings))
	for i, b := range bindings {
		if b.Present {
			out[i] = b.Name
		} else {
			out[i] = "_"
		}
	}
	return fmt.Sprintf("%v", out)
}

package ir

import "fmt"

// NamespaceEntry is one (name, binding) pair inside a Namespace. The bound
// Value is typically Namespace(handle) for a nested namespace, or any other
// Value for a declared procedure/constant.
type NamespaceEntry struct {
	Name  string
	Value Value
}

// Namespace is an ordered list of declarations. Every non-root namespace
// automatically carries a leading "super" entry bound to its parent, so
// path resolution can walk outward.
type Namespace struct {
	Entries []NamespaceEntry
}

// Library is the single owned IR container: append-only namespace and
// sentence arenas addressed by typed handles, built once per source load
// and immutable thereafter.
type Library struct {
	Namespaces []Namespace
	Sentences  []Sentence
	Symbols    SymbolTable
}

// NewLibrary returns a Library with an empty root namespace at handle 0.
func NewLibrary() *Library {
	lib := &Library{}
	lib.Namespaces = append(lib.Namespaces, Namespace{})
	return lib
}

// badHandle is a programmer error: an out-of-range arena handle. It is
// fatal, matching §4.1's "handle out of range is a programmer error".
type badHandle struct {
	kind string
	h    uint32
}

func (e badHandle) Error() string { return fmt.Sprintf("invalid %s handle %d", e.kind, e.h) }

// NewNamespace appends a namespace nested under parent, returning its
// handle. The new namespace's "super" entry is bound to parent.
func (lib *Library) NewNamespace(parent NamespaceHandle) NamespaceHandle {
	lib.mustNamespace(parent)
	ns := Namespace{Entries: []NamespaceEntry{{Name: "super", Value: Namespace(parent)}}}
	lib.Namespaces = append(lib.Namespaces, ns)
	return NamespaceHandle(len(lib.Namespaces) - 1)
}

// Namespace returns an immutable borrow of the namespace at h. Panics
// (programmer error) if h is out of range.
func (lib *Library) Namespace(h NamespaceHandle) Namespace {
	return lib.mustNamespace(h)
}

func (lib *Library) mustNamespace(h NamespaceHandle) Namespace {
	if int(h) >= len(lib.Namespaces) {
		panic(badHandle{"namespace", uint32(h)})
	}
	return lib.Namespaces[h]
}

// Bind appends a new entry to the namespace at h. Returns an error if name
// is already bound directly in this namespace (duplicate namespace key).
func (lib *Library) Bind(h NamespaceHandle, name string, v Value) error {
	lib.mustNamespace(h)
	for _, e := range lib.Namespaces[h].Entries {
		if e.Name == name {
			return fmt.Errorf("duplicate declaration %q", name)
		}
	}
	lib.Namespaces[h].Entries = append(lib.Namespaces[h].Entries, NamespaceEntry{Name: name, Value: v})
	return nil
}

// Lookup finds name directly within the namespace at h (no outward walk;
// callers wanting lexical "super" resolution chase that Value themselves).
// The bool is false, not an error, when name is absent.
func (lib *Library) Lookup(h NamespaceHandle, name string) (Value, bool) {
	ns := lib.mustNamespace(h)
	for _, e := range ns.Entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Suggest returns the closest known entry name in the namespace at h to
// name, for "unknown reference, did you mean X" diagnostics. ok is false
// if the namespace has no entries.
func (lib *Library) Suggest(h NamespaceHandle, name string) (best string, ok bool) {
	ns := lib.mustNamespace(h)
	if len(ns.Entries) == 0 {
		return "", false
	}
	names := make([]string, len(ns.Entries))
	for i, e := range ns.Entries {
		names[i] = e.Name
	}
	return fuzzySuggest(name, names)
}

// AddSentence appends a fully-built sentence, returning its handle.
func (lib *Library) AddSentence(s Sentence) SentenceHandle {
	lib.Sentences = append(lib.Sentences, s)
	return SentenceHandle(len(lib.Sentences) - 1)
}

// Sentence returns an immutable borrow of the sentence at h. h must not be
// TRAP; panics (programmer error) if h is out of range.
func (lib *Library) Sentence(h SentenceHandle) Sentence {
	if h == TRAP {
		panic(badHandle{"sentence", uint32(h)})
	}
	if int(h) >= len(lib.Sentences) {
		panic(badHandle{"sentence", uint32(h)})
	}
	return lib.Sentences[h]
}

// ValidSentence reports whether h resolves to an arena entry or is TRAP,
// the arena-integrity invariant of §8.1.
func (lib *Library) ValidSentence(h SentenceHandle) bool {
	return h == TRAP || int(h) < len(lib.Sentences)
}

// ValidNamespace reports whether h resolves to an arena entry.
func (lib *Library) ValidNamespace(h NamespaceHandle) bool {
	return int(h) < len(lib.Namespaces)
}

package ir

// SymbolTable interns short identifier strings into small integer ids, in
// the manner of a classic string table: append-only, id 0 reserved for "no
// symbol".
type SymbolTable struct {
	strings []string
	ids     map[string]uint32
}

// String returns the text for an interned id, or "" if id is unknown.
func (t SymbolTable) String(id uint32) string {
	if i := int(id) - 1; i >= 0 && i < len(t.strings) {
		return t.strings[i]
	}
	return ""
}

// ID returns the id already assigned to s, if any.
func (t SymbolTable) ID(s string) (uint32, bool) {
	id, ok := t.ids[s]
	return id, ok
}

// Intern returns the id for s, assigning a fresh one if s hasn't been seen.
func (t *SymbolTable) Intern(s string) uint32 {
	if id, ok := t.ids[s]; ok {
		return id
	}
	if t.ids == nil {
		t.ids = make(map[string]uint32)
	}
	id := uint32(len(t.strings)) + 1
	t.strings = append(t.strings, s)
	t.ids[s] = id
	return id
}

// Names returns every interned string, in assignment order.
func (t SymbolTable) Names() []string {
	return t.strings
}

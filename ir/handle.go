// Package ir defines the intermediate representation the lowerer emits and
// the VM executes: an arena-indexed Library of namespaces and sentences,
// plus the tagged Value sum type that flows on the runtime stack.
package ir

// NamespaceHandle addresses an entry in a Library's namespace arena. The
// root namespace is always handle 0.
type NamespaceHandle uint32

// SentenceHandle addresses an entry in a Library's sentence arena, or the
// reserved TRAP sentinel.
type SentenceHandle uint32

// TRAP is the sentinel sentence handle meaning "halt and surface the stack
// to the host". It never resolves to an arena entry.
const TRAP SentenceHandle = ^SentenceHandle(0)

// RootNamespace is the handle of the namespace every Library starts with.
const RootNamespace NamespaceHandle = 0

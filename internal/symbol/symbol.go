// Package symbol interns identifiers and string literals to small integer
// handles so that later stages compare names by integer equality instead of
// string comparison.
package symbol

import "sync"

// Symbol is an opaque handle identifying a textual name. Two symbols
// compare equal if and only if the underlying text is identical.
type Symbol int32

// Invalid (-1) is never returned by Intern.
const Invalid Symbol = -1

// Reserved keyword symbols, interned eagerly by NewInterner so that the
// lexer and parser can compare against them without a map lookup.
const (
	SymSelf Symbol = iota
	SymOther
	SymAll
	SymNoone
	SymGlobal

	firstUserSymbol
)

var reservedNames = [...]string{
	SymSelf:   "self",
	SymOther:  "other",
	SymAll:    "all",
	SymNoone:  "noone",
	SymGlobal: "global",
}

// Interner maps strings to Symbols and back. Interning is monotonic: once a
// string is interned it keeps the same Symbol for the lifetime of the
// Interner. An Interner is safe for concurrent reads and writes.
type Interner struct {
	mu      sync.RWMutex
	byName  map[string]Symbol
	byIndex []string
}

// NewInterner returns an Interner with the reserved keyword symbols
// pre-interned at their fixed indices.
func NewInterner() *Interner {
	in := &Interner{
		byName:  make(map[string]Symbol, 64),
		byIndex: make([]string, len(reservedNames)),
	}
	for sym, name := range reservedNames {
		in.byName[name] = Symbol(sym)
		in.byIndex[sym] = name
	}
	return in
}

// Intern returns the Symbol for name, interning it if this is the first
// time name has been seen.
func (in *Interner) Intern(name string) Symbol {
	in.mu.RLock()
	if sym, ok := in.byName[name]; ok {
		in.mu.RUnlock()
		return sym
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	if sym, ok := in.byName[name]; ok {
		return sym
	}
	sym := Symbol(len(in.byIndex))
	in.byIndex = append(in.byIndex, name)
	in.byName[name] = sym
	return sym
}

// Name returns the text a Symbol was interned from. Panics if sym was not
// produced by this Interner.
func (in *Interner) Name(sym Symbol) string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.byIndex[sym]
}

// IsReserved reports whether sym names a language keyword reserved at
// construction time (self, other, all, noone, global).
func (sym Symbol) IsReserved() bool {
	return sym >= SymSelf && sym < firstUserSymbol
}

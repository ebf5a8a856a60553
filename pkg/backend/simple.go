package backend

import (
	"strings"

	"github.com/Sumatoshi-tech/symtab/pkg/symbol"
)

// SimpleBackend stores each interned string as an independent owned copy in
// a growable list indexed by symbol. One allocation per string; reference
// stability is trivial because entries are never moved or mutated.
type SimpleBackend struct {
	entries []string
	bytes   int
}

// NewSimple creates a SimpleBackend pre-sized for capacity strings.
func NewSimple(capacity int) *SimpleBackend {
	return &SimpleBackend{entries: make([]string, 0, max(capacity, 0))}
}

// Push appends text as a new owned entry. The text is cloned so the entry
// does not pin a caller-owned backing array.
func (b *SimpleBackend) Push(text string) (symbol.Symbol, error) {
	sym, err := nextSymbol(len(b.entries))
	if err != nil {
		return symbol.None, err
	}

	b.entries = append(b.entries, strings.Clone(text))
	b.bytes += len(text)

	return sym, nil
}

// Resolve returns the text for sym, or ("", false) if sym is out of range.
func (b *SimpleBackend) Resolve(sym symbol.Symbol) (string, bool) {
	idx := sym.Index()
	if idx >= len(b.entries) {
		return "", false
	}

	return b.entries[idx], true
}

// ResolveUnchecked returns the text for sym without bounds verification.
func (b *SimpleBackend) ResolveUnchecked(sym symbol.Symbol) string {
	return b.entries[sym.Index()]
}

// Len returns the number of stored strings.
func (b *SimpleBackend) Len() int {
	return len(b.entries)
}

// IsEmpty reports whether no strings are stored.
func (b *SimpleBackend) IsEmpty() bool {
	return len(b.entries) == 0
}

// Stats reports the backend's storage shape. Simple storage has no arena, so
// Chunks is zero and Capacity equals the payload.
func (b *SimpleBackend) Stats() Stats {
	return Stats{
		Kind:     KindSimple,
		Strings:  len(b.entries),
		Bytes:    b.bytes,
		Chunks:   0,
		Capacity: b.bytes,
	}
}

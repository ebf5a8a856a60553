// Package symbol defines the opaque handle type issued for interned strings.
//
// A Symbol is a dense zero-based index into an interner's storage, packed
// into 32 bits. The all-ones bit pattern is reserved as the None sentinel so
// that "optional symbol" values stay four bytes wide instead of carrying a
// separate presence flag.
package symbol

import (
	"errors"
	"fmt"
	"math"
)

const (
	// None is the reserved sentinel meaning "no symbol". It is never issued
	// for an interned string.
	None Symbol = math.MaxUint32

	// MaxIndex is the largest index a Symbol can represent. One bit pattern
	// (None) is excluded from the index space.
	MaxIndex = math.MaxUint32 - 1
)

var (
	// ErrIndexOutOfRange is returned when an index cannot be represented
	// as a Symbol.
	ErrIndexOutOfRange = errors.New("symbol: index out of range")
)

// Symbol is a copyable handle for one interned string. Two symbols issued by
// the same interner are equal iff they refer to the same string; ordering
// follows insertion order. Symbols carry no meaning across interner
// instances unless those instances share identical insertion history.
type Symbol uint32

// FromIndex constructs a Symbol from a non-negative index.
// It returns ErrIndexOutOfRange if idx is negative or exceeds MaxIndex.
func FromIndex(idx int) (Symbol, error) {
	if idx < 0 || idx > MaxIndex {
		return None, fmt.Errorf("%w: %d", ErrIndexOutOfRange, idx)
	}

	return Symbol(uint32(idx)), nil
}

// MustFromIndex is FromIndex that panics instead of returning an error.
// Use only when the index is logically guaranteed to be in range.
func MustFromIndex(idx int) Symbol {
	sym, err := FromIndex(idx)
	if err != nil {
		panic(err)
	}

	return sym
}

// Index returns the zero-based index this symbol represents. Total for every
// issued symbol; calling it on None yields the excluded index MaxIndex+1.
func (s Symbol) Index() int {
	return int(uint32(s))
}

// IsNone reports whether s is the None sentinel.
func (s Symbol) IsNone() bool {
	return s == None
}

// String implements fmt.Stringer for debug output.
func (s Symbol) String() string {
	if s.IsNone() {
		return "sym(none)"
	}

	return fmt.Sprintf("sym(%d)", uint32(s))
}

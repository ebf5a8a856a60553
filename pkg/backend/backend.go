// Package backend provides the storage strategies that own the character
// data behind interned symbols.
//
// A backend appends strings unconditionally (deduplication belongs to the
// layer above) and resolves previously issued symbols back to their text in
// O(1) without copying. Three strategies trade memory density against
// mutation cost: one owned allocation per string (simple), fixed-size arena
// chunks that are never relocated (bucket), and a single flat arena with
// cumulative offsets (buffer). All satisfy the same contract and are selected
// by Kind at construction time.
package backend

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/Sumatoshi-tech/symtab/pkg/symbol"
)

// Kind selects a storage strategy at construction time.
type Kind string

// Available storage strategies.
const (
	// KindSimple stores each string as its own heap allocation.
	KindSimple Kind = "simple"

	// KindBucket copies strings into fixed-size arena chunks that are
	// appended, never relocated. Supports hibernation.
	KindBucket Kind = "bucket"

	// KindBuffer concatenates all bytes into one growing arena referenced
	// by cumulative offsets. Densest metadata, fastest resolve.
	KindBuffer Kind = "buffer"
)

var (
	// ErrSymbolSpaceExhausted is returned by Push when issuing one more
	// symbol would exceed symbol.MaxIndex.
	ErrSymbolSpaceExhausted = errors.New("backend: symbol space exhausted")

	// ErrArenaExhausted is returned by Push when the flat buffer arena
	// cannot hold the string within its 4 GiB offset space.
	ErrArenaExhausted = errors.New("backend: arena exhausted")

	// ErrUnknownKind is returned when a kind name does not match a strategy.
	ErrUnknownKind = errors.New("backend: unknown kind")

	// ErrAlreadyHibernated is returned by Hibernate on a hibernated backend.
	ErrAlreadyHibernated = errors.New("backend: already hibernated")
)

// Backend owns the character data for interned strings. Implementations are
// single-owner and not safe for concurrent use.
type Backend interface {
	// Push appends text as a new entry and returns its symbol, which is
	// always the next sequential index. No deduplication happens here.
	// A failed push leaves the backend unchanged.
	Push(text string) (symbol.Symbol, error)

	// Resolve returns the text for a previously issued symbol without
	// copying it, or ("", false) if the symbol is out of range.
	Resolve(sym symbol.Symbol) (string, bool)

	// ResolveUnchecked is Resolve without bounds verification. The caller
	// guarantees the symbol was issued by this backend; the result is
	// undefined otherwise.
	ResolveUnchecked(sym symbol.Symbol) string

	// Len returns the number of stored strings.
	Len() int

	// IsEmpty reports whether no strings are stored.
	IsEmpty() bool

	// Stats reports the backend's storage shape.
	Stats() Stats
}

// Stats describes a backend's storage shape. Capacity is allocated arena
// bytes for live backends and the compressed footprint while hibernated.
type Stats struct {
	Kind     Kind
	Strings  int
	Bytes    int
	Chunks   int
	Capacity int
}

// ParseKind maps a configuration name to a storage strategy.
func ParseKind(name string) (Kind, error) {
	switch Kind(name) {
	case KindSimple, KindBucket, KindBuffer:
		return Kind(name), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
}

// New constructs a backend of the given kind with a capacity hint, for
// config-driven callers. Programmatic callers use the typed constructors.
func New(kind Kind, capacity int) (Backend, error) {
	switch kind {
	case KindSimple:
		return NewSimple(capacity), nil
	case KindBucket:
		return NewBucket(capacity), nil
	case KindBuffer:
		return NewBuffer(capacity), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// nextSymbol returns the symbol for the entry about to be stored, given the
// current entry count. Fails when the count has reached the index ceiling.
func nextSymbol(count int) (symbol.Symbol, error) {
	if count > symbol.MaxIndex {
		return symbol.None, ErrSymbolSpaceExhausted
	}

	return symbol.Symbol(uint32(count)), nil
}

// view returns a string aliasing b without copying. The caller must
// guarantee the bytes behind b are never modified again; committed arena
// bytes satisfy this because chunks are append-only and never rewritten.
func view(b []byte) string {
	if len(b) == 0 {
		return ""
	}

	return unsafe.String(unsafe.SliceData(b), len(b))
}

// Package intern deduplicates strings into small, copyable integer symbols
// that resolve back to their text in O(1).
//
// An Interner pairs a storage backend (which owns the character data) with a
// deduplication index mapping content hashes to symbols. The index stores
// only (hash, symbol) pairs and breaks hash collisions by comparing bytes
// against the backend's stored copy, so every string is kept in memory
// exactly once. Symbols are dense indices issued in first-occurrence order;
// once issued, a symbol resolves to the same text for the interner's entire
// lifetime.
//
// The interner is single-owner: no operation is safe for concurrent use, and
// callers that share one across goroutines must serialize access themselves.
package intern

import (
	"errors"
	"fmt"
	"iter"

	"github.com/Sumatoshi-tech/symtab/pkg/backend"
	"github.com/Sumatoshi-tech/symtab/pkg/symbol"
)

var (
	// ErrHibernateUnsupported is returned by Hibernate when the configured
	// backend cannot compress its storage.
	ErrHibernateUnsupported = errors.New("intern: backend does not support hibernation")

	// ErrAlreadyHibernated is returned by Hibernate on a hibernated interner.
	ErrAlreadyHibernated = errors.New("intern: already hibernated")
)

// Interner deduplicates strings and issues symbols for them.
type Interner struct {
	backend backend.Backend
	table   dedupTable
	hasher  Hasher

	kind     backend.Kind
	capacity int

	hits   uint64
	misses uint64

	hib *hibernatedTable
}

// Option configures an Interner at construction time.
type Option func(*Interner)

// WithCapacity pre-reserves backend storage and index slots for n strings.
func WithCapacity(n int) Option {
	return func(i *Interner) {
		i.capacity = max(n, 0)
	}
}

// WithBackendKind selects the storage strategy constructed by New.
func WithBackendKind(kind backend.Kind) Option {
	return func(i *Interner) {
		i.kind = kind
	}
}

// WithBackend supplies a ready backend instance, overriding WithBackendKind.
// The interner takes exclusive ownership; the backend must be empty.
func WithBackend(b backend.Backend) Option {
	return func(i *Interner) {
		i.backend = b
	}
}

// WithHasher replaces the default FNV-1a content hasher. The hasher must be
// deterministic; changing it after strings are interned is not supported.
func WithHasher(h Hasher) Option {
	return func(i *Interner) {
		i.hasher = h
	}
}

// New creates an empty Interner. The default configuration uses the bucket
// backend and the FNV-1a hasher. New panics if WithBackendKind named an
// unknown strategy; config-driven callers validate with backend.ParseKind
// first.
func New(opts ...Option) *Interner {
	i := &Interner{
		hasher: fnvHasher{},
		kind:   backend.KindBucket,
	}

	for _, opt := range opts {
		opt(i)
	}

	if i.backend == nil {
		b, err := backend.New(i.kind, i.capacity)
		if err != nil {
			panic(err)
		}

		i.backend = b
	}

	i.table = newDedupTable(i.capacity)

	return i
}

// FromStrings bulk-constructs an interner by interning values in order.
// Symbols are assigned in first-occurrence order; duplicates collapse to the
// first-seen symbol. The index is pre-sized for len(values) unless an
// explicit WithCapacity overrides it.
func FromStrings(values []string, opts ...Option) (*Interner, error) {
	i := New(append([]Option{WithCapacity(len(values))}, opts...)...)

	for _, v := range values {
		if _, err := i.GetOrIntern(v); err != nil {
			return nil, err
		}
	}

	return i, nil
}

// FromSeq bulk-constructs an interner from a string sequence, interning in
// iteration order.
func FromSeq(seq iter.Seq[string], opts ...Option) (*Interner, error) {
	i := New(opts...)

	for v := range seq {
		if _, err := i.GetOrIntern(v); err != nil {
			return nil, err
		}
	}

	return i, nil
}

// GetOrIntern returns the symbol for text, interning it if not yet present.
// Interning an already-present string mutates nothing. On a failed push
// (symbol space or arena exhausted) the error is returned and neither the
// backend nor the index changes.
func (i *Interner) GetOrIntern(text string) (symbol.Symbol, error) {
	i.ensureLive()

	hash := i.hasher.Hash(text)
	if sym, ok := i.table.lookup(hash, text, i.backend); ok {
		i.hits++

		return sym, nil
	}

	sym, err := i.backend.Push(text)
	if err != nil {
		return symbol.None, fmt.Errorf("intern: %w", err)
	}

	i.table.insert(hash, sym)
	i.misses++

	return sym, nil
}

// Get returns the symbol for text if it was interned before. No side
// effects; a miss returns (None, false).
func (i *Interner) Get(text string) (symbol.Symbol, bool) {
	i.ensureLive()

	return i.table.lookup(i.hasher.Hash(text), text, i.backend)
}

// Resolve returns the text behind sym, or ("", false) for symbols this
// interner never issued.
func (i *Interner) Resolve(sym symbol.Symbol) (string, bool) {
	i.ensureLive()

	return i.backend.Resolve(sym)
}

// ResolveUnchecked returns the text behind sym without bounds verification.
// The caller guarantees sym was issued by this interner; the result is
// undefined otherwise.
func (i *Interner) ResolveUnchecked(sym symbol.Symbol) string {
	i.ensureLive()

	return i.backend.ResolveUnchecked(sym)
}

// Len returns the number of interned strings. Valid while hibernated.
func (i *Interner) Len() int {
	return i.backend.Len()
}

// IsEmpty reports whether no strings are interned. Valid while hibernated.
func (i *Interner) IsEmpty() bool {
	return i.backend.IsEmpty()
}

// Snapshot returns the interned strings ordered by symbol: element n is the
// text behind symbol n. Re-interning the snapshot in order with FromStrings
// reproduces identical symbol assignments. The returned strings share the
// interner's storage; they remain valid after the interner is dropped, but
// they pin its arenas.
func (i *Interner) Snapshot() []string {
	i.ensureLive()

	out := make([]string, i.Len())
	for idx := range out {
		if text, ok := i.backend.Resolve(symbol.MustFromIndex(idx)); ok {
			out[idx] = text
		}
	}

	return out
}

// ensureLive panics when the interner is hibernated. Data access during
// hibernation is a programmer error.
func (i *Interner) ensureLive() {
	if i.hib != nil {
		panic("intern: hibernated interner cannot be used")
	}
}

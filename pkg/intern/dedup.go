package intern

import (
	"github.com/Sumatoshi-tech/symtab/pkg/backend"
	"github.com/Sumatoshi-tech/symtab/pkg/symbol"
)

// Table geometry constants.
const (
	// minTableSize is the smallest slot count; always a power of two so the
	// probe mask is a simple AND.
	minTableSize = 16

	// maxLoadNum/maxLoadDen cap the load factor at 3/4 before doubling.
	maxLoadNum = 3
	maxLoadDen = 4
)

// dedupTable is an open-addressing index from content hash to symbol. Each
// slot holds the full 64-bit hash and the symbol plus one, so a zero slot
// always means empty. The table never stores string bytes: candidates are
// verified against the backend's stored copy, which keeps every string in
// memory exactly once.
type dedupTable struct {
	hashes []uint64
	syms   []uint32
	count  int
}

// newDedupTable pre-sizes the table so capacity entries fit under the load
// cap. A non-positive capacity defers allocation to the first insert.
func newDedupTable(capacity int) dedupTable {
	if capacity <= 0 {
		return dedupTable{}
	}

	size := minTableSize
	for size*maxLoadNum < capacity*maxLoadDen {
		size *= 2
	}

	return dedupTable{
		hashes: make([]uint64, size),
		syms:   make([]uint32, size),
	}
}

// lookup probes for a symbol whose stored hash equals hash and whose
// backend-resolved text is byte-identical to text. Hash equality alone is
// never trusted; resolution goes through the checked path.
func (t *dedupTable) lookup(hash uint64, text string, bk backend.Backend) (symbol.Symbol, bool) {
	if len(t.syms) == 0 {
		return symbol.None, false
	}

	mask := uint64(len(t.syms) - 1)

	for idx := hash & mask; ; idx = (idx + 1) & mask {
		stored := t.syms[idx]
		if stored == 0 {
			return symbol.None, false
		}

		if t.hashes[idx] != hash {
			continue
		}

		cand := symbol.Symbol(stored - 1)
		if got, ok := bk.Resolve(cand); ok && got == text {
			return cand, true
		}
	}
}

// insert records (hash, sym), growing first so a free slot always exists.
// The caller guarantees the pair is not already present.
func (t *dedupTable) insert(hash uint64, sym symbol.Symbol) {
	t.grow(t.count + 1)
	t.place(hash, uint32(sym)+1)
	t.count++
}

// place writes the entry into the first free slot on hash's probe chain.
func (t *dedupTable) place(hash uint64, stored uint32) {
	mask := uint64(len(t.syms) - 1)

	idx := hash & mask
	for t.syms[idx] != 0 {
		idx = (idx + 1) & mask
	}

	t.hashes[idx] = hash
	t.syms[idx] = stored
}

// grow doubles the table when needed entries would exceed the load cap.
// Stored hashes make rehashing a pure memory operation; no string is ever
// re-read to grow the index.
func (t *dedupTable) grow(needed int) {
	if len(t.syms) > 0 && needed*maxLoadDen <= len(t.syms)*maxLoadNum {
		return
	}

	size := max(len(t.syms)*2, minTableSize)
	for size*maxLoadNum < needed*maxLoadDen {
		size *= 2
	}

	oldHashes, oldSyms := t.hashes, t.syms
	t.hashes = make([]uint64, size)
	t.syms = make([]uint32, size)

	for i, stored := range oldSyms {
		if stored != 0 {
			t.place(oldHashes[i], stored)
		}
	}
}

// slots returns the allocated slot count.
func (t *dedupTable) slots() int {
	return len(t.syms)
}

// load returns the occupancy ratio (0.0 to 1.0).
func (t *dedupTable) load() float64 {
	if len(t.syms) == 0 {
		return 0
	}

	return float64(t.count) / float64(len(t.syms))
}

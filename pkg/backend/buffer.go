package backend

import (
	"math"

	"github.com/Sumatoshi-tech/symtab/pkg/symbol"
)

// bytesPerStringHint sizes the initial arena from a string-count capacity
// hint; identifiers and tokens are typically short.
const bytesPerStringHint = 8

// BufferBackend concatenates all string bytes into one contiguously growing
// arena. Entry i is bounded by the cumulative offsets offs[i] and offs[i+1],
// costing four bytes of metadata per string. The arena may relocate when it
// grows; views handed out earlier keep the superseded array alive and
// unchanged, so their contents remain stable.
//
// The uint32 offset table caps the arena at 4 GiB; Push returns
// ErrArenaExhausted beyond that.
type BufferBackend struct {
	buf  []byte
	offs []uint32
	// maxArena is the offset ceiling; a field so tests can lower it.
	maxArena uint32
}

// NewBuffer creates a BufferBackend pre-sized for capacity strings.
func NewBuffer(capacity int) *BufferBackend {
	capacity = max(capacity, 0)

	offs := make([]uint32, 1, capacity+1)

	return &BufferBackend{
		buf:      make([]byte, 0, capacity*bytesPerStringHint),
		offs:     offs,
		maxArena: math.MaxUint32,
	}
}

// Push appends text to the arena and returns its symbol.
func (b *BufferBackend) Push(text string) (symbol.Symbol, error) {
	sym, err := nextSymbol(b.Len())
	if err != nil {
		return symbol.None, err
	}

	end := uint64(len(b.buf)) + uint64(len(text))
	if end > uint64(b.maxArena) {
		return symbol.None, ErrArenaExhausted
	}

	b.buf = append(b.buf, text...)
	b.offs = append(b.offs, uint32(end))

	return sym, nil
}

// Resolve returns the text for sym, or ("", false) if sym is out of range.
func (b *BufferBackend) Resolve(sym symbol.Symbol) (string, bool) {
	idx := sym.Index()
	if idx >= b.Len() {
		return "", false
	}

	return view(b.buf[b.offs[idx]:b.offs[idx+1]]), true
}

// ResolveUnchecked returns the text for sym without bounds verification.
func (b *BufferBackend) ResolveUnchecked(sym symbol.Symbol) string {
	idx := sym.Index()

	return view(b.buf[b.offs[idx]:b.offs[idx+1]])
}

// Len returns the number of stored strings.
func (b *BufferBackend) Len() int {
	return len(b.offs) - 1
}

// IsEmpty reports whether no strings are stored.
func (b *BufferBackend) IsEmpty() bool {
	return b.Len() == 0
}

// Stats reports the backend's storage shape.
func (b *BufferBackend) Stats() Stats {
	chunks := 0
	if len(b.buf) > 0 {
		chunks = 1
	}

	return Stats{
		Kind:     KindBuffer,
		Strings:  b.Len(),
		Bytes:    len(b.buf),
		Chunks:   chunks,
		Capacity: cap(b.buf),
	}
}

package backend

import (
	"github.com/Sumatoshi-tech/symtab/pkg/symbol"
)

// Chunk geometry constants.
const (
	// DefaultChunkSize is the arena chunk size used when no option overrides it.
	DefaultChunkSize = 64 * 1024

	// MinChunkSize is the smallest permitted chunk size; WithChunkSize
	// clamps to it.
	MinChunkSize = 1024

	// noHead marks the absence of a chunk currently being filled.
	noHead = -1
)

// span locates one string inside the chunk list.
type span struct {
	chunk  uint32
	off    uint32
	length uint32
}

// BucketBackend copies strings into fixed-size arena chunks. A full chunk is
// sealed and a new one appended; sealed chunks are never relocated, so views
// handed out by Resolve stay valid for the backend's lifetime. Strings at
// least one chunk long get a dedicated, exactly-sized chunk while the current
// chunk keeps filling.
//
// BucketBackend supports hibernation: Hibernate LZ4-compresses the chunks
// and span table, Boot restores them. Every other method panics while the
// backend is hibernated.
type BucketBackend struct {
	chunks    [][]byte
	spans     []span
	head      int
	chunkSize int
	bytes     int
	capacity  int
	hib       *hibernatedBucket
}

// BucketOption configures a BucketBackend at construction time.
type BucketOption func(*BucketBackend)

// WithChunkSize sets the arena chunk size in bytes, clamped to MinChunkSize.
func WithChunkSize(size int) BucketOption {
	return func(b *BucketBackend) {
		b.chunkSize = max(size, MinChunkSize)
	}
}

// NewBucket creates a BucketBackend pre-sized for capacity strings.
func NewBucket(capacity int, opts ...BucketOption) *BucketBackend {
	b := &BucketBackend{
		head:      noHead,
		chunkSize: DefaultChunkSize,
	}

	for _, opt := range opts {
		opt(b)
	}

	if capacity > 0 {
		b.spans = make([]span, 0, capacity)
		b.growHead()
	}

	return b
}

// Push copies text into the arena and returns its symbol.
func (b *BucketBackend) Push(text string) (symbol.Symbol, error) {
	b.ensureLive()

	sym, err := nextSymbol(len(b.spans))
	if err != nil {
		return symbol.None, err
	}

	ci, off := b.reserve(len(text))

	// The append never exceeds the chunk's capacity (reserve guarantees
	// room), so committed bytes are never relocated.
	b.chunks[ci] = append(b.chunks[ci], text...)
	b.spans = append(b.spans, span{chunk: uint32(ci), off: uint32(off), length: uint32(len(text))})
	b.bytes += len(text)

	return sym, nil
}

// reserve picks the chunk that will hold size bytes and returns its index
// and the write offset. Oversized strings get a dedicated chunk appended
// behind the head, which keeps filling afterwards.
func (b *BucketBackend) reserve(size int) (chunkIdx, offset int) {
	if size >= b.chunkSize {
		b.chunks = append(b.chunks, make([]byte, 0, size))
		b.capacity += size

		return len(b.chunks) - 1, 0
	}

	if b.head == noHead || len(b.chunks[b.head])+size > cap(b.chunks[b.head]) {
		b.growHead()
	}

	return b.head, len(b.chunks[b.head])
}

// growHead seals the current head and starts a fresh chunk.
func (b *BucketBackend) growHead() {
	b.chunks = append(b.chunks, make([]byte, 0, b.chunkSize))
	b.head = len(b.chunks) - 1
	b.capacity += b.chunkSize
}

// Resolve returns the text for sym, or ("", false) if sym is out of range.
func (b *BucketBackend) Resolve(sym symbol.Symbol) (string, bool) {
	b.ensureLive()

	idx := sym.Index()
	if idx >= len(b.spans) {
		return "", false
	}

	return b.viewSpan(b.spans[idx]), true
}

// ResolveUnchecked returns the text for sym without bounds verification.
func (b *BucketBackend) ResolveUnchecked(sym symbol.Symbol) string {
	b.ensureLive()

	return b.viewSpan(b.spans[sym.Index()])
}

// viewSpan returns a zero-copy view of the span's bytes.
func (b *BucketBackend) viewSpan(sp span) string {
	chunk := b.chunks[sp.chunk]

	return view(chunk[sp.off : sp.off+sp.length])
}

// Len returns the number of stored strings. Valid while hibernated.
func (b *BucketBackend) Len() int {
	if b.hib != nil {
		return b.hib.strings
	}

	return len(b.spans)
}

// IsEmpty reports whether no strings are stored. Valid while hibernated.
func (b *BucketBackend) IsEmpty() bool {
	return b.Len() == 0
}

// Stats reports the backend's storage shape. While hibernated, Chunks counts
// compressed blocks and Capacity is the compressed footprint.
func (b *BucketBackend) Stats() Stats {
	if b.hib != nil {
		return Stats{
			Kind:     KindBucket,
			Strings:  b.hib.strings,
			Bytes:    b.bytes,
			Chunks:   len(b.hib.chunkBlocks),
			Capacity: b.hib.footprint(),
		}
	}

	return Stats{
		Kind:     KindBucket,
		Strings:  len(b.spans),
		Bytes:    b.bytes,
		Chunks:   len(b.chunks),
		Capacity: b.capacity,
	}
}

// ensureLive panics when the backend is hibernated. Data access during
// hibernation is a programmer error, mirroring the contract of arena
// allocators that release their storage between processing phases.
func (b *BucketBackend) ensureLive() {
	if b.hib != nil {
		panic("backend: hibernated bucket backend cannot be used")
	}
}

package backend

import (
	"fmt"
	"sync"

	"github.com/Sumatoshi-tech/symtab/internal/compress"
)

// spanBufferCount is the number of deinterleaved span buffers
// (chunk, offset, length).
const spanBufferCount = 3

// hibernatedBucket holds the compressed form of a BucketBackend between
// Hibernate and Boot.
type hibernatedBucket struct {
	strings     int
	head        int
	chunkLens   []int
	chunkCaps   []int
	chunkBlocks [][]byte
	spanBlocks  [spanBufferCount][]byte
}

// footprint returns the total compressed size in bytes.
func (h *hibernatedBucket) footprint() int {
	total := 0

	for _, block := range h.chunkBlocks {
		total += len(block)
	}

	for _, block := range h.spanBlocks {
		total += len(block)
	}

	return total
}

// Hibernate LZ4-compresses the chunks and the span table, then drops live
// storage. The backend keeps answering Len, IsEmpty, and Stats; every data
// access panics until Boot. Views handed out before hibernation stay valid,
// since they pin their original chunks.
func (b *BucketBackend) Hibernate() error {
	if b.hib != nil {
		return ErrAlreadyHibernated
	}

	hib := &hibernatedBucket{
		strings:     len(b.spans),
		head:        b.head,
		chunkLens:   make([]int, len(b.chunks)),
		chunkCaps:   make([]int, len(b.chunks)),
		chunkBlocks: make([][]byte, len(b.chunks)),
	}

	// Deinterleave spans for a better compression ratio. Chunk indexes and
	// offsets are mostly ascending, so delta coding shrinks them further.
	buffers := [spanBufferCount][]uint32{}
	for i := range buffers {
		buffers[i] = make([]uint32, len(b.spans))
	}

	for i, sp := range b.spans {
		buffers[0][i] = sp.chunk
		buffers[1][i] = sp.off
		buffers[2][i] = sp.length
	}

	compress.DeltaEncode(buffers[0])
	compress.DeltaEncode(buffers[1])

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	wg.Add(len(b.chunks) + spanBufferCount)

	for i, chunk := range b.chunks {
		hib.chunkLens[i] = len(chunk)
		hib.chunkCaps[i] = cap(chunk)

		go func(idx int, data []byte) {
			defer wg.Done()

			hib.chunkBlocks[idx] = compress.Bytes(data)
		}(i, chunk)
	}

	for i, buf := range buffers {
		go func(idx int, data []uint32) {
			defer wg.Done()

			block, err := compress.Uint32s(data)
			if err != nil {
				fail(fmt.Errorf("compress span buffer %d: %w", idx, err))

				return
			}

			hib.spanBlocks[idx] = block
		}(i, buf)
	}

	wg.Wait()

	if firstErr != nil {
		return firstErr
	}

	b.chunks = nil
	b.spans = nil
	b.head = noHead
	b.hib = hib

	return nil
}

// Boot decompresses and restores the storage dropped by Hibernate. Booting a
// live backend is a no-op.
func (b *BucketBackend) Boot() error {
	if b.hib == nil {
		return nil
	}

	hib := b.hib
	chunks := make([][]byte, len(hib.chunkBlocks))
	buffers := [spanBufferCount][]uint32{}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	wg.Add(len(hib.chunkBlocks) + spanBufferCount)

	for i := range hib.chunkBlocks {
		go func(idx int) {
			defer wg.Done()

			raw, err := compress.Unbytes(hib.chunkBlocks[idx], hib.chunkLens[idx])
			if err != nil {
				fail(fmt.Errorf("boot chunk %d: %w", idx, err))

				return
			}

			// Restore the original capacity so the head chunk keeps
			// accepting appends where it left off.
			chunk := make([]byte, hib.chunkLens[idx], hib.chunkCaps[idx])
			copy(chunk, raw)
			chunks[idx] = chunk
		}(i)
	}

	for i := range buffers {
		go func(idx int) {
			defer wg.Done()

			buf := make([]uint32, hib.strings)
			if err := compress.Unuint32s(hib.spanBlocks[idx], buf); err != nil {
				fail(fmt.Errorf("boot span buffer %d: %w", idx, err))

				return
			}

			buffers[idx] = buf
		}(i)
	}

	wg.Wait()

	if firstErr != nil {
		return firstErr
	}

	compress.DeltaDecode(buffers[0])
	compress.DeltaDecode(buffers[1])

	spans := make([]span, hib.strings)
	for i := range spans {
		spans[i] = span{chunk: buffers[0][i], off: buffers[1][i], length: buffers[2][i]}
	}

	b.chunks = chunks
	b.spans = spans
	b.head = hib.head
	b.hib = nil

	return nil
}

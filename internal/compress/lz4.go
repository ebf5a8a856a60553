// Package compress provides LZ4 block helpers used by hibernation: raw byte
// chunks and deinterleaved uint32 buffers are compressed when structures are
// put to sleep between processing phases and restored on boot.
package compress

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// uint32ByteSize is the number of bytes in a uint32.
const uint32ByteSize = 4

// Frame tags. Arbitrary string bytes may be incompressible, in which case the
// block is stored raw so decompression stays total.
const (
	frameRaw = 0x0
	frameLZ4 = 0x1
)

// frameHeaderSize is the number of leading tag bytes in a compressed block.
const frameHeaderSize = 1

var (
	// ErrBlockCorrupt is returned when a compressed block cannot be decoded
	// back to its recorded size.
	ErrBlockCorrupt = errors.New("compress: corrupt block")
)

// Bytes compresses data into a tagged LZ4 block. Incompressible input is
// stored raw behind the tag byte, so the result is never larger than
// len(data)+1.
func Bytes(data []byte) []byte {
	dst := make([]byte, frameHeaderSize+lz4.CompressBlockBound(len(data)))

	written, err := lz4.CompressBlock(data, dst[frameHeaderSize:], nil)
	if err != nil || written == 0 || written >= len(data) {
		raw := make([]byte, frameHeaderSize+len(data))
		raw[0] = frameRaw
		copy(raw[frameHeaderSize:], data)

		return raw
	}

	dst[0] = frameLZ4

	return dst[:frameHeaderSize+written]
}

// Unbytes decompresses a block produced by Bytes. size must be the original
// length of the data.
func Unbytes(block []byte, size int) ([]byte, error) {
	if len(block) < frameHeaderSize {
		if size == 0 {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: missing frame header", ErrBlockCorrupt)
	}

	payload := block[frameHeaderSize:]

	switch block[0] {
	case frameRaw:
		if len(payload) != size {
			return nil, fmt.Errorf("%w: raw size %d, want %d", ErrBlockCorrupt, len(payload), size)
		}

		out := make([]byte, size)
		copy(out, payload)

		return out, nil
	case frameLZ4:
		out := make([]byte, size)

		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("decompress block: %w", err)
		}

		if n != size {
			return nil, fmt.Errorf("%w: decoded size %d, want %d", ErrBlockCorrupt, n, size)
		}

		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown frame tag %#x", ErrBlockCorrupt, block[0])
	}
}

// Uint32s compresses a slice of uint32-s into a tagged LZ4 block.
func Uint32s(data []uint32) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Grow(len(data) * uint32ByteSize)

	if err := binary.Write(buf, binary.LittleEndian, data); err != nil {
		return nil, fmt.Errorf("encode uint32 buffer: %w", err)
	}

	return Bytes(buf.Bytes()), nil
}

// Unuint32s decompresses a block produced by Uint32s. result must be
// preallocated to the original element count.
func Unuint32s(block []byte, result []uint32) error {
	raw, err := Unbytes(block, len(result)*uint32ByteSize)
	if err != nil {
		return err
	}

	if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, result); err != nil {
		return fmt.Errorf("decode uint32 buffer: %w", err)
	}

	return nil
}

// DeltaEncode replaces each element with the difference from its predecessor,
// in place. The first element is left unchanged. Mostly-ascending sequences
// become small, repetitive values that compress better with LZ4; differences
// wrap, so DeltaDecode restores any input exactly.
func DeltaEncode(data []uint32) {
	for i := len(data) - 1; i > 0; i-- {
		data[i] -= data[i-1]
	}
}

// DeltaDecode performs a prefix-sum to restore original values from deltas
// produced by DeltaEncode. The operation is performed in place.
func DeltaDecode(data []uint32) {
	for i := 1; i < len(data); i++ {
		data[i] += data[i-1]
	}
}

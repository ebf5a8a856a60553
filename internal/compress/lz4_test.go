package compress

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test constants.
const (
	testBufLen     = 4096
	testRepeatRune = 'x'
)

// TestBytes_RoundTrip verifies compressible data round-trips.
func TestBytes_RoundTrip(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte{testRepeatRune}, testBufLen)

	block := Bytes(data)
	require.Less(t, len(block), len(data), "repetitive data should compress")

	out, err := Unbytes(block, len(data))
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

// TestBytes_Incompressible verifies random data falls back to raw framing
// and still round-trips.
func TestBytes_Incompressible(t *testing.T) {
	t.Parallel()

	data := make([]byte, testBufLen)
	_, err := rand.Read(data)
	require.NoError(t, err)

	block := Bytes(data)
	assert.LessOrEqual(t, len(block), len(data)+frameHeaderSize)

	out, uerr := Unbytes(block, len(data))
	require.NoError(t, uerr)
	assert.Equal(t, data, out)
}

// TestBytes_Empty verifies the empty block round-trips.
func TestBytes_Empty(t *testing.T) {
	t.Parallel()

	block := Bytes(nil)

	out, err := Unbytes(block, 0)
	require.NoError(t, err)
	assert.Empty(t, out)
}

// TestUnbytes_WrongSize verifies size mismatches are detected.
func TestUnbytes_WrongSize(t *testing.T) {
	t.Parallel()

	block := Bytes([]byte("some payload bytes"))

	_, err := Unbytes(block, testBufLen)
	require.ErrorIs(t, err, ErrBlockCorrupt)
}

// TestUnbytes_UnknownTag verifies unknown frame tags are rejected.
func TestUnbytes_UnknownTag(t *testing.T) {
	t.Parallel()

	_, err := Unbytes([]byte{0xff, 0x01, 0x02}, 2)
	require.ErrorIs(t, err, ErrBlockCorrupt)
}

// TestUint32s_RoundTrip verifies uint32 buffers round-trip.
func TestUint32s_RoundTrip(t *testing.T) {
	t.Parallel()

	data := make([]uint32, testBufLen)
	for i := range data {
		data[i] = uint32(i * 3)
	}

	block, err := Uint32s(data)
	require.NoError(t, err)

	result := make([]uint32, len(data))
	require.NoError(t, Unuint32s(block, result))
	assert.Equal(t, data, result)
}

// TestDeltaEncode_Decode verifies delta coding is a lossless involution,
// including on sequences that wrap past zero.
func TestDeltaEncode_Decode(t *testing.T) {
	t.Parallel()

	data := []uint32{10, 20, 15, 15, 100, 3, 0xffffffff, 0}
	original := make([]uint32, len(data))
	copy(original, data)

	DeltaEncode(data)
	DeltaDecode(data)
	assert.Equal(t, original, data)
}

// TestDeltaEncode_AscendingCompresses verifies the encoding shrinks ascending
// sequences into values LZ4 handles well.
func TestDeltaEncode_AscendingCompresses(t *testing.T) {
	t.Parallel()

	data := make([]uint32, testBufLen)
	for i := range data {
		data[i] = uint32(i * 7)
	}

	plain, err := Uint32s(data)
	require.NoError(t, err)

	DeltaEncode(data)

	encoded, err := Uint32s(data)
	require.NoError(t, err)
	assert.Less(t, len(encoded), len(plain))
}

package intern

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/symtab/pkg/backend"
	"github.com/Sumatoshi-tech/symtab/pkg/symbol"
)

// Test constants.
const (
	testTableEntries  = 500
	testConstantHash  = 42
	testFitCapacity   = 12
	testGrowCapacity  = 13
	testGrowSlotCount = 32
)

// TestDedupTable_CollisionsStayDistinct verifies strings with identical
// hashes still intern to distinct symbols. A constant hasher forces every
// probe chain through byte verification.
func TestDedupTable_CollisionsStayDistinct(t *testing.T) {
	t.Parallel()

	constant := HasherFunc(func(string) uint64 {
		return testConstantHash
	})

	i := New(WithHasher(constant))

	a, err := i.GetOrIntern("alpha")
	require.NoError(t, err)

	b, err := i.GetOrIntern("beta")
	require.NoError(t, err)

	c, err := i.GetOrIntern("gamma")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, b, c)
	assert.Equal(t, 3, i.Len())

	// Lookups must land on the right entry despite the shared hash.
	got, ok := i.Get("beta")
	require.True(t, ok)
	assert.Equal(t, b, got)

	text, ok := i.Resolve(a)
	require.True(t, ok)
	assert.Equal(t, "alpha", text)
}

// TestDedupTable_CollisionsDeduplicate verifies colliding duplicates still
// collapse to one symbol.
func TestDedupTable_CollisionsDeduplicate(t *testing.T) {
	t.Parallel()

	constant := HasherFunc(func(string) uint64 {
		return testConstantHash
	})

	i := New(WithHasher(constant))

	first, err := i.GetOrIntern("alpha")
	require.NoError(t, err)

	_, err = i.GetOrIntern("beta")
	require.NoError(t, err)

	again, err := i.GetOrIntern("alpha")
	require.NoError(t, err)

	assert.Equal(t, first, again)
	assert.Equal(t, 2, i.Len())
}

// TestDedupTable_GrowPreservesEntries verifies every entry stays findable
// across repeated doubling.
func TestDedupTable_GrowPreservesEntries(t *testing.T) {
	t.Parallel()

	i := New()

	syms := make(map[string]symbol.Symbol, testTableEntries)

	for n := range testTableEntries {
		text := fmt.Sprintf("entry-%d", n)

		sym, err := i.GetOrIntern(text)
		require.NoError(t, err)

		syms[text] = sym
	}

	for text, want := range syms {
		got, ok := i.Get(text)
		require.True(t, ok, "lost entry %q after growth", text)
		assert.Equal(t, want, got)
	}
}

// TestNewDedupTable_Sizing verifies pre-sizing respects the load cap.
func TestNewDedupTable_Sizing(t *testing.T) {
	t.Parallel()

	zero := newDedupTable(0)
	assert.Equal(t, 0, zero.slots())

	fits := newDedupTable(testFitCapacity)
	assert.Equal(t, minTableSize, fits.slots())

	grows := newDedupTable(testGrowCapacity)
	assert.Equal(t, testGrowSlotCount, grows.slots())
}

// TestDedupTable_LookupEmpty verifies lookup on an unallocated table.
func TestDedupTable_LookupEmpty(t *testing.T) {
	t.Parallel()

	table := dedupTable{}

	sym, ok := table.lookup(testConstantHash, "anything", backend.NewSimple(0))
	assert.False(t, ok)
	assert.Equal(t, symbol.None, sym)
}

// TestDedupTable_Load verifies occupancy reporting.
func TestDedupTable_Load(t *testing.T) {
	t.Parallel()

	table := dedupTable{}
	assert.Zero(t, table.load())

	bk := backend.NewSimple(0)

	sym, err := bk.Push("one")
	require.NoError(t, err)

	table.insert(testConstantHash, sym)

	assert.Equal(t, 1, table.count)
	assert.InDelta(t, 1.0/float64(minTableSize), table.load(), 0.0001)
}

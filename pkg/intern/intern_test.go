package intern

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/symtab/pkg/backend"
	"github.com/Sumatoshi-tech/symtab/pkg/symbol"
)

// Test constants.
const (
	testWordCount      = 1000
	testStabilityCount = 20000
	testAbsentSymbol   = 999
)

// errPushRefused marks pushes rejected by the failing test backend.
var errPushRefused = errors.New("push refused")

// failingBackend wraps a live backend and refuses pushes on demand so index
// behavior after storage errors can be observed.
type failingBackend struct {
	backend.Backend

	fail bool
}

func (f *failingBackend) Push(text string) (symbol.Symbol, error) {
	if f.fail {
		return symbol.None, errPushRefused
	}

	return f.Backend.Push(text)
}

// testWords returns n distinct words.
func testWords(n int) []string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("word-%04d", i)
	}

	return words
}

// TestGetOrIntern_Idempotent verifies repeated interning returns the same
// symbol without growing the interner.
func TestGetOrIntern_Idempotent(t *testing.T) {
	t.Parallel()

	i := New()

	first, err := i.GetOrIntern("elephant")
	require.NoError(t, err)

	second, err := i.GetOrIntern("elephant")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, i.Len())
}

// TestGetOrIntern_RoundTrip verifies every interned string resolves back to
// equal bytes.
func TestGetOrIntern_RoundTrip(t *testing.T) {
	t.Parallel()

	i := New()

	for _, text := range []string{"", "a", "hello", "héllo wörld", "line\nbreak", "nul\x00byte"} {
		sym, err := i.GetOrIntern(text)
		require.NoError(t, err)

		got, ok := i.Resolve(sym)
		require.True(t, ok)
		assert.Equal(t, text, got)
		assert.Equal(t, text, i.ResolveUnchecked(sym))
	}
}

// TestGetOrIntern_DenseSymbols verifies n distinct strings produce exactly
// the indices 0..n-1.
func TestGetOrIntern_DenseSymbols(t *testing.T) {
	t.Parallel()

	i := New()
	words := testWords(testWordCount)

	for idx, word := range words {
		sym, err := i.GetOrIntern(word)
		require.NoError(t, err)
		assert.Equal(t, idx, sym.Index())
	}

	assert.Equal(t, testWordCount, i.Len())
}

// TestGetOrIntern_OrderSensitive verifies symbols follow first-occurrence
// order and duplicates collapse.
func TestGetOrIntern_OrderSensitive(t *testing.T) {
	t.Parallel()

	i := New()

	syms := make([]symbol.Symbol, 0, 3)

	for _, text := range []string{"a", "b", "a"} {
		sym, err := i.GetOrIntern(text)
		require.NoError(t, err)

		syms = append(syms, sym)
	}

	assert.Equal(t, 0, syms[0].Index())
	assert.Equal(t, 1, syms[1].Index())
	assert.Equal(t, syms[0], syms[2])
	assert.Equal(t, 2, i.Len())
}

// TestGet_Miss verifies lookup of an absent string has no side effects.
func TestGet_Miss(t *testing.T) {
	t.Parallel()

	i := New()

	_, err := i.GetOrIntern("present")
	require.NoError(t, err)

	sym, ok := i.Get("absent")
	assert.False(t, ok)
	assert.Equal(t, symbol.None, sym)
	assert.Equal(t, 1, i.Len())

	st := i.Stats()
	assert.Equal(t, uint64(0), st.Hits)
	assert.Equal(t, uint64(1), st.Misses)
}

// TestGet_Hit verifies lookup finds previously interned strings without
// mutating anything.
func TestGet_Hit(t *testing.T) {
	t.Parallel()

	i := New()

	want, err := i.GetOrIntern("present")
	require.NoError(t, err)

	got, ok := i.Get("present")
	require.True(t, ok)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, i.Len())
}

// TestResolve_UnknownSymbol verifies resolving symbols the interner never
// issued reports a miss instead of an error.
func TestResolve_UnknownSymbol(t *testing.T) {
	t.Parallel()

	i := New()

	for _, text := range []string{"x", "y", "z"} {
		_, err := i.GetOrIntern(text)
		require.NoError(t, err)
	}

	text, ok := i.Resolve(symbol.MustFromIndex(testAbsentSymbol))
	assert.False(t, ok)
	assert.Empty(t, text)

	text, ok = i.Resolve(symbol.None)
	assert.False(t, ok)
	assert.Empty(t, text)
}

// TestSnapshot_RoundTrip verifies re-interning a snapshot in order
// reproduces identical symbol assignments.
func TestSnapshot_RoundTrip(t *testing.T) {
	t.Parallel()

	i := New()

	for _, text := range []string{"delta", "alpha", "charlie", "alpha", "bravo"} {
		_, err := i.GetOrIntern(text)
		require.NoError(t, err)
	}

	snap := i.Snapshot()
	require.Equal(t, []string{"delta", "alpha", "charlie", "bravo"}, snap)

	clone, err := FromStrings(snap)
	require.NoError(t, err)
	require.Equal(t, i.Len(), clone.Len())

	for idx, text := range snap {
		sym, ok := clone.Get(text)
		require.True(t, ok)
		assert.Equal(t, idx, sym.Index())
	}
}

// TestSnapshot_Empty verifies an empty interner snapshots to an empty slice.
func TestSnapshot_Empty(t *testing.T) {
	t.Parallel()

	i := New()

	assert.Empty(t, i.Snapshot())
	assert.True(t, i.IsEmpty())
}

// TestGetOrIntern_ReferenceStability verifies strings resolved early keep
// their content while the interner grows far past its initial storage.
func TestGetOrIntern_ReferenceStability(t *testing.T) {
	t.Parallel()

	i := New()

	sym, err := i.GetOrIntern("first entry")
	require.NoError(t, err)

	early, ok := i.Resolve(sym)
	require.True(t, ok)

	for _, word := range testWords(testStabilityCount) {
		_, err := i.GetOrIntern(word)
		require.NoError(t, err)
	}

	assert.Equal(t, "first entry", early)

	again, ok := i.Resolve(sym)
	require.True(t, ok)
	assert.Equal(t, "first entry", again)
}

// TestGetOrIntern_FailedPushLeavesNoTrace verifies a storage error leaves
// the interner exactly as it was.
func TestGetOrIntern_FailedPushLeavesNoTrace(t *testing.T) {
	t.Parallel()

	fb := &failingBackend{Backend: backend.NewSimple(0)}
	i := New(WithBackend(fb))

	_, err := i.GetOrIntern("kept")
	require.NoError(t, err)

	fb.fail = true

	_, err = i.GetOrIntern("rejected")
	require.ErrorIs(t, err, errPushRefused)
	assert.Equal(t, 1, i.Len())

	_, ok := i.Get("rejected")
	assert.False(t, ok)

	// The failure must not poison later interning of the same string.
	fb.fail = false

	sym, err := i.GetOrIntern("rejected")
	require.NoError(t, err)
	assert.Equal(t, 1, sym.Index())
	assert.Equal(t, 2, i.Len())
}

// TestNew_Defaults verifies the default configuration.
func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	i := New()

	assert.True(t, i.IsEmpty())
	assert.Equal(t, 0, i.Len())
	assert.Equal(t, backend.KindBucket, i.Stats().Backend.Kind)
}

// TestNew_UnknownKind verifies construction panics on an unknown storage
// strategy.
func TestNew_UnknownKind(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		New(WithBackendKind(backend.Kind("granite")))
	})
}

// TestNew_AllBackendKinds verifies the interner behaves identically over
// every storage strategy.
func TestNew_AllBackendKinds(t *testing.T) {
	t.Parallel()

	for _, kind := range []backend.Kind{backend.KindSimple, backend.KindBucket, backend.KindBuffer} {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()

			i := New(WithBackendKind(kind))

			first, err := i.GetOrIntern("north")
			require.NoError(t, err)

			second, err := i.GetOrIntern("south")
			require.NoError(t, err)

			dup, err := i.GetOrIntern("north")
			require.NoError(t, err)

			assert.Equal(t, first, dup)
			assert.NotEqual(t, first, second)
			assert.Equal(t, 2, i.Len())
			assert.Equal(t, kind, i.Stats().Backend.Kind)
		})
	}
}

// TestNew_WithCapacity verifies capacity pre-sizes the index.
func TestNew_WithCapacity(t *testing.T) {
	t.Parallel()

	i := New(WithCapacity(testWordCount))

	slots := i.table.slots()
	assert.Positive(t, slots)

	for _, word := range testWords(testWordCount) {
		_, err := i.GetOrIntern(word)
		require.NoError(t, err)
	}

	// Pre-sizing must cover the declared capacity without regrowth.
	assert.Equal(t, slots, i.table.slots())
}

// TestWithHasher verifies a custom hasher is consulted for every operation.
func TestWithHasher(t *testing.T) {
	t.Parallel()

	calls := 0
	counting := HasherFunc(func(s string) uint64 {
		calls++

		return uint64(len(s))
	})

	i := New(WithHasher(counting))

	_, err := i.GetOrIntern("one")
	require.NoError(t, err)

	_, _ = i.Get("one")

	assert.Equal(t, 2, calls)
}

// TestFromStrings verifies bulk construction collapses duplicates in
// first-occurrence order.
func TestFromStrings(t *testing.T) {
	t.Parallel()

	i, err := FromStrings([]string{"red", "green", "red", "blue", "green"})
	require.NoError(t, err)

	assert.Equal(t, 3, i.Len())
	assert.Equal(t, []string{"red", "green", "blue"}, i.Snapshot())
}

// TestFromStrings_Empty verifies bulk construction of nothing.
func TestFromStrings_Empty(t *testing.T) {
	t.Parallel()

	i, err := FromStrings(nil)
	require.NoError(t, err)
	assert.True(t, i.IsEmpty())
}

// TestFromSeq verifies construction from a sequence matches slice
// construction.
func TestFromSeq(t *testing.T) {
	t.Parallel()

	values := []string{"red", "green", "red", "blue"}

	i, err := FromSeq(slices.Values(values))
	require.NoError(t, err)

	assert.Equal(t, 3, i.Len())
	assert.Equal(t, []string{"red", "green", "blue"}, i.Snapshot())
}

// TestStats verifies hit and miss accounting.
func TestStats(t *testing.T) {
	t.Parallel()

	i := New()

	for _, text := range []string{"a", "b", "a", "a", "c"} {
		_, err := i.GetOrIntern(text)
		require.NoError(t, err)
	}

	st := i.Stats()
	assert.Equal(t, 3, st.Strings)
	assert.Equal(t, uint64(2), st.Hits)
	assert.Equal(t, uint64(3), st.Misses)
	assert.Equal(t, uint64(5), st.Total())
	assert.InDelta(t, 0.4, st.HitRate(), 0.0001)
	assert.Positive(t, st.TableSlots)
	assert.Positive(t, st.TableLoad)
}

// TestStats_Empty verifies the zero-activity snapshot.
func TestStats_Empty(t *testing.T) {
	t.Parallel()

	st := New().Stats()

	assert.Equal(t, 0, st.Strings)
	assert.Equal(t, uint64(0), st.Total())
	assert.Zero(t, st.HitRate())
}

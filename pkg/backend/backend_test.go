package backend

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/symtab/pkg/symbol"
)

// Test constants.
const (
	testCapacityHint = 64
	testGrowthPushes = 20000
	testStaleIndex   = 999
)

// backendUnderTest pairs a strategy name with a constructor for the shared
// contract tests below. Every strategy must pass every contract test.
type backendUnderTest struct {
	name string
	make func(capacity int) Backend
}

func allBackends() []backendUnderTest {
	return []backendUnderTest{
		{name: "simple", make: func(capacity int) Backend { return NewSimple(capacity) }},
		{name: "bucket", make: func(capacity int) Backend { return NewBucket(capacity) }},
		{name: "buffer", make: func(capacity int) Backend { return NewBuffer(capacity) }},
	}
}

// TestBackend_PushResolve_RoundTrip verifies pushed strings resolve to
// byte-identical text across all strategies.
func TestBackend_PushResolve_RoundTrip(t *testing.T) {
	t.Parallel()

	words := []string{"alpha", "beta", "gamma", "delta", "epsilon"}

	for _, under := range allBackends() {
		t.Run(under.name, func(t *testing.T) {
			t.Parallel()

			b := under.make(testCapacityHint)

			syms := make([]symbol.Symbol, len(words))
			for i, w := range words {
				sym, err := b.Push(w)
				require.NoError(t, err)

				syms[i] = sym
			}

			for i, w := range words {
				got, ok := b.Resolve(syms[i])
				require.True(t, ok)
				assert.Equal(t, w, got)
				assert.Equal(t, w, b.ResolveUnchecked(syms[i]))
			}
		})
	}
}

// TestBackend_SequentialSymbols verifies symbols are issued as contiguous
// indices starting at zero.
func TestBackend_SequentialSymbols(t *testing.T) {
	t.Parallel()

	for _, under := range allBackends() {
		t.Run(under.name, func(t *testing.T) {
			t.Parallel()

			b := under.make(0)

			for i := range 100 {
				sym, err := b.Push(fmt.Sprintf("word-%d", i))
				require.NoError(t, err)
				assert.Equal(t, i, sym.Index())
			}

			assert.Equal(t, 100, b.Len())
		})
	}
}

// TestBackend_EmptyString verifies the empty string is a storable entry.
func TestBackend_EmptyString(t *testing.T) {
	t.Parallel()

	for _, under := range allBackends() {
		t.Run(under.name, func(t *testing.T) {
			t.Parallel()

			b := under.make(0)

			sym, err := b.Push("")
			require.NoError(t, err)

			got, ok := b.Resolve(sym)
			require.True(t, ok)
			assert.Empty(t, got)
			assert.Equal(t, 1, b.Len())
		})
	}
}

// TestBackend_Unicode verifies multi-byte text survives storage untouched.
func TestBackend_Unicode(t *testing.T) {
	t.Parallel()

	words := []string{"héllo", "世界", "🦀🐹", "\x00embedded\x00nul"}

	for _, under := range allBackends() {
		t.Run(under.name, func(t *testing.T) {
			t.Parallel()

			b := under.make(0)

			for _, w := range words {
				sym, err := b.Push(w)
				require.NoError(t, err)

				got, ok := b.Resolve(sym)
				require.True(t, ok)
				assert.Equal(t, w, got)
			}
		})
	}
}

// TestBackend_ResolveOutOfRange verifies invalid symbols resolve to a
// defined "not found", never an error or panic.
func TestBackend_ResolveOutOfRange(t *testing.T) {
	t.Parallel()

	for _, under := range allBackends() {
		t.Run(under.name, func(t *testing.T) {
			t.Parallel()

			b := under.make(0)

			for _, w := range []string{"one", "two", "three"} {
				_, err := b.Push(w)
				require.NoError(t, err)
			}

			_, ok := b.Resolve(symbol.MustFromIndex(testStaleIndex))
			assert.False(t, ok)

			_, ok = b.Resolve(symbol.None)
			assert.False(t, ok)
		})
	}
}

// TestBackend_LenIsEmpty verifies the count transitions.
func TestBackend_LenIsEmpty(t *testing.T) {
	t.Parallel()

	for _, under := range allBackends() {
		t.Run(under.name, func(t *testing.T) {
			t.Parallel()

			b := under.make(testCapacityHint)
			assert.True(t, b.IsEmpty())
			assert.Equal(t, 0, b.Len())

			_, err := b.Push("x")
			require.NoError(t, err)
			assert.False(t, b.IsEmpty())
			assert.Equal(t, 1, b.Len())
		})
	}
}

// TestBackend_ReferenceStability verifies a string resolved early keeps its
// content after enough insertions to force arena growth in every strategy.
func TestBackend_ReferenceStability(t *testing.T) {
	t.Parallel()

	for _, under := range allBackends() {
		t.Run(under.name, func(t *testing.T) {
			t.Parallel()

			b := under.make(0)

			first, err := b.Push("stable-reference")
			require.NoError(t, err)

			early, ok := b.Resolve(first)
			require.True(t, ok)

			for i := range testGrowthPushes {
				_, perr := b.Push(fmt.Sprintf("filler-string-%d-padding-padding", i))
				require.NoError(t, perr)
			}

			assert.Equal(t, "stable-reference", early)

			late, ok := b.Resolve(first)
			require.True(t, ok)
			assert.Equal(t, "stable-reference", late)
		})
	}
}

// TestBackend_StatsShape verifies the stats surface is coherent.
func TestBackend_StatsShape(t *testing.T) {
	t.Parallel()

	for _, under := range allBackends() {
		t.Run(under.name, func(t *testing.T) {
			t.Parallel()

			b := under.make(0)

			payload := 0
			for _, w := range []string{"aa", "bbb", "cccc"} {
				_, err := b.Push(w)
				require.NoError(t, err)

				payload += len(w)
			}

			st := b.Stats()
			assert.Equal(t, Kind(under.name), st.Kind)
			assert.Equal(t, 3, st.Strings)
			assert.Equal(t, payload, st.Bytes)
			assert.GreaterOrEqual(t, st.Capacity, st.Bytes)
		})
	}
}

// TestParseKind_Valid verifies every strategy name parses.
func TestParseKind_Valid(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"simple", "bucket", "buffer"} {
		kind, err := ParseKind(name)
		require.NoError(t, err)
		assert.Equal(t, Kind(name), kind)
	}
}

// TestParseKind_Unknown verifies unknown names are rejected.
func TestParseKind_Unknown(t *testing.T) {
	t.Parallel()

	_, err := ParseKind("mmap")
	require.ErrorIs(t, err, ErrUnknownKind)
}

// TestNew_AllKinds verifies the factory covers every strategy.
func TestNew_AllKinds(t *testing.T) {
	t.Parallel()

	for _, kind := range []Kind{KindSimple, KindBucket, KindBuffer} {
		b, err := New(kind, testCapacityHint)
		require.NoError(t, err)
		assert.Equal(t, kind, b.Stats().Kind)
	}

	_, err := New(Kind("bogus"), 0)
	require.ErrorIs(t, err, ErrUnknownKind)
}

// TestNextSymbol_Ceiling verifies the index ceiling guard without having to
// store four billion strings.
func TestNextSymbol_Ceiling(t *testing.T) {
	t.Parallel()

	sym, err := nextSymbol(symbol.MaxIndex)
	require.NoError(t, err)
	assert.Equal(t, symbol.MaxIndex, sym.Index())

	_, err = nextSymbol(symbol.MaxIndex + 1)
	require.ErrorIs(t, err, ErrSymbolSpaceExhausted)
}

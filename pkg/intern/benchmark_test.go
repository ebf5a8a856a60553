package intern

import (
	"fmt"
	"testing"

	"github.com/Sumatoshi-tech/symtab/pkg/backend"
	"github.com/Sumatoshi-tech/symtab/pkg/symbol"
)

// Benchmark constants.
const (
	benchWordCount = 10000
	benchWordPool  = 512
)

// benchVocabulary returns count words drawn from a fixed-size pool, so the
// stream contains both first occurrences and duplicates.
func benchVocabulary(count int) []string {
	words := make([]string, count)
	for i := range words {
		words[i] = fmt.Sprintf("identifier_%d", i%benchWordPool)
	}

	return words
}

// BenchmarkGetOrIntern_Mixed benchmarks interning a duplicate-heavy stream.
func BenchmarkGetOrIntern_Mixed(b *testing.B) {
	words := benchVocabulary(benchWordCount)

	b.ResetTimer()

	for range b.N {
		i := New(WithCapacity(benchWordPool))

		for _, word := range words {
			if _, err := i.GetOrIntern(word); err != nil {
				b.Fatal(err)
			}
		}
	}
}

// BenchmarkGetOrIntern_Hit benchmarks the pure duplicate path.
func BenchmarkGetOrIntern_Hit(b *testing.B) {
	words := benchVocabulary(benchWordPool)

	i := New(WithCapacity(benchWordPool))
	for _, word := range words {
		if _, err := i.GetOrIntern(word); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()

	for range b.N {
		for _, word := range words {
			if _, err := i.GetOrIntern(word); err != nil {
				b.Fatal(err)
			}
		}
	}
}

// BenchmarkGet benchmarks side-effect-free lookups.
func BenchmarkGet(b *testing.B) {
	words := benchVocabulary(benchWordPool)

	i := New(WithCapacity(benchWordPool))
	for _, word := range words {
		if _, err := i.GetOrIntern(word); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()

	for range b.N {
		for _, word := range words {
			i.Get(word)
		}
	}
}

// BenchmarkResolve benchmarks symbol resolution across all backends.
func BenchmarkResolve(b *testing.B) {
	for _, kind := range []backend.Kind{backend.KindSimple, backend.KindBucket, backend.KindBuffer} {
		b.Run(string(kind), func(b *testing.B) {
			words := benchVocabulary(benchWordPool)

			i := New(WithBackendKind(kind), WithCapacity(benchWordPool))

			syms := make([]symbol.Symbol, 0, len(words))

			for _, word := range words {
				sym, err := i.GetOrIntern(word)
				if err != nil {
					b.Fatal(err)
				}

				syms = append(syms, sym)
			}

			b.ResetTimer()

			for range b.N {
				for _, sym := range syms {
					i.Resolve(sym)
				}
			}
		})
	}
}

// BenchmarkHibernateBoot benchmarks a full compression cycle.
func BenchmarkHibernateBoot(b *testing.B) {
	words := benchVocabulary(benchWordCount)

	i := New(WithBackendKind(backend.KindBucket))
	for _, word := range words {
		if _, err := i.GetOrIntern(word); err != nil {
			b.Fatal(err)
		}
	}

	b.ResetTimer()

	for range b.N {
		if err := i.Hibernate(); err != nil {
			b.Fatal(err)
		}

		if err := i.Boot(); err != nil {
			b.Fatal(err)
		}
	}
}

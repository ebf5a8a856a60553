package backend

import (
	"fmt"
	"testing"

	"github.com/Sumatoshi-tech/symtab/pkg/symbol"
)

// Benchmark constants.
const (
	benchWordCount = 10000
	benchWordPool  = 512
)

// benchWords returns a deterministic mixed-length corpus.
func benchWords() []string {
	words := make([]string, benchWordCount)
	for i := range words {
		words[i] = fmt.Sprintf("identifier_%d_suffix", i%benchWordPool)
	}

	return words
}

// BenchmarkPush_Simple benchmarks owned-copy pushes.
func BenchmarkPush_Simple(b *testing.B) {
	benchmarkPush(b, func() Backend { return NewSimple(benchWordCount) })
}

// BenchmarkPush_Bucket benchmarks arena-chunk pushes.
func BenchmarkPush_Bucket(b *testing.B) {
	benchmarkPush(b, func() Backend { return NewBucket(benchWordCount) })
}

// BenchmarkPush_Buffer benchmarks flat-buffer pushes.
func BenchmarkPush_Buffer(b *testing.B) {
	benchmarkPush(b, func() Backend { return NewBuffer(benchWordCount) })
}

func benchmarkPush(b *testing.B, newBackend func() Backend) {
	words := benchWords()

	b.ResetTimer()

	for range b.N {
		backend := newBackend()

		for _, w := range words {
			if _, err := backend.Push(w); err != nil {
				b.Fatal(err)
			}
		}
	}
}

// BenchmarkResolve_Simple benchmarks owned-copy resolution.
func BenchmarkResolve_Simple(b *testing.B) {
	benchmarkResolve(b, NewSimple(benchWordCount))
}

// BenchmarkResolve_Bucket benchmarks arena-chunk resolution.
func BenchmarkResolve_Bucket(b *testing.B) {
	benchmarkResolve(b, NewBucket(benchWordCount))
}

// BenchmarkResolve_Buffer benchmarks flat-buffer resolution.
func BenchmarkResolve_Buffer(b *testing.B) {
	benchmarkResolve(b, NewBuffer(benchWordCount))
}

func benchmarkResolve(b *testing.B, backend Backend) {
	words := benchWords()

	syms := make([]symbol.Symbol, len(words))
	for i, w := range words {
		sym, err := backend.Push(w)
		if err != nil {
			b.Fatal(err)
		}

		syms[i] = sym
	}

	b.ResetTimer()

	for range b.N {
		for _, sym := range syms {
			if _, ok := backend.Resolve(sym); !ok {
				b.Fatal("missing symbol")
			}
		}
	}
}

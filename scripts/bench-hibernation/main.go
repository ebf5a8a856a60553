// bench-hibernation measures heap memory before and after Hibernate() calls
// during a chunked interning run over a token corpus.
//
// Usage:
//
//	go run ./scripts/bench-hibernation --input /usr/share/dict/words --chunk-size 200000 \
//	  --profile-dir docs/profiles/hibernation
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/Sumatoshi-tech/symtab/pkg/backend"
	"github.com/Sumatoshi-tech/symtab/pkg/intern"
	"github.com/Sumatoshi-tech/symtab/pkg/symbol"
	"github.com/Sumatoshi-tech/symtab/pkg/textutil"
)

func main() {
	inputPath := flag.String("input", "", "Path to a token corpus (omit to synthesize one)")
	synthetic := flag.Int("synthetic", 2_000_000, "Synthetic corpus size in tokens when --input is omitted")
	vocabulary := flag.Int("vocabulary", 200_000, "Distinct tokens in the synthetic corpus")
	chunkSize := flag.Int("chunk-size", 500_000, "Tokens per chunk")
	backendName := flag.String("backend", "bucket", "Storage backend to benchmark (bucket is the only hibernatable one)")
	tokenMode := flag.String("tokens", "words", "Token mode for --input (words, lines, idents)")
	profileDir := flag.String("profile-dir", "", "Directory to write heap profiles")
	cpuProfile := flag.Bool("cpu-profile", false, "Write CPU profile to profile-dir/cpu.prof")

	flag.Parse()

	if *profileDir == "" {
		log.Fatal("--profile-dir is required")
	}

	if err := os.MkdirAll(*profileDir, 0o755); err != nil {
		log.Fatalf("mkdir profile-dir: %v", err)
	}

	if *cpuProfile {
		cpuPath := filepath.Join(*profileDir, "cpu.prof")

		cpuFile, cpuErr := os.Create(cpuPath)
		if cpuErr != nil {
			log.Fatalf("create cpu profile: %v", cpuErr)
		}
		defer cpuFile.Close()

		if startErr := pprof.StartCPUProfile(cpuFile); startErr != nil {
			log.Fatalf("start cpu profile: %v", startErr)
		}

		defer pprof.StopCPUProfile()

		log.Printf("CPU profiling enabled -> %s", cpuPath)
	}

	tokens := loadTokens(*inputPath, *tokenMode, *synthetic, *vocabulary)
	log.Printf("loaded %d tokens", len(tokens))

	interner := buildInterner(*backendName)

	chunks := planChunks(len(tokens), *chunkSize)
	log.Printf("interning %d tokens in %d chunks (chunk size %d)", len(tokens), len(chunks), *chunkSize)

	// Process chunks with heap measurements at boundaries.
	type heapSnapshot struct {
		label     string
		heapInUse uint64
		heapSys   uint64
		heapIdle  uint64
		numGC     uint32
	}

	var snapshots []heapSnapshot

	takeSnapshot := func(label string) {
		runtime.GC()
		runtime.GC()

		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		snapshots = append(snapshots, heapSnapshot{
			label:     label,
			heapInUse: m.HeapInuse,
			heapSys:   m.HeapSys,
			heapIdle:  m.HeapIdle,
			numGC:     m.NumGC,
		})
		log.Printf("  [heap] %-40s inuse=%6.1f MB  sys=%6.1f MB  idle=%6.1f MB",
			label, float64(m.HeapInuse)/1e6, float64(m.HeapSys)/1e6, float64(m.HeapIdle)/1e6)
	}

	writeHeapProfile := func(name string) {
		runtime.GC()
		runtime.GC()

		path := filepath.Join(*profileDir, name)

		f, ferr := os.Create(path)
		if ferr != nil {
			log.Printf("warning: create heap profile %s: %v", path, ferr)

			return
		}
		defer f.Close()

		if perr := pprof.WriteHeapProfile(f); perr != nil {
			log.Printf("warning: write heap profile %s: %v", path, perr)
		}
	}

	// Reference stability check: the first interned string must survive every
	// hibernate/boot cycle untouched.
	var (
		pinnedSym  symbol.Symbol
		pinnedText string
	)

	takeSnapshot("before_processing")
	writeHeapProfile("heap_before_processing.prof")

	for i, chunk := range chunks {
		if i > 0 {
			takeSnapshot(fmt.Sprintf("chunk_%d_end_before_hibernate", i))
			writeHeapProfile(fmt.Sprintf("heap_chunk_%d_before_hibernate.prof", i))

			if herr := interner.Hibernate(); herr != nil {
				log.Fatalf("hibernate: %v", herr)
			}

			takeSnapshot(fmt.Sprintf("chunk_%d_end_after_hibernate", i))
			writeHeapProfile(fmt.Sprintf("heap_chunk_%d_after_hibernate.prof", i))

			if berr := interner.Boot(); berr != nil {
				log.Fatalf("boot: %v", berr)
			}

			takeSnapshot(fmt.Sprintf("chunk_%d_end_after_boot", i))
		}

		log.Printf("interning chunk %d/%d (tokens %d-%d)", i+1, len(chunks), chunk.start, chunk.end)

		for _, token := range tokens[chunk.start:chunk.end] {
			sym, err := interner.GetOrIntern(token)
			if err != nil {
				log.Fatalf("intern chunk %d: %v", i+1, err)
			}

			if pinnedText == "" {
				pinnedSym, pinnedText = sym, token
			}
		}
	}

	// Final snapshot after last chunk.
	takeSnapshot("after_all_chunks")
	writeHeapProfile("heap_after_all_chunks.prof")

	if got, ok := interner.Resolve(pinnedSym); !ok || got != pinnedText {
		log.Fatalf("reference stability violated: symbol %d resolves to %q, expected %q",
			pinnedSym, got, pinnedText)
	}

	st := interner.Stats()
	log.Printf("interned %d tokens into %d strings (%d hits, %d misses, %d payload bytes)",
		st.Total(), st.Strings, st.Hits, st.Misses, st.Bytes)

	// Print summary table.
	fmt.Println()
	fmt.Println("=== Heap Memory Timeline ===")
	fmt.Printf("%-45s %10s %10s %10s\n", "Phase", "InUse(MB)", "Sys(MB)", "Idle(MB)")
	fmt.Println("---------------------------------------------+----------+----------+----------")

	for _, s := range snapshots {
		fmt.Printf("%-45s %10.1f %10.1f %10.1f\n",
			s.label, float64(s.heapInUse)/1e6, float64(s.heapSys)/1e6, float64(s.heapIdle)/1e6)
	}

	// Compute hibernation deltas.
	fmt.Println()
	fmt.Println("=== Hibernation Memory Deltas ===")

	for i := 0; i+1 < len(snapshots); i++ {
		curr := snapshots[i]

		next := snapshots[i+1]
		if strings.Contains(curr.label, "before_hibernate") && strings.Contains(next.label, "after_hibernate") {
			delta := float64(curr.heapInUse) - float64(next.heapInUse)
			pct := (delta / float64(curr.heapInUse)) * 100
			fmt.Printf("  %s -> %s: %.1f MB freed (%.1f%%)\n",
				curr.label, next.label, delta/1e6, pct)
		}
	}
}

func buildInterner(backendName string) *intern.Interner {
	kind, err := backend.ParseKind(backendName)
	if err != nil {
		log.Fatalf("parse backend: %v", err)
	}

	b, err := backend.New(kind, 0)
	if err != nil {
		log.Fatalf("new backend: %v", err)
	}

	return intern.New(intern.WithBackend(b))
}

type chunkBounds struct {
	start int
	end   int
}

func planChunks(total, chunkSize int) []chunkBounds {
	var chunks []chunkBounds

	for start := 0; start < total; start += chunkSize {
		end := min(start+chunkSize, total)
		chunks = append(chunks, chunkBounds{start: start, end: end})
	}

	return chunks
}

// loadTokens reads the corpus from path, or synthesizes one when path is
// empty. The synthetic corpus cycles through a fixed vocabulary so dedup
// behavior resembles a real token stream.
func loadTokens(path, mode string, synthetic, vocabulary int) []string {
	if path == "" {
		return synthesizeTokens(synthetic, vocabulary)
	}

	tokenMode, err := textutil.ParseMode(mode)
	if err != nil {
		log.Fatalf("parse token mode: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("open input: %v", err)
	}
	defer f.Close()

	var tokens []string

	scanner := textutil.NewScanner(f, tokenMode)
	for scanner.Scan() {
		tokens = append(tokens, scanner.Text())
	}

	if serr := scanner.Err(); serr != nil {
		log.Fatalf("scan input: %v", serr)
	}

	return tokens
}

func synthesizeTokens(total, vocabulary int) []string {
	if vocabulary < 1 {
		vocabulary = 1
	}

	vocab := make([]string, vocabulary)
	for i := range vocab {
		vocab[i] = fmt.Sprintf("token_%07d", i)
	}

	tokens := make([]string, total)
	for i := range tokens {
		tokens[i] = vocab[i%vocabulary]
	}

	return tokens
}

package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Sumatoshi-tech/symtab/internal/report"
	"github.com/Sumatoshi-tech/symtab/pkg/backend"
	"github.com/Sumatoshi-tech/symtab/pkg/config"
	"github.com/Sumatoshi-tech/symtab/pkg/intern"
	"github.com/Sumatoshi-tech/symtab/pkg/symbol"
	"github.com/Sumatoshi-tech/symtab/pkg/textutil"
)

// stdinName labels the synthetic input used when no paths are given.
const stdinName = "stdin"

// corpusOptions carries the resolved interning settings for one run.
type corpusOptions struct {
	backend       string
	capacity      int
	chunkSize     string
	tokens        string
	collectCounts bool
}

// corpusResult accumulates the outcome of tokenizing and interning a corpus.
type corpusResult struct {
	interner *intern.Interner
	mode     textutil.Mode
	collect  bool

	counts        []int64
	inputs        []report.InputStat
	tokens        int64
	bytesSeen     int64
	skippedBinary int
	duration      time.Duration
}

// internCorpus tokenizes every input and interns each token. With no paths
// the corpus is read from stdin.
func internCorpus(ctx context.Context, paths []string, stdin io.Reader, opts corpusOptions) (*corpusResult, error) {
	mode, err := textutil.ParseMode(opts.tokens)
	if err != nil {
		return nil, err
	}

	interner, err := buildInterner(opts)
	if err != nil {
		return nil, err
	}

	res := &corpusResult{
		interner: interner,
		mode:     mode,
		collect:  opts.collectCounts,
	}

	startedAt := time.Now()

	if len(paths) == 0 {
		err = res.consume(ctx, stdinName, stdin)
		if err != nil {
			return nil, err
		}
	}

	for _, path := range paths {
		err = res.consumeFile(ctx, path)
		if err != nil {
			return nil, err
		}
	}

	res.duration = time.Since(startedAt)

	return res, nil
}

// buildInterner constructs an interner for the named backend. The bucket
// backend additionally honors the humanized chunk size.
func buildInterner(opts corpusOptions) (*intern.Interner, error) {
	kind, err := backend.ParseKind(opts.backend)
	if err != nil {
		return nil, err
	}

	capacity := max(opts.capacity, 0)

	if kind != backend.KindBucket {
		b, newErr := backend.New(kind, capacity)
		if newErr != nil {
			return nil, newErr
		}

		return intern.New(intern.WithBackend(b), intern.WithCapacity(capacity)), nil
	}

	chunkSize, err := config.InternConfig{ChunkSize: opts.chunkSize}.ChunkSizeBytes()
	if err != nil {
		return nil, err
	}

	bucket := backend.NewBucket(capacity, backend.WithChunkSize(chunkSize))

	return intern.New(intern.WithBackend(bucket), intern.WithCapacity(capacity)), nil
}

func (cr *corpusResult) consumeFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input %s: %w", path, err)
	}
	defer f.Close()

	return cr.consume(ctx, path, f)
}

// consume tokenizes one input and interns its tokens. Inputs that sniff as
// binary are recorded as skipped and contribute nothing.
func (cr *corpusResult) consume(ctx context.Context, name string, r io.Reader) error {
	err := ctx.Err()
	if err != nil {
		return err
	}

	br := bufio.NewReaderSize(r, textutil.BinarySniffLength)

	sniff, err := br.Peek(textutil.BinarySniffLength)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read input %s: %w", name, err)
	}

	if textutil.IsBinary(sniff) {
		cr.skippedBinary++
		cr.inputs = append(cr.inputs, report.InputStat{Name: name, Skipped: true})

		return nil
	}

	stat := report.InputStat{Name: name}

	scanner := textutil.NewScanner(br, cr.mode)
	for scanner.Scan() {
		token := scanner.Text()

		sym, internErr := cr.interner.GetOrIntern(token)
		if internErr != nil {
			return fmt.Errorf("intern token from %s: %w", name, internErr)
		}

		stat.Tokens++
		stat.Bytes += int64(len(token))

		if cr.collect {
			cr.tally(sym)
		}
	}

	scanErr := scanner.Err()
	if scanErr != nil {
		return fmt.Errorf("scan input %s: %w", name, scanErr)
	}

	cr.tokens += stat.Tokens
	cr.bytesSeen += stat.Bytes
	cr.inputs = append(cr.inputs, stat)

	return nil
}

// tally counts one occurrence of sym. Symbols are dense, so the counts slice
// grows at most to the number of unique strings.
func (cr *corpusResult) tally(sym symbol.Symbol) {
	idx := sym.Index()
	for len(cr.counts) <= idx {
		cr.counts = append(cr.counts, 0)
	}

	cr.counts[idx]++
}

package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/symtab/internal/report"
	"github.com/Sumatoshi-tech/symtab/pkg/config"
	"github.com/Sumatoshi-tech/symtab/pkg/intern"
	"github.com/Sumatoshi-tech/symtab/pkg/observability"
	"github.com/Sumatoshi-tech/symtab/pkg/symbol"
)

// dumpFormatText prints one stored string per line, in symbol order.
const dumpFormatText = "text"

// ErrVerifyFailed indicates a snapshot rebuild diverged from the original
// interner.
var ErrVerifyFailed = errors.New("snapshot verification failed")

// DumpRunOptions holds all dump runtime options.
type DumpRunOptions struct {
	Backend   string
	Capacity  int
	ChunkSize string
	Tokens    string
	Verify    bool
}

type dumpExecutor func(
	ctx context.Context,
	paths []string,
	stdin io.Reader,
	opts DumpRunOptions,
) ([]string, error)

// DumpCommand holds configuration and dependencies for the dump command.
type DumpCommand struct {
	backendName string
	capacity    int
	chunkSize   string
	tokens      string
	format      string
	verify      bool
	silent      bool

	exec    dumpExecutor
	obsInit observabilityInitFunc
	loadCfg configLoader
}

// NewDumpCommand creates the dump command.
func NewDumpCommand() *cobra.Command {
	return newDumpCommandWithDeps(runDumpCorpus, observability.Init, config.LoadConfig)
}

func newDumpCommandWithDeps(
	exec dumpExecutor,
	obsInit observabilityInitFunc,
	loadCfg configLoader,
) *cobra.Command {
	dc := &DumpCommand{
		exec:    exec,
		obsInit: obsInit,
		loadCfg: loadCfg,
	}

	cmd := &cobra.Command{
		Use:   "dump [path]",
		Short: "Intern a corpus and print the stored strings",
		Long: "Tokenize the given file (or stdin), intern every token, and print the\n" +
			"deduplicated strings in symbol order.",
		Args: cobra.MaximumNArgs(1),
		RunE: dc.run,
	}

	cmd.Flags().StringVarP(&dc.backendName, "backend", "b", config.DefaultBackend,
		"Storage backend: simple, bucket, buffer")
	cmd.Flags().IntVar(&dc.capacity, "capacity", config.DefaultCapacity,
		"Pre-reserved string capacity (0 = none)")
	cmd.Flags().StringVar(&dc.chunkSize, "chunk-size", config.DefaultChunkSize,
		"Bucket chunk size (e.g. '64KiB', '1MB')")
	cmd.Flags().StringVarP(&dc.tokens, "tokens", "t", config.DefaultTokens,
		"Token mode: words, lines, idents")
	cmd.Flags().StringVar(&dc.format, "format", dumpFormatText,
		"Output format: text, json, yaml")
	cmd.Flags().BoolVar(&dc.verify, "verify", false,
		"Rebuild the snapshot and check identical resolution before printing")
	cmd.Flags().BoolVar(&dc.silent, "silent", false, "Disable progress output")

	return cmd
}

func (dc *DumpCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := dc.loadCfg(configPath(cmd))
	if err != nil {
		return err
	}

	dc.applyConfig(cmd, cfg)

	format, err := validateDumpFormat(dc.format)
	if err != nil {
		return err
	}

	providers, err := dc.obsInit(buildObservabilityConfig(cfg))
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer shutdownProviders(providers)

	ctx, span := startSpan(cmd.Context(), providers.Tracer, "symtab.dump")
	startedAt := time.Now()

	runErr := dc.execute(ctx, cmd, args, providers, format)

	span.SetAttributes(
		attribute.Bool("error", runErr != nil),
		attribute.String("symtab.duration_class", durationClass(time.Since(startedAt))),
	)
	span.End()

	return runErr
}

func (dc *DumpCommand) applyConfig(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if !flags.Changed("backend") {
		dc.backendName = cfg.Intern.Backend
	}

	if !flags.Changed("capacity") {
		dc.capacity = cfg.Intern.Capacity
	}

	if !flags.Changed("chunk-size") {
		dc.chunkSize = cfg.Intern.ChunkSize
	}

	if !flags.Changed("tokens") {
		dc.tokens = cfg.Intern.Tokens
	}
}

func (dc *DumpCommand) execute(
	ctx context.Context,
	cmd *cobra.Command,
	args []string,
	providers observability.Providers,
	format string,
) error {
	silent := isSilent(cmd, dc.silent)
	progress := cmd.ErrOrStderr()

	progressf(silent, progress, "starting dump backend=%s tokens=%s verify=%t",
		dc.backendName, dc.tokens, dc.verify)

	opts := DumpRunOptions{
		Backend:   dc.backendName,
		Capacity:  dc.capacity,
		ChunkSize: dc.chunkSize,
		Tokens:    dc.tokens,
		Verify:    dc.verify,
	}

	snapshot, err := dc.exec(ctx, args, cmd.InOrStdin(), opts)
	if err != nil {
		return err
	}

	err = writeDump(cmd.OutOrStdout(), snapshot, format)
	if err != nil {
		return err
	}

	if providers.Logger != nil {
		providers.Logger.InfoContext(ctx, "dump completed",
			slog.String("backend", dc.backendName),
			slog.Int("strings", len(snapshot)),
		)
	}

	progressf(silent, progress, "dump completed: %d strings", len(snapshot))

	return nil
}

// runDumpCorpus is the production dump executor.
func runDumpCorpus(
	ctx context.Context,
	paths []string,
	stdin io.Reader,
	opts DumpRunOptions,
) ([]string, error) {
	res, err := internCorpus(ctx, paths, stdin, corpusOptions{
		backend:   opts.Backend,
		capacity:  opts.Capacity,
		chunkSize: opts.ChunkSize,
		tokens:    opts.Tokens,
	})
	if err != nil {
		return nil, err
	}

	snapshot := res.interner.Snapshot()

	if opts.Verify {
		err = verifySnapshot(snapshot, res.interner)
		if err != nil {
			return nil, err
		}
	}

	return snapshot, nil
}

// verifySnapshot rebuilds an interner from the snapshot and checks that every
// symbol resolves to the same text as in the original.
func verifySnapshot(snapshot []string, original *intern.Interner) error {
	rebuilt, err := intern.FromStrings(snapshot)
	if err != nil {
		return fmt.Errorf("rebuild snapshot: %w", err)
	}

	if rebuilt.Len() != original.Len() {
		return fmt.Errorf("%w: rebuilt %d strings, expected %d",
			ErrVerifyFailed, rebuilt.Len(), original.Len())
	}

	for idx, text := range snapshot {
		sym := symbol.MustFromIndex(idx)

		got, ok := rebuilt.Resolve(sym)
		if !ok || got != text {
			return fmt.Errorf("%w: symbol %d resolves to %q, expected %q",
				ErrVerifyFailed, sym, got, text)
		}
	}

	return nil
}

func validateDumpFormat(format string) (string, error) {
	normalized := report.NormalizeFormat(format)
	switch normalized {
	case dumpFormatText, report.FormatJSON, report.FormatYAML:
		return normalized, nil
	default:
		return "", fmt.Errorf("%w: %s", report.ErrUnsupportedFormat, format)
	}
}

func writeDump(w io.Writer, snapshot []string, format string) error {
	switch format {
	case report.FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")

		err := encoder.Encode(snapshot)
		if err != nil {
			return fmt.Errorf("encode dump json: %w", err)
		}

		return nil
	case report.FormatYAML:
		data, err := yaml.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("encode dump yaml: %w", err)
		}

		_, err = w.Write(data)
		if err != nil {
			return fmt.Errorf("write dump yaml: %w", err)
		}

		return nil
	default:
		for _, text := range snapshot {
			_, err := fmt.Fprintln(w, text)
			if err != nil {
				return fmt.Errorf("write dump: %w", err)
			}
		}

		return nil
	}
}

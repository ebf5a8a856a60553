package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Sumatoshi-tech/symtab/internal/plot"
	"github.com/Sumatoshi-tech/symtab/internal/report"
	"github.com/Sumatoshi-tech/symtab/pkg/config"
	"github.com/Sumatoshi-tech/symtab/pkg/observability"
)

// StatsRunOptions holds all stats runtime options.
type StatsRunOptions struct {
	Backend   string
	Capacity  int
	ChunkSize string
	Tokens    string
	Top       int
}

type statsExecutor func(
	ctx context.Context,
	paths []string,
	stdin io.Reader,
	opts StatsRunOptions,
) (*report.Report, error)

type configLoader func(path string) (*config.Config, error)

// StatsCommand holds configuration and dependencies for the stats command.
type StatsCommand struct {
	backendName string
	capacity    int
	chunkSize   string
	tokens      string
	top         int
	format      string
	plotPath    string
	noColor     bool
	silent      bool
	debugTrace  bool

	exec    statsExecutor
	obsInit observabilityInitFunc
	loadCfg configLoader
}

// NewStatsCommand creates the stats command.
func NewStatsCommand() *cobra.Command {
	return newStatsCommandWithDeps(runStatsCorpus, observability.Init, config.LoadConfig)
}

func newStatsCommandWithDeps(
	exec statsExecutor,
	obsInit observabilityInitFunc,
	loadCfg configLoader,
) *cobra.Command {
	sc := &StatsCommand{
		exec:    exec,
		obsInit: obsInit,
		loadCfg: loadCfg,
	}

	cmd := &cobra.Command{
		Use:   "stats [path ...]",
		Short: "Intern a corpus and report dedup statistics",
		Long: "Tokenize the given files (or stdin), intern every token, and report\n" +
			"token counts, unique strings, dedup ratio, and storage footprint.",
		Args: cobra.ArbitraryArgs,
		RunE: sc.run,
	}

	cmd.Flags().StringVarP(&sc.backendName, "backend", "b", config.DefaultBackend,
		"Storage backend: simple, bucket, buffer")
	cmd.Flags().IntVar(&sc.capacity, "capacity", config.DefaultCapacity,
		"Pre-reserved string capacity (0 = none)")
	cmd.Flags().StringVar(&sc.chunkSize, "chunk-size", config.DefaultChunkSize,
		"Bucket chunk size (e.g. '64KiB', '1MB')")
	cmd.Flags().StringVarP(&sc.tokens, "tokens", "t", config.DefaultTokens,
		"Token mode: words, lines, idents")
	cmd.Flags().IntVar(&sc.top, "top", config.DefaultTop,
		"Number of most frequent tokens to list (0 = disabled)")
	cmd.Flags().StringVar(&sc.format, "format", config.DefaultFormat,
		"Output format: table, json, yaml")
	cmd.Flags().StringVar(&sc.plotPath, "plot", "",
		"Write an HTML bar chart of the top tokens to this file")
	cmd.Flags().BoolVar(&sc.noColor, "no-color", false, "Disable colored output")
	cmd.Flags().BoolVar(&sc.silent, "silent", false, "Disable progress output")
	cmd.Flags().BoolVar(&sc.debugTrace, "debug-trace", false, "Force 100% trace sampling")

	return cmd
}

func (sc *StatsCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := sc.loadCfg(configPath(cmd))
	if err != nil {
		return err
	}

	sc.applyConfig(cmd, cfg)

	format, err := report.ValidateFormat(sc.format)
	if err != nil {
		return err
	}

	obsCfg := buildObservabilityConfig(cfg)
	if sc.debugTrace {
		obsCfg.DebugTrace = true
	}

	providers, err := sc.obsInit(obsCfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer shutdownProviders(providers)

	ctx, span := startSpan(cmd.Context(), providers.Tracer, "symtab.stats")
	startedAt := time.Now()

	runErr := sc.execute(ctx, cmd, args, providers, format)

	span.SetAttributes(
		attribute.Bool("error", runErr != nil),
		attribute.String("symtab.duration_class", durationClass(time.Since(startedAt))),
	)
	span.End()

	return runErr
}

// applyConfig fills every field whose flag the user did not set from the
// loaded configuration, so flags override env overrides file.
func (sc *StatsCommand) applyConfig(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if !flags.Changed("backend") {
		sc.backendName = cfg.Intern.Backend
	}

	if !flags.Changed("capacity") {
		sc.capacity = cfg.Intern.Capacity
	}

	if !flags.Changed("chunk-size") {
		sc.chunkSize = cfg.Intern.ChunkSize
	}

	if !flags.Changed("tokens") {
		sc.tokens = cfg.Intern.Tokens
	}

	if !flags.Changed("top") {
		sc.top = cfg.Report.Top
	}

	if !flags.Changed("format") {
		sc.format = cfg.Report.Format
	}

	if !flags.Changed("no-color") {
		sc.noColor = !cfg.Report.Color
	}
}

func (sc *StatsCommand) execute(
	ctx context.Context,
	cmd *cobra.Command,
	args []string,
	providers observability.Providers,
	format string,
) error {
	silent := isSilent(cmd, sc.silent)
	progress := cmd.ErrOrStderr()

	progressf(silent, progress, "starting stats backend=%s tokens=%s inputs=%d",
		sc.backendName, sc.tokens, len(args))

	opts := StatsRunOptions{
		Backend:   sc.backendName,
		Capacity:  sc.capacity,
		ChunkSize: sc.chunkSize,
		Tokens:    sc.tokens,
		Top:       sc.top,
	}

	rep, err := sc.exec(ctx, args, cmd.InOrStdin(), opts)
	if err != nil {
		return err
	}

	if sc.noColor {
		color.NoColor = true
	}

	err = report.Render(cmd.OutOrStdout(), rep, format)
	if err != nil {
		return err
	}

	if sc.plotPath != "" {
		err = writePlotFile(sc.plotPath, rep)
		if err != nil {
			return err
		}

		progressf(silent, progress, "plot written to %s", sc.plotPath)
	}

	err = recordRunMetrics(ctx, providers.Meter, rep)
	if err != nil {
		return err
	}

	if providers.Logger != nil {
		providers.Logger.InfoContext(ctx, "stats completed",
			slog.String("backend", rep.Backend),
			slog.Int64("tokens", rep.Tokens),
			slog.Int("unique", rep.UniqueStrings),
			slog.Duration("duration", rep.Duration),
		)
	}

	progressf(silent, progress, "stats completed in %s", rep.Duration.Round(time.Millisecond))

	return nil
}

// runStatsCorpus is the production stats executor.
func runStatsCorpus(
	ctx context.Context,
	paths []string,
	stdin io.Reader,
	opts StatsRunOptions,
) (*report.Report, error) {
	res, err := internCorpus(ctx, paths, stdin, corpusOptions{
		backend:       opts.Backend,
		capacity:      opts.Capacity,
		chunkSize:     opts.ChunkSize,
		tokens:        opts.Tokens,
		collectCounts: opts.Top > 0,
	})
	if err != nil {
		return nil, err
	}

	rep := &report.Report{
		TokenMode:     string(res.mode),
		Tokens:        res.tokens,
		BytesSeen:     res.bytesSeen,
		SkippedBinary: res.skippedBinary,
		Duration:      res.duration,
		Inputs:        res.inputs,
	}
	rep.SetStats(res.interner.Stats())
	rep.Top = report.TopTokens(res.counts, res.interner, opts.Top)

	return rep, nil
}

func writePlotFile(path string, rep *report.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create plot file %s: %w", path, err)
	}

	defer func() {
		err = errors.Join(err, f.Close())
	}()

	return plot.GeneratePlot(rep, f)
}

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/mediaresolve/cli/config"
	"github.com/pithecene-io/mediaresolve/cli/render"
	"github.com/pithecene-io/mediaresolve/handle"
	"github.com/pithecene-io/mediaresolve/iox"
	"github.com/pithecene-io/mediaresolve/lode"
	"github.com/pithecene-io/mediaresolve/log"
	"github.com/pithecene-io/mediaresolve/metrics"
	"github.com/pithecene-io/mediaresolve/runtime"
	"github.com/pithecene-io/mediaresolve/stage"
	"github.com/pithecene-io/mediaresolve/types"
)

// Exit codes for resolve.
const (
	exitResolved     = 0 // every handle resolved
	exitItemFailures = 1 // at least one handle failed
	exitSetupFailure = 2 // config, scratch dir, store or adapter could not be set up
	exitInvalidInput = 3 // no handles, bad handle or flag value, selection limit exceeded
)

// ResolveCommand returns the resolve command.
func ResolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve media handles into staged videos and decoded images",
		ArgsUsage: "<handle>...",
		Description: "Each handle is a local path, a file:// or http(s):// URL, or store://<key>\n" +
			"against the configured source store. Handles resolve concurrently; results\n" +
			"are reported in input order.",
		Flags: append([]cli.Flag{
			ConfigFlag,
			ScratchDirFlag,
			&cli.StringFlag{
				Name:  "filter",
				Usage: "Capabilities to honour: any, images, videos",
			},
			&cli.IntFlag{
				Name:  "selection-limit",
				Usage: "Reject batches with more handles than this (0 = unlimited)",
			},
			&cli.IntFlag{
				Name:  "parallel",
				Usage: "Max concurrent resolutions (0 = one per handle)",
			},
			&cli.DurationFlag{
				Name:  "http-timeout",
				Usage: "Timeout for downloading http(s) handles",
			},
			&cli.StringFlag{
				Name:  "label",
				Usage: "Optional tag attached to logs, reports and notifications",
			},
			// Source store flags
			&cli.StringFlag{
				Name:  "source-backend",
				Usage: "Store backing store:// handles: fs or s3",
			},
			&cli.StringFlag{
				Name:  "source-path",
				Usage: "Source store path (fs: directory, s3: bucket/prefix)",
			},
			&cli.StringFlag{
				Name:  "source-region",
				Usage: "AWS region for an s3 source store",
			},
			&cli.StringFlag{
				Name:  "source-endpoint",
				Usage: "Custom S3-compatible endpoint for the source store",
			},
			&cli.BoolFlag{
				Name:  "source-s3-path-style",
				Usage: "Use path-style addressing for the source store",
			},
			// Adapter flags
			&cli.StringFlag{
				Name:  "adapter",
				Usage: "Completion notification: webhook or redis",
			},
			&cli.StringFlag{
				Name:  "adapter-url",
				Usage: "Webhook endpoint or redis:// URL",
			},
			&cli.StringFlag{
				Name:  "adapter-channel",
				Usage: "Redis pub/sub channel",
			},
			&cli.StringSliceFlag{
				Name:  "adapter-header",
				Usage: "Webhook header as Key=Value (repeatable)",
			},
			&cli.DurationFlag{
				Name:  "adapter-timeout",
				Usage: "Per-attempt notification timeout",
			},
			&cli.IntFlag{
				Name:  "adapter-retries",
				Usage: "Notification retry attempts",
			},
			// Output flags
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "Include batch metrics in the output",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Suppress result output (exit code only)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log per-item details to stderr",
			},
		}, append(reportStoreFlags(), OutputFlags()...)...),
		Action: resolveAction,
	}
}

func resolveAction(c *cli.Context) error {
	cfg, err := config.LoadOptional(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), exitSetupFailure)
	}
	opts, err := parseResolveOptions(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), exitInvalidInput)
	}
	if c.NArg() == 0 {
		return cli.Exit("no handles given", exitInvalidInput)
	}

	// Validate output format before doing any work.
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitInvalidInput)
	}

	level := log.WarnLevel
	if c.Bool("verbose") {
		level = log.DebugLevel
	}
	logger := log.NewLogger(nil).WithLevel(c.App.ErrWriter, level)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	stager, err := stage.New(opts.scratchDir)
	if err != nil {
		return cli.Exit(fmt.Sprintf("scratch directory: %v", err), exitSetupFailure)
	}

	sources := handle.Sources{
		HTTPClient: &http.Client{Timeout: opts.httpTimeout},
		Limits: handle.Limits{
			Image: opts.policy.MaxImageBytes,
			Video: opts.policy.MaxVideoBytes,
		},
	}
	sourceBackend := ""
	if opts.source != nil {
		store, err := lode.OpenStore(ctx, *opts.source)
		if err != nil {
			return cli.Exit(fmt.Sprintf("source store: %v", err), exitSetupFailure)
		}
		sources.Store = store
		sourceBackend = string(opts.source.Backend)
	}

	handles, err := handle.ParseAll(c.Args().Slice(), sources)
	if err != nil {
		return cli.Exit(err.Error(), exitInvalidInput)
	}

	notifier, err := newAdapter(opts.adapter)
	if err != nil {
		return cli.Exit(fmt.Sprintf("adapter: %v", err), exitSetupFailure)
	}
	if notifier != nil {
		defer iox.DiscardClose(notifier)
	}

	collector := metrics.NewCollector(string(opts.filter), sourceBackend, "")
	resolver, err := runtime.NewResolver(runtime.ResolverConfig{
		Stager:    stager,
		Policy:    opts.policy,
		Filter:    opts.filter,
		Logger:    logger,
		Collector: collector,
	})
	if err != nil {
		return cli.Exit(err.Error(), exitSetupFailure)
	}
	batch := runtime.NewBatch(resolver, runtime.BatchConfig{
		Parallel:       opts.parallel,
		SelectionLimit: opts.selectionLimit,
		Label:          opts.label,
		Logger:         logger,
		Collector:      collector,
	})

	outcome, err := batch.ResolveAll(ctx, handles)
	if errors.Is(err, runtime.ErrSelectionLimit) {
		return cli.Exit(err.Error(), exitInvalidInput)
	}
	if err != nil {
		return fmt.Errorf("resolve failed: %w", err)
	}

	reportPath := ""
	if opts.report != nil {
		reportPath = writeReport(ctx, *opts.report, opts.reportFormat, outcome, logger, collector)
	}
	if notifier != nil {
		notify(ctx, notifier, outcome, opts.label, reportPath, logger, collector)
	}

	if !c.Bool("quiet") {
		view := render.OutcomeView{
			ReportPath: reportPath,
			Report:     types.NewBatchReport(outcome),
		}
		if opts.label != nil {
			view.Label = *opts.label
		}
		if c.Bool("metrics") {
			snap := collector.Snapshot()
			view.Metrics = &snap
		}
		if err := r.RenderOutcome(view); err != nil {
			return fmt.Errorf("render: %w", err)
		}
	}

	return cli.Exit("", outcomeExitCode(outcome))
}

// writeReport persists the outcome report. Failures are logged and counted;
// they never change the exit code. Returns the report key or "".
func writeReport(ctx context.Context, sc lode.StoreConfig, format lode.ReportFormat, outcome *types.BatchOutcome, logger *log.Logger, collector *metrics.Collector) string {
	store, err := lode.OpenStore(ctx, sc)
	if err == nil {
		var path string
		path, err = lode.NewReportWriter(store, format).WriteReport(ctx, outcome)
		if err == nil {
			collector.IncReportWrite(true)
			logger.Debug("report written", map[string]any{"path": path})
			return path
		}
	}
	collector.IncReportWrite(false)
	logger.Warn("report write failed", map[string]any{
		"backend": string(sc.Backend),
		"error":   err.Error(),
	})
	return ""
}

// outcomeExitCode maps a batch outcome to the process exit code.
func outcomeExitCode(o *types.BatchOutcome) int {
	if o.Succeeded() {
		return exitResolved
	}
	return exitItemFailures
}

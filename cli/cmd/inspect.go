package cmd

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/mediaresolve/cli/config"
	"github.com/pithecene-io/mediaresolve/cli/render"
	"github.com/pithecene-io/mediaresolve/lode"
)

// InspectCommand returns the inspect command.
// Inspect reads back what resolve persisted; it never resolves handles.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect persisted batch data",
		Subcommands: []*cli.Command{
			inspectReportCommand(),
		},
	}
}

func inspectReportCommand() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "Show a stored outcome report by key",
		ArgsUsage: "<report-key>",
		Flags:     append([]cli.Flag{ConfigFlag}, append(reportStoreFlags(), OutputFlags()...)...),
		Action:    inspectReportAction,
	}
}

func inspectReportAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("exactly one report key required", exitInvalidInput)
	}
	key := c.Args().First()

	cfg, err := config.LoadOptional(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), exitSetupFailure)
	}
	sc, err := storeConfig("report", config.StorageConfig{
		Backend:     pickString(c, "report-backend", cfg.Report.Backend),
		Path:        pickString(c, "report-path", cfg.Report.Path),
		Region:      pickString(c, "report-region", cfg.Report.Region),
		Endpoint:    pickString(c, "report-endpoint", cfg.Report.Endpoint),
		S3PathStyle: pickBool(c, "report-s3-path-style", cfg.Report.S3PathStyle),
	})
	if err != nil {
		return cli.Exit(err.Error(), exitInvalidInput)
	}
	if sc == nil {
		return cli.Exit("no report store configured (set --report-path or report.path)", exitInvalidInput)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitInvalidInput)
	}

	store, err := lode.OpenStore(c.Context, *sc)
	if err != nil {
		return cli.Exit(fmt.Sprintf("report store: %v", err), exitSetupFailure)
	}
	report, err := lode.ReadReport(c.Context, store, key)
	if err != nil {
		if errors.Is(err, lode.ErrNotFound) {
			return cli.Exit(fmt.Sprintf("report not found: %s", key), exitInvalidInput)
		}
		return cli.Exit(fmt.Sprintf("read report: %v", err), exitSetupFailure)
	}

	return r.RenderOutcome(render.OutcomeView{ReportPath: key, Report: report})
}

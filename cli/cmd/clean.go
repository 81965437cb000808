package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/mediaresolve/cli/config"
	"github.com/pithecene-io/mediaresolve/cli/render"
	"github.com/pithecene-io/mediaresolve/stage"
)

// DefaultCleanAge is the default minimum age of purged staged files.
const DefaultCleanAge = 24 * time.Hour

// CleanResponse is the response for the clean command.
type CleanResponse struct {
	ScratchDir string `json:"scratch_dir" yaml:"scratch_dir"`
	OlderThan  string `json:"older_than" yaml:"older_than"`
	Removed    int    `json:"removed" yaml:"removed"`
}

// CleanCommand returns the clean command.
// It removes staged files that callers never deleted.
func CleanCommand() *cli.Command {
	return &cli.Command{
		Name:  "clean",
		Usage: "Remove stale files from the scratch directory",
		Flags: append([]cli.Flag{
			ConfigFlag,
			ScratchDirFlag,
			&cli.DurationFlag{
				Name:  "older-than",
				Usage: "Only remove files last modified before now minus this age",
				Value: DefaultCleanAge,
			},
		}, OutputFlags()...),
		Action: cleanAction,
	}
}

func cleanAction(c *cli.Context) error {
	cfg, err := config.LoadOptional(c.String("config"))
	if err != nil {
		return cli.Exit(err.Error(), exitSetupFailure)
	}

	age := c.Duration("older-than")
	if age < 0 {
		return cli.Exit(fmt.Sprintf("--older-than must not be negative, got %s", age), exitInvalidInput)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitInvalidInput)
	}

	stager, err := stage.New(pickString(c, "scratch-dir", cfg.ScratchDir))
	if err != nil {
		return cli.Exit(fmt.Sprintf("scratch directory: %v", err), exitSetupFailure)
	}

	removed, purgeErr := stager.Purge(age, time.Now())
	if err := r.Render(CleanResponse{
		ScratchDir: stager.Dir(),
		OlderThan:  age.String(),
		Removed:    removed,
	}); err != nil {
		return err
	}
	if purgeErr != nil {
		return cli.Exit(fmt.Sprintf("some files could not be removed: %v", purgeErr), exitSetupFailure)
	}
	return nil
}

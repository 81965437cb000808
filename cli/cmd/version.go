package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/mediaresolve/adapter"
	"github.com/pithecene-io/mediaresolve/cli/render"
	"github.com/pithecene-io/mediaresolve/types"
)

// VersionResponse is the response for the version command.
type VersionResponse struct {
	Version        string `json:"version" yaml:"version"`
	Commit         string `json:"commit" yaml:"commit"`
	ReportContract string `json:"report_contract" yaml:"report_contract"`
	EventContract  string `json:"event_contract" yaml:"event_contract"`
}

// VersionCommand returns the version command.
func VersionCommand(commit string) *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show version information",
		Flags:  OutputFlags(),
		Action: versionAction(commit),
	}
}

func versionAction(commit string) cli.ActionFunc {
	return func(c *cli.Context) error {
		r, err := render.NewRenderer(c)
		if err != nil {
			return cli.Exit(err.Error(), exitInvalidInput)
		}

		return r.Render(VersionResponse{
			Version:        types.Version,
			Commit:         commit,
			ReportContract: types.ReportContractVersion,
			EventContract:  adapter.EventContractVersion,
		})
	}
}

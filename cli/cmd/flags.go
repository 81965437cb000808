// Package cmd provides CLI commands for the mediaresolve binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared output flags.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml (default: table on a TTY, else json)",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// ConfigFlag points at a mediaresolve.yaml file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config file (default: ./mediaresolve.yaml when present)",
	}

	// ScratchDirFlag overrides the staging directory.
	ScratchDirFlag = &cli.StringFlag{
		Name:  "scratch-dir",
		Usage: "Directory staged files are written to (default: $TMPDIR/mediaresolve)",
	}
)

// OutputFlags returns the flags shared by every command that renders output.
func OutputFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
	}
}

// reportStoreFlags returns the flags selecting the outcome report store.
func reportStoreFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "report-backend",
			Usage: "Store for outcome reports: fs or s3",
		},
		&cli.StringFlag{
			Name:  "report-path",
			Usage: "Report store path (fs: directory, s3: bucket/prefix)",
		},
		&cli.StringFlag{
			Name:  "report-region",
			Usage: "AWS region for an s3 report store",
		},
		&cli.StringFlag{
			Name:  "report-endpoint",
			Usage: "Custom S3-compatible endpoint for the report store",
		},
		&cli.BoolFlag{
			Name:  "report-s3-path-style",
			Usage: "Use path-style addressing for the report store",
		},
		&cli.StringFlag{
			Name:  "report-format",
			Usage: "Report encoding: json or msgpack",
		},
	}
}

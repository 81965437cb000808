// Package main provides the mediaresolve CLI entrypoint.
//
// Usage:
//
//	mediaresolve <command> [options]
//
// Exit codes for `resolve`:
//   - 0: every handle resolved
//   - 1: at least one handle failed
//   - 2: setup failure (config, scratch dir, store, adapter)
//   - 3: invalid input (no handles, bad flags, selection limit exceeded)
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/mediaresolve/cli/cmd"
	"github.com/pithecene-io/mediaresolve/types"
)

// Commit is set via ldflags at build time.
var commit = "unknown"

func main() {
	// A missing .env is fine; variables may come from the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: cannot load .env: %v\n", err)
	}

	if err := newApp().Run(os.Args); err != nil {
		// ExitErrHandler already handled the exit for cli.ExitCoder errors.
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:           "mediaresolve",
		Usage:          "Resolve picked media handles into staged videos and decoded images",
		Version:        fmt.Sprintf("%s (commit: %s)", types.Version, commit),
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			cmd.ResolveCommand(),
			cmd.CleanCommand(),
			cmd.InspectCommand(),
			cmd.VersionCommand(commit),
		},
	}
}

// exitErrHandler handles errors from the CLI, preserving exit codes from cli.Exit().
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	os.Exit(reportExit(err))
}

// reportExit prints err's message to stderr when it carries one and returns
// the process exit code.
func reportExit(err error) int {
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() is empty or "exit status N"; skip those.
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		return code
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

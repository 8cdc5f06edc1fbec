package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// version is set via ldflags at build time.
// e.g. -ldflags "-X main.version=1.2.3"
var version = "dev"

// newApp creates the CLI application with all flags and commands.
func newApp() *cli.Command {
	return &cli.Command{
		Name:        "rascal",
		Usage:       "Terminal front end for reflectivity fitting",
		Version:     version,
		UsageText:   "rascal [global options] command [command options] [arguments...]",
		Description: "rascal drives an external reflectivity fitting engine: run fits, watch progress live, inspect past runs",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Plain log output (no TUI)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   "rascal.json",
			},
			&cli.StringFlag{
				Name:    "project",
				Aliases: []string{"p"},
				Usage:   "Project directory",
				Value:   ".",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Verbose logging",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress all output (mutually exclusive with --json and --plain)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output in JSON format (mutually exclusive with --quiet and --plain)",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			// Validate mutual exclusivity of output format flags
			flagCount := 0
			for _, name := range []string{"quiet", "json", "plain"} {
				if cmd.Bool(name) {
					flagCount++
				}
			}
			if flagCount > 1 {
				return ctx, fmt.Errorf("flags --quiet, --json, and --plain are mutually exclusive")
			}
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:      "fit",
				Usage:     "Run a fit on a project file (or the built-in demo problem)",
				ArgsUsage: "[project-file]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "procedure",
						Usage: "Optimisation procedure: calculate, simplex, de, ns, dream",
						Value: "calculate",
					},
					&cli.BoolFlag{
						Name:  "no-events",
						Usage: "Do not forward interim engine events",
					},
					&cli.BoolFlag{
						Name:  "demo",
						Usage: "Fit the built-in demo problem",
					},
				},
				Action: cmdFit,
			},
			{
				Name:  "runs",
				Usage: "List past runs",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "Maximum runs to show"},
				},
				Action: cmdRuns,
			},
			{
				Name:      "events",
				Usage:     "Show the event log for a run",
				ArgsUsage: "[run-id]",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 100, Usage: "Number of events to show"},
				},
				Action: cmdEvents,
			},
			{
				Name:   "init",
				Usage:  "Initialize a .rascal directory and default config",
				Action: cmdInit,
			},
			{
				Name:   "config",
				Usage:  "Show current configuration",
				Action: cmdConfig,
			},
			{
				Name:   "worker",
				Usage:  "Internal: run one calculation (request on stdin, frames on stdout)",
				Hidden: true,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "config",
						Usage: "Path to config file",
						Value: "rascal.json",
					},
				},
				Action: cmdWorker,
			},
		},
	}
}

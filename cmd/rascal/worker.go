package main

import (
	"context"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/jeremyspencer39171/rascal/internal/bridge"
	"github.com/jeremyspencer39171/rascal/internal/channel"
	"github.com/jeremyspencer39171/rascal/internal/config"
	"github.com/jeremyspencer39171/rascal/internal/engine"
	"github.com/jeremyspencer39171/rascal/internal/project"
	"github.com/jeremyspencer39171/rascal/internal/runner"
)

// cmdWorker is the child half of a fit. The parent re-executes this binary
// with the worker subcommand, writes the request to stdin and reads message
// frames from stdout. Everything user-facing happens in the parent; here
// stdout belongs to the frame protocol and stderr is inherited for crashes.
func cmdWorker(ctx context.Context, cmd *cli.Command) error {
	return workerMain(cmd.String("config"), os.Stdin, os.Stdout)
}

// workerMain runs the worker against explicit streams. Setup failures are
// written to the frame protocol before returning so the parent surfaces the
// real cause instead of a bare nonzero exit.
func workerMain(configPath string, in io.Reader, out io.Writer) error {
	enc := channel.NewEncoder(out)

	cfg, err := config.Load(configPath)
	if err != nil {
		err = fmt.Errorf("load config: %w", err)
		enc.Put(channel.NewError(err))
		return err
	}

	data, err := io.ReadAll(in)
	if err != nil {
		err = fmt.Errorf("read request: %w", err)
		enc.Put(channel.NewError(err))
		return err
	}
	var req project.Request
	if err := json.Unmarshal(data, &req); err != nil {
		err = fmt.Errorf("decode request: %w", err)
		enc.Put(channel.NewError(err))
		return err
	}

	runner.RunWorker(enc, &req, buildEngine(cfg), buildBridge(cfg, req.Problem))
	return nil
}

func buildEngine(cfg *config.Config) engine.Engine {
	if cfg.Engine.Command == "sim" {
		return engine.NewSimEngine()
	}
	return engine.NewExecEngine(cfg.Engine.Command, cfg.Engine.Args)
}

func buildBridge(cfg *config.Config, problem *project.Problem) bridge.Bridge {
	if problem == nil || !problem.NeedsBridge() {
		return bridge.None{}
	}
	return &bridge.Matlab{
		Command:        cfg.Bridge.Command,
		Args:           cfg.Bridge.Args,
		StartupTimeout: cfg.Bridge.StartupTimeout,
	}
}

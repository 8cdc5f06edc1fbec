package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/jeremyspencer39171/rascal/internal/bus"
	"github.com/jeremyspencer39171/rascal/internal/channel"
	"github.com/jeremyspencer39171/rascal/internal/config"
	"github.com/jeremyspencer39171/rascal/internal/output"
	"github.com/jeremyspencer39171/rascal/internal/presenter"
	"github.com/jeremyspencer39171/rascal/internal/project"
	"github.com/jeremyspencer39171/rascal/internal/runner"
	"github.com/jeremyspencer39171/rascal/internal/state"
	"github.com/jeremyspencer39171/rascal/internal/tui"
)

func loadConfigFromCmd(cmd *cli.Command) (*config.Config, error) {
	configPath := cmd.String("config")
	projectDir := cmd.String("project")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if projectDir != "." {
		cfg.ProjectDir = projectDir
	}
	return cfg, nil
}

// outputMode resolves the global format flags plus TTY detection into one
// output mode. TUI only when stdout is a terminal and nothing overrides it.
func outputMode(cmd *cli.Command) output.Mode {
	switch {
	case cmd.Bool("quiet"):
		return output.ModeQuiet
	case cmd.Bool("json"):
		return output.ModeJSON
	case cmd.Bool("plain"):
		return output.ModePlain
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return output.ModeTUI
	}
	return output.ModePlain
}

func cmdInit(ctx context.Context, cmd *cli.Command) error {
	projectDir := cmd.String("project")
	configPath := cmd.String("config")
	logger := log.New(os.Stderr, "", log.LstdFlags)

	cfg := config.DefaultConfig()
	cfg.ProjectDir = projectDir
	if err := os.MkdirAll(cfg.HistoryPath(), 0755); err != nil {
		return fmt.Errorf("create %s: %w", cfg.HistoryDir, err)
	}
	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	logger.Printf("Initialized history store at %s", cfg.HistoryPath())
	logger.Printf("Config saved to %s", configPath)
	return nil
}

func cmdConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Printf("Configuration (%s):\n", configPath)
	fmt.Printf("  Project Dir:     %s\n", cfg.ProjectDir)
	fmt.Printf("  History Dir:     %s\n", cfg.HistoryDir)
	fmt.Printf("  Engine:          %s %v\n", cfg.Engine.Command, cfg.Engine.Args)
	fmt.Printf("  Poll Interval:   %v\n", cfg.Runner.PollInterval)
	fmt.Printf("  Forward Events:  %v\n", cfg.Runner.Display)
	fmt.Printf("  Bridge Command:  %s\n", cfg.Bridge.Command)
	fmt.Printf("  Bridge Timeout:  %v\n", cfg.Bridge.StartupTimeout)
	return nil
}

func cmdFit(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfigFromCmd(cmd)
	if err != nil {
		return err
	}

	var problem *project.Problem
	switch {
	case cmd.Bool("demo"):
		problem = project.SampleProblem()
	case cmd.Args().Len() > 0:
		problem, err = project.LoadProblem(cmd.Args().First())
		if err != nil {
			return fmt.Errorf("load project: %w", err)
		}
	default:
		return fmt.Errorf("usage: rascal fit <project-file> (or --demo)")
	}

	proc, err := project.ParseProcedure(cmd.String("procedure"))
	if err != nil {
		return err
	}
	controls := project.DefaultControls()
	controls.Procedure = proc

	req := &project.Request{
		Problem:  problem,
		Controls: controls,
		Display:  cfg.Runner.Display && !cmd.Bool("no-events"),
	}

	mode := outputMode(cmd)

	db, err := state.OpenDB(cfg.HistoryPath())
	if err != nil {
		// History is best-effort; a fit still runs without it.
		fmt.Fprintf(os.Stderr, "warning: history store unavailable: %v\n", err)
		db = nil
	}
	if db != nil {
		defer db.Close()
	}

	if mode == output.ModeTUI {
		return fitWithTUI(ctx, cmd, cfg, db, req)
	}
	return fitPlain(ctx, cmd, cfg, db, req, mode)
}

func fitWithTUI(ctx context.Context, cmd *cli.Command, cfg *config.Config, db *state.DB, req *project.Request) error {
	var run *presenter.Run

	tuiProg := tui.NewProgram(req.Problem.Name, string(req.Controls.Procedure), func() {
		if run != nil {
			run.Interrupt()
		}
	})

	logger := log.New(tuiProg.LogWriter(), "", log.LstdFlags)
	p := presenter.New(cfg, cmd.String("config"), db, logger)

	var err error
	run, err = p.NewRun(req)
	if err != nil {
		return err
	}

	run.Bus.Subscribe(bus.MsgRunEvent, func(msg bus.Message) {
		ev, ok := msg.Payload.(channel.Message)
		if !ok {
			return
		}
		switch ev.Kind {
		case channel.KindLog:
			tuiProg.SendEngineLog(ev.Log.Level, ev.Log.Text)
		case channel.KindProgress:
			tuiProg.SendProgress(ev.Progress.Percent)
		case channel.KindPlot:
			tuiProg.SendPlot(ev.Plot.Contrast, len(ev.Plot.Q))
		}
	})
	run.Bus.Subscribe(bus.MsgRunFinished, func(bus.Message) {
		st := run.Runner.State()
		summary := ""
		if st.Results != nil {
			summary = fmt.Sprintf("chi-squared %.6g after %d iterations", st.Results.ChiSquared, st.Results.Iterations)
		}
		tuiProg.SendDone("finished", summary, "")
	})
	run.Bus.Subscribe(bus.MsgRunErrored, func(bus.Message) {
		st := run.Runner.State()
		errMsg := ""
		if st.Err != nil {
			errMsg = st.Err.Error()
		}
		tuiProg.SendDone("errored", "", errMsg)
	})
	run.Bus.Subscribe(bus.MsgRunInterrupted, func(bus.Message) {
		tuiProg.SendDone("interrupted", "Run interrupted", "")
	})

	if err := run.Start(); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		run.Wait(runCtx)
	}()

	if _, err := tuiProg.Run(); err != nil {
		cancel()
		run.Interrupt()
		return fmt.Errorf("TUI error: %w", err)
	}
	cancel()

	st := run.Wait(context.Background())
	if st.Err != nil {
		return st.Err
	}

	// Reprint the summary after the alt screen is torn down.
	printer := output.NewPrinter(output.ModePlain, cmd.Bool("verbose"))
	printer.Results(st.Results)
	return nil
}

func fitPlain(ctx context.Context, cmd *cli.Command, cfg *config.Config, db *state.DB, req *project.Request, mode output.Mode) error {
	logger := log.New(os.Stderr, "", log.LstdFlags)
	if cmd.Bool("verbose") {
		logger.SetFlags(log.LstdFlags | log.Lmicroseconds)
	}

	printer := output.NewPrinter(mode, cmd.Bool("verbose"))
	var jsonOut *output.JSONWriter
	if mode == output.ModeJSON {
		jsonOut = output.NewJSONWriter(os.Stdout)
	}

	p := presenter.New(cfg, cmd.String("config"), db, logger)
	run, err := p.NewRun(req)
	if err != nil {
		if jsonOut != nil {
			jsonOut.Emit(output.EventError, "", err.Error())
		}
		return err
	}

	run.Bus.Subscribe(bus.MsgRunStarted, func(msg bus.Message) {
		printer.Info("run %s started (%s, %s)", run.ID, req.Problem.Name, req.Controls.Procedure)
		if jsonOut != nil {
			jsonOut.Emit(output.EventRunStart, run.ID, map[string]string{
				"problem":   req.Problem.Name,
				"procedure": string(req.Controls.Procedure),
			})
		}
	})
	run.Bus.Subscribe(bus.MsgRunEvent, func(msg bus.Message) {
		ev, ok := msg.Payload.(channel.Message)
		if !ok {
			return
		}
		printer.Event(ev)
		if jsonOut != nil {
			jsonOut.Emit(output.EventRunEvent, run.ID, ev)
		}
	})

	printer.Header("rascal fit")
	if err := run.Start(); err != nil {
		if jsonOut != nil {
			jsonOut.Emit(output.EventError, run.ID, err.Error())
		}
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		<-sigs
		printer.Warning("interrupt requested, stopping run...")
		run.Interrupt()
	}()

	st := run.Wait(runCtx)
	switch run.Runner.Status() {
	case runner.StatusFinished:
		printer.Success("run %s finished", run.ID)
		printer.Results(st.Results)
		if jsonOut != nil {
			jsonOut.Emit(output.EventRunFinished, run.ID, st.Results)
		}
		return nil
	case runner.StatusInterrupted:
		printer.Warning("run %s interrupted", run.ID)
		if jsonOut != nil {
			jsonOut.Emit(output.EventRunStopped, run.ID, nil)
		}
		return nil
	default:
		if jsonOut != nil && st.Err != nil {
			jsonOut.Emit(output.EventError, run.ID, st.Err.Error())
		}
		if st.Err != nil {
			return st.Err
		}
		return fmt.Errorf("run %s ended in state %s", run.ID, run.Runner.Status())
	}
}

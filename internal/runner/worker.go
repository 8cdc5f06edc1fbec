package runner

import (
	"context"
	"errors"

	"github.com/jeremyspencer39171/rascal/internal/bridge"
	"github.com/jeremyspencer39171/rascal/internal/channel"
	"github.com/jeremyspencer39171/rascal/internal/engine"
	rascalerr "github.com/jeremyspencer39171/rascal/internal/errors"
	"github.com/jeremyspencer39171/rascal/internal/project"
	"github.com/jeremyspencer39171/rascal/internal/results"
)

// terminalWriter wraps the channel writer and remembers whether a terminal
// message has been written, so the panic path cannot write a second one.
type terminalWriter struct {
	channel.Writer
	wroteTerminal bool
}

func (t *terminalWriter) Put(m channel.Message) {
	if m.Terminal() {
		if t.wroteTerminal {
			return
		}
		t.wroteTerminal = true
	}
	t.Writer.Put(m)
}

// RunWorker is the worker entry point: it runs inside the spawned process,
// invokes the engine exactly once, and guarantees that exactly one terminal
// message lands on the channel whatever happens, including a panic inside
// the engine call.
//
// When the problem declares a custom file needing an interpreter bridge, the
// bridge is acquired before any event sink is registered; a half-configured
// sink must never leak out of a failed setup. The bridge is released on
// every control path, not only on success.
func RunWorker(w channel.Writer, req *project.Request, eng engine.Engine, br bridge.Bridge) {
	tw := &terminalWriter{Writer: w}
	defer func() {
		if r := rascalerr.RecoverPanic(recover()); r.Recovered {
			tw.Put(channel.NewError(errors.New(r.ErrorMsg)))
		}
	}()

	if req.Problem.NeedsBridge() {
		if _, err := br.GetOrStart(); err != nil {
			tw.Put(channel.NewError(err))
			return
		}
		defer br.Exit()
	}

	hub := eng.Events()
	if req.Display {
		hub.Register(engine.EventMessage, func(ev engine.Event) {
			tw.Put(channel.NewLog(channel.LevelInfo, ev.Message))
		})
		hub.Register(engine.EventProgress, func(ev engine.Event) {
			tw.Put(channel.NewProgress(ev.Percent))
		})
		hub.Register(engine.EventPlot, func(ev engine.Event) {
			tw.Put(channel.NewPlot(plotData(ev.Plot)))
		})
		tw.Put(channel.NewLog(channel.LevelInfo, "Starting RAT"))
	}

	updated, raw, bayes, err := eng.Run(context.Background(), req.Problem, req.Controls)
	if err != nil {
		tw.Put(channel.NewError(err))
		return
	}
	res := results.Make(req.Controls.Procedure, raw, bayes)

	if req.Display {
		tw.Put(channel.NewLog(channel.LevelInfo, "Finished RAT"))
		hub.Clear()
	}
	tw.Put(channel.NewResult(updated, res))
}

func plotData(p *engine.PlotEvent) *channel.PlotData {
	if p == nil {
		return &channel.PlotData{}
	}
	return &channel.PlotData{
		Contrast:     p.Contrast,
		Q:            p.Q,
		Reflectivity: p.Reflectivity,
		Data:         p.Data,
	}
}

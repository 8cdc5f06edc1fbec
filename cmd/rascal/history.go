package main

import (
	"context"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v3"

	"github.com/jeremyspencer39171/rascal/internal/channel"
	"github.com/jeremyspencer39171/rascal/internal/output"
	"github.com/jeremyspencer39171/rascal/internal/state"
)

func openHistory(cmd *cli.Command) (*state.DB, error) {
	cfg, err := loadConfigFromCmd(cmd)
	if err != nil {
		return nil, err
	}
	dir := cfg.HistoryPath()
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("no history at %s. Run 'rascal init' first", dir)
	}
	return state.OpenDB(dir)
}

func cmdRuns(ctx context.Context, cmd *cli.Command) error {
	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.GetRuns(int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	p := output.NewPrinter(output.ModePlain, false)
	if len(runs) == 0 {
		p.Info("No runs recorded yet.")
		return nil
	}

	p.Header("Runs")
	var rows [][]string
	for _, r := range runs {
		chi := "-"
		if r.ChiSquared != nil {
			chi = fmt.Sprintf("%.6g", *r.ChiSquared)
		}
		detail := ""
		if r.ErrorText != nil {
			detail = *r.ErrorText
			if len(detail) > 40 {
				detail = detail[:37] + "..."
			}
		}
		rows = append(rows, []string{
			r.ID, r.Problem, r.Procedure, r.Status, chi, shortTime(r.CreatedAt), detail,
		})
	}
	p.Table([]string{"ID", "Problem", "Procedure", "Status", "Chi-sq", "Started", "Error"}, rows)
	p.Printf("\n%d run(s)\n", len(runs))
	return nil
}

func cmdEvents(ctx context.Context, cmd *cli.Command) error {
	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	var runID string
	if cmd.Args().Len() > 0 {
		runID = cmd.Args().First()
	} else {
		latest, err := db.LatestRun()
		if err != nil {
			return fmt.Errorf("no runs found. Run 'rascal fit' first")
		}
		runID = latest.ID
	}

	events, err := db.GetEvents(runID, int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("list events: %w", err)
	}

	if cmd.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}

	p := output.NewPrinter(output.ModePlain, false)
	if len(events) == 0 {
		p.Info("No events recorded for %s.", runID)
		return nil
	}
	for _, e := range events {
		printEventRow(p, e)
	}
	p.Printf("\n%d event(s) for %s\n", len(events), runID)
	return nil
}

func printEventRow(p *output.Printer, e state.EventRow) {
	line := fmt.Sprintf("%s  %-8s  %s", pterm.Gray(shortTime(e.CreatedAt)), e.Kind, summarizeEvent(e.Kind, e.Data))
	switch channel.Kind(e.Kind) {
	case channel.KindError:
		p.Error("%s", line)
	case channel.KindResult:
		p.Success("%s", line)
	default:
		p.Printf("%s\n", line)
	}
}

func summarizeEvent(kind, data string) string {
	var msg channel.Message
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		return ""
	}
	switch channel.Kind(kind) {
	case channel.KindLog:
		if msg.Log != nil {
			return msg.Log.Text
		}
	case channel.KindProgress:
		if msg.Progress != nil {
			return fmt.Sprintf("%.0f%%", msg.Progress.Percent*100)
		}
	case channel.KindPlot:
		if msg.Plot != nil {
			return fmt.Sprintf("plot %s (%d points)", msg.Plot.Contrast, len(msg.Plot.Q))
		}
	case channel.KindResult:
		if msg.Result != nil && msg.Result.Results != nil {
			return fmt.Sprintf("chi-squared %.6g", msg.Result.Results.ChiSquared)
		}
	case channel.KindError:
		if msg.Err != nil {
			return msg.Err.Error()
		}
	}
	return ""
}

func shortTime(ts string) string {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Format("2006-01-02 15:04:05")
		}
	}
	return ts
}

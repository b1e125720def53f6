package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"folio/pkg/folio"
)

const version = "0.1.0"

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: folio-cli <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  report     Run a report and print the stats tables\n")
		fmt.Fprintf(os.Stderr, "  chart      Save a report chart to a PNG file\n")
		fmt.Fprintf(os.Stderr, "  runs       List recent report runs\n")
		fmt.Fprintf(os.Stderr, "  version    Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "\nThe server address defaults to http://localhost:8080 (FOLIO_SERVER overrides).\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Printf("folio-cli %s\n", version)

	case "report":
		err = cmdReport(os.Args[2:])

	case "chart":
		err = cmdChart(os.Args[2:])

	case "runs":
		err = cmdRuns(os.Args[2:])

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newClient() *folio.Client {
	base := "http://localhost:8080"
	if v := os.Getenv("FOLIO_SERVER"); v != "" {
		base = v
	}
	return folio.NewClient(base)
}

func parseReportFlags(fs *flag.FlagSet, args []string) (folio.ReportRequest, error) {
	tickers := fs.String("tickers", "", "comma separated tickers (empty for server defaults)")
	start := fs.String("start", "", "start date, YYYY-MM-DD")
	end := fs.String("end", "", "end date, YYYY-MM-DD")
	rebalance := fs.Bool("rebalance", false, "also run the rolling re-optimized backtest")
	if err := fs.Parse(args); err != nil {
		return folio.ReportRequest{}, err
	}

	req := folio.ReportRequest{Rebalance: *rebalance}
	if *tickers != "" {
		req.Tickers = strings.Split(*tickers, ",")
	}
	var err error
	if *start != "" {
		if req.Start, err = time.Parse("2006-01-02", *start); err != nil {
			return req, fmt.Errorf("invalid -start: %w", err)
		}
	}
	if *end != "" {
		if req.End, err = time.Parse("2006-01-02", *end); err != nil {
			return req, fmt.Errorf("invalid -end: %w", err)
		}
	}
	return req, nil
}

func cmdReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	req, err := parseReportFlags(fs, args)
	if err != nil {
		return err
	}

	rep, err := newClient().GetReport(context.Background(), req)
	if err != nil {
		return err
	}

	fmt.Printf("Report %s .. %s  (%s)\n\n", rep.Start, rep.End, strings.Join(rep.Tickers, " "))
	for _, w := range rep.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	if rep.OptimizerError != "" {
		fmt.Printf("optimizer: %s\n", rep.OptimizerError)
	}

	fmt.Printf("%-8s %6s %9s %9s %8s %9s\n", "TICKER", "DAYS", "CUMRET", "ANNVOL", "SHARPE", "MAXDD")
	for _, ts := range rep.TickerStats {
		fmt.Printf("%-8s %6d %8.2f%% %8.2f%% %8.2f %8.2f%%\n",
			ts.Ticker, ts.Stats.NDays,
			100*ts.Stats.CumReturn, 100*ts.Stats.AnnVolatility,
			ts.Stats.SharpeRatio, 100*ts.Stats.MaxDrawdown)
	}

	fmt.Printf("\n%-26s %9s %9s %8s %9s\n", "PORTFOLIO", "CUMRET", "ANNVOL", "SHARPE", "MAXDD")
	for _, p := range rep.Portfolios {
		fmt.Printf("%-26s %8.2f%% %8.2f%% %8.2f %8.2f%%\n",
			p.Name, 100*p.Stats.CumReturn, 100*p.Stats.AnnVolatility,
			p.Stats.SharpeRatio, 100*p.Stats.MaxDrawdown)
	}

	for _, p := range rep.Portfolios {
		if p.Name == "Equal Weight" {
			continue
		}
		fmt.Printf("\n%s weights:\n", p.Name)
		printWeights(p.Weights)
	}
	return nil
}

func printWeights(w map[string]float64) {
	syms := make([]string, 0, len(w))
	for s := range w {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	for _, s := range syms {
		fmt.Printf("  %-8s %6.2f%%\n", s, 100*w[s])
	}
}

func cmdChart(args []string) error {
	fs := flag.NewFlagSet("chart", flag.ExitOnError)
	kind := fs.String("kind", "portfolio", "chart kind: price, cumreturn, portfolio, weights")
	out := fs.String("out", "", "output file (default <kind>.png)")
	req, err := parseReportFlags(fs, args)
	if err != nil {
		return err
	}

	png, err := newClient().GetChart(context.Background(), *kind, req)
	if err != nil {
		return err
	}

	path := *out
	if path == "" {
		path = *kind + ".png"
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d bytes)\n", path, len(png))
	return nil
}

func cmdRuns(args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	limit := fs.Int("limit", 20, "max runs to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	runs, err := newClient().GetRuns(context.Background(), *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	fmt.Printf("%-4s %-20s %-12s %-12s %8s %8s  %s\n",
		"ID", "REQUESTED", "START", "END", "EQ-SHRP", "OPT-SHRP", "TICKERS")
	for _, r := range runs {
		opt := fmt.Sprintf("%8.2f", r.OptimalSharpe)
		if r.OptimizerError != "" {
			opt = "  failed"
		}
		fmt.Printf("%-4d %-20s %-12s %-12s %8.2f %s  %s\n",
			r.ID, r.RequestedAt, r.Start, r.End, r.EqualSharpe, opt,
			strings.Join(r.Tickers, " "))
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-ledger/internal/calculator"
	"github.com/rxtech-lab/argo-ledger/internal/config"
	"github.com/rxtech-lab/argo-ledger/internal/ledger"
	"github.com/rxtech-lab/argo-ledger/internal/types"
	"github.com/rxtech-lab/argo-ledger/internal/version"
	"github.com/urfave/cli/v3"
)

func statsAction(_ context.Context, cmd *cli.Command, a *app) error {
	snapshot := a.cache.Snapshot()
	out := cmd.Root().Writer

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, field := range snapshot.Summary.Fields() {
		fmt.Fprintf(w, "%s\t%s\n", field.Key, field.Value)
	}
	w.Flush()

	fmt.Fprintf(out, "\nstreaks: win %d, loss %d, breakeven %d\n",
		snapshot.Streaks.Win, snapshot.Streaks.Loss, snapshot.Streaks.Breakeven)

	if n := len(snapshot.Cumulative); n > 0 {
		fmt.Fprintf(out, "cumulative pnl: %.2f%%\n", snapshot.Cumulative[n-1].RunningTotal)
	}

	fmt.Fprintf(out, "max drawdown: %.2f%%\n", snapshot.MaxDrawdown)

	if snapshot.HasDistribution {
		d := snapshot.Distribution
		fmt.Fprintf(out, "distribution: %d successful, %d losing, %d breakeven\n", d.Successful, d.Losing, d.Breakeven)
	}

	printSimulation(out, snapshot.Compound)
	printSimulation(out, snapshot.Simple)

	return nil
}

func printSimulation(out io.Writer, result types.SimulationResult) {
	p := result.Params
	fmt.Fprintf(out, "%s (%.2f, %.2f%%, x%.0f): %.2f%% -> %.2f (min %.2f%%, max %.2f%%)\n",
		p.Mode, p.InitialBalance, p.RiskPercent, p.Leverage,
		result.FinalPercent, result.FinalBalance, result.MinPercent, result.MaxPercent)
}

func tradesAction(_ context.Context, cmd *cli.Command, a *app) error {
	trades, page, totalPages := a.cache.TradesPage(int(cmd.Int("page")))
	out := cmd.Root().Writer

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tTICKER\tSIDE\tPNL\tEXITS")
	for _, t := range trades {
		pnl := t.PnL
		if t.IsInProgress() {
			pnl = "open"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.Date, t.Ticker, t.Direction, pnl, t.Exits)
	}
	w.Flush()

	fmt.Fprintf(out, "page %d/%d\n", page, totalPages)

	return nil
}

func simulateAction(_ context.Context, cmd *cli.Command, a *app) error {
	sim := a.config.Simulation
	params := types.SimulationParams{
		Mode:           types.SimulationMode(cmd.String("mode")),
		InitialBalance: sim.InitialBalance,
		RiskPercent:    sim.RiskPercent,
		Leverage:       sim.Leverage,
	}

	if cmd.IsSet("balance") {
		params.InitialBalance = cmd.Float("balance")
	}
	if cmd.IsSet("risk") {
		params.RiskPercent = cmd.Float("risk")
	}
	if cmd.IsSet("leverage") {
		params.Leverage = cmd.Float("leverage")
	}

	result, err := a.cache.CustomSimulation(params)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	printSimulation(out, result)
	fmt.Fprintf(out, "multiplier: x%.2f over %d trades\n", result.Multiplier(), len(result.History)-1)

	return nil
}

func checkAction(ctx context.Context, cmd *cli.Command, a *app) error {
	discrepancies, err := a.service.Check(ctx)
	if err != nil {
		return err
	}

	printDiscrepancies(cmd.Root().Writer, discrepancies, "header is consistent with the trades")

	return nil
}

func fixAction(ctx context.Context, cmd *cli.Command, a *app) error {
	discrepancies, err := a.service.FixHeader(ctx)
	if err != nil {
		return err
	}

	printDiscrepancies(cmd.Root().Writer, discrepancies, "nothing to fix")

	return nil
}

func printDiscrepancies(out io.Writer, discrepancies []types.Discrepancy, clean string) {
	if len(discrepancies) == 0 {
		fmt.Fprintln(out, clean)
		return
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FIELD\tSTORED\tRECOMPUTED")
	for _, d := range discrepancies {
		fmt.Fprintf(w, "%s\t%s\t%s\n", d.Field, d.Old, d.New)
	}
	w.Flush()
}

func addTradeAction(ctx context.Context, cmd *cli.Command, a *app) error {
	input := calculator.TradeInput{
		Ticker:    cmd.String("ticker"),
		Direction: types.Direction(strings.ToLower(cmd.String("direction"))),
		Exits:     cmd.String("exits"),
		Date:      optional.None[time.Time](),
	}

	entry, err := calculator.ParsePrice(cmd.String("entry"))
	if err != nil {
		return err
	}
	input.Entry = entry.InexactFloat64()

	margin, err := calculator.ParseMargin(cmd.String("margin"))
	if err != nil {
		return err
	}
	input.Margin = margin.InexactFloat64()

	if cmd.IsSet("date") {
		input.Date = optional.Some(cmd.Timestamp("date"))
	}

	trade, err := a.service.AddTrade(ctx, input)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.Root().Writer, trade.Segment)

	return nil
}

func backupsAction(_ context.Context, cmd *cli.Command, a *app) error {
	backups, err := a.store.ListBackups()
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	if len(backups) == 0 {
		fmt.Fprintf(out, "no backups of %s\n", a.store.Path())
		return nil
	}

	fmt.Fprintf(out, "backups of %s, oldest first:\n", a.store.Path())
	for _, path := range backups {
		fmt.Fprintln(out, path)
	}

	return nil
}

func exportAction(_ context.Context, cmd *cli.Command, a *app) error {
	stats, err := a.cache.Stats()
	if err != nil {
		return err
	}

	path := cmd.String("out")
	if err := types.WriteLedgerStats(path, stats); err != nil {
		return err
	}

	fmt.Fprintf(cmd.Root().Writer, "stats written to %s\n", path)

	return nil
}

func schemaAction(_ context.Context, cmd *cli.Command) error {
	cfg := config.Default()

	schema, err := cfg.GenerateSchemaJSON()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.Root().Writer, schema)

	return nil
}

func versionAction(_ context.Context, cmd *cli.Command) error {
	fmt.Fprintln(cmd.Root().Writer, version.GetVersion())
	return nil
}

// newCommand builds the ledger CLI.
func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "ledger",
		Usage: "Inspect, reconcile and extend a trade ledger",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Optional .env file with LEDGER_PATH, LEDGER_BACKUP_DIR or LOG_LEVEL",
				Value: ".env",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show the summary header, streaks, drawdown and reference simulations",
				Action: withApp(statsAction),
			},
			{
				Name:  "trades",
				Usage: "List trades newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "page",
						Aliases: []string{"p"},
						Usage:   "Page number, starting at 1",
						Value:   1,
					},
				},
				Action: withApp(tradesAction),
			},
			{
				Name:  "simulate",
				Usage: "Run a balance projection with custom parameters",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "mode",
						Aliases: []string{"m"},
						Usage:   fmt.Sprintf("Stake sizing (%s or %s)", types.SimulationCompound, types.SimulationSimple),
						Value:   string(types.SimulationCompound),
					},
					&cli.FloatFlag{
						Name:  "balance",
						Usage: "Initial balance (defaults to the configured value)",
					},
					&cli.FloatFlag{
						Name:  "risk",
						Usage: "Risk per trade in percent (defaults to the configured value)",
					},
					&cli.FloatFlag{
						Name:  "leverage",
						Usage: "Leverage (defaults to the configured value)",
					},
				},
				Action: withApp(simulateAction),
			},
			{
				Name:   "check",
				Usage:  "Compare the summary header with the trades",
				Action: withApp(checkAction),
			},
			{
				Name:   "fix",
				Usage:  "Rewrite the summary header from the trades, keeping a backup",
				Action: withApp(fixAction),
			},
			{
				Name:  "add-trade",
				Usage: "Compute a closed trade and prepend it to the ledger",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "ticker",
						Aliases:  []string{"t"},
						Usage:    "Ticker symbol",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "entry",
						Aliases:  []string{"e"},
						Usage:    "Entry price, e.g. 0.25 or 1,25",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "margin",
						Usage: "Margin multiplier, e.g. X10",
						Value: "X1",
					},
					&cli.StringFlag{
						Name:     "direction",
						Aliases:  []string{"d"},
						Usage:    "long or short",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "exits",
						Aliases:  []string{"x"},
						Usage:    "Exit legs, e.g. \"105 (50%) 110 (50%)\"",
						Required: true,
					},
					&cli.TimestampFlag{
						Name:  "date",
						Usage: "Trade date in `DD.MM.YYYY` format. Defaults to today.",
						Config: cli.TimestampConfig{
							Layouts: []string{ledger.TradeDateLayout, "2006-01-02"},
						},
					},
				},
				Action: withApp(addTradeAction),
			},
			{
				Name:   "backups",
				Usage:  "List ledger backups, oldest first",
				Action: withApp(backupsAction),
			},
			{
				Name:  "export",
				Usage: "Write the current stats snapshot as YAML",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output file",
						Value:   "stats.yaml",
					},
				},
				Action: withApp(exportAction),
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the config file",
				Action: schemaAction,
			},
			{
				Name:   "version",
				Usage:  "Print the version",
				Action: versionAction,
			},
		},
	}
}

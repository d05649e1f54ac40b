package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"equitySim/config"
	"equitySim/internal/adapters/logger"
	"equitySim/internal/adapters/sqlite"
	"equitySim/internal/backtest"
	"equitySim/internal/blotter"
	"equitySim/internal/calendar"
	"equitySim/internal/domain"
	"equitySim/internal/handlers"
	"equitySim/internal/marketdata"
	"equitySim/internal/portfolio"
	"equitySim/internal/ports"
	"equitySim/internal/strategy"
	"equitySim/internal/utils"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBacktest(cmd.Context())
	},
}

func runBacktest(parent context.Context) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	log := logger.NewStdLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	bars, err := loadBars(ctx, cfg, log)
	if err != nil {
		return err
	}
	handler, err := marketdata.NewBarHandler(bars)
	if err != nil {
		return err
	}

	// The first configured ticker doubles as the run's benchmark.
	bench, err := marketdata.NewMarket(cfg.Tickers[0], bars[cfg.Tickers[0]])
	if err != nil {
		return err
	}

	var cal ports.TradingCalendar
	switch cfg.Calendar {
	case "always":
		cal = calendar.AlwaysOpen{}
	default:
		cal = calendar.NewNYSECalendar()
	}

	bl, err := blotter.New(handler, cal, log)
	if err != nil {
		return err
	}

	store, err := sqlite.NewStore(sqlite.Config{DBPath: cfg.DBPath, Logger: log})
	if err != nil {
		return err
	}
	defer store.Close()

	pf, err := portfolio.NewBasic(portfolio.Config{
		DataHandler:     handler,
		Blotter:         bl,
		Store:           store,
		Logger:          log,
		StartDate:       cfg.StartDate,
		InitialCapital:  cfg.InitialCapital,
		RaiseOnWarnings: cfg.RaiseOnWarnings,
	})
	if err != nil {
		return err
	}

	naive, err := handlers.NewNaive(cfg.OrderQty, cfg.Commission, log)
	if err != nil {
		return err
	}
	pf.RegisterSignalHandler(naive)

	var strat strategy.Strategy
	switch cfg.Strategy {
	case "sma_crossover":
		strat, err = strategy.NewSMACrossover(cfg.ShortMAPeriod, cfg.LongMAPeriod)
		if err != nil {
			return err
		}
	default:
		strat = strategy.NewBuyAndHold()
	}

	bt, err := backtest.New(backtest.Config{
		Bars:      handler,
		Portfolio: pf,
		Strategy:  strat,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	res, err := bt.Run(ctx)
	if err != nil {
		return err
	}

	printResult(res, bench)
	return nil
}

// loadBars assembles the per-ticker bar series from the configured source,
// clipped to the configured date range.
func loadBars(ctx context.Context, cfg *config.Config, log ports.Logger) (map[string][]domain.Bar, error) {
	bars := make(map[string][]domain.Bar, len(cfg.Tickers))

	for _, ticker := range cfg.Tickers {
		var (
			series []domain.Bar
			err    error
		)
		switch cfg.DataSource {
		case "binance":
			series, err = fetchBinanceBars(ctx, cfg, log, ticker)
		default:
			series, err = utils.ReadBarsFromCSV(filepath.Join(cfg.CSVDir, ticker+".csv"))
		}
		if err != nil {
			return nil, fmt.Errorf("load bars for %s: %w", ticker, err)
		}

		series = clipRange(series, cfg.StartDate, cfg.EndDate)
		if len(series) == 0 {
			return nil, fmt.Errorf("load bars for %s: no bars in range %s to %s: %w",
				ticker, cfg.StartDate.Format("2006-01-02"), cfg.EndDate.Format("2006-01-02"), ports.ErrNoData)
		}
		bars[ticker] = series
	}

	return bars, nil
}

func clipRange(bars []domain.Bar, start, end time.Time) []domain.Bar {
	out := bars[:0:0]
	for _, b := range bars {
		if b.Timestamp.Before(start) || b.Timestamp.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func printResult(res *backtest.Result, bench *marketdata.Market) {
	benchReturn := 1.0
	for _, r := range bench.Returns() {
		benchReturn *= 1 + r
	}

	fmt.Printf("Backtest complete in %s\n", res.Finished.Sub(res.Started).Round(time.Millisecond))
	fmt.Printf("  Ticks:           %d\n", res.Ticks)
	fmt.Printf("  Signals:         %d\n", res.Signals)
	fmt.Printf("  Fills:           %d\n", res.Fills)
	fmt.Printf("  Initial capital: %.2f\n", res.InitialCapital)
	fmt.Printf("  Final value:     %.2f\n", res.FinalValue)
	fmt.Printf("  Total return:    %s\n", formatPct(res.TotalReturn))
	fmt.Printf("  Max drawdown:    %s\n", formatPct(res.MaxDrawdown))
	fmt.Printf("  Benchmark %s:    %s\n", bench.Ticker, formatPct(benchReturn-1))
}

func formatPct(f float64) string {
	return strings.TrimSpace(fmt.Sprintf("%8.2f%%", f*100))
}

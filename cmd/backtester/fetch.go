package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"equitySim/config"
	"equitySim/internal/adapters/binanceclient"
	"equitySim/internal/adapters/logger"
	"equitySim/internal/domain"
	"equitySim/internal/ports"
	"equitySim/internal/utils"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch historical bars and write them to CSV",
	Long: `fetch downloads kline history for every configured ticker from
Binance and writes one CSV file per ticker under the configured CSV
directory, where the run command can consume them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return fetchBars(cmd.Context())
	},
}

func fetchBars(ctx context.Context) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	log := logger.NewStdLogger(cfg.LogLevel)

	if err := os.MkdirAll(cfg.CSVDir, 0o755); err != nil {
		return fmt.Errorf("create csv dir: %w", err)
	}

	for _, ticker := range cfg.Tickers {
		bars, err := fetchBinanceBars(ctx, cfg, log, ticker)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", ticker, err)
		}
		path := filepath.Join(cfg.CSVDir, ticker+".csv")
		if err := utils.WriteBarsToCSV(bars, path); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		log.Info(ctx, "Wrote bar history",
			map[string]interface{}{"ticker": ticker, "bars": len(bars), "path": path})
	}

	return nil
}

func fetchBinanceBars(ctx context.Context, cfg *config.Config, log ports.Logger, ticker string) ([]domain.Bar, error) {
	client, err := binanceclient.New(binanceclient.Config{
		APIKey:    cfg.APIKey,
		SecretKey: cfg.SecretKey,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}
	return client.GetBarsRange(ctx, ticker, cfg.Interval, cfg.StartDate, cfg.EndDate)
}

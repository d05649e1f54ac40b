// Package binanceclient fetches historical bar data from Binance so
// simulations can run against real price history. Only the historical
// kline range path is implemented; the simulator never talks to an
// exchange during a run.
package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"

	"equitySim/internal/domain"
	"equitySim/internal/ports"
)

// Client wraps the Binance spot API for bar retrieval.
type Client struct {
	api    *binance.Client
	logger ports.Logger
}

// Config holds configuration for the Binance client. API keys are optional
// for public kline endpoints.
type Config struct {
	APIKey     string
	SecretKey  string
	UseTestnet bool
	Logger     ports.Logger
}

// New creates a Binance-backed bar fetcher.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance client")
	}
	binance.UseTestnet = cfg.UseTestnet
	return &Client{
		api:    binance.NewClient(cfg.APIKey, cfg.SecretKey),
		logger: cfg.Logger,
	}, nil
}

// GetBarsRange fetches all bars for a symbol/interval between start and
// end, paging through the API's per-request limit.
func (c *Client) GetBarsRange(ctx context.Context, symbol, interval string, start, end time.Time) ([]domain.Bar, error) {
	const maxLimit = 1000
	var all []domain.Bar
	from := start

	for {
		klines, err := c.api.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(from.UnixMilli()).
			EndTime(end.UnixMilli()).
			Limit(maxLimit).
			Do(ctx)
		if err != nil {
			return nil, c.wrapError(ctx, err, "GetBarsRange")
		}
		if len(klines) == 0 {
			break
		}

		for _, k := range klines {
			bar, err := translateKline(k, symbol)
			if err != nil {
				return nil, fmt.Errorf("translate kline for %s: %w", symbol, err)
			}
			all = append(all, bar)
		}

		last := klines[len(klines)-1]
		from = time.UnixMilli(last.CloseTime)
		if from.After(end) || len(klines) < maxLimit {
			break
		}
	}

	c.logger.Info(ctx, "Fetched bars",
		map[string]interface{}{"symbol": symbol, "interval": interval, "count": len(all)})
	return all, nil
}

// translateKline converts a Binance kline into a domain bar. Crypto prices
// carry no split/dividend adjustments, so the adjusted close equals the
// close.
func translateKline(k *binance.Kline, symbol string) (domain.Bar, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("parse open %q: %w", k.Open, err)
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("parse high %q: %w", k.High, err)
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("parse low %q: %w", k.Low, err)
	}
	closeP, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("parse close %q: %w", k.Close, err)
	}
	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return domain.Bar{}, fmt.Errorf("parse volume %q: %w", k.Volume, err)
	}

	return domain.Bar{
		Timestamp: time.UnixMilli(k.OpenTime).UTC(),
		Ticker:    symbol,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closeP,
		AdjClose:  closeP,
		Volume:    volume,
	}, nil
}

// wrapError maps API failures onto the standard port errors and logs them.
func (c *Client) wrapError(ctx context.Context, err error, op string) error {
	var apiErr *common.APIError
	wrapped := fmt.Errorf("%s: %w", op, ports.ErrSourceUnavailable)
	if errors.As(err, &apiErr) {
		// -1003: too many requests.
		if apiErr.Code == -1003 {
			wrapped = fmt.Errorf("%s: %w", op, ports.ErrRateLimited)
		}
	} else if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		wrapped = fmt.Errorf("%s: %w", op, err)
	}
	c.logger.Error(ctx, err, "Binance request failed", map[string]interface{}{"op": op})
	return wrapped
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"equitySim/internal/domain"
	"equitySim/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Store implements ports.SnapshotStore using SQLite. Snapshot writes are
// idempotent upserts keyed by (collection, timestamp, ticker), so replaying
// the same tick replaces rows instead of duplicating them.
type Store struct {
	db     *sql.DB
	logger ports.Logger
}

var _ ports.SnapshotStore = (*Store)(nil)

// Config holds configuration for the SQLite store.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewStore opens (or creates) the database, verifies the connection and
// initialises the schema.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite store")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/equitysim.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory %q: %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	// WAL keeps snapshot writes from blocking reads during a run.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at %q: %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at %q: %w", dbPath, ports.ErrDBConnection)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	// The Go driver benefits from a single connection with SQLite.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, logger: cfg.Logger}
	if err := s.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite store initialization failed")
		return nil, err
	}

	cfg.Logger.Info(context.Background(), "SQLite snapshot store ready",
		map[string]interface{}{"path": dbPath})
	return s, nil
}

func (s *Store) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS snapshots (
		collection   TEXT NOT NULL,
		ts           TIMESTAMP NOT NULL,
		ticker       TEXT NOT NULL,
		shares       REAL NOT NULL,
		market_value REAL NOT NULL,
		cash         REAL NOT NULL,
		commission   REAL NOT NULL,
		total        REAL NOT NULL,
		PRIMARY KEY (collection, ts, ticker)
	);

	CREATE TABLE IF NOT EXISTS trades (
		id            TEXT PRIMARY KEY,
		order_id      TEXT NOT NULL,
		prev_trade_id TEXT,
		ticker        TEXT NOT NULL,
		action        TEXT NOT NULL,
		qty           REAL NOT NULL,
		price         REAL NOT NULL,
		strategy      TEXT NOT NULL,
		ts            TIMESTAMP NOT NULL,
		commission    REAL NOT NULL,
		net_value     REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_collection_ts ON snapshots (collection, ts);
	CREATE INDEX IF NOT EXISTS idx_trades_ticker_ts ON trades (ticker, ts);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrQueryFailed, err)
	}
	return nil
}

// WriteSnapshot upserts the given rows into the collection. Each row is
// keyed by its own timestamp and ticker, so handing over the cumulative
// table on every tick rewrites prior rows in place.
func (s *Store) WriteSnapshot(ctx context.Context, collection string, rows []domain.PositionRow, ts time.Time) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write snapshot %q: %w: %v", collection, ports.ErrDBConnection, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO snapshots
		(collection, ts, ticker, shares, market_value, cash, commission, total)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("write snapshot %q: %w: %v", collection, ports.ErrQueryFailed, err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, collection, r.Timestamp, r.Ticker,
			r.Shares, r.MarketValue, r.Cash, r.Commission, r.Total); err != nil {
			return fmt.Errorf("write snapshot %q at %s: %w: %v", collection, r.Timestamp, ports.ErrQueryFailed, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write snapshot %q: %w: %v", collection, ports.ErrQueryFailed, err)
	}

	s.logger.Debug(ctx, "Snapshot written",
		map[string]interface{}{"collection": collection, "rows": len(rows), "ts": ts})
	return nil
}

// LoadSnapshot returns all rows of a collection ordered by timestamp then
// ticker.
func (s *Store) LoadSnapshot(ctx context.Context, collection string) ([]domain.PositionRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts, ticker, shares, market_value, cash, commission, total
		FROM snapshots WHERE collection = ? ORDER BY ts, ticker`, collection)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %q: %w: %v", collection, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var out []domain.PositionRow
	for rows.Next() {
		var r domain.PositionRow
		if err := rows.Scan(&r.Timestamp, &r.Ticker, &r.Shares, &r.MarketValue,
			&r.Cash, &r.Commission, &r.Total); err != nil {
			return nil, fmt.Errorf("load snapshot %q: scan: %w: %v", collection, ports.ErrQueryFailed, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load snapshot %q: %w: %v", collection, ports.ErrQueryFailed, err)
	}
	return out, nil
}

// RecordTrade appends an executed trade to the journal.
func (s *Store) RecordTrade(ctx context.Context, t *domain.Trade) error {
	if t == nil {
		return fmt.Errorf("record trade: trade is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
		(id, order_id, prev_trade_id, ticker, action, qty, price, strategy, ts, commission, net_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OrderID, t.PrevTradeID, t.Ticker, string(t.Action),
		t.Qty, t.Price, t.Strategy, t.Timestamp, t.Commission, t.NetValue)
	if err != nil {
		return fmt.Errorf("record trade %q: %w: %v", t.ID, ports.ErrQueryFailed, err)
	}
	return nil
}

// ListTrades returns the most recent trades for a ticker, newest first.
func (s *Store) ListTrades(ctx context.Context, ticker string, limit int) ([]*domain.Trade, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, order_id, prev_trade_id, ticker, action, qty, price, strategy, ts, commission, net_value
		FROM trades WHERE ticker = ? ORDER BY ts DESC LIMIT ?`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("list trades for %s: %w: %v", ticker, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var out []*domain.Trade
	for rows.Next() {
		var t domain.Trade
		var action string
		if err := rows.Scan(&t.ID, &t.OrderID, &t.PrevTradeID, &t.Ticker, &action,
			&t.Qty, &t.Price, &t.Strategy, &t.Timestamp, &t.Commission, &t.NetValue); err != nil {
			return nil, fmt.Errorf("list trades for %s: scan: %w: %v", ticker, ports.ErrQueryFailed, err)
		}
		t.Action = domain.TradeAction(action)
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list trades for %s: %w: %v", ticker, ports.ErrQueryFailed, err)
	}
	return out, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

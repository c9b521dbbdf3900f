package marketdata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"

	"strategy-scanner/internal/interfaces"
	"strategy-scanner/internal/types"
)

// ClickHouseSource reads historical OHLCV bars from a ClickHouse table with
// columns (ts DateTime, symbol, interval, open, high, low, close, volume).
type ClickHouseSource struct {
	db    *sql.DB
	table string
}

var _ interfaces.MarketData = (*ClickHouseSource)(nil)

type ClickHouseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	Table    string
}

func NewClickHouseSource(cfg ClickHouseConfig) (*ClickHouseSource, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("clickhouse host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 9000
	}
	if cfg.Table == "" {
		cfg.Table = "candles"
	}
	dsn := fmt.Sprintf("clickhouse://%s:%s@%s:%d/%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database)
	db, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return &ClickHouseSource{db: db, table: cfg.Table}, nil
}

func (s *ClickHouseSource) Source() string { return "CLICKHOUSE" }

func (s *ClickHouseSource) Close() error { return s.db.Close() }

func (s *ClickHouseSource) Candles(ctx context.Context, symbol, timeframe string, count int, historical bool) ([]types.Candle, error) {
	q := fmt.Sprintf(
		"SELECT ts, open, high, low, close, volume FROM %s WHERE symbol = ? AND interval = ? ORDER BY ts DESC LIMIT ?",
		s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, timeframe, count)
	if err != nil {
		return nil, fmt.Errorf("clickhouse query: %w", err)
	}
	defer rows.Close()

	out := make([]types.Candle, 0, count)
	for rows.Next() {
		var ts time.Time
		var c types.Candle
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Vol); err != nil {
			return nil, fmt.Errorf("clickhouse scan: %w", err)
		}
		c.Ts = ts.Unix()
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("clickhouse rows: %w", err)
	}
	// query returns newest first; series wants ascending time
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

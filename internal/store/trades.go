package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// TradeRecord is one round trip (or an open leg awaiting its close).
// Times are stored in UTC.
type TradeRecord struct {
	TradeID         string    `json:"trade_id"`
	Pair            string    `json:"pair"`
	Side            string    `json:"side"`
	Size            float64   `json:"size"`
	EntryPrice      float64   `json:"entry_price"`
	ExitPrice       float64   `json:"exit_price,omitempty"`
	StopLossPrice   float64   `json:"stop_loss_price"`
	TakeProfitPrice float64   `json:"take_profit_price"`
	OpenTime        time.Time `json:"open_time"`
	CloseTime       time.Time `json:"close_time"`
	RealizedPnL     float64   `json:"realized_pnl"`
	Reason          string    `json:"reason,omitempty"`
	Status          string    `json:"status"`
}

const (
	StatusOpen   = "OPEN"
	StatusClosed = "CLOSED"
)

// DayStats aggregates one UTC trading day, used to warm-start the
// daily loss and trade-count limits after a restart.
type DayStats struct {
	Day         string
	RealizedPnL float64
	TradeCount  int
}

type TradeStore struct {
	db *sql.DB
}

func NewTradeStore(path string) (*TradeStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &TradeStore{db: db}, nil
}

func (s *TradeStore) RecordOpen(t TradeRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO trades
		(trade_id, pair, side, size, entry_price, stop_loss_price, take_profit_price, open_time, reason, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Pair, t.Side, t.Size, t.EntryPrice,
		t.StopLossPrice, t.TakeProfitPrice, t.OpenTime.UTC(), t.Reason, StatusOpen,
	)
	return err
}

func (s *TradeStore) RecordClose(tradeID string, exitPrice float64, closeTime time.Time, realizedPnL float64, reason string) error {
	res, err := s.db.Exec(`
		UPDATE trades
		SET exit_price = ?, close_time = ?, realized_pnl = ?, reason = ?, status = ?
		WHERE trade_id = ? AND status = ?`,
		exitPrice, closeTime.UTC(), realizedPnL, reason, StatusClosed, tradeID, StatusOpen,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("trade %q not found or already closed", tradeID)
	}
	return nil
}

// OpenTrade returns the currently open trade, or nil if the book is flat
func (s *TradeStore) OpenTrade() (*TradeRecord, error) {
	row := s.db.QueryRow(`
		SELECT trade_id, pair, side, size, entry_price, exit_price, stop_loss_price, take_profit_price,
		       open_time, close_time, realized_pnl, reason, status
		FROM trades
		WHERE status = ?
		ORDER BY open_time DESC LIMIT 1`, StatusOpen)

	rec, err := scanTrade(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// TradesOn returns all trades opened during the UTC day containing t,
// ordered by open time.
func (s *TradeStore) TradesOn(t time.Time) ([]TradeRecord, error) {
	start, end := dayBounds(t)
	rows, err := s.db.Query(`
		SELECT trade_id, pair, side, size, entry_price, exit_price, stop_loss_price, take_profit_price,
		       open_time, close_time, realized_pnl, reason, status
		FROM trades
		WHERE open_time >= ? AND open_time < ?
		ORDER BY open_time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// StatsOn aggregates the UTC day containing t. TradeCount counts trades
// opened that day; RealizedPnL sums trades closed that day.
func (s *TradeStore) StatsOn(t time.Time) (DayStats, error) {
	start, end := dayBounds(t)
	stats := DayStats{Day: start.Format("2006-01-02")}

	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM trades WHERE open_time >= ? AND open_time < ?`,
		start, end).Scan(&stats.TradeCount)
	if err != nil {
		return stats, err
	}

	err = s.db.QueryRow(`
		SELECT COALESCE(SUM(realized_pnl), 0) FROM trades
		WHERE status = ? AND close_time >= ? AND close_time < ?`,
		StatusClosed, start, end).Scan(&stats.RealizedPnL)
	return stats, err
}

// TotalRealizedPnL sums realized pnl over all closed trades, used to
// rebuild equity from the starting balance after a restart.
func (s *TradeStore) TotalRealizedPnL() (float64, error) {
	var total float64
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(realized_pnl), 0) FROM trades WHERE status = ?`,
		StatusClosed).Scan(&total)
	return total, err
}

func (s *TradeStore) Close() error {
	return s.db.Close()
}

func dayBounds(t time.Time) (time.Time, time.Time) {
	u := t.UTC()
	start := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (TradeRecord, error) {
	var rec TradeRecord
	var closeTime sql.NullTime
	err := row.Scan(
		&rec.TradeID,
		&rec.Pair,
		&rec.Side,
		&rec.Size,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.StopLossPrice,
		&rec.TakeProfitPrice,
		&rec.OpenTime,
		&closeTime,
		&rec.RealizedPnL,
		&rec.Reason,
		&rec.Status,
	)
	if err != nil {
		return TradeRecord{}, err
	}
	if closeTime.Valid {
		rec.CloseTime = closeTime.Time
	}
	return rec, nil
}

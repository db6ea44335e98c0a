package journal

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite stores trade records in a local SQLite database.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal db %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordOpen(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, symbol, direction, quantity, entry_price, stop_loss, take_profit, open_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Symbol, t.Direction.String(), t.Quantity,
		t.EntryPrice, t.StopLoss, t.TakeProfit, t.OpenTime,
	)
	return err
}

func (j *SQLite) RecordClose(tradeID string, exitPrice float64, closeTime time.Time, realizedPL float64, reason string) error {
	res, err := j.db.Exec(`
		UPDATE trades
		SET exit_price = ?, close_time = ?, realized_pl = ?, reason = ?
		WHERE trade_id = ?`,
		exitPrice, closeTime, realizedPL, reason, tradeID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("no open trade with id %s", tradeID)
	}
	return nil
}

// Trades returns all recorded trades, oldest first. The exit columns
// are selected raw, not through COALESCE: expressions lose the
// column's declared type and the driver would hand back bare strings
// where time.Time is expected.
func (j *SQLite) Trades() ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, symbol, direction, quantity, entry_price, stop_loss, take_profit,
		       open_time, exit_price, close_time, realized_pl, reason
		FROM trades ORDER BY open_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var (
			t         TradeRecord
			dir       string
			exitPrice sql.NullFloat64
			closeTime sql.NullTime
			realized  sql.NullFloat64
			reason    sql.NullString
		)
		if err := rows.Scan(&t.TradeID, &t.Symbol, &dir, &t.Quantity, &t.EntryPrice,
			&t.StopLoss, &t.TakeProfit, &t.OpenTime, &exitPrice, &closeTime,
			&realized, &reason); err != nil {
			return nil, err
		}
		t.Direction = parseSide(dir)
		t.ExitPrice = exitPrice.Float64
		if closeTime.Valid {
			t.CloseTime = closeTime.Time
		}
		t.RealizedPL = realized.Float64
		t.Reason = reason.String
		out = append(out, t)
	}
	return out, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

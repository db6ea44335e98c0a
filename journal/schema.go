package journal

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	direction TEXT NOT NULL,
	quantity REAL NOT NULL,
	entry_price REAL NOT NULL,
	stop_loss REAL NOT NULL,
	take_profit REAL NOT NULL,
	open_time DATETIME NOT NULL,
	exit_price REAL,
	close_time DATETIME,
	realized_pl REAL,
	reason TEXT
);

CREATE INDEX IF NOT EXISTS idx_trades_open_time ON trades(open_time);
`

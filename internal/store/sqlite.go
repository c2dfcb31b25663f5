// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"levercalc/internal/calc"
	"levercalc/internal/errors"
	"levercalc/internal/models"
	"levercalc/pkg/utils"
)

// SQLiteStore implements HistoryStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-based history store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One writer at a time is plenty for a local journal.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Saved calculations
	CREATE TABLE IF NOT EXISTS calculations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME NOT NULL,
		entry_price REAL NOT NULL,
		target_price REAL NOT NULL,
		leverage INTEGER NOT NULL,
		position TEXT NOT NULL,
		capital_usd REAL NOT NULL,
		exchange_rate REAL NOT NULL,
		fee_rate REAL NOT NULL,
		raw_percent REAL NOT NULL,
		fee_drag_percent REAL NOT NULL,
		leveraged_percent REAL NOT NULL,
		profit_usd REAL NOT NULL,
		profit_krw REAL NOT NULL,
		final_capital_usd REAL NOT NULL,
		final_capital_krw REAL NOT NULL,
		note TEXT DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_calculations_created ON calculations(created_at);
	CREATE INDEX IF NOT EXISTS idx_calculations_position ON calculations(position);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const selectCalculations = `SELECT id, created_at, entry_price, target_price, leverage, position, capital_usd, exchange_rate, fee_rate,
	raw_percent, fee_drag_percent, leveraged_percent, profit_usd, profit_krw, final_capital_usd, final_capital_krw, note
	FROM calculations`

// SaveCalculation saves a calculation and sets its ID.
func (s *SQLiteStore) SaveCalculation(ctx context.Context, c *models.Calculation) error {
	in, res := c.Input, c.Result
	var result sql.Result
	err := s.withRetry(ctx, func() (err error) {
		result, err = s.db.ExecContext(ctx, `
		INSERT INTO calculations (created_at, entry_price, target_price, leverage, position, capital_usd, exchange_rate, fee_rate,
			raw_percent, fee_drag_percent, leveraged_percent, profit_usd, profit_krw, final_capital_usd, final_capital_krw, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.CreatedAt.UTC(), in.EntryPrice, in.TargetPrice, in.Leverage, string(in.Position), in.CapitalUSD, in.ExchangeRate, in.FeeRate,
			res.RawPercent, res.FeeDragPercent, res.LeveragedPercent, res.ProfitUSD, res.ProfitKRW, res.FinalCapitalUSD, res.FinalCapitalKRW, c.Note)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save calculation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read calculation id: %w", err)
	}
	c.ID = id
	return nil
}

// GetCalculations retrieves calculations, newest first.
func (s *SQLiteStore) GetCalculations(ctx context.Context, filter HistoryFilter) ([]models.Calculation, error) {
	query := selectCalculations + " WHERE 1=1"
	args := []interface{}{}

	if filter.Position != "" {
		query += " AND position = ?"
		args = append(args, string(filter.Position))
	}
	if !filter.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.Since.UTC())
	}

	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query calculations: %w", err)
	}
	defer rows.Close()

	var calcs []models.Calculation
	for rows.Next() {
		c, err := scanCalculation(rows)
		if err != nil {
			return nil, err
		}
		calcs = append(calcs, *c)
	}

	return calcs, rows.Err()
}

// GetCalculation retrieves one calculation by ID.
func (s *SQLiteStore) GetCalculation(ctx context.Context, id int64) (*models.Calculation, error) {
	row := s.db.QueryRowContext(ctx, selectCalculations+" WHERE id = ?", id)
	c, err := scanCalculation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(errors.ErrDataNotFound, "calculation %d", id)
		}
		return nil, err
	}
	return c, nil
}

// DeleteCalculation removes one calculation.
func (s *SQLiteStore) DeleteCalculation(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM calculations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete calculation: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete calculation: %w", err)
	}
	if n == 0 {
		return errors.Wrapf(errors.ErrDataNotFound, "calculation %d", id)
	}
	return nil
}

// ClearHistory removes every calculation and returns how many were removed.
func (s *SQLiteStore) ClearHistory(ctx context.Context) (int64, error) {
	var result sql.Result
	err := s.withRetry(ctx, func() (err error) {
		result, err = s.db.ExecContext(ctx, "DELETE FROM calculations")
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	return result.RowsAffected()
}

// withRetry retries writes that hit a lock held by another levercalc
// process (an interactive session and a one-shot calc, say).
func (s *SQLiteStore) withRetry(ctx context.Context, fn func() error) error {
	cfg := utils.DefaultRetryConfig()
	cfg.Retryable = isBusy
	return utils.Retry(ctx, cfg, fn)
}

func isBusy(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanCalculation(row scanner) (*models.Calculation, error) {
	var c models.Calculation
	var position string
	in, res := &c.Input, &c.Result

	if err := row.Scan(&c.ID, &c.CreatedAt, &in.EntryPrice, &in.TargetPrice, &in.Leverage, &position, &in.CapitalUSD, &in.ExchangeRate, &in.FeeRate,
		&res.RawPercent, &res.FeeDragPercent, &res.LeveragedPercent, &res.ProfitUSD, &res.ProfitKRW, &res.FinalCapitalUSD, &res.FinalCapitalKRW, &c.Note); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan calculation: %w", err)
	}
	in.Position = calc.Position(position)
	return &c, nil
}

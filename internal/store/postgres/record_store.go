package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/swapsniper/internal/domain"
)

// RecordStore implements domain.TradeRecordStore using PostgreSQL.
type RecordStore struct {
	pool *pgxpool.Pool
}

// NewRecordStore creates a RecordStore backed by the given connection pool.
func NewRecordStore(pool *pgxpool.Pool) *RecordStore {
	return &RecordStore{pool: pool}
}

const recordCols = `id, token, symbol, strategy_id, entry_price, exit_price,
	amount_in, amount_out, pnl, pnl_percent, entry_tx_ref, exit_tx_ref,
	entry_reason, exit_reason, opened_at, closed_at`

func scanRecordRows(rows pgx.Rows) ([]domain.TradeRecord, error) {
	var records []domain.TradeRecord
	for rows.Next() {
		var r domain.TradeRecord
		if err := rows.Scan(
			&r.ID, &r.Token, &r.Symbol, &r.StrategyID,
			&r.EntryPrice, &r.ExitPrice, &r.AmountIn, &r.AmountOut,
			&r.PnL, &r.PnLPercent, &r.EntryTxRef, &r.ExitTxRef,
			&r.EntryReason, &r.ExitReason, &r.OpenedAt, &r.ClosedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Save inserts a completed trade. Replays of the same record ID are silently
// skipped so a retried close cannot double-count.
func (s *RecordStore) Save(ctx context.Context, rec domain.TradeRecord) error {
	const query = `
		INSERT INTO trade_records (
			id, token, symbol, strategy_id, entry_price, exit_price,
			amount_in, amount_out, pnl, pnl_percent, entry_tx_ref, exit_tx_ref,
			entry_reason, exit_reason, opened_at, closed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16
		) ON CONFLICT (id) DO NOTHING`

	_, err := s.pool.Exec(ctx, query,
		rec.ID, rec.Token, rec.Symbol, rec.StrategyID,
		rec.EntryPrice, rec.ExitPrice, rec.AmountIn, rec.AmountOut,
		rec.PnL, rec.PnLPercent, rec.EntryTxRef, rec.ExitTxRef,
		rec.EntryReason, rec.ExitReason, rec.OpenedAt, rec.ClosedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: save trade record %s: %w", rec.ID, err)
	}
	return nil
}

// ListRecent returns the most recently closed trades, newest first.
func (s *RecordStore) ListRecent(ctx context.Context, limit int) ([]domain.TradeRecord, error) {
	query := `SELECT ` + recordCols + ` FROM trade_records ORDER BY closed_at DESC LIMIT $1`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list recent trade records: %w", err)
	}
	defer rows.Close()

	records, err := scanRecordRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan recent trade records: %w", err)
	}
	return records, nil
}

// ListBefore returns trades closed strictly before the given time, oldest
// first, for archiving.
func (s *RecordStore) ListBefore(ctx context.Context, before time.Time) ([]domain.TradeRecord, error) {
	query := `SELECT ` + recordCols + ` FROM trade_records WHERE closed_at < $1 ORDER BY closed_at ASC`
	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list trade records before: %w", err)
	}
	defer rows.Close()

	records, err := scanRecordRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan trade records before: %w", err)
	}
	return records, nil
}

// DeleteBefore removes trades closed before the given time and returns the
// number deleted.
func (s *RecordStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM trade_records WHERE closed_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete trade records before: %w", err)
	}
	return tag.RowsAffected(), nil
}

// SumPnL totals the realized PnL of trades closed at or after the given time.
// Used to seed the risk ledger's rolling window on restart.
func (s *RecordStore) SumPnL(ctx context.Context, since time.Time) (float64, error) {
	var total *float64
	err := s.pool.QueryRow(ctx,
		`SELECT SUM(pnl) FROM trade_records WHERE closed_at >= $1`, since,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("postgres: sum trade record pnl: %w", err)
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

var _ domain.TradeRecordStore = (*RecordStore)(nil)

package domain

import (
	"context"
	"time"
)

// TradeRecordStore persists completed trades. Save failures are non-fatal to
// the in-memory close: the lifecycle manager logs them and moves on.
type TradeRecordStore interface {
	Save(ctx context.Context, rec TradeRecord) error
	ListRecent(ctx context.Context, limit int) ([]TradeRecord, error)
	ListBefore(ctx context.Context, before time.Time) ([]TradeRecord, error)
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)

	// SumPnL returns the total realized PnL of trades closed at or after
	// since. Used to seed the risk ledger's rolling window on restart.
	SumPnL(ctx context.Context, since time.Time) (float64, error)
}

// BlobWriter stores an object at the given path in blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
}

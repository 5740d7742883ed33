// Package history moves old completed trades from the database into object
// storage so the hot table stays small.
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/swapsniper/internal/domain"
)

// Archiver exports trade records older than the retention window to the blob
// store as JSON lines, then prunes them from the database.
type Archiver struct {
	records   domain.TradeRecordStore
	blobs     domain.BlobWriter
	retention time.Duration
	interval  time.Duration
	logger    *slog.Logger

	now func() time.Time
}

// NewArchiver builds an Archiver keeping records for retention and running
// every interval.
func NewArchiver(records domain.TradeRecordStore, blobs domain.BlobWriter, retention, interval time.Duration, logger *slog.Logger) *Archiver {
	return &Archiver{
		records:   records,
		blobs:     blobs,
		retention: retention,
		interval:  interval,
		logger:    logger.With(slog.String("component", "archiver")),
		now:       time.Now,
	}
}

// SetClock replaces the time source. Tests only.
func (a *Archiver) SetClock(now func() time.Time) {
	a.now = now
}

// Run archives on the configured interval until ctx is cancelled. A failed
// run is logged and retried on the next interval; records are only pruned
// after a successful upload, so a failure never loses history.
func (a *Archiver) Run(ctx context.Context) error {
	a.logger.Info("archiver started",
		slog.Duration("retention", a.retention),
		slog.Duration("interval", a.interval),
	)
	defer a.logger.Info("archiver stopped")

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := a.Archive(ctx); err != nil {
				a.logger.Error("archive run failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Archive performs one export-and-prune pass.
func (a *Archiver) Archive(ctx context.Context) error {
	cutoff := a.now().UTC().Add(-a.retention)

	records, err := a.records.ListBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("history: list records before %v: %w", cutoff, err)
	}
	if len(records) == 0 {
		return nil
	}

	payload, err := encodeLines(records)
	if err != nil {
		return fmt.Errorf("history: encode records: %w", err)
	}

	path := fmt.Sprintf("trades/%s.jsonl", a.now().UTC().Format("2006-01-02T15-04-05Z"))
	if err := a.blobs.Put(ctx, path, payload, "application/x-ndjson"); err != nil {
		return fmt.Errorf("history: upload %s: %w", path, err)
	}

	deleted, err := a.records.DeleteBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("history: prune records before %v: %w", cutoff, err)
	}

	a.logger.Info("archive run complete",
		slog.String("path", path),
		slog.Int("archived", len(records)),
		slog.Int64("pruned", deleted),
	)
	return nil
}

// encodeLines renders records as one JSON object per line.
func encodeLines(records []domain.TradeRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

package history

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/swapsniper/internal/domain"
)

type fakeRecords struct {
	old     []domain.TradeRecord
	deleted []time.Time
	listErr error
}

func (f *fakeRecords) Save(context.Context, domain.TradeRecord) error { return nil }

func (f *fakeRecords) ListRecent(context.Context, int) ([]domain.TradeRecord, error) {
	return nil, nil
}

func (f *fakeRecords) ListBefore(_ context.Context, _ time.Time) ([]domain.TradeRecord, error) {
	return f.old, f.listErr
}

func (f *fakeRecords) DeleteBefore(_ context.Context, before time.Time) (int64, error) {
	f.deleted = append(f.deleted, before)
	return int64(len(f.old)), nil
}

func (f *fakeRecords) SumPnL(context.Context, time.Time) (float64, error) { return 0, nil }

type fakeBlobs struct {
	paths    []string
	payloads [][]byte
	err      error
}

func (f *fakeBlobs) Put(_ context.Context, path string, data []byte, _ string) error {
	if f.err != nil {
		return f.err
	}
	f.paths = append(f.paths, path)
	f.payloads = append(f.payloads, data)
	return nil
}

func TestArchiveExportsAndPrunes(t *testing.T) {
	records := &fakeRecords{old: []domain.TradeRecord{
		{ID: "t1", Symbol: "MEME", PnL: 5},
		{ID: "t2", Symbol: "MEME", PnL: -2},
	}}
	blobs := &fakeBlobs{}
	a := NewArchiver(records, blobs, 30*24*time.Hour, time.Hour, slog.New(slog.DiscardHandler))

	require.NoError(t, a.Archive(context.Background()))

	require.Len(t, blobs.paths, 1)
	assert.True(t, strings.HasPrefix(blobs.paths[0], "trades/"))
	assert.True(t, strings.HasSuffix(blobs.paths[0], ".jsonl"))

	lines := strings.Split(strings.TrimSpace(string(blobs.payloads[0])), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"id":"t1"`)

	require.Len(t, records.deleted, 1)
}

func TestArchiveNoopWhenNothingOld(t *testing.T) {
	records := &fakeRecords{}
	blobs := &fakeBlobs{}
	a := NewArchiver(records, blobs, 30*24*time.Hour, time.Hour, slog.New(slog.DiscardHandler))

	require.NoError(t, a.Archive(context.Background()))
	assert.Empty(t, blobs.paths)
	assert.Empty(t, records.deleted)
}

func TestArchiveUploadFailureSkipsPrune(t *testing.T) {
	records := &fakeRecords{old: []domain.TradeRecord{{ID: "t1"}}}
	blobs := &fakeBlobs{err: errors.New("bucket gone")}
	a := NewArchiver(records, blobs, 30*24*time.Hour, time.Hour, slog.New(slog.DiscardHandler))

	err := a.Archive(context.Background())
	require.Error(t, err)
	assert.Empty(t, records.deleted, "prune must not run after a failed upload")
}

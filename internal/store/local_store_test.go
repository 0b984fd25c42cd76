package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/envelope-sync/internal/clock"
	"github.com/MKhiriev/envelope-sync/internal/logger"
	"github.com/MKhiriev/envelope-sync/models"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestLocalStore(t *testing.T) (LocalStore, *clock.Fake) {
	t.Helper()

	clk := clock.NewFake(testNow)
	s, err := OpenLocalStore(context.Background(), ":memory:", clk, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s, clk
}

func sampleData() *models.DataCollection {
	return &models.DataCollection{
		Envelopes: []models.Envelope{
			{ID: "env-1", Name: "Groceries", CurrentBalance: decimal.RequireFromString("120.50")},
			{ID: "env-2", Name: "Rent", CurrentBalance: decimal.RequireFromString("900")},
		},
		Transactions: []models.Transaction{
			{ID: "tx-1", Amount: decimal.RequireFromString("-12.30"), EnvelopeID: "env-1"},
		},
		Bills: []models.Bill{},
		Debts: []models.Debt{
			{ID: "debt-1", Name: "Car", Balance: decimal.RequireFromString("5000")},
		},
		PaycheckHistory: []models.PaycheckRecord{},
		Metadata: models.Metadata{
			UnassignedCash: decimal.RequireFromString("42.10"),
			ActualBalance:  decimal.RequireFromString("1062.60"),
			LastModified:   testNow.Add(-time.Hour),
			SyncVersion:    "1",
		},
	}
}

func TestLocalStore_ReadAllEmpty(t *testing.T) {
	s, _ := newTestLocalStore(t)

	data, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	assert.True(t, data.IsEmpty())
	assert.True(t, data.Metadata.LastModified.IsZero())
	assert.True(t, data.Metadata.UnassignedCash.IsZero())
}

func TestLocalStore_ReplaceAllRoundTrip(t *testing.T) {
	s, _ := newTestLocalStore(t)
	ctx := context.Background()

	in := sampleData()
	require.NoError(t, s.ReplaceAll(ctx, in))

	out, err := s.ReadAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, in.Counts(), out.Counts())
	assert.Equal(t, []string{"env-1", "env-2"}, out.RecordIDs(models.Envelopes))
	assert.True(t, in.Metadata.UnassignedCash.Equal(out.Metadata.UnassignedCash))
	assert.True(t, in.Metadata.ActualBalance.Equal(out.Metadata.ActualBalance))
	assert.True(t, in.Metadata.LastModified.Equal(out.Metadata.LastModified))
	assert.Equal(t, "1", out.Metadata.SyncVersion)

	inFP, err := in.Fingerprint()
	require.NoError(t, err)
	outFP, err := out.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, inFP, outFP)
}

func TestLocalStore_ReplaceAllDropsMissingRecords(t *testing.T) {
	s, _ := newTestLocalStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceAll(ctx, sampleData()))
	require.NoError(t, s.ReplaceAll(ctx, &models.DataCollection{
		Envelopes: []models.Envelope{{ID: "env-9", Name: "New"}},
	}))

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.Total())
	assert.Equal(t, 1, counts[models.Envelopes])
}

func TestLocalStore_ReplaceAllRollsBackOnInvalidRecord(t *testing.T) {
	s, _ := newTestLocalStore(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceAll(ctx, sampleData()))

	bad := sampleData()
	bad.Debts = append(bad.Debts, models.Debt{ID: ""})

	err := s.ReplaceAll(ctx, bad)
	require.ErrorIs(t, err, ErrInvalidRecord)

	counts, err := s.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleData().TotalItems(), counts.Total())
}

func TestLocalStore_SaveRecordsAdvancesLastModified(t *testing.T) {
	s, clk := newTestLocalStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveRecords(ctx, &models.DataCollection{
		Bills: []models.Bill{{ID: "bill-1", Name: "Power"}},
	}))
	meta, err := s.GetMetadata(ctx)
	require.NoError(t, err)
	assert.True(t, meta.LastModified.Equal(testNow))

	// clock has not moved; the next write still has to be strictly newer
	require.NoError(t, s.SaveRecords(ctx, &models.DataCollection{
		Bills: []models.Bill{{ID: "bill-2", Name: "Water"}},
	}))
	meta, err = s.GetMetadata(ctx)
	require.NoError(t, err)
	assert.True(t, meta.LastModified.Equal(testNow.Add(time.Millisecond)))

	clk.Advance(time.Minute)
	require.NoError(t, s.DeleteRecords(ctx, models.Bills, "bill-1"))
	meta, err = s.GetMetadata(ctx)
	require.NoError(t, err)
	assert.True(t, meta.LastModified.Equal(testNow.Add(time.Minute)))

	data, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"bill-2"}, data.RecordIDs(models.Bills))
}

func TestLocalStore_SaveRecordsUpserts(t *testing.T) {
	s, _ := newTestLocalStore(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceAll(ctx, sampleData()))

	require.NoError(t, s.SaveRecords(ctx, &models.DataCollection{
		Envelopes: []models.Envelope{{ID: "env-1", Name: "Food"}},
	}))

	data, err := s.ReadAll(ctx)
	require.NoError(t, err)
	require.Len(t, data.Envelopes, 2)
	assert.Equal(t, "Food", data.Envelopes[0].Name)
}

func TestLocalStore_DeleteRecordsUnknownCollection(t *testing.T) {
	s, _ := newTestLocalStore(t)

	err := s.DeleteRecords(context.Background(), models.Collection("users"), "1")
	assert.ErrorIs(t, err, ErrUnknownCollection)
}

func TestLocalStore_PutMetadata(t *testing.T) {
	s, _ := newTestLocalStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutMetadata(ctx, models.Metadata{
		UnassignedCash: decimal.RequireFromString("10"),
		ActualBalance:  decimal.RequireFromString("20"),
	}))

	meta, err := s.GetMetadata(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10", meta.UnassignedCash.String())
	assert.Equal(t, "20", meta.ActualBalance.String())
	assert.True(t, meta.LastModified.Equal(testNow))
}

func TestLocalStore_CachedCounts(t *testing.T) {
	s, _ := newTestLocalStore(t)
	ctx := context.Background()

	counts, err := s.CachedCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, counts.Total())

	require.NoError(t, s.ReplaceAll(ctx, sampleData()))

	// writes through the store invalidate the cache themselves
	counts, err = s.CachedCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, counts.Total())

	// returned maps are copies
	counts[models.Envelopes] = 100
	again, err := s.CachedCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, again[models.Envelopes])
}

func TestLocalStore_CountsQueryError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	s := NewLocalStore(NewDB(conn, dialectSQLite, logger.Nop()), clock.NewFake(testNow))

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM envelopes").
		WillReturnError(errors.New("disk I/O error"))

	_, err = s.Counts(context.Background())
	require.ErrorIs(t, err, ErrExecutingQuery)
	assert.Contains(t, err.Error(), "storage")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocalStore_ReadAllBeginError(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	s := NewLocalStore(NewDB(conn, dialectSQLite, logger.Nop()), nil)

	mock.ExpectBegin().WillReturnError(errors.New("database is locked"))

	_, err = s.ReadAll(context.Background())
	assert.ErrorIs(t, err, ErrBeginningTransaction)
}

func TestLocalStore_ReadAllQueryErrorRollsBack(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	s := NewLocalStore(NewDB(conn, dialectSQLite, logger.Nop()), nil)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT body FROM envelopes").
		WillReturnError(errors.New("no such table: envelopes"))
	mock.ExpectRollback()

	_, err = s.ReadAll(context.Background())
	require.ErrorIs(t, err, ErrExecutingQuery)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNextModified(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 123456789, time.UTC)

	tests := []struct {
		name string
		prev time.Time
		want time.Time
	}{
		{name: "zero prev", prev: time.Time{}, want: now.Truncate(time.Millisecond)},
		{name: "older prev", prev: now.Add(-time.Second), want: now.Truncate(time.Millisecond)},
		{name: "same ms", prev: now.Truncate(time.Millisecond), want: now.Truncate(time.Millisecond).Add(time.Millisecond)},
		{name: "prev in future", prev: now.Add(time.Hour), want: now.Add(time.Hour).Truncate(time.Millisecond).Add(time.Millisecond)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(NextModified(now, tt.prev)))
		})
	}
}

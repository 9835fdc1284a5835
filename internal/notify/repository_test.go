package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"lakala-sdk/internal/lakala"
	"lakala-sdk/internal/signature"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleNotification() *lakala.Notification {
	return &lakala.Notification{
		OrderNo: "X123",
		Token: signature.Token{
			AppID:     "OP00000003",
			SerialNo:  "00dfba8194c41b84cf",
			Timestamp: "1700000000",
			NonceStr:  "abcdefghijkl",
			Signature: "c2lnbmF0dXJl",
		},
		Data: map[string]any{"out_order_no": "X123"},
		Raw:  json.RawMessage(`{"out_order_no":"X123"}`),
	}
}

func TestRepository_SaveNotification(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	n := sampleNotification()

	expectClaim := func() *sqlmock.ExpectedQuery {
		return mock.ExpectQuery(`INSERT INTO lakala_notifications`).
			WithArgs("aggregation_cashdesk", "abcdefghijkl", "1700000000", "X123",
				string(n.Raw), string(n.Raw), "c2lnbmF0dXJl", processingLease.Seconds())
	}
	expectLookup := func() *sqlmock.ExpectedQuery {
		return mock.ExpectQuery(`SELECT processed_at IS NOT NULL\s+FROM lakala_notifications`).
			WithArgs("abcdefghijkl", "1700000000")
	}

	t.Run("New", func(t *testing.T) {
		expectClaim().WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

		id, dup, err := repo.SaveNotification(context.Background(), "aggregation_cashdesk", n)
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)
		assert.False(t, dup)
	})

	t.Run("Duplicate", func(t *testing.T) {
		expectClaim().WillReturnError(sql.ErrNoRows)
		expectLookup().WillReturnRows(sqlmock.NewRows([]string{"processed"}).AddRow(true))

		id, dup, err := repo.SaveNotification(context.Background(), "aggregation_cashdesk", n)
		require.NoError(t, err)
		assert.Zero(t, id)
		assert.True(t, dup)
	})

	t.Run("Leased to another delivery", func(t *testing.T) {
		expectClaim().WillReturnError(sql.ErrNoRows)
		expectLookup().WillReturnRows(sqlmock.NewRows([]string{"processed"}).AddRow(false))

		id, dup, err := repo.SaveNotification(context.Background(), "aggregation_cashdesk", n)
		assert.ErrorIs(t, err, ErrInProgress)
		assert.Zero(t, id)
		assert.False(t, dup)
	})

	t.Run("Lookup error", func(t *testing.T) {
		expectClaim().WillReturnError(sql.ErrNoRows)
		expectLookup().WillReturnError(errors.New("connection reset"))

		_, dup, err := repo.SaveNotification(context.Background(), "aggregation_cashdesk", n)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrInProgress)
		assert.False(t, dup)
	})

	t.Run("DBError", func(t *testing.T) {
		expectClaim().WillReturnError(errors.New("connection reset"))

		_, dup, err := repo.SaveNotification(context.Background(), "aggregation_cashdesk", n)
		assert.Error(t, err)
		assert.False(t, dup)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_SaveNotification_ClaimsLease(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// only an unprocessed row whose lease has lapsed may be reclaimed
	mock.ExpectQuery(`DO UPDATE SET\s+attempts = lakala_notifications.attempts \+ 1,\s+processing_started_at = now\(\)\s+` +
		`WHERE lakala_notifications.processed_at IS NULL\s+AND \(\s+lakala_notifications.processing_started_at IS NULL\s+` +
		`OR lakala_notifications.processing_started_at < now\(\) - make_interval\(secs => \$8\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	_, _, err = NewRepository(db).SaveNotification(context.Background(), "aggregation_cashdesk", sampleNotification())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkProcessed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectExec(`UPDATE lakala_notifications\s+SET processed_at = now\(\), failure_reason = NULL, processing_started_at = NULL`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.MarkProcessed(context.Background(), 7))

	mock.ExpectExec(`UPDATE lakala_notifications`).
		WillReturnError(errors.New("db error"))
	assert.Error(t, repo.MarkProcessed(context.Background(), 7))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkFailed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)

	mock.ExpectExec(`UPDATE lakala_notifications\s+SET failure_reason = \$2, processing_started_at = NULL`).
		WithArgs(int64(7), "order not found").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.MarkFailed(context.Background(), 7, "order not found"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListByOrderNo(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewRepository(db)
	received := time.Date(2023, 11, 15, 6, 13, 20, 0, time.UTC)
	processed := received.Add(time.Second)

	columns := []string{
		"id", "service", "nonce_str", "timestamp", "order_no", "payload", "raw_body",
		"signature", "attempts", "received_at", "processed_at", "failure_reason",
	}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM lakala_notifications\s+WHERE order_no = \$1`).
			WithArgs("X123").
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(int64(1), "aggregation_cashdesk", "aaaaaaaaaaaa", "1700000000", "X123", []byte(`{"a": 1}`), `{"a":1}`, "c2ln", int64(2), received, nil, "timeout").
				AddRow(int64(2), "aggregation_cashdesk", "bbbbbbbbbbbb", "1700000100", "X123", []byte(`{"a": 2}`), `{"a":2}`, "c2ln", int64(0), received, processed, nil))

		records, err := repo.ListByOrderNo(context.Background(), "X123")
		require.NoError(t, err)
		require.Len(t, records, 2)

		assert.Equal(t, int64(1), records[0].ID)
		assert.Equal(t, 2, records[0].Attempts)
		assert.Nil(t, records[0].ProcessedAt)
		require.NotNil(t, records[0].FailureReason)
		assert.Equal(t, "timeout", *records[0].FailureReason)
		assert.JSONEq(t, `{"a":1}`, string(records[0].Payload))
		assert.Equal(t, `{"a":1}`, records[0].RawBody)
		assert.Equal(t, "c2ln", records[0].Signature)

		require.NotNil(t, records[1].ProcessedAt)
		assert.True(t, processed.Equal(*records[1].ProcessedAt))
		assert.Nil(t, records[1].FailureReason)
	})

	t.Run("Empty", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM lakala_notifications`).
			WithArgs("NONE").
			WillReturnRows(sqlmock.NewRows(columns))

		records, err := repo.ListByOrderNo(context.Background(), "NONE")
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("DBError", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM lakala_notifications`).
			WillReturnError(errors.New("db error"))

		_, err := repo.ListByOrderNo(context.Background(), "X123")
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

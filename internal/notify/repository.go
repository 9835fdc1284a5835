package notify

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"lakala-sdk/internal/lakala"
)

// processingLease bounds how long a claimed notification stays locked to the
// delivery that claimed it. A crashed delivery is retried after it lapses.
const processingLease = 5 * time.Minute

// ErrInProgress is returned when another delivery of the same notification
// holds the processing lease.
var ErrInProgress = errors.New("notification is being processed by another delivery")

type Repository interface {
	// SaveNotification stores n and claims it for processing. isDuplicate is
	// true when the same notification was already processed. An earlier
	// unprocessed delivery is reclaimed so a retry can process it, unless
	// its lease is still held, which yields ErrInProgress.
	SaveNotification(ctx context.Context, service string, n *lakala.Notification) (id int64, isDuplicate bool, err error)
	MarkProcessed(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, reason string) error
	ListByOrderNo(ctx context.Context, orderNo string) ([]Record, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) SaveNotification(ctx context.Context, service string, n *lakala.Notification) (int64, bool, error) {
	const q = `
	INSERT INTO lakala_notifications (
		service,
		nonce_str,
		timestamp,
		order_no,
		payload,
		raw_body,
		signature,
		processing_started_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	ON CONFLICT (nonce_str, timestamp)
	DO UPDATE SET
		attempts = lakala_notifications.attempts + 1,
		processing_started_at = now()
	WHERE lakala_notifications.processed_at IS NULL
		AND (
			lakala_notifications.processing_started_at IS NULL
			OR lakala_notifications.processing_started_at < now() - make_interval(secs => $8)
		)
	RETURNING id;
	`

	var id int64
	err := r.db.QueryRowContext(
		ctx,
		q,
		service,
		n.Token.NonceStr,
		n.Token.Timestamp,
		n.OrderNo,
		string(n.Raw),
		string(n.Raw),
		n.Token.Signature,
		processingLease.Seconds(),
	).Scan(&id)

	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, err
	}

	// conflicting row is either processed or leased to another delivery
	const existing = `
	SELECT processed_at IS NOT NULL
	FROM lakala_notifications
	WHERE nonce_str = $1 AND timestamp = $2;
	`

	var processed bool
	if err := r.db.QueryRowContext(ctx, existing, n.Token.NonceStr, n.Token.Timestamp).Scan(&processed); err != nil {
		return 0, false, err
	}
	if processed {
		return 0, true, nil
	}
	return 0, false, ErrInProgress
}

func (r *repository) MarkProcessed(ctx context.Context, id int64) error {
	const q = `
	UPDATE lakala_notifications
	SET processed_at = now(), failure_reason = NULL, processing_started_at = NULL
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// MarkFailed records reason and releases the lease so the next delivery can
// retry straight away.
func (r *repository) MarkFailed(ctx context.Context, id int64, reason string) error {
	const q = `
	UPDATE lakala_notifications
	SET failure_reason = $2, processing_started_at = NULL
	WHERE id = $1;
	`

	_, err := r.db.ExecContext(ctx, q, id, reason)
	return err
}

func (r *repository) ListByOrderNo(ctx context.Context, orderNo string) ([]Record, error) {
	const q = `
	SELECT id, service, nonce_str, timestamp, order_no, payload, raw_body,
		signature, attempts, received_at, processed_at, failure_reason
	FROM lakala_notifications
	WHERE order_no = $1
	ORDER BY received_at ASC, id ASC;
	`

	rows, err := r.db.QueryContext(ctx, q, orderNo)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			rec     Record
			payload []byte
			done    sql.NullTime
			reason  sql.NullString
		)
		if err := rows.Scan(
			&rec.ID, &rec.Service, &rec.NonceStr, &rec.Timestamp, &rec.OrderNo,
			&payload, &rec.RawBody, &rec.Signature, &rec.Attempts,
			&rec.ReceivedAt, &done, &reason,
		); err != nil {
			return nil, err
		}
		rec.Payload = payload
		if done.Valid {
			rec.ProcessedAt = &done.Time
		}
		if reason.Valid {
			rec.FailureReason = &reason.String
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

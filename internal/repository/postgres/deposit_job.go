package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/repository"
)

type depositJobRepository struct {
	db *sql.DB
}

func NewDepositJobRepository(db *sql.DB) repository.DepositJobRepository {
	return &depositJobRepository{db: db}
}

func (r *depositJobRepository) Create(ctx context.Context, job *domain.DepositCaptureJob) error {
	meta, err := json.Marshal(job.Metadata)
	if err != nil {
		return err
	}
	query := `INSERT INTO deposit_capture_jobs
	          (id, booking_id, scheduled_at, notification_sent_at, capture_attempted_at, status,
	           retry_count, last_error, metadata, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	now := time.Now().UTC()
	job.CreatedAt = now
	job.UpdatedAt = now
	_, err = q(ctx, r.db).ExecContext(ctx, query,
		job.ID, job.BookingID, job.ScheduledAt, job.NotificationSentAt, job.CaptureAttemptedAt,
		job.Status, job.RetryCount, job.LastError, meta, job.CreatedAt, job.UpdatedAt)
	return err
}

func (r *depositJobRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.DepositCaptureJob, error) {
	job := &domain.DepositCaptureJob{}
	var meta []byte
	query := `SELECT id, booking_id, scheduled_at, notification_sent_at, capture_attempted_at, status,
	          retry_count, last_error, metadata, created_at, updated_at
	          FROM deposit_capture_jobs WHERE booking_id = $1 ORDER BY created_at DESC LIMIT 1`
	err := q(ctx, r.db).QueryRowContext(ctx, query, bookingID).Scan(
		&job.ID, &job.BookingID, &job.ScheduledAt, &job.NotificationSentAt, &job.CaptureAttemptedAt,
		&job.Status, &job.RetryCount, &job.LastError, &meta, &job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("deposit capture job", bookingID)
	}
	if err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &job.Metadata); err != nil {
			return nil, err
		}
	}
	return job, nil
}

func (r *depositJobRepository) Update(ctx context.Context, job *domain.DepositCaptureJob) error {
	meta, err := json.Marshal(job.Metadata)
	if err != nil {
		return err
	}
	query := `UPDATE deposit_capture_jobs SET scheduled_at=$1, notification_sent_at=$2,
	          capture_attempted_at=$3, status=$4, retry_count=$5, last_error=$6, metadata=$7,
	          updated_at=$8 WHERE id=$9`
	job.UpdatedAt = time.Now().UTC()
	_, err = q(ctx, r.db).ExecContext(ctx, query,
		job.ScheduledAt, job.NotificationSentAt, job.CaptureAttemptedAt, job.Status, job.RetryCount,
		job.LastError, meta, job.UpdatedAt, job.ID)
	return err
}

func (r *depositJobRepository) DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q(ctx, r.db).ExecContext(ctx,
		`DELETE FROM deposit_capture_jobs WHERE status IN ('success', 'cancelled') AND updated_at < $1`,
		cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

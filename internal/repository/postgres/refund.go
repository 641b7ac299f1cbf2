package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/repository"
)

type refundRepository struct {
	db *sql.DB
}

func NewRefundRepository(db *sql.DB) repository.RefundRepository {
	return &refundRepository{db: db}
}

const refundColumns = `id, transaction_id, booking_id, original_amount_cents, refund_amount_cents,
	status, reason, processed_by, processed_at, gateway_refund_id, gateway_response, failure_reason, created_at`

func (r *refundRepository) Create(ctx context.Context, rf *domain.Refund) error {
	query := `INSERT INTO refunds (` + refundColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	rf.CreatedAt = time.Now().UTC()
	_, err := q(ctx, r.db).ExecContext(ctx, query,
		rf.ID, rf.TransactionID, rf.BookingID, rf.OriginalAmountCents, rf.RefundAmountCents,
		rf.Status, rf.Reason, rf.ProcessedBy, rf.ProcessedAt, rf.GatewayRefundID, rf.GatewayResponse,
		rf.FailureReason, rf.CreatedAt)
	return err
}

func (r *refundRepository) GetByID(ctx context.Context, id string) (*domain.Refund, error) {
	rf := &domain.Refund{}
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE id = $1`
	err := q(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&rf.ID, &rf.TransactionID, &rf.BookingID, &rf.OriginalAmountCents, &rf.RefundAmountCents,
		&rf.Status, &rf.Reason, &rf.ProcessedBy, &rf.ProcessedAt, &rf.GatewayRefundID, &rf.GatewayResponse,
		&rf.FailureReason, &rf.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("refund", id)
	}
	if err != nil {
		return nil, err
	}
	return rf, nil
}

func (r *refundRepository) Update(ctx context.Context, rf *domain.Refund) error {
	query := `UPDATE refunds SET status=$1, processed_by=$2, processed_at=$3, gateway_refund_id=$4,
	          gateway_response=$5, failure_reason=$6 WHERE id=$7`
	_, err := q(ctx, r.db).ExecContext(ctx, query,
		rf.Status, rf.ProcessedBy, rf.ProcessedAt, rf.GatewayRefundID, rf.GatewayResponse, rf.FailureReason, rf.ID)
	return err
}

func (r *refundRepository) HasOpenRefund(ctx context.Context, transactionID string) (bool, error) {
	var count int32
	query := `SELECT count(*) FROM refunds WHERE transaction_id = $1 AND status IN ('PENDING', 'PROCESSING')`
	if err := q(ctx, r.db).QueryRowContext(ctx, query, transactionID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *refundRepository) ListByBooking(ctx context.Context, bookingID string) ([]domain.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE booking_id = $1 ORDER BY created_at ASC`
	rows, err := q(ctx, r.db).QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refunds []domain.Refund
	for rows.Next() {
		var rf domain.Refund
		if err := rows.Scan(
			&rf.ID, &rf.TransactionID, &rf.BookingID, &rf.OriginalAmountCents, &rf.RefundAmountCents,
			&rf.Status, &rf.Reason, &rf.ProcessedBy, &rf.ProcessedAt, &rf.GatewayRefundID, &rf.GatewayResponse,
			&rf.FailureReason, &rf.CreatedAt); err != nil {
			return nil, err
		}
		refunds = append(refunds, rf)
	}
	return refunds, rows.Err()
}

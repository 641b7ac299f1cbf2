package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/repository"
)

type bookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) repository.BookingRepository {
	return &bookingRepository{db: db}
}

const bookingColumns = `id, renter_id, owner_id, tool_id, start_date, end_date, pickup_hour,
	total_price_cents, payment_method, status,
	payment_intent_id, payment_status, payment_captured_at,
	setup_intent_id, deposit_payment_method_id, deposit_capture_scheduled_at,
	deposit_capture_status, deposit_notification_sent_at, deposit_captured_at, deposit_failure_reason,
	validation_code, accepted_at, cancelled_at, has_active_claim, renter_has_returned, pickup_tool,
	cancellation_reason, cancellation_message, refusal_reason, refusal_message,
	refund_amount_cents, refund_reason, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*domain.Booking, error) {
	b := &domain.Booking{}
	err := row.Scan(
		&b.ID, &b.RenterID, &b.OwnerID, &b.ToolID, &b.StartDate, &b.EndDate, &b.PickupHour,
		&b.TotalPriceCents, &b.PaymentMethod, &b.Status,
		&b.PaymentIntentID, &b.PaymentStatus, &b.PaymentCapturedAt,
		&b.SetupIntentID, &b.DepositPaymentMethodID, &b.DepositCaptureScheduledAt,
		&b.DepositCaptureStatus, &b.DepositNotificationSentAt, &b.DepositCapturedAt, &b.DepositFailureReason,
		&b.ValidationCode, &b.AcceptedAt, &b.CancelledAt, &b.HasActiveClaim, &b.RenterHasReturned, &b.PickupTool,
		&b.CancellationReason, &b.CancellationMessage, &b.RefusalReason, &b.RefusalMessage,
		&b.RefundAmountCents, &b.RefundReason, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	query := `INSERT INTO bookings (id, renter_id, owner_id, tool_id, start_date, end_date, pickup_hour,
	          total_price_cents, payment_method, status, payment_intent_id, payment_status,
	          deposit_capture_status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	_, err := q(ctx, r.db).ExecContext(ctx, query,
		b.ID, b.RenterID, b.OwnerID, b.ToolID, b.StartDate, b.EndDate, b.PickupHour,
		b.TotalPriceCents, b.PaymentMethod, b.Status, b.PaymentIntentID, b.PaymentStatus,
		b.DepositCaptureStatus, b.CreatedAt, b.UpdatedAt)
	return err
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	b, err := scanBooking(q(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("booking", id)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *bookingRepository) Update(ctx context.Context, b *domain.Booking) error {
	query := `UPDATE bookings SET
	          status=$1, total_price_cents=$2, payment_intent_id=$3, payment_status=$4, payment_captured_at=$5,
	          setup_intent_id=$6, deposit_payment_method_id=$7, deposit_capture_scheduled_at=$8,
	          deposit_capture_status=$9, deposit_notification_sent_at=$10, deposit_captured_at=$11,
	          deposit_failure_reason=$12, validation_code=$13, accepted_at=$14, cancelled_at=$15,
	          has_active_claim=$16, renter_has_returned=$17, pickup_tool=$18,
	          cancellation_reason=$19, cancellation_message=$20, refusal_reason=$21, refusal_message=$22,
	          refund_amount_cents=$23, refund_reason=$24, updated_at=$25
	          WHERE id=$26`
	b.UpdatedAt = time.Now().UTC()
	_, err := q(ctx, r.db).ExecContext(ctx, query,
		b.Status, b.TotalPriceCents, b.PaymentIntentID, b.PaymentStatus, b.PaymentCapturedAt,
		b.SetupIntentID, b.DepositPaymentMethodID, b.DepositCaptureScheduledAt,
		b.DepositCaptureStatus, b.DepositNotificationSentAt, b.DepositCapturedAt,
		b.DepositFailureReason, b.ValidationCode, b.AcceptedAt, b.CancelledAt,
		b.HasActiveClaim, b.RenterHasReturned, b.PickupTool,
		b.CancellationReason, b.CancellationMessage, b.RefusalReason, b.RefusalMessage,
		b.RefundAmountCents, b.RefundReason, b.UpdatedAt, b.ID)
	return err
}

func (r *bookingRepository) Delete(ctx context.Context, id string) error {
	_, err := q(ctx, r.db).ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	return err
}

func (r *bookingRepository) FindOverlapping(ctx context.Context, toolID string, start, end time.Time) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE tool_id = $1 AND status IN ('PENDING', 'ACCEPTED')
	            AND start_date <= $3 AND end_date >= $2`
	rows, err := q(ctx, r.db).QueryContext(ctx, query, toolID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *bookingRepository) ListByRenter(ctx context.Context, renterID string, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return r.list(ctx, "renter_id", renterID, status, page, pageSize)
}

func (r *bookingRepository) ListByOwner(ctx context.Context, ownerID string, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	return r.list(ctx, "owner_id", ownerID, status, page, pageSize)
}

func (r *bookingRepository) list(ctx context.Context, column, userID, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	offset := (page - 1) * pageSize
	base := `FROM bookings WHERE ` + column + ` = $1`
	args := []any{userID}
	argIdx := 2
	if status != "" {
		base += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}

	var count int32
	if err := q(ctx, r.db).QueryRowContext(ctx, "SELECT count(*) "+base, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := "SELECT " + bookingColumns + " " + base +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)

	rows, err := q(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	bookings, err := collectBookings(rows)
	if err != nil {
		return nil, 0, err
	}
	return bookings, count, nil
}

// The sweep queries bound start_date only from above. A booking that slipped
// past its window (scheduler downtime, earlier sweep failure) stays eligible
// until it is handled or reaches a terminal state.
func (r *bookingRepository) ListDepositNotificationDue(ctx context.Context, horizon time.Time) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE status IN ('PENDING', 'ACCEPTED')
	            AND deposit_capture_status = 'PENDING'
	            AND deposit_payment_method_id <> ''
	            AND deposit_notification_sent_at IS NULL
	            AND start_date <= $1
	          ORDER BY start_date ASC`
	rows, err := q(ctx, r.db).QueryContext(ctx, query, horizon)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r *bookingRepository) ListDepositCaptureDue(ctx context.Context, horizon time.Time) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
	          WHERE status IN ('PENDING', 'ACCEPTED')
	            AND deposit_capture_status IN ('PENDING', 'FAILED')
	            AND deposit_payment_method_id <> ''
	            AND deposit_notification_sent_at IS NOT NULL
	            AND start_date <= $1
	          ORDER BY start_date ASC`
	rows, err := q(ctx, r.db).QueryContext(ctx, query, horizon)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func collectBookings(rows *sql.Rows) ([]domain.Booking, error) {
	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

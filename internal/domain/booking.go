package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusAccepted  BookingStatus = "ACCEPTED"
	BookingStatusRejected  BookingStatus = "REJECTED"
	BookingStatusOngoing   BookingStatus = "ONGOING"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusAuthorized PaymentStatus = "authorized"
	PaymentStatusCaptured   PaymentStatus = "captured"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

type DepositCaptureStatus string

const (
	DepositCapturePending   DepositCaptureStatus = "PENDING"
	DepositCaptureSuccess   DepositCaptureStatus = "SUCCESS"
	DepositCaptureFailed    DepositCaptureStatus = "FAILED"
	DepositCaptureCancelled DepositCaptureStatus = "CANCELLED"
)

// bookingTransitions is the single allowed-transition table for the booking
// lifecycle. Every status mutation goes through CanTransition; REJECTED,
// CANCELLED and COMPLETED are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:  {BookingStatusAccepted, BookingStatusRejected, BookingStatusCancelled},
	BookingStatusAccepted: {BookingStatusOngoing, BookingStatusCancelled},
	BookingStatusOngoing:  {BookingStatusCompleted, BookingStatusCancelled},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a booking status admits no further transition.
func IsTerminal(s BookingStatus) bool {
	return len(bookingTransitions[s]) == 0
}

type Booking struct {
	ID       string `json:"id"`
	RenterID string `json:"renter_id"`
	OwnerID  string `json:"owner_id"`
	ToolID   string `json:"tool_id"`

	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	PickupHour *int      `json:"pickup_hour,omitempty"` // local hour of day, midnight when absent

	TotalPriceCents int64         `json:"total_price_cents"`
	PaymentMethod   string        `json:"payment_method"`
	Status          BookingStatus `json:"status"`

	PaymentIntentID   string        `json:"payment_intent_id"`
	PaymentStatus     PaymentStatus `json:"payment_status"`
	PaymentCapturedAt *time.Time    `json:"payment_captured_at,omitempty"`

	SetupIntentID             string               `json:"setup_intent_id"`
	DepositPaymentMethodID    string               `json:"deposit_payment_method_id"`
	DepositCaptureScheduledAt *time.Time           `json:"deposit_capture_scheduled_at,omitempty"`
	DepositCaptureStatus      DepositCaptureStatus `json:"deposit_capture_status"`
	DepositNotificationSentAt *time.Time           `json:"deposit_notification_sent_at,omitempty"`
	DepositCapturedAt         *time.Time           `json:"deposit_captured_at,omitempty"`
	DepositFailureReason      string               `json:"deposit_failure_reason"`

	ValidationCode    string     `json:"validation_code"`
	AcceptedAt        *time.Time `json:"accepted_at,omitempty"`
	CancelledAt       *time.Time `json:"cancelled_at,omitempty"`
	HasActiveClaim    bool       `json:"has_active_claim"`
	RenterHasReturned bool       `json:"renter_has_returned"`
	PickupTool        *time.Time `json:"pickup_tool,omitempty"`

	CancellationReason  string `json:"cancellation_reason"`
	CancellationMessage string `json:"cancellation_message"`
	RefusalReason       string `json:"refusal_reason"`
	RefusalMessage      string `json:"refusal_message"`
	RefundAmountCents   int64  `json:"refund_amount_cents"`
	RefundReason        string `json:"refund_reason"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PickupInstant combines the rental start date with the pickup hour.
// Bookings without a pickup hour default to midnight.
func (b *Booking) PickupInstant() time.Time {
	hour := 0
	if b.PickupHour != nil {
		hour = *b.PickupHour
	}
	d := b.StartDate
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, d.Location())
}

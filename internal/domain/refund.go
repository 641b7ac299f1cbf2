package domain

import "time"

type RefundStatus string

const (
	RefundStatusPending    RefundStatus = "PENDING"
	RefundStatusProcessing RefundStatus = "PROCESSING"
	RefundStatusCompleted  RefundStatus = "COMPLETED"
	RefundStatusFailed     RefundStatus = "FAILED"
	RefundStatusCancelled  RefundStatus = "CANCELLED"
)

// IsTerminalRefund reports whether a refund status admits no further change.
// At most one non-terminal refund may exist per transaction.
func IsTerminalRefund(s RefundStatus) bool {
	return s == RefundStatusCompleted || s == RefundStatusFailed || s == RefundStatusCancelled
}

type RefundReason string

const (
	RefundReasonRenterCancellation RefundReason = "RENTER_CANCELLATION"
	RefundReasonOwnerCancellation  RefundReason = "OWNER_CANCELLATION"
	RefundReasonAdminCancellation  RefundReason = "ADMIN_CANCELLATION"
	RefundReasonDepositRelease     RefundReason = "DEPOSIT_RELEASE"
)

// Refund records one refund attempt against a captured payment.
type Refund struct {
	ID                  string       `json:"id"`
	TransactionID       string       `json:"transaction_id"`
	BookingID           string       `json:"booking_id"`
	OriginalAmountCents int64        `json:"original_amount_cents"`
	RefundAmountCents   int64        `json:"refund_amount_cents"`
	Status              RefundStatus `json:"status"`
	Reason              RefundReason `json:"reason"`
	ProcessedBy         string       `json:"processed_by"`
	ProcessedAt         *time.Time   `json:"processed_at,omitempty"`
	GatewayRefundID     string       `json:"gateway_refund_id"`
	GatewayResponse     string       `json:"gateway_response"`
	FailureReason       string       `json:"failure_reason"`
	CreatedAt           time.Time    `json:"created_at"`
}

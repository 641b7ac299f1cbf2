package domain

import "time"

type TransactionType string

const (
	TransactionTypeRentalIncome TransactionType = "RENTAL_INCOME"
	TransactionTypePayment      TransactionType = "PAYMENT"
	TransactionTypeRefund       TransactionType = "REFUND"
	TransactionTypeDeposit      TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal   TransactionType = "WITHDRAWAL"
	TransactionTypeTransfer     TransactionType = "TRANSFER"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

// Transaction is an immutable ledger entry. Amount is signed: negative for
// refunds and debits, positive for credits.
type Transaction struct {
	ID                string            `json:"id"`
	Amount            int64             `json:"amount_cents"`
	Type              TransactionType   `json:"type"`
	Status            TransactionStatus `json:"status"`
	WalletID          string            `json:"wallet_id"`
	SenderID          string            `json:"sender_id"`
	RecipientID       string            `json:"recipient_id"`
	BookingID         string            `json:"booking_id"`
	ExternalReference string            `json:"external_reference"` // gateway id
	Description       string            `json:"description"`
	CreatedAt         time.Time         `json:"created_at"`
}

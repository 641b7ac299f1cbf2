package domain

import "time"

// Wallet holds a user's funds in three tranches. Funds credited from a
// booking acceptance land in the pending tranche and only move to available
// once the rental starts (validation code accepted).
type Wallet struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	AvailableCents int64     `json:"available_cents"`
	PendingCents   int64     `json:"pending_cents"`
	ReservedCents  int64     `json:"reserved_cents"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

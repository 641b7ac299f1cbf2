package service

import (
	"time"

	"toolrent-backend/internal/domain"
)

// Quote is the priced breakdown of a booking request: per-day subtotal,
// service fee, grand total and the deposit the tool owner asks for.
type Quote struct {
	Days          int64
	SubtotalCents int64
	FeeCents      int64
	TotalCents    int64
	DepositCents  int64
}

// RentalDays returns the whole days between start and end (end exclusive).
// A booking always spans at least one day; end must be strictly after start.
func RentalDays(start, end time.Time) (int64, error) {
	if !end.After(start) {
		return 0, domain.NewValidationError("end date must be after start date")
	}
	days := int64(end.Sub(start).Hours() / 24)
	if days < 1 {
		days = 1
	}
	return days, nil
}

// PriceBooking computes the quote for a tool over a date range:
// subtotal = base price × days, fee = subtotal × feeBps, total = subtotal + fee.
// The deposit is the tool's deposit amount passed through unchanged.
func PriceBooking(tool *domain.Tool, start, end time.Time, feeBps int64) (*Quote, error) {
	days, err := RentalDays(start, end)
	if err != nil {
		return nil, err
	}

	subtotal := tool.BasePriceCents * days
	fee := shareCents(subtotal, feeBps)
	return &Quote{
		Days:          days,
		SubtotalCents: subtotal,
		FeeCents:      fee,
		TotalCents:    subtotal + fee,
		DepositCents:  tool.DepositAmountCents,
	}, nil
}

// shareCents takes a basis-point share of an amount, rounding half up.
// Matches decimal rounding at two places for all non-negative inputs.
func shareCents(amountCents, bps int64) int64 {
	return (amountCents*bps + 5000) / 10000
}

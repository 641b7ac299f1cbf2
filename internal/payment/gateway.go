// Package payment defines the contract the booking core consumes from the
// payment gateway. The concrete gateway client lives outside this service;
// the core only depends on the result shapes below.
package payment

import (
	"context"
	"strings"
)

type IntentStatus string

const (
	IntentStatusRequiresCapture IntentStatus = "requires_capture"
	IntentStatusSucceeded       IntentStatus = "succeeded"
	IntentStatusProcessing      IntentStatus = "processing"
	IntentStatusCanceled        IntentStatus = "canceled"
)

type PaymentIntent struct {
	ID          string
	Status      IntentStatus
	AmountCents int64
	Currency    string
}

type SetupIntent struct {
	ID           string
	ClientSecret string
}

type SetupConfirmation struct {
	Success         bool
	PaymentMethodID string
}

type RefundResult struct {
	ID     string
	Status string
}

// Gateway is the opaque capture/refund/setup capability of the payment
// provider. All calls are blocking; implementations are expected to be
// idempotent-safe on replay (cancelling an already-cancelled intent is a
// no-op on the provider side).
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, amountCents int64, currency, bookingID string, metadata map[string]string) (*PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error)
	CapturePaymentIntent(ctx context.Context, id string) error
	CancelPaymentIntent(ctx context.Context, id string) error
	// CreateRefund refunds a captured intent. amountCents <= 0 refunds the
	// full captured amount.
	CreateRefund(ctx context.Context, paymentIntentID string, amountCents int64) (*RefundResult, error)
	CreateOrGetCustomer(ctx context.Context, email, name string) (string, error)
	CreateSetupIntent(ctx context.Context, customerID, bookingID string) (*SetupIntent, error)
	ConfirmSetupIntent(ctx context.Context, setupIntentID string) (*SetupConfirmation, error)
	// ChargeOffSession charges a saved payment method without the customer
	// present. Used for the deposit hold before rental start.
	ChargeOffSession(ctx context.Context, customerID, paymentMethodID string, amountCents int64, currency, description string) (*PaymentIntent, error)
}

// LooksLikePaymentMethodID reports whether a stored reference is structurally
// a payment-method id rather than a payment-intent id. Legacy rows carried
// method ids in the intent column; those must be treated as "no intent to
// query", not sent to the gateway.
func LooksLikePaymentMethodID(id string) bool {
	return strings.HasPrefix(id, "pm_")
}

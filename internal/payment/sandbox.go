package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"toolrent-backend/internal/logger"
)

// SandboxGateway is an in-memory Gateway for local development and tests.
// Every charge succeeds immediately; state lives only in process memory.
type SandboxGateway struct {
	mu        sync.Mutex
	intents   map[string]*PaymentIntent
	setups    map[string]string // setup intent id -> customer id
	customers map[string]string // email -> customer id
}

func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{
		intents:   make(map[string]*PaymentIntent),
		setups:    make(map[string]string),
		customers: make(map[string]string),
	}
}

func (g *SandboxGateway) CreatePaymentIntent(ctx context.Context, amountCents int64, currency, bookingID string, metadata map[string]string) (*PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent := &PaymentIntent{
		ID:          "pi_" + uuid.NewString(),
		Status:      IntentStatusRequiresCapture,
		AmountCents: amountCents,
		Currency:    currency,
	}
	g.intents[intent.ID] = intent
	logger.Debug("Sandbox payment intent created",
		"payment_intent_id", intent.ID, "booking_id", bookingID, "amount_cents", amountCents)
	return intent, nil
}

func (g *SandboxGateway) GetPaymentIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[id]
	if !ok {
		return nil, fmt.Errorf("sandbox: no such payment intent %s", id)
	}
	copy := *intent
	return &copy, nil
}

func (g *SandboxGateway) CapturePaymentIntent(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[id]
	if !ok {
		return fmt.Errorf("sandbox: no such payment intent %s", id)
	}
	intent.Status = IntentStatusSucceeded
	return nil
}

func (g *SandboxGateway) CancelPaymentIntent(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[id]
	if !ok {
		return fmt.Errorf("sandbox: no such payment intent %s", id)
	}
	// Cancelling a cancelled intent stays a no-op, like the real provider.
	intent.Status = IntentStatusCanceled
	return nil
}

func (g *SandboxGateway) CreateRefund(ctx context.Context, paymentIntentID string, amountCents int64) (*RefundResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.intents[paymentIntentID]; !ok {
		return nil, fmt.Errorf("sandbox: no such payment intent %s", paymentIntentID)
	}
	return &RefundResult{ID: "re_" + uuid.NewString(), Status: "succeeded"}, nil
}

func (g *SandboxGateway) CreateOrGetCustomer(ctx context.Context, email, name string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id, ok := g.customers[email]; ok {
		return id, nil
	}
	id := "cus_" + uuid.NewString()
	g.customers[email] = id
	return id, nil
}

func (g *SandboxGateway) CreateSetupIntent(ctx context.Context, customerID, bookingID string) (*SetupIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent := &SetupIntent{
		ID:           "seti_" + uuid.NewString(),
		ClientSecret: "seti_secret_" + uuid.NewString(),
	}
	g.setups[intent.ID] = customerID
	return intent, nil
}

func (g *SandboxGateway) ConfirmSetupIntent(ctx context.Context, setupIntentID string) (*SetupConfirmation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.setups[setupIntentID]; !ok {
		return nil, fmt.Errorf("sandbox: no such setup intent %s", setupIntentID)
	}
	return &SetupConfirmation{
		Success:         true,
		PaymentMethodID: "pm_" + uuid.NewString(),
	}, nil
}

func (g *SandboxGateway) ChargeOffSession(ctx context.Context, customerID, paymentMethodID string, amountCents int64, currency, description string) (*PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent := &PaymentIntent{
		ID:          "pi_" + uuid.NewString(),
		Status:      IntentStatusSucceeded,
		AmountCents: amountCents,
		Currency:    currency,
	}
	g.intents[intent.ID] = intent
	logger.Debug("Sandbox off-session charge",
		"payment_intent_id", intent.ID, "customer_id", customerID, "amount_cents", amountCents)
	return intent, nil
}

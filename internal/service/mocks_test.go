package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/payment"
)

// fakeTxManager runs the function inline, no real transaction involved.
type fakeTxManager struct{}

func (fakeTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// MockBookingRepo
type MockBookingRepo struct {
	mock.Mock
}

func (m *MockBookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}
func (m *MockBookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) Update(ctx context.Context, b *domain.Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}
func (m *MockBookingRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockBookingRepo) FindOverlapping(ctx context.Context, toolID string, start, end time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, toolID, start, end)
	return args.Get(0).([]domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) ListByRenter(ctx context.Context, renterID string, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	args := m.Called(ctx, renterID, status, page, pageSize)
	return args.Get(0).([]domain.Booking), args.Get(1).(int32), args.Error(2)
}
func (m *MockBookingRepo) ListByOwner(ctx context.Context, ownerID string, status string, page, pageSize int32) ([]domain.Booking, int32, error) {
	args := m.Called(ctx, ownerID, status, page, pageSize)
	return args.Get(0).([]domain.Booking), args.Get(1).(int32), args.Error(2)
}
func (m *MockBookingRepo) ListDepositNotificationDue(ctx context.Context, horizon time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, horizon)
	return args.Get(0).([]domain.Booking), args.Error(1)
}
func (m *MockBookingRepo) ListDepositCaptureDue(ctx context.Context, horizon time.Time) ([]domain.Booking, error) {
	args := m.Called(ctx, horizon)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

// MockWalletRepo
type MockWalletRepo struct {
	mock.Mock
}

func (m *MockWalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	args := m.Called(ctx, w)
	return args.Error(0)
}
func (m *MockWalletRepo) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}
func (m *MockWalletRepo) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}
func (m *MockWalletRepo) AddPending(ctx context.Context, walletID string, amountCents int64) error {
	args := m.Called(ctx, walletID, amountCents)
	return args.Error(0)
}
func (m *MockWalletRepo) MovePendingToAvailable(ctx context.Context, walletID string, amountCents int64) error {
	args := m.Called(ctx, walletID, amountCents)
	return args.Error(0)
}
func (m *MockWalletRepo) DeductAvailable(ctx context.Context, walletID string, amountCents int64) error {
	args := m.Called(ctx, walletID, amountCents)
	return args.Error(0)
}
func (m *MockWalletRepo) DeductPending(ctx context.Context, walletID string, amountCents int64) error {
	args := m.Called(ctx, walletID, amountCents)
	return args.Error(0)
}

// MockTransactionRepo
type MockTransactionRepo struct {
	mock.Mock
}

func (m *MockTransactionRepo) Create(ctx context.Context, tx *domain.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}
func (m *MockTransactionRepo) GetByExternalReference(ctx context.Context, ref string) (*domain.Transaction, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionRepo) ListByBooking(ctx context.Context, bookingID string) ([]domain.Transaction, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).([]domain.Transaction), args.Error(1)
}
func (m *MockTransactionRepo) SumByBookingWalletType(ctx context.Context, bookingID, walletID string, txType domain.TransactionType) (int64, error) {
	args := m.Called(ctx, bookingID, walletID, txType)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockTransactionRepo) DeleteRentalIncomeByBooking(ctx context.Context, bookingID string) (int64, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).(int64), args.Error(1)
}

// MockRefundRepo
type MockRefundRepo struct {
	mock.Mock
}

func (m *MockRefundRepo) Create(ctx context.Context, r *domain.Refund) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockRefundRepo) GetByID(ctx context.Context, id string) (*domain.Refund, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Refund), args.Error(1)
}
func (m *MockRefundRepo) Update(ctx context.Context, r *domain.Refund) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockRefundRepo) HasOpenRefund(ctx context.Context, transactionID string) (bool, error) {
	args := m.Called(ctx, transactionID)
	return args.Bool(0), args.Error(1)
}
func (m *MockRefundRepo) ListByBooking(ctx context.Context, bookingID string) ([]domain.Refund, error) {
	args := m.Called(ctx, bookingID)
	return args.Get(0).([]domain.Refund), args.Error(1)
}

// MockDepositJobRepo
type MockDepositJobRepo struct {
	mock.Mock
}

func (m *MockDepositJobRepo) Create(ctx context.Context, job *domain.DepositCaptureJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}
func (m *MockDepositJobRepo) GetByBookingID(ctx context.Context, bookingID string) (*domain.DepositCaptureJob, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DepositCaptureJob), args.Error(1)
}
func (m *MockDepositJobRepo) Update(ctx context.Context, job *domain.DepositCaptureJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}
func (m *MockDepositJobRepo) DeleteTerminalOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockToolRepo
type MockToolRepo struct {
	mock.Mock
}

func (m *MockToolRepo) GetByID(ctx context.Context, id string) (*domain.Tool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tool), args.Error(1)
}

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockNotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, note *domain.Notification) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}
func (m *MockNotificationRepo) List(ctx context.Context, limit, offset int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}
func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreatePaymentIntent(ctx context.Context, amountCents int64, currency, bookingID string, metadata map[string]string) (*payment.PaymentIntent, error) {
	args := m.Called(ctx, amountCents, currency, bookingID, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PaymentIntent), args.Error(1)
}
func (m *MockGateway) GetPaymentIntent(ctx context.Context, id string) (*payment.PaymentIntent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PaymentIntent), args.Error(1)
}
func (m *MockGateway) CapturePaymentIntent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockGateway) CancelPaymentIntent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockGateway) CreateRefund(ctx context.Context, paymentIntentID string, amountCents int64) (*payment.RefundResult, error) {
	args := m.Called(ctx, paymentIntentID, amountCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.RefundResult), args.Error(1)
}
func (m *MockGateway) CreateOrGetCustomer(ctx context.Context, email, name string) (string, error) {
	args := m.Called(ctx, email, name)
	return args.String(0), args.Error(1)
}
func (m *MockGateway) CreateSetupIntent(ctx context.Context, customerID, bookingID string) (*payment.SetupIntent, error) {
	args := m.Called(ctx, customerID, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.SetupIntent), args.Error(1)
}
func (m *MockGateway) ConfirmSetupIntent(ctx context.Context, setupIntentID string) (*payment.SetupConfirmation, error) {
	args := m.Called(ctx, setupIntentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.SetupConfirmation), args.Error(1)
}
func (m *MockGateway) ChargeOffSession(ctx context.Context, customerID, paymentMethodID string, amountCents int64, currency, description string) (*payment.PaymentIntent, error) {
	args := m.Called(ctx, customerID, paymentMethodID, amountCents, currency, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PaymentIntent), args.Error(1)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendBookingCreated(ctx context.Context, ownerEmail, renterName, toolName string) error {
	args := m.Called(ctx, ownerEmail, renterName, toolName)
	return args.Error(0)
}
func (m *MockEmailService) SendBookingAccepted(ctx context.Context, renterEmail, toolName, validationCode string) error {
	args := m.Called(ctx, renterEmail, toolName, validationCode)
	return args.Error(0)
}
func (m *MockEmailService) SendBookingStarted(ctx context.Context, renterEmail, toolName string) error {
	args := m.Called(ctx, renterEmail, toolName)
	return args.Error(0)
}
func (m *MockEmailService) SendBookingCancelled(ctx context.Context, email, toolName, reason string) error {
	args := m.Called(ctx, email, toolName, reason)
	return args.Error(0)
}
func (m *MockEmailService) SendDepositReminder(ctx context.Context, renterEmail, toolName string, amountCents int64, captureAt time.Time) error {
	args := m.Called(ctx, renterEmail, toolName, amountCents, captureAt)
	return args.Error(0)
}
func (m *MockEmailService) SendDepositCaptured(ctx context.Context, renterEmail, toolName string, amountCents int64) error {
	args := m.Called(ctx, renterEmail, toolName, amountCents)
	return args.Error(0)
}
func (m *MockEmailService) SendDepositFailed(ctx context.Context, renterEmail, toolName, reason string) error {
	args := m.Called(ctx, renterEmail, toolName, reason)
	return args.Error(0)
}

// MockAdminNotifier
type MockAdminNotifier struct {
	mock.Mock
}

func (m *MockAdminNotifier) Alert(ctx context.Context, title, message, alertType string, priority domain.NotificationPriority, category string) error {
	args := m.Called(ctx, title, message, alertType, priority, category)
	return args.Error(0)
}

// MockWalletService
type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) GetOrCreate(ctx context.Context, userID string) (*domain.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}
func (m *MockWalletService) AddPendingFunds(ctx context.Context, credit PendingCredit) error {
	args := m.Called(ctx, credit)
	return args.Error(0)
}
func (m *MockWalletService) TransferPendingToAvailable(ctx context.Context, walletID, bookingID string) error {
	args := m.Called(ctx, walletID, bookingID)
	return args.Error(0)
}
func (m *MockWalletService) DeductFunds(ctx context.Context, walletID string, amountCents int64, description string) error {
	args := m.Called(ctx, walletID, amountCents, description)
	return args.Error(0)
}
func (m *MockWalletService) ReverseRentalIncome(ctx context.Context, bookingID string) error {
	args := m.Called(ctx, bookingID)
	return args.Error(0)
}
func (m *MockWalletService) Balance(ctx context.Context, userID string) (*domain.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

// MockCancellationService
type MockCancellationService struct {
	mock.Mock
}

func (m *MockCancellationService) CancelByRenter(ctx context.Context, bookingID, userID, reason, message string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, userID, reason, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockCancellationService) CancelByOwner(ctx context.Context, bookingID, userID, reason, message string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, userID, reason, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}
func (m *MockCancellationService) CancelByAdmin(ctx context.Context, bookingID, reason, message string) (*domain.Booking, error) {
	args := m.Called(ctx, bookingID, reason, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

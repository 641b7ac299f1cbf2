package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/logger"
	"toolrent-backend/internal/repository"
)

// walletService is the only mutation path for wallet balances. Every
// booking-tied balance change writes a matching ledger Transaction row.
type walletService struct {
	walletRepo repository.WalletRepository
	txRepo     repository.TransactionRepository
}

func NewWalletService(walletRepo repository.WalletRepository, txRepo repository.TransactionRepository) WalletService {
	return &walletService{walletRepo: walletRepo, txRepo: txRepo}
}

func (s *walletService) GetOrCreate(ctx context.Context, userID string) (*domain.Wallet, error) {
	w, err := s.walletRepo.GetByUserID(ctx, userID)
	if err == nil {
		return w, nil
	}
	if !domain.IsNotFound(err) {
		return nil, err
	}

	w = &domain.Wallet{
		ID:     uuid.NewString(),
		UserID: userID,
	}
	if err := s.walletRepo.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *walletService) AddPendingFunds(ctx context.Context, credit PendingCredit) error {
	if credit.AmountCents <= 0 {
		return domain.NewValidationError("pending credit amount must be positive")
	}

	if err := s.walletRepo.AddPending(ctx, credit.WalletID, credit.AmountCents); err != nil {
		return err
	}

	return s.txRepo.Create(ctx, &domain.Transaction{
		ID:                uuid.NewString(),
		Amount:            credit.AmountCents,
		Type:              domain.TransactionTypeRentalIncome,
		Status:            domain.TransactionStatusCompleted,
		WalletID:          credit.WalletID,
		SenderID:          credit.SenderID,
		RecipientID:       credit.RecipientID,
		BookingID:         credit.BookingID,
		ExternalReference: credit.ExternalReference,
		Description:       credit.Description,
	})
}

func (s *walletService) TransferPendingToAvailable(ctx context.Context, walletID, bookingID string) error {
	amount, err := s.txRepo.SumByBookingWalletType(ctx, bookingID, walletID, domain.TransactionTypeRentalIncome)
	if err != nil {
		return err
	}
	if amount <= 0 {
		// Nothing credited for this booking; the transfer is a no-op.
		logger.Debug("No pending funds to release", "wallet_id", walletID, "booking_id", bookingID)
		return nil
	}

	if err := s.walletRepo.MovePendingToAvailable(ctx, walletID, amount); err != nil {
		return err
	}

	return s.txRepo.Create(ctx, &domain.Transaction{
		ID:          uuid.NewString(),
		Amount:      amount,
		Type:        domain.TransactionTypeTransfer,
		Status:      domain.TransactionStatusCompleted,
		WalletID:    walletID,
		BookingID:   bookingID,
		Description: fmt.Sprintf("Released %d cents pending funds for booking %s", amount, bookingID),
	})
}

func (s *walletService) DeductFunds(ctx context.Context, walletID string, amountCents int64, description string) error {
	if amountCents <= 0 {
		return domain.NewValidationError("deduction amount must be positive")
	}

	if err := s.walletRepo.DeductAvailable(ctx, walletID, amountCents); err != nil {
		return err
	}

	return s.txRepo.Create(ctx, &domain.Transaction{
		ID:          uuid.NewString(),
		Amount:      -amountCents,
		Type:        domain.TransactionTypeWithdrawal,
		Status:      domain.TransactionStatusCompleted,
		WalletID:    walletID,
		Description: description,
	})
}

// ReverseRentalIncome rolls the acceptance credits of a cancelled booking
// back out of the pending tranches, then removes the internal RENTAL_INCOME
// rows. Real money-movement rows (PAYMENT, REFUND, DEPOSIT) are retained.
func (s *walletService) ReverseRentalIncome(ctx context.Context, bookingID string) error {
	txs, err := s.txRepo.ListByBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	for _, tx := range txs {
		if tx.Type != domain.TransactionTypeRentalIncome {
			continue
		}
		if err := s.walletRepo.DeductPending(ctx, tx.WalletID, tx.Amount); err != nil {
			// Funds may already have moved to available (validated booking);
			// the admin alert for the cancellation carries the amounts.
			logger.Warn("Could not deduct pending funds during cancellation cleanup",
				"wallet_id", tx.WalletID, "booking_id", bookingID, "amount_cents", tx.Amount, "error", err)
		}
	}

	deleted, err := s.txRepo.DeleteRentalIncomeByBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if deleted > 0 {
		logger.Info("Removed rental income ledger rows after cancellation",
			"booking_id", bookingID, "rows", deleted)
	}
	return nil
}

func (s *walletService) Balance(ctx context.Context, userID string) (*domain.Wallet, error) {
	return s.walletRepo.GetByUserID(ctx, userID)
}

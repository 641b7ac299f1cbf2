package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/repository"
)

type transactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `id, amount_cents, type, status, wallet_id, sender_id, recipient_id,
	booking_id, external_reference, description, created_at`

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	query := `INSERT INTO transactions (` + transactionColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	tx.CreatedAt = time.Now().UTC()
	_, err := q(ctx, r.db).ExecContext(ctx, query,
		tx.ID, tx.Amount, tx.Type, tx.Status, tx.WalletID, tx.SenderID, tx.RecipientID,
		tx.BookingID, tx.ExternalReference, tx.Description, tx.CreatedAt)
	return err
}

func (r *transactionRepository) GetByExternalReference(ctx context.Context, ref string) (*domain.Transaction, error) {
	tx := &domain.Transaction{}
	query := `SELECT ` + transactionColumns + ` FROM transactions
	          WHERE external_reference = $1 ORDER BY created_at ASC LIMIT 1`
	err := q(ctx, r.db).QueryRowContext(ctx, query, ref).Scan(
		&tx.ID, &tx.Amount, &tx.Type, &tx.Status, &tx.WalletID, &tx.SenderID, &tx.RecipientID,
		&tx.BookingID, &tx.ExternalReference, &tx.Description, &tx.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("transaction", ref)
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (r *transactionRepository) ListByBooking(ctx context.Context, bookingID string) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE booking_id = $1 ORDER BY created_at ASC`
	rows, err := q(ctx, r.db).QueryContext(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		if err := rows.Scan(
			&tx.ID, &tx.Amount, &tx.Type, &tx.Status, &tx.WalletID, &tx.SenderID, &tx.RecipientID,
			&tx.BookingID, &tx.ExternalReference, &tx.Description, &tx.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *transactionRepository) SumByBookingWalletType(ctx context.Context, bookingID, walletID string, txType domain.TransactionType) (int64, error) {
	var sum int64
	query := `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions
	          WHERE booking_id = $1 AND wallet_id = $2 AND type = $3`
	err := q(ctx, r.db).QueryRowContext(ctx, query, bookingID, walletID, txType).Scan(&sum)
	return sum, err
}

func (r *transactionRepository) DeleteRentalIncomeByBooking(ctx context.Context, bookingID string) (int64, error) {
	res, err := q(ctx, r.db).ExecContext(ctx,
		`DELETE FROM transactions WHERE booking_id = $1 AND type = $2`,
		bookingID, domain.TransactionTypeRentalIncome)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

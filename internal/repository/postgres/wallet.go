package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/repository"
)

type walletRepository struct {
	db *sql.DB
}

func NewWalletRepository(db *sql.DB) repository.WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, user_id, available_cents, pending_cents, reserved_cents, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now
	_, err := q(ctx, r.db).ExecContext(ctx, query, w.ID, w.UserID, w.AvailableCents, w.PendingCents, w.ReservedCents, w.CreatedAt, w.UpdatedAt)
	return err
}

func (r *walletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *walletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	return r.get(ctx, `WHERE user_id = $1`, userID)
}

func (r *walletRepository) get(ctx context.Context, where, arg string) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	query := `SELECT id, user_id, available_cents, pending_cents, reserved_cents, created_at, updated_at FROM wallets ` + where
	err := q(ctx, r.db).QueryRowContext(ctx, query, arg).
		Scan(&w.ID, &w.UserID, &w.AvailableCents, &w.PendingCents, &w.ReservedCents, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("wallet", arg)
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *walletRepository) AddPending(ctx context.Context, walletID string, amountCents int64) error {
	query := `UPDATE wallets SET pending_cents = pending_cents + $2, updated_at = $3 WHERE id = $1`
	return r.exec(ctx, query, walletID, amountCents)
}

func (r *walletRepository) MovePendingToAvailable(ctx context.Context, walletID string, amountCents int64) error {
	query := `UPDATE wallets
	          SET pending_cents = pending_cents - $2, available_cents = available_cents + $2, updated_at = $3
	          WHERE id = $1 AND pending_cents >= $2`
	return r.exec(ctx, query, walletID, amountCents)
}

func (r *walletRepository) DeductAvailable(ctx context.Context, walletID string, amountCents int64) error {
	query := `UPDATE wallets SET available_cents = available_cents - $2, updated_at = $3
	          WHERE id = $1 AND available_cents >= $2`
	return r.exec(ctx, query, walletID, amountCents)
}

func (r *walletRepository) DeductPending(ctx context.Context, walletID string, amountCents int64) error {
	query := `UPDATE wallets SET pending_cents = pending_cents - $2, updated_at = $3
	          WHERE id = $1 AND pending_cents >= $2`
	return r.exec(ctx, query, walletID, amountCents)
}

// exec runs a guarded balance mutation. Zero affected rows means either the
// wallet is missing or a tranche guard blocked the mutation; both surface as
// a conflict so balances can never go negative.
func (r *walletRepository) exec(ctx context.Context, query, walletID string, amountCents int64) error {
	res, err := q(ctx, r.db).ExecContext(ctx, query, walletID, amountCents, time.Now().UTC())
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.NewConflictError("wallet %s: balance mutation rejected (insufficient funds or missing wallet)", walletID)
	}
	return nil
}

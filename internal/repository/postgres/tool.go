package postgres

import (
	"context"
	"database/sql"
	"errors"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/repository"
)

type toolRepository struct {
	db *sql.DB
}

func NewToolRepository(db *sql.DB) repository.ToolRepository {
	return &toolRepository{db: db}
}

func (r *toolRepository) GetByID(ctx context.Context, id string) (*domain.Tool, error) {
	t := &domain.Tool{}
	query := `SELECT id, owner_id, name, base_price_cents, deposit_amount_cents, status FROM tools WHERE id = $1`
	err := q(ctx, r.db).QueryRowContext(ctx, query, id).
		Scan(&t.ID, &t.OwnerID, &t.Name, &t.BasePriceCents, &t.DepositAmountCents, &t.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("tool", id)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

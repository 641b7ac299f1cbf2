package postgres

import (
	"context"
	"database/sql"
	"errors"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.get(ctx, `WHERE email = $1`, email)
}

func (r *userRepository) get(ctx context.Context, where, arg string) (*domain.User, error) {
	u := &domain.User{}
	query := `SELECT id, email, name FROM users ` + where
	err := q(ctx, r.db).QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("user", arg)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

package postgres

import (
	"context"
	"database/sql"
	"time"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/repository"
)

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, note *domain.Notification) error {
	query := `INSERT INTO notifications (id, title, message, type, priority, category, is_read, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	note.CreatedAt = time.Now().UTC()
	_, err := q(ctx, r.db).ExecContext(ctx, query,
		note.ID, note.Title, note.Message, note.Type, note.Priority, note.Category, note.IsRead, note.CreatedAt)
	return err
}

func (r *notificationRepository) List(ctx context.Context, limit, offset int32) ([]domain.Notification, int32, error) {
	var count int32
	if err := q(ctx, r.db).QueryRowContext(ctx, `SELECT count(*) FROM notifications`).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, title, message, type, priority, category, is_read, created_at
	          FROM notifications ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := q(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var notes []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.Type, &n.Priority, &n.Category, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, err
		}
		notes = append(notes, n)
	}
	return notes, count, rows.Err()
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id string) error {
	_, err := q(ctx, r.db).ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE id = $1`, id)
	return err
}

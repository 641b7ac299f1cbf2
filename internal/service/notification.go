package service

import (
	"context"

	"github.com/google/uuid"

	"toolrent-backend/internal/domain"
	"toolrent-backend/internal/repository"
)

// adminNotifier persists operational alerts to the notifications table where
// the back office picks them up.
type adminNotifier struct {
	repo repository.NotificationRepository
}

func NewAdminNotifier(repo repository.NotificationRepository) AdminNotifier {
	return &adminNotifier{repo: repo}
}

func (n *adminNotifier) Alert(ctx context.Context, title, message, alertType string, priority domain.NotificationPriority, category string) error {
	return n.repo.Create(ctx, &domain.Notification{
		ID:       uuid.NewString(),
		Title:    title,
		Message:  message,
		Type:     alertType,
		Priority: priority,
		Category: category,
	})
}

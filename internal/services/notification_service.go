package services

import (
	"context"
	"log"

	"github.com/aydin-k/StudioSplitBack/internal/models"
	"github.com/aydin-k/StudioSplitBack/internal/repository"
)

// NotificationService persists in-app notifications. Delivery is best effort;
// a failed write is logged and never fails the operation that triggered it.
type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) Send(ctx context.Context, userID string, notifType string, payload map[string]any) {
	if err := s.repo.Create(ctx, userID, notifType, payload); err != nil {
		log.Printf("notification %s for user %s failed: %v", notifType, userID, err)
	}
}

func (s *NotificationService) ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListForUser(ctx, userID, limit)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	return s.repo.MarkRead(ctx, userID, notificationID)
}

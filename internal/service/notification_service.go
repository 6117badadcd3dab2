package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bizmatch/internal/domain"
	"bizmatch/pkg/utils"
)

type CreateNotificationInput struct {
	UserID    string         `json:"userId" binding:"required"`
	Type      string         `json:"type" binding:"required"`
	Title     string         `json:"title" binding:"required"`
	Body      string         `json:"body" binding:"required"`
	Data      map[string]any `json:"data"`
	Icon      string         `json:"icon"`
	Link      string         `json:"link"`
	Source    string         `json:"source"`
	DedupeKey string         `json:"dedupeKey"`
	ExpiresAt *time.Time     `json:"expiresAt"`
}

type CreateNotificationResult struct {
	ID      string `json:"id"`
	Deduped bool   `json:"deduped"`
}

// NotificationService 站内通知池。dedupe 命中折算为幂等成功
type NotificationService struct {
	notifs domain.NotificationRepository
	log    *zap.Logger
}

func NewNotificationService(notifs domain.NotificationRepository, l *zap.Logger) *NotificationService {
	return &NotificationService{notifs: notifs, log: l}
}

func (s *NotificationService) Create(ctx context.Context, in CreateNotificationInput) (*CreateNotificationResult, error) {
	if in.UserID == "" || in.Type == "" || in.Title == "" || in.Body == "" {
		return nil, fmt.Errorf("%w: userId, type, title and body are required", domain.ErrValidation)
	}
	if len(in.Body) > 500 {
		return nil, fmt.Errorf("%w: body too long", domain.ErrValidation)
	}

	var payload []byte
	if in.Data != nil {
		var err error
		if payload, err = json.Marshal(in.Data); err != nil {
			return nil, fmt.Errorf("%w: invalid data payload", domain.ErrValidation)
		}
	}

	n := &domain.Notification{
		ID:        utils.NewID(),
		UserID:    in.UserID,
		Type:      in.Type,
		Title:     in.Title,
		Body:      in.Body,
		Data:      payload,
		Icon:      in.Icon,
		Link:      in.Link,
		Source:    in.Source,
		ExpiresAt: in.ExpiresAt,
	}
	if in.DedupeKey != "" {
		key := in.DedupeKey
		n.DedupeKey = &key
	}

	if err := s.notifs.Create(ctx, n); err != nil {
		if errors.Is(err, domain.ErrConflict) && n.DedupeKey != nil {
			s.log.Debug("notification deduped",
				zap.String("user", in.UserID), zap.String("key", in.DedupeKey))
			return &CreateNotificationResult{Deduped: true}, nil
		}
		return nil, err
	}
	return &CreateNotificationResult{ID: n.ID}, nil
}

func (s *NotificationService) List(ctx context.Context, user string, page, limit int, unreadOnly bool) ([]domain.Notification, int64, error) {
	page, limit = normalizePage(page, limit, 20)
	return s.notifs.List(ctx, user, (page-1)*limit, limit, unreadOnly)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, user string) error {
	ok, err := s.notifs.MarkRead(ctx, id, user)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: notification %s", domain.ErrNotFound, id)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, user string, olderThan *time.Time, types []string) (int64, error) {
	return s.notifs.MarkAllRead(ctx, user, olderThan, types)
}

func (s *NotificationService) Delete(ctx context.Context, id, user string) error {
	ok, err := s.notifs.Delete(ctx, id, user)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: notification %s", domain.ErrNotFound, id)
	}
	return nil
}

func (s *NotificationService) BulkDelete(ctx context.Context, user string, ids []string, olderThan *time.Time) (int64, error) {
	return s.notifs.BulkDelete(ctx, user, ids, olderThan)
}

func (s *NotificationService) UnreadCount(ctx context.Context, user string) (int64, error) {
	return s.notifs.UnreadCount(ctx, user)
}

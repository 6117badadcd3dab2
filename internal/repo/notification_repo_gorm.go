package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"bizmatch/internal/domain"
)

type NotificationRepo struct{ db *gorm.DB }

func NewNotificationRepo(db *gorm.DB) *NotificationRepo { return &NotificationRepo{db: db} }

var _ domain.NotificationRepository = (*NotificationRepo)(nil)

// Create (user_id, dedupe_key) 唯一冲突折算为 domain.ErrConflict
func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		if isDupKey(err) {
			return domain.ErrConflict
		}
		return err
	}
	return nil
}

func (r *NotificationRepo) List(ctx context.Context, user string, offset, limit int, unreadOnly bool) ([]domain.Notification, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Notification{}).Where("user_id = ?", user)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []domain.Notification
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id, user string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("id = ? AND user_id = ?", id, user).
		Update("is_read", true)
	return res.RowsAffected > 0, res.Error
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, user string, olderThan *time.Time, types []string) (int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ?", user, false)
	if olderThan != nil {
		q = q.Where("created_at <= ?", *olderThan)
	}
	if len(types) > 0 {
		q = q.Where("type IN ?", types)
	}
	res := q.Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *NotificationRepo) Delete(ctx context.Context, id, user string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, user).
		Delete(&domain.Notification{})
	return res.RowsAffected > 0, res.Error
}

func (r *NotificationRepo) BulkDelete(ctx context.Context, user string, ids []string, olderThan *time.Time) (int64, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", user)
	switch {
	case len(ids) > 0:
		q = q.Where("id IN ?", ids)
	case olderThan != nil:
		q = q.Where("created_at <= ?", *olderThan)
	default:
		return 0, domain.ErrValidation
	}
	res := q.Delete(&domain.Notification{})
	return res.RowsAffected, res.Error
}

func (r *NotificationRepo) UnreadCount(ctx context.Context, user string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND is_read = ?", user, false).Count(&n).Error
	return n, err
}

// isDupKey 不依赖 gorm.ErrDuplicatedKey，避免驱动差异
func isDupKey(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation") ||
		strings.Contains(msg, "duplicate key")
}

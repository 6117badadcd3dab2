package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bizmatch/internal/domain"
	"bizmatch/pkg/utils"
)

type ViewLogRepo struct{ db *gorm.DB }

func NewViewLogRepo(db *gorm.DB) *ViewLogRepo { return &ViewLogRepo{db: db} }

var _ domain.ViewRepository = (*ViewLogRepo)(nil)

// Upsert 滚动计数：唯一键 (viewer, viewed_user) 冲突时 count+1 并刷新 viewed_at
func (r *ViewLogRepo) Upsert(ctx context.Context, viewer, viewed string, source domain.ViewSource, at time.Time) error {
	row := domain.ViewLog{
		ID:         utils.NewID(),
		Viewer:     viewer,
		ViewedUser: viewed,
		Source:     source,
		ViewedAt:   at,
		Count:      1,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "viewer"}, {Name: "viewed_user"}},
		DoUpdates: clause.Assignments(map[string]any{
			"count":     gorm.Expr("count + 1"),
			"viewed_at": at,
			"source":    source,
		}),
	}).Create(&row).Error
}

func (r *ViewLogRepo) RecentViewers(ctx context.Context, user string, limit int) ([]domain.ViewLog, error) {
	var views []domain.ViewLog
	err := r.db.WithContext(ctx).
		Where("viewed_user = ?", user).
		Order("viewed_at DESC").Limit(limit).Find(&views).Error
	return views, err
}

func (r *ViewLogRepo) Stats(ctx context.Context, user string, now time.Time) (domain.ViewStats, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := today.AddDate(0, 0, -1)
	last5 := today.AddDate(0, 0, -5)

	var s domain.ViewStats
	base := r.db.WithContext(ctx).Model(&domain.ViewLog{})
	if err := base.Session(&gorm.Session{}).Where("viewed_user = ?", user).Count(&s.Overall).Error; err != nil {
		return s, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("viewed_user = ? AND viewed_at >= ?", user, today).Count(&s.Today).Error; err != nil {
		return s, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("viewed_user = ? AND viewed_at >= ? AND viewed_at < ?", user, yesterday, today).
		Count(&s.Yesterday).Error; err != nil {
		return s, err
	}
	err := base.Session(&gorm.Session{}).
		Where("viewed_user = ? AND viewed_at >= ?", user, last5).Count(&s.Last5Days).Error
	return s, err
}

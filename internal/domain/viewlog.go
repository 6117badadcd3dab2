package domain

import (
	"context"
	"time"
)

// ViewSource 浏览来源
type ViewSource string

const (
	ViewSourceProfile    ViewSource = "profile"
	ViewSourceSearch     ViewSource = "search"
	ViewSourceSuggestion ViewSource = "suggestion"
	ViewSourceConnection ViewSource = "connection"
	ViewSourceDashboard  ViewSource = "dashboard"
)

func (s ViewSource) Valid() bool {
	switch s {
	case ViewSourceProfile, ViewSourceSearch, ViewSourceSuggestion,
		ViewSourceConnection, ViewSourceDashboard:
		return true
	}
	return false
}

// ViewLog 滚动计数策略（既定）：每 (viewer, viewedUser) 只保留一行，
// 重复浏览 count+1 并刷新 viewed_at，不追加新行
type ViewLog struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	Viewer     string     `gorm:"size:36;not null;uniqueIndex:uq_view_pair,priority:1" json:"viewer"`
	ViewedUser string     `gorm:"size:36;not null;uniqueIndex:uq_view_pair,priority:2;index:idx_view_target" json:"viewedUser"`
	Source     ViewSource `gorm:"size:16;default:profile" json:"source"`
	ViewedAt   time.Time  `gorm:"index:idx_view_target,priority:2" json:"viewedAt"`
	Count      int64      `gorm:"default:1" json:"count"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (ViewLog) TableName() string { return "view_logs" }

// ViewStats 仪表盘浏览统计
type ViewStats struct {
	Overall   int64
	Today     int64
	Yesterday int64
	Last5Days int64
}

type ViewRepository interface {
	// Upsert 滚动计数写入
	Upsert(ctx context.Context, viewer, viewed string, source ViewSource, at time.Time) error
	RecentViewers(ctx context.Context, user string, limit int) ([]ViewLog, error)
	Stats(ctx context.Context, user string, now time.Time) (ViewStats, error)
}

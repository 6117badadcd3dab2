package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bizmatch/internal/domain"
)

type Visitor struct {
	UserID         string            `json:"userId"`
	Name           string            `json:"name"`
	Role           domain.Role       `json:"role"`
	Location       string            `json:"location"`
	ProfilePicture string            `json:"profilePicture"`
	Source         domain.ViewSource `json:"source"`
	ViewedAt       time.Time         `json:"viewedAt"`
	ViewCount      int64             `json:"viewCount"`
}

type DashboardStats struct {
	ProfileViews struct {
		Overall   int64 `json:"overall"`
		Today     int64 `json:"today"`
		Yesterday int64 `json:"yesterday"`
		Last5Days int64 `json:"last5Days"`
	} `json:"profileViews"`
	Requests struct {
		Sent       int64 `json:"sent"`
		Received   int64 `json:"received"`
		Pending    int64 `json:"pending"`
		WeeklySent int64 `json:"weeklySent"`
	} `json:"requests"`
	Connections int64 `json:"connections"`
}

// ViewService 资料浏览记录 + 仪表盘统计
type ViewService struct {
	views domain.ViewRepository
	users domain.UserRepository
	conns domain.ConnectionRepository
	log   *zap.Logger
	now   func() time.Time
}

func NewViewService(views domain.ViewRepository, users domain.UserRepository, conns domain.ConnectionRepository, l *zap.Logger) *ViewService {
	return &ViewService{views: views, users: users, conns: conns, log: l, now: time.Now}
}

// RecordView 记一次浏览。自浏览静默忽略，目标必须存在且 active
func (s *ViewService) RecordView(ctx context.Context, viewer, viewed string, source domain.ViewSource) error {
	if viewed == "" {
		return fmt.Errorf("%w: viewedUserId is required", domain.ErrValidation)
	}
	if viewer == viewed {
		return nil
	}
	if source == "" {
		source = domain.ViewSourceProfile
	}
	if !source.Valid() {
		return fmt.Errorf("%w: invalid source %q", domain.ErrValidation, source)
	}

	target, err := s.users.FindByID(ctx, viewed)
	if err != nil {
		return err
	}
	if target == nil || !target.IsActive {
		return fmt.Errorf("%w: user %s", domain.ErrNotFound, viewed)
	}
	return s.views.Upsert(ctx, viewer, viewed, source, s.now())
}

func (s *ViewService) RecentVisitors(ctx context.Context, user string, limit int) ([]Visitor, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	logs, err := s.views.RecentViewers(ctx, user, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Visitor, 0, len(logs))
	for _, lg := range logs {
		v := Visitor{
			UserID:         lg.Viewer,
			Name:           "Unknown",
			ProfilePicture: "/images/default-avatar.png",
			Source:         lg.Source,
			ViewedAt:       lg.ViewedAt,
			ViewCount:      lg.Count,
		}
		if u, err := s.users.FindByID(ctx, lg.Viewer); err == nil && u != nil {
			v.Name = u.DisplayName()
			v.Role = u.Role
			v.Location = u.Location()
			if u.ProfilePicture != "" {
				v.ProfilePicture = u.ProfilePicture
			}
		}
		out = append(out, v)
	}
	return out, nil
}

// Dashboard 聚合浏览统计、请求计数与连接数
func (s *ViewService) Dashboard(ctx context.Context, user string) (*DashboardStats, error) {
	now := s.now()
	stats, err := s.views.Stats(ctx, user, now)
	if err != nil {
		return nil, err
	}
	weekStart := now.AddDate(0, 0, -7)
	counts, err := s.conns.RequestCounts(ctx, user, weekStart)
	if err != nil {
		return nil, err
	}
	connCount, err := s.conns.ConnectionsCount(ctx, user)
	if err != nil {
		return nil, err
	}

	out := &DashboardStats{Connections: connCount}
	out.ProfileViews.Overall = stats.Overall
	out.ProfileViews.Today = stats.Today
	out.ProfileViews.Yesterday = stats.Yesterday
	out.ProfileViews.Last5Days = stats.Last5Days
	out.Requests.Sent = counts.Sent
	out.Requests.Received = counts.Received
	out.Requests.Pending = counts.Pending
	out.Requests.WeeklySent = counts.WeeklySent
	return out, nil
}

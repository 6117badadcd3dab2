package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bizmatch/internal/domain"
)

// memUsers / memConns / memNotifs / memViews：内存假件，
// 语义对齐 gorm 仓库（条件更新、dedupe 冲突、滚动计数）

type memUsers struct {
	byID map[string]*domain.User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]*domain.User{}} }

func (m *memUsers) add(u *domain.User) *domain.User { m.byID[u.ID] = u; return u }

func (m *memUsers) Create(ctx context.Context, u *domain.User) error {
	for _, x := range m.byID {
		if x.Email == u.Email {
			return fmt.Errorf("%w: duplicate email", domain.ErrConflict)
		}
	}
	m.byID[u.ID] = u
	return nil
}
func (m *memUsers) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return m.byID[id], nil
}
func (m *memUsers) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}
func (m *memUsers) Update(ctx context.Context, u *domain.User) error {
	m.byID[u.ID] = u
	return nil
}
func (m *memUsers) UpdateFields(ctx context.Context, id string, patch map[string]any) error {
	u, ok := m.byID[id]
	if !ok {
		return nil
	}
	for k, v := range patch {
		switch k {
		case "role":
			u.Role = v.(domain.Role)
		case "step1_completed":
			u.Step1Completed = v.(bool)
		case "step2_completed":
			u.Step2Completed = v.(bool)
		case "step3_completed":
			u.Step3Completed = v.(bool)
		case "step4_completed":
			u.Step4Completed = v.(bool)
		case "profile_completed":
			u.ProfileCompleted = v.(bool)
		case "password_hash":
			u.PasswordHash = v.(string)
		case "last_login":
			t := v.(time.Time)
			u.LastLogin = &t
		case "company_name":
			u.CompanyName = v.(string)
		case "business_description":
			u.BusinessDescription = v.(string)
		}
	}
	return nil
}
func (m *memUsers) List(ctx context.Context, offset, limit int, search string, withDeleted bool) ([]domain.User, int64, error) {
	return nil, 0, nil
}
func (m *memUsers) Deactivate(ctx context.Context, id string) error {
	if u, ok := m.byID[id]; ok {
		u.IsActive = false
	}
	return nil
}
func (m *memUsers) FindCandidates(ctx context.Context, f domain.CandidateFilter) ([]domain.User, error) {
	return nil, nil
}

type memConns struct {
	byID map[string]*domain.ConnectionRequest
	// user_connections 去范式化行
	pairs map[string]bool
}

func newMemConns() *memConns {
	return &memConns{byID: map[string]*domain.ConnectionRequest{}, pairs: map[string]bool{}}
}

func (m *memConns) Create(ctx context.Context, r *domain.ConnectionRequest) error {
	m.byID[r.ID] = r
	return nil
}
func (m *memConns) FindByID(ctx context.Context, id string) (*domain.ConnectionRequest, error) {
	return m.byID[id], nil
}
func (m *memConns) FindPair(ctx context.Context, a, b string) (*domain.ConnectionRequest, error) {
	for _, r := range m.byID {
		if (r.FromUser == a && r.ToUser == b) || (r.FromUser == b && r.ToUser == a) {
			return r, nil
		}
	}
	return nil, nil
}
func (m *memConns) Revive(ctx context.Context, id, from, to, message string, sentAt time.Time) (bool, error) {
	r, ok := m.byID[id]
	if !ok || (r.Status != domain.StatusDeclined && r.Status != domain.StatusWithdrawn) {
		return false, nil
	}
	r.FromUser, r.ToUser = from, to
	r.Status, r.Message, r.SentAt, r.RespondedAt = domain.StatusPending, message, sentAt, nil
	return true, nil
}
func (m *memConns) Transition(ctx context.Context, id string, to domain.RequestStatus, respondedAt time.Time) (bool, error) {
	r, ok := m.byID[id]
	if !ok || r.Status != domain.StatusPending {
		return false, nil
	}
	r.Status = to
	r.RespondedAt = &respondedAt
	return true, nil
}
func (m *memConns) Accept(ctx context.Context, id, from, to string, respondedAt time.Time) (bool, error) {
	ok, err := m.Transition(ctx, id, domain.StatusAccepted, respondedAt)
	if !ok || err != nil {
		return ok, err
	}
	m.pairs[from+"|"+to] = true
	m.pairs[to+"|"+from] = true
	return true, nil
}
func (m *memConns) ListSent(ctx context.Context, user string, offset, limit int) ([]domain.ConnectionRequest, int64, error) {
	var out []domain.ConnectionRequest
	for _, r := range m.byID {
		if r.FromUser == user {
			out = append(out, *r)
		}
	}
	return out, int64(len(out)), nil
}
func (m *memConns) ListPendingTo(ctx context.Context, user string, limit int) ([]domain.ConnectionRequest, error) {
	var out []domain.ConnectionRequest
	for _, r := range m.byID {
		if r.ToUser == user && r.Status == domain.StatusPending {
			out = append(out, *r)
		}
	}
	return out, nil
}
func (m *memConns) ListAccepted(ctx context.Context, user string) ([]domain.ConnectionRequest, error) {
	var out []domain.ConnectionRequest
	for _, r := range m.byID {
		if r.Status == domain.StatusAccepted && (r.FromUser == user || r.ToUser == user) {
			out = append(out, *r)
		}
	}
	return out, nil
}
func (m *memConns) CounterpartIDs(ctx context.Context, user string) ([]string, error) {
	var out []string
	for _, r := range m.byID {
		switch user {
		case r.FromUser:
			out = append(out, r.ToUser)
		case r.ToUser:
			out = append(out, r.FromUser)
		}
	}
	return out, nil
}
func (m *memConns) ConnectionsCount(ctx context.Context, user string) (int64, error) {
	var n int64
	for key := range m.pairs {
		if strings.HasPrefix(key, user+"|") {
			n++
		}
	}
	return n, nil
}
func (m *memConns) RequestCounts(ctx context.Context, user string, weekStart time.Time) (domain.RequestCounts, error) {
	var c domain.RequestCounts
	for _, r := range m.byID {
		if r.FromUser == user {
			c.Sent++
			if r.SentAt.After(weekStart) {
				c.WeeklySent++
			}
		}
		if r.ToUser == user {
			c.Received++
			if r.Status == domain.StatusPending {
				c.Pending++
			}
		}
	}
	return c, nil
}

type memNotifs struct {
	items []*domain.Notification
}

func (m *memNotifs) Create(ctx context.Context, n *domain.Notification) error {
	if n.DedupeKey != nil {
		for _, x := range m.items {
			if x.UserID == n.UserID && x.DedupeKey != nil && *x.DedupeKey == *n.DedupeKey {
				return fmt.Errorf("%w: duplicate notification", domain.ErrConflict)
			}
		}
	}
	m.items = append(m.items, n)
	return nil
}
func (m *memNotifs) List(ctx context.Context, user string, offset, limit int, unreadOnly bool) ([]domain.Notification, int64, error) {
	var out []domain.Notification
	for _, n := range m.items {
		if n.UserID != user || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, *n)
	}
	return out, int64(len(out)), nil
}
func (m *memNotifs) MarkRead(ctx context.Context, id, user string) (bool, error) {
	for _, n := range m.items {
		if n.ID == id && n.UserID == user {
			n.IsRead = true
			return true, nil
		}
	}
	return false, nil
}
func (m *memNotifs) MarkAllRead(ctx context.Context, user string, olderThan *time.Time, types []string) (int64, error) {
	var n int64
	for _, x := range m.items {
		if x.UserID == user && !x.IsRead {
			x.IsRead = true
			n++
		}
	}
	return n, nil
}
func (m *memNotifs) Delete(ctx context.Context, id, user string) (bool, error) {
	for i, n := range m.items {
		if n.ID == id && n.UserID == user {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
func (m *memNotifs) BulkDelete(ctx context.Context, user string, ids []string, olderThan *time.Time) (int64, error) {
	if len(ids) == 0 && olderThan == nil {
		return 0, fmt.Errorf("%w: ids or olderThan required", domain.ErrValidation)
	}
	keep := m.items[:0]
	var n int64
	for _, x := range m.items {
		drop := x.UserID == user && (containsStr(ids, x.ID) || (olderThan != nil && x.CreatedAt.Before(*olderThan)))
		if drop {
			n++
			continue
		}
		keep = append(keep, x)
	}
	m.items = keep
	return n, nil
}
func (m *memNotifs) UnreadCount(ctx context.Context, user string) (int64, error) {
	var n int64
	for _, x := range m.items {
		if x.UserID == user && !x.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *memNotifs) forUser(user string) []*domain.Notification {
	var out []*domain.Notification
	for _, n := range m.items {
		if n.UserID == user {
			out = append(out, n)
		}
	}
	return out
}

type memViews struct {
	logs map[string]*domain.ViewLog // key viewer|viewed
}

func newMemViews() *memViews { return &memViews{logs: map[string]*domain.ViewLog{}} }

func (m *memViews) Upsert(ctx context.Context, viewer, viewed string, source domain.ViewSource, at time.Time) error {
	key := viewer + "|" + viewed
	if lg, ok := m.logs[key]; ok {
		lg.Count++
		lg.ViewedAt = at
		lg.Source = source
		return nil
	}
	m.logs[key] = &domain.ViewLog{
		ID: key, Viewer: viewer, ViewedUser: viewed,
		Source: source, ViewedAt: at, Count: 1,
	}
	return nil
}
func (m *memViews) RecentViewers(ctx context.Context, user string, limit int) ([]domain.ViewLog, error) {
	var out []domain.ViewLog
	for _, lg := range m.logs {
		if lg.ViewedUser == user {
			out = append(out, *lg)
		}
	}
	return out, nil
}
func (m *memViews) Stats(ctx context.Context, user string, now time.Time) (domain.ViewStats, error) {
	var s domain.ViewStats
	today := now.Truncate(24 * time.Hour)
	for _, lg := range m.logs {
		if lg.ViewedUser != user {
			continue
		}
		s.Overall += lg.Count
		if !lg.ViewedAt.Before(today) {
			s.Today++
		}
		if !lg.ViewedAt.Before(today.AddDate(0, 0, -5)) {
			s.Last5Days++
		}
	}
	return s, nil
}

func containsStr(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

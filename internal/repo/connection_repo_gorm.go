package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bizmatch/internal/domain"
)

type ConnectionRepo struct{ db *gorm.DB }

func NewConnectionRepo(db *gorm.DB) *ConnectionRepo { return &ConnectionRepo{db: db} }

var _ domain.ConnectionRepository = (*ConnectionRepo)(nil)

func (r *ConnectionRepo) Create(ctx context.Context, req *domain.ConnectionRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *ConnectionRepo) FindByID(ctx context.Context, id string) (*domain.ConnectionRequest, error) {
	var req domain.ConnectionRequest
	err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &req, err
}

func (r *ConnectionRepo) FindPair(ctx context.Context, a, b string) (*domain.ConnectionRequest, error) {
	var req domain.ConnectionRequest
	err := r.db.WithContext(ctx).
		Where("(from_user = ? AND to_user = ?) OR (from_user = ? AND to_user = ?)", a, b, b, a).
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &req, err
}

// Revive 条件更新：只有 declined/withdrawn 的旧边才能复活为新的 pending
func (r *ConnectionRepo) Revive(ctx context.Context, id, from, to, message string, sentAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.ConnectionRequest{}).
		Where("id = ? AND status IN ?", id, []domain.RequestStatus{domain.StatusDeclined, domain.StatusWithdrawn}).
		Updates(map[string]any{
			"from_user":    from,
			"to_user":      to,
			"status":       domain.StatusPending,
			"message":      message,
			"sent_at":      sentAt,
			"responded_at": nil,
		})
	return res.RowsAffected > 0, res.Error
}

// Transition 单条原子写：WHERE status='pending'，RowsAffected=0 即已被抢先响应
func (r *ConnectionRepo) Transition(ctx context.Context, id string, to domain.RequestStatus, respondedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.ConnectionRequest{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(map[string]any{"status": to, "responded_at": respondedAt})
	return res.RowsAffected > 0, res.Error
}

// Accept 状态迁移与双向连接写入放在同一事务；连接行用 ON CONFLICT DO NOTHING 保证幂等
func (r *ConnectionRepo) Accept(ctx context.Context, id, from, to string, respondedAt time.Time) (bool, error) {
	accepted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.ConnectionRequest{}).
			Where("id = ? AND status = ?", id, domain.StatusPending).
			Updates(map[string]any{"status": domain.StatusAccepted, "responded_at": respondedAt})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil // 已非 pending，事务空转结束
		}
		accepted = true
		conns := []domain.UserConnection{
			{UserID: from, PeerID: to},
			{UserID: to, PeerID: from},
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&conns).Error
	})
	return accepted, err
}

func (r *ConnectionRepo) ListSent(ctx context.Context, user string, offset, limit int) ([]domain.ConnectionRequest, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.ConnectionRequest{}).Where("from_user = ?", user)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var reqs []domain.ConnectionRequest
	if err := q.Order("sent_at DESC").Limit(limit).Offset(offset).Find(&reqs).Error; err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

func (r *ConnectionRepo) ListPendingTo(ctx context.Context, user string, limit int) ([]domain.ConnectionRequest, error) {
	var reqs []domain.ConnectionRequest
	err := r.db.WithContext(ctx).
		Where("to_user = ? AND status = ?", user, domain.StatusPending).
		Order("sent_at DESC").Limit(limit).Find(&reqs).Error
	return reqs, err
}

func (r *ConnectionRepo) ListAccepted(ctx context.Context, user string) ([]domain.ConnectionRequest, error) {
	var reqs []domain.ConnectionRequest
	err := r.db.WithContext(ctx).
		Where("(from_user = ? OR to_user = ?) AND status = ?", user, user, domain.StatusAccepted).
		Order("responded_at DESC").Find(&reqs).Error
	return reqs, err
}

func (r *ConnectionRepo) CounterpartIDs(ctx context.Context, user string) ([]string, error) {
	var reqs []domain.ConnectionRequest
	err := r.db.WithContext(ctx).
		Select("from_user", "to_user").
		Where("from_user = ? OR to_user = ?", user, user).
		Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(reqs))
	for _, req := range reqs {
		if req.FromUser == user {
			ids = append(ids, req.ToUser)
		} else {
			ids = append(ids, req.FromUser)
		}
	}
	return ids, nil
}

func (r *ConnectionRepo) ConnectionsCount(ctx context.Context, user string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.UserConnection{}).
		Where("user_id = ?", user).Count(&n).Error
	return n, err
}

func (r *ConnectionRepo) RequestCounts(ctx context.Context, user string, weekStart time.Time) (domain.RequestCounts, error) {
	var c domain.RequestCounts
	db := r.db.WithContext(ctx).Model(&domain.ConnectionRequest{})
	if err := db.Session(&gorm.Session{}).Where("from_user = ?", user).Count(&c.Sent).Error; err != nil {
		return c, err
	}
	if err := db.Session(&gorm.Session{}).Where("to_user = ?", user).Count(&c.Received).Error; err != nil {
		return c, err
	}
	if err := db.Session(&gorm.Session{}).
		Where("to_user = ? AND status = ?", user, domain.StatusPending).Count(&c.Pending).Error; err != nil {
		return c, err
	}
	err := db.Session(&gorm.Session{}).
		Where("from_user = ? AND created_at >= ?", user, weekStart).Count(&c.WeeklySent).Error
	return c, err
}

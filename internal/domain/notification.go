package domain

import (
	"context"
	"time"

	"gorm.io/datatypes"
)

// Notification 投递记录，只属于一个收件人。
// dedupe_key 非空时在 (user_id, dedupe_key) 上唯一，命中即幂等成功
type Notification struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	UserID    string         `gorm:"size:36;not null;index:idx_notif_user_created;uniqueIndex:uq_notif_dedupe,priority:1" json:"userId"`
	Type      string         `gorm:"size:64;not null" json:"type"`
	Title     string         `gorm:"size:191;not null" json:"title"`
	Body      string         `gorm:"size:500;not null" json:"body"`
	Data      datatypes.JSON `json:"data"`
	Icon      string         `gorm:"size:32" json:"icon"`
	Link      string         `gorm:"size:191" json:"link"`
	Source    string         `gorm:"size:32" json:"source"`
	IsRead    bool           `gorm:"index" json:"isRead"`
	DedupeKey *string        `gorm:"size:191;uniqueIndex:uq_notif_dedupe,priority:2" json:"dedupeKey,omitempty"`
	ExpiresAt *time.Time     `json:"expiresAt,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_notif_user_created,priority:2,sort:desc" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

func (Notification) TableName() string { return "notifications" }

type NotificationRepository interface {
	// Create dedupe 冲突以 ErrConflict 返回，由 service 折算为幂等成功
	Create(ctx context.Context, n *Notification) error
	List(ctx context.Context, user string, offset, limit int, unreadOnly bool) ([]Notification, int64, error)
	MarkRead(ctx context.Context, id, user string) (bool, error)
	MarkAllRead(ctx context.Context, user string, olderThan *time.Time, types []string) (int64, error)
	Delete(ctx context.Context, id, user string) (bool, error)
	BulkDelete(ctx context.Context, user string, ids []string, olderThan *time.Time) (int64, error)
	UnreadCount(ctx context.Context, user string) (int64, error)
}

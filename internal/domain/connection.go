package domain

import (
	"context"
	"time"
)

// RequestStatus 连接请求状态机：pending 只会迁移一次
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusAccepted  RequestStatus = "accepted"
	StatusDeclined  RequestStatus = "declined"
	StatusWithdrawn RequestStatus = "withdrawn"
)

// ConnectionRequest 有向边。(from_user, to_user) 全局唯一，
// 反向重复由 service 层 FindPair 双向查询兜底
type ConnectionRequest struct {
	ID          string        `gorm:"primaryKey;size:36" json:"id"`
	FromUser    string        `gorm:"size:36;not null;uniqueIndex:uq_req_pair,priority:1;index:idx_req_from_status" json:"fromUser"`
	ToUser      string        `gorm:"size:36;not null;uniqueIndex:uq_req_pair,priority:2;index:idx_req_to_status" json:"toUser"`
	Status      RequestStatus `gorm:"size:16;not null;default:pending;index:idx_req_from_status,priority:2;index:idx_req_to_status,priority:2" json:"status"`
	Message     string        `gorm:"size:500" json:"message"`
	SentAt      time.Time     `json:"sentAt"`
	RespondedAt *time.Time    `json:"respondedAt"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (ConnectionRequest) TableName() string { return "connection_requests" }

// UserConnection 去范式化的双向连接缓存，accept 时与状态迁移同事务写入
type UserConnection struct {
	UserID    string    `gorm:"size:36;not null;uniqueIndex:uq_conn_pair,priority:1"`
	PeerID    string    `gorm:"size:36;not null;uniqueIndex:uq_conn_pair,priority:2"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (UserConnection) TableName() string { return "user_connections" }

// RequestCounts 仪表盘用的请求计数
type RequestCounts struct {
	Sent       int64
	Received   int64
	Pending    int64
	WeeklySent int64
}

type ConnectionRepository interface {
	Create(ctx context.Context, r *ConnectionRequest) error
	FindByID(ctx context.Context, id string) (*ConnectionRequest, error)
	// FindPair 双向查询 {a,b} 之间的请求（任意状态）
	FindPair(ctx context.Context, a, b string) (*ConnectionRequest, error)
	// Revive declined/withdrawn 的旧边原子复活为新的 pending 请求；
	// 返回 false 表示状态已不允许（并发竞争）
	Revive(ctx context.Context, id, from, to, message string, sentAt time.Time) (bool, error)
	// Transition 条件更新 WHERE status='pending'；返回 false 即 Conflict
	Transition(ctx context.Context, id string, to RequestStatus, respondedAt time.Time) (bool, error)
	// Accept 同一事务内完成 pending→accepted 与双向 user_connections 写入
	Accept(ctx context.Context, id, from, to string, respondedAt time.Time) (bool, error)

	ListSent(ctx context.Context, user string, offset, limit int) ([]ConnectionRequest, int64, error)
	ListPendingTo(ctx context.Context, user string, limit int) ([]ConnectionRequest, error)
	ListAccepted(ctx context.Context, user string) ([]ConnectionRequest, error)

	// CounterpartIDs 与 user 有任意状态请求往来的对端集合（建议排除集的来源）
	CounterpartIDs(ctx context.Context, user string) ([]string, error)
	ConnectionsCount(ctx context.Context, user string) (int64, error)
	RequestCounts(ctx context.Context, user string, weekStart time.Time) (RequestCounts, error)
}

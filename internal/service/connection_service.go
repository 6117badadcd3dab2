package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"bizmatch/internal/domain"
	"bizmatch/pkg/utils"
)

// PeerSummary 连接/请求列表里对端用户的摘要
type PeerSummary struct {
	UserID           string      `json:"userId"`
	Name             string      `json:"name"`
	Role             domain.Role `json:"role"`
	Location         string      `json:"location"`
	ProfilePicture   string      `json:"profilePicture"`
	ConnectionsCount int64       `json:"connectionsCount,omitempty"`
}

type SentRequest struct {
	RequestID   string               `json:"requestId"`
	ToUser      PeerSummary          `json:"toUser"`
	Status      domain.RequestStatus `json:"status"`
	Message     string               `json:"message"`
	SentAt      time.Time            `json:"sentAt"`
	RespondedAt *time.Time           `json:"respondedAt"`
}

type PendingRequest struct {
	RequestID string      `json:"requestId"`
	FromUser  PeerSummary `json:"fromUser"`
	Message   string      `json:"message"`
	SentAt    time.Time   `json:"sentAt"`
}

type Connection struct {
	ConnectionID string      `json:"connectionId"`
	Peer         PeerSummary `json:"peer"`
	ConnectedAt  time.Time   `json:"connectedAt"`
}

// ConnectionService 连接台账：请求生命周期 + 派生连接 + 通知副作用。
// 状态迁移是唯一权威写入；通知失败只记日志不回滚（已知缺口，见 DESIGN.md）
type ConnectionService struct {
	conns  domain.ConnectionRepository
	users  domain.UserRepository
	notifs domain.NotificationRepository
	log    *zap.Logger
	now    func() time.Time
}

func NewConnectionService(conns domain.ConnectionRepository, users domain.UserRepository, notifs domain.NotificationRepository, l *zap.Logger) *ConnectionService {
	return &ConnectionService{conns: conns, users: users, notifs: notifs, log: l, now: time.Now}
}

// Send 发起连接请求。禁止自连、禁止双向重复；
// declined/withdrawn 的旧边允许重试（原边原子复活为新 pending，既定策略）
func (s *ConnectionService) Send(ctx context.Context, from, to, message string) (*domain.ConnectionRequest, error) {
	if to == "" {
		return nil, fmt.Errorf("%w: toUserId is required", domain.ErrValidation)
	}
	if from == to {
		return nil, fmt.Errorf("%w: cannot connect to yourself", domain.ErrValidation)
	}
	if len(message) > 500 {
		return nil, fmt.Errorf("%w: message too long", domain.ErrValidation)
	}

	target, err := s.users.FindByID(ctx, to)
	if err != nil {
		return nil, err
	}
	if target == nil || !target.IsActive {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, to)
	}

	now := s.now()
	existing, err := s.conns.FindPair(ctx, from, to)
	if err != nil {
		return nil, err
	}

	var req *domain.ConnectionRequest
	switch {
	case existing == nil:
		req = &domain.ConnectionRequest{
			ID:       utils.NewID(),
			FromUser: from,
			ToUser:   to,
			Status:   domain.StatusPending,
			Message:  message,
			SentAt:   now,
		}
		if err := s.conns.Create(ctx, req); err != nil {
			return nil, err
		}
	case existing.Status == domain.StatusPending || existing.Status == domain.StatusAccepted:
		return nil, fmt.Errorf("%w: request already exists", domain.ErrConflict)
	default: // declined / withdrawn → 复活
		ok, err := s.conns.Revive(ctx, existing.ID, from, to, message, now)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: request already exists", domain.ErrConflict)
		}
		req = existing
		req.FromUser, req.ToUser = from, to
		req.Status, req.Message, req.SentAt, req.RespondedAt = domain.StatusPending, message, now, nil
	}

	sender, _ := s.users.FindByID(ctx, from)
	s.notify(ctx, to, "connection_request", "New Connection Request",
		fmt.Sprintf("%s sent you a connection request", displayName(sender)),
		map[string]any{"requestId": req.ID, "fromUserId": from},
		"🤝", "/connections/requests",
		fmt.Sprintf("connection_request:%s:%d", req.ID, now.Unix()))
	return req, nil
}

// Respond 接受/拒绝。只有收件人能响应，只有 pending 能迁移；
// 并发双响应由条件更新兜底（RowsAffected=0 → Conflict）
func (s *ConnectionService) Respond(ctx context.Context, requestID, actingUser, action string) (*domain.ConnectionRequest, error) {
	if action != "accept" && action != "decline" {
		return nil, fmt.Errorf("%w: action must be accept or decline", domain.ErrValidation)
	}
	req, err := s.conns.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: request %s", domain.ErrNotFound, requestID)
	}
	if req.ToUser != actingUser {
		return nil, fmt.Errorf("%w: only the recipient may respond", domain.ErrForbidden)
	}
	if req.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: request already responded", domain.ErrConflict)
	}

	now := s.now()
	var ok bool
	if action == "accept" {
		ok, err = s.conns.Accept(ctx, req.ID, req.FromUser, req.ToUser, now)
	} else {
		ok, err = s.conns.Transition(ctx, req.ID, domain.StatusDeclined, now)
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: request already responded", domain.ErrConflict)
	}

	if action == "accept" {
		req.Status = domain.StatusAccepted
	} else {
		req.Status = domain.StatusDeclined
	}
	req.RespondedAt = &now

	responder, _ := s.users.FindByID(ctx, actingUser)
	title := "Connection Request Declined"
	body := fmt.Sprintf("%s declined your connection request", displayName(responder))
	icon := "❌"
	if action == "accept" {
		title = "Connection Request Accepted"
		body = fmt.Sprintf("%s accepted your connection request", displayName(responder))
		icon = "✅"
	}
	s.notify(ctx, req.FromUser, "connection_response", title, body,
		map[string]any{"requestId": req.ID, "toUserId": actingUser, "action": action},
		icon, "/connections",
		fmt.Sprintf("connection_response:%s", req.ID))
	return req, nil
}

// Withdraw 撤回。只有发送者能撤、只有 pending 能撤
func (s *ConnectionService) Withdraw(ctx context.Context, requestID, actingUser string) (*domain.ConnectionRequest, error) {
	req, err := s.conns.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: request %s", domain.ErrNotFound, requestID)
	}
	if req.FromUser != actingUser {
		return nil, fmt.Errorf("%w: only the sender may withdraw", domain.ErrForbidden)
	}
	if req.Status != domain.StatusPending {
		return nil, fmt.Errorf("%w: request already responded", domain.ErrConflict)
	}

	now := s.now()
	ok, err := s.conns.Transition(ctx, req.ID, domain.StatusWithdrawn, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: request already responded", domain.ErrConflict)
	}
	req.Status = domain.StatusWithdrawn
	req.RespondedAt = &now

	sender, _ := s.users.FindByID(ctx, actingUser)
	s.notify(ctx, req.ToUser, "connection_withdraw", "Connection Request Withdrawn",
		fmt.Sprintf("%s withdrew their connection request", displayName(sender)),
		map[string]any{"requestId": req.ID, "fromUserId": actingUser},
		"↩️", "/connections/requests",
		fmt.Sprintf("connection_withdraw:%s", req.ID))
	return req, nil
}

func (s *ConnectionService) ListSent(ctx context.Context, user string, page, limit int) ([]SentRequest, int64, error) {
	page, limit = normalizePage(page, limit, 20)
	reqs, total, err := s.conns.ListSent(ctx, user, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]SentRequest, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, SentRequest{
			RequestID:   req.ID,
			ToUser:      s.peerSummary(ctx, req.ToUser, false),
			Status:      req.Status,
			Message:     req.Message,
			SentAt:      req.SentAt,
			RespondedAt: req.RespondedAt,
		})
	}
	return out, total, nil
}

func (s *ConnectionService) ListPending(ctx context.Context, user string, limit int) ([]PendingRequest, error) {
	if limit <= 0 {
		limit = 6
	}
	reqs, err := s.conns.ListPendingTo(ctx, user, limit)
	if err != nil {
		return nil, err
	}
	out := make([]PendingRequest, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, PendingRequest{
			RequestID: req.ID,
			FromUser:  s.peerSummary(ctx, req.FromUser, true),
			Message:   req.Message,
			SentAt:    req.SentAt,
		})
	}
	return out, nil
}

// ListAccepted 连接列表：解析对端资料，内存内搜索再分页（与数据量级匹配）
func (s *ConnectionService) ListAccepted(ctx context.Context, user string, page, limit int, search string) ([]Connection, int64, error) {
	page, limit = normalizePage(page, limit, 20)
	reqs, err := s.conns.ListAccepted(ctx, user)
	if err != nil {
		return nil, 0, err
	}

	conns := make([]Connection, 0, len(reqs))
	for _, req := range reqs {
		peerID := req.FromUser
		if peerID == user {
			peerID = req.ToUser
		}
		connectedAt := req.CreatedAt
		if req.RespondedAt != nil {
			connectedAt = *req.RespondedAt
		}
		conns = append(conns, Connection{
			ConnectionID: req.ID,
			Peer:         s.peerSummary(ctx, peerID, true),
			ConnectedAt:  connectedAt,
		})
	}

	if q := strings.ToLower(strings.TrimSpace(search)); q != "" {
		filtered := conns[:0]
		for _, c := range conns {
			if strings.Contains(strings.ToLower(c.Peer.Name), q) ||
				strings.Contains(strings.ToLower(string(c.Peer.Role)), q) ||
				strings.Contains(strings.ToLower(c.Peer.Location), q) {
				filtered = append(filtered, c)
			}
		}
		conns = filtered
	}

	total := int64(len(conns))
	start := (page - 1) * limit
	if start >= len(conns) {
		return []Connection{}, total, nil
	}
	end := start + limit
	if end > len(conns) {
		end = len(conns)
	}
	return conns[start:end], total, nil
}

func (s *ConnectionService) peerSummary(ctx context.Context, id string, withCount bool) PeerSummary {
	summary := PeerSummary{UserID: id, Name: "Unknown", ProfilePicture: "/images/default-avatar.png"}
	u, err := s.users.FindByID(ctx, id)
	if err != nil || u == nil {
		return summary
	}
	summary.Name = u.DisplayName()
	summary.Role = u.Role
	summary.Location = u.Location()
	if u.ProfilePicture != "" {
		summary.ProfilePicture = u.ProfilePicture
	}
	if withCount {
		if n, err := s.conns.ConnectionsCount(ctx, id); err == nil {
			summary.ConnectionsCount = n
		}
	}
	return summary
}

// notify 副作用写入：dedupe 命中算成功，其余失败仅记日志
func (s *ConnectionService) notify(ctx context.Context, to, typ, title, body string, data map[string]any, icon, link, dedupeKey string) {
	payload, _ := json.Marshal(data)
	n := &domain.Notification{
		ID:        utils.NewID(),
		UserID:    to,
		Type:      typ,
		Title:     title,
		Body:      body,
		Data:      payload,
		Icon:      icon,
		Link:      link,
		Source:    "connection",
		DedupeKey: &dedupeKey,
	}
	if err := s.notifs.Create(ctx, n); err != nil && !errors.Is(err, domain.ErrConflict) {
		s.log.Warn("notification write failed",
			zap.String("type", typ), zap.String("user", to), zap.Error(err))
	}
}

func displayName(u *domain.User) string {
	if u == nil {
		return "Someone"
	}
	return u.DisplayName()
}

func normalizePage(page, limit, defLimit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = defLimit
	}
	return page, limit
}

package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"bizmatch/internal/domain"
)

func TestCreateNotificationDedupe(t *testing.T) {
	notifs := &memNotifs{}
	svc := NewNotificationService(notifs, zap.NewNop())
	ctx := context.Background()

	in := CreateNotificationInput{
		UserID:    "alice",
		Type:      "system",
		Title:     "Welcome",
		Body:      "hello",
		DedupeKey: "welcome:alice",
	}

	first, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if first.Deduped || first.ID == "" {
		t.Fatalf("expected fresh notification, got %+v", first)
	}

	// 相同 dedupe key 幂等成功，池不增长
	for i := 0; i < 3; i++ {
		again, err := svc.Create(ctx, in)
		if err != nil {
			t.Fatalf("dedupe create %d: %v", i, err)
		}
		if !again.Deduped {
			t.Fatalf("expected deduped result, got %+v", again)
		}
	}
	if n := len(notifs.forUser("alice")); n != 1 {
		t.Fatalf("pool must not grow on dedupe, got %d", n)
	}
}

func TestCreateNotificationWithoutKeyAlwaysAppends(t *testing.T) {
	notifs := &memNotifs{}
	svc := NewNotificationService(notifs, zap.NewNop())
	ctx := context.Background()

	in := CreateNotificationInput{UserID: "alice", Type: "system", Title: "T", Body: "B"}
	for i := 0; i < 2; i++ {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}
	if n := len(notifs.forUser("alice")); n != 2 {
		t.Fatalf("keyless notifications must append, got %d", n)
	}
}

func TestCreateNotificationValidation(t *testing.T) {
	svc := NewNotificationService(&memNotifs{}, zap.NewNop())
	_, err := svc.Create(context.Background(), CreateNotificationInput{UserID: "alice"})
	if err == nil {
		t.Fatal("expected validation error for missing fields")
	}
}

func TestMarkReadScopedToOwner(t *testing.T) {
	notifs := &memNotifs{}
	svc := NewNotificationService(notifs, zap.NewNop())
	ctx := context.Background()

	res, err := svc.Create(ctx, CreateNotificationInput{UserID: "alice", Type: "t", Title: "T", Body: "B"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// 别人的通知摸不到
	if err := svc.MarkRead(ctx, res.ID, "bob"); err == nil {
		t.Fatal("expected not-found for foreign notification")
	}
	if err := svc.MarkRead(ctx, res.ID, "alice"); err != nil {
		t.Fatalf("owner mark read: %v", err)
	}
	if n, _ := svc.UnreadCount(ctx, "alice"); n != 0 {
		t.Fatalf("expected 0 unread, got %d", n)
	}
}

func TestUnreadCountTracksReads(t *testing.T) {
	notifs := &memNotifs{}
	svc := NewNotificationService(notifs, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, CreateNotificationInput{UserID: "alice", Type: "t", Title: "T", Body: "B"}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if n, _ := svc.UnreadCount(ctx, "alice"); n != 3 {
		t.Fatalf("expected 3 unread, got %d", n)
	}
	if _, err := svc.MarkAllRead(ctx, "alice", nil, nil); err != nil {
		t.Fatalf("mark all: %v", err)
	}
	if n, _ := svc.UnreadCount(ctx, "alice"); n != 0 {
		t.Fatalf("expected 0 unread after mark-all, got %d", n)
	}
}

var _ domain.NotificationRepository = (*memNotifs)(nil)

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"bizmatch/internal/domain"
)

func newViewFixture() (*ViewService, *memUsers, *memViews, *memConns) {
	users := newMemUsers()
	views := newMemViews()
	conns := newMemConns()
	users.add(&domain.User{ID: "alice", Role: domain.RoleSeller, IsActive: true})
	users.add(&domain.User{ID: "bob", Role: domain.RoleInvestor, IsActive: true})
	svc := NewViewService(views, users, conns, zap.NewNop())
	return svc, users, views, conns
}

func TestRecordViewRollingCounter(t *testing.T) {
	svc, _, views, _ := newViewFixture()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := svc.RecordView(ctx, "bob", "alice", domain.ViewSourceProfile); err != nil {
			t.Fatalf("view %d: %v", i, err)
		}
	}

	logs, _ := views.RecentViewers(ctx, "alice", 10)
	if len(logs) != 1 {
		t.Fatalf("repeat views must not add rows, got %d", len(logs))
	}
	if logs[0].Count != 3 {
		t.Fatalf("expected count 3, got %d", logs[0].Count)
	}
}

func TestRecordViewSelfIsNoop(t *testing.T) {
	svc, _, views, _ := newViewFixture()
	ctx := context.Background()

	if err := svc.RecordView(ctx, "alice", "alice", domain.ViewSourceProfile); err != nil {
		t.Fatalf("self view must be silent, got %v", err)
	}
	if logs, _ := views.RecentViewers(ctx, "alice", 10); len(logs) != 0 {
		t.Fatalf("self view must not be recorded, got %d rows", len(logs))
	}
}

func TestRecordViewValidation(t *testing.T) {
	svc, _, _, _ := newViewFixture()
	ctx := context.Background()

	if err := svc.RecordView(ctx, "bob", "ghost", domain.ViewSourceProfile); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown target: expected ErrNotFound, got %v", err)
	}
	if err := svc.RecordView(ctx, "bob", "alice", "carrier-pigeon"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("bad source: expected ErrValidation, got %v", err)
	}
	// 空 source 默认 profile
	if err := svc.RecordView(ctx, "bob", "alice", ""); err != nil {
		t.Fatalf("empty source should default, got %v", err)
	}
}

func TestRecentVisitorsResolvesProfiles(t *testing.T) {
	svc, users, _, _ := newViewFixture()
	ctx := context.Background()
	users.byID["bob"].CompanyName = "Bob Capital"
	users.byID["bob"].City = "Pune"

	if err := svc.RecordView(ctx, "bob", "alice", domain.ViewSourceSuggestion); err != nil {
		t.Fatalf("record: %v", err)
	}
	visitors, err := svc.RecentVisitors(ctx, "alice", 10)
	if err != nil {
		t.Fatalf("visitors: %v", err)
	}
	if len(visitors) != 1 {
		t.Fatalf("expected 1 visitor, got %d", len(visitors))
	}
	v := visitors[0]
	if v.Name != "Bob Capital" || v.Location != "Pune" || v.Source != domain.ViewSourceSuggestion {
		t.Fatalf("unexpected visitor summary: %+v", v)
	}
}

func TestDashboardAggregates(t *testing.T) {
	svc, users, _, conns := newViewFixture()
	ctx := context.Background()
	users.add(&domain.User{ID: "carol", Role: domain.RoleConsultant, IsActive: true})

	// alice 被 bob 浏览两次、carol 一次
	_ = svc.RecordView(ctx, "bob", "alice", domain.ViewSourceProfile)
	_ = svc.RecordView(ctx, "bob", "alice", domain.ViewSourceProfile)
	_ = svc.RecordView(ctx, "carol", "alice", domain.ViewSourceProfile)

	// alice 发 1 收 1（pending），并有一条 accepted 连接
	now := time.Now()
	_ = conns.Create(ctx, &domain.ConnectionRequest{ID: "r1", FromUser: "alice", ToUser: "bob", Status: domain.StatusPending, SentAt: now})
	_ = conns.Create(ctx, &domain.ConnectionRequest{ID: "r2", FromUser: "carol", ToUser: "alice", Status: domain.StatusPending, SentAt: now})
	_ = conns.Create(ctx, &domain.ConnectionRequest{ID: "r3", FromUser: "alice", ToUser: "carol", Status: domain.StatusPending, SentAt: now})
	if ok, _ := conns.Accept(ctx, "r3", "alice", "carol", now); !ok {
		t.Fatal("accept fixture failed")
	}

	stats, err := svc.Dashboard(ctx, "alice")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if stats.ProfileViews.Overall != 3 {
		t.Fatalf("expected 3 overall views, got %d", stats.ProfileViews.Overall)
	}
	if stats.Requests.Sent != 2 || stats.Requests.Received != 1 || stats.Requests.Pending != 1 {
		t.Fatalf("unexpected request counts: %+v", stats.Requests)
	}
	if stats.Connections != 1 {
		t.Fatalf("expected 1 connection, got %d", stats.Connections)
	}
}

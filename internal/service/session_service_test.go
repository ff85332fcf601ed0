package service

import (
	"context"
	"testing"
	"time"

	"github.com/AndreiDascalu/ANL2024/pkg/negotiation"
)

func newTestService() (*SessionService, *mockSessionRepo, *mockOfferRepo, *mockCache, *recordingBroadcaster) {
	sessionRepo := newMockSessionRepo()
	offerRepo := newMockOfferRepo()
	cache := newMockCache()
	broadcaster := &recordingBroadcaster{}
	svc := NewSessionService(sessionRepo, offerRepo, cache, broadcaster, "")
	return svc, sessionRepo, offerRepo, cache, broadcaster
}

func TestCreateSession_Defaults(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	s, err := svc.CreateSession(context.Background(), "test", "", "", 0)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if s.StrategyA != "adaptive" || s.StrategyB != "adaptive" {
		t.Errorf("strategies = %q, %q, want adaptive, adaptive", s.StrategyA, s.StrategyB)
	}
	if s.Status != "pending" {
		t.Errorf("status = %q, want pending", s.Status)
	}
	if !s.Deadline.After(time.Now()) {
		t.Error("deadline should be in the future")
	}
}

func TestCreateSession_UnknownStrategy(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	_, err := svc.CreateSession(context.Background(), "test", "adaptive", "nope", time.Minute)
	if err != ErrUnknownStrategy {
		t.Errorf("err = %v, want ErrUnknownStrategy", err)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	_, err := svc.GetSession(context.Background(), "missing")
	if err != ErrSessionNotFound {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestListOffers_SessionNotFound(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	_, err := svc.ListOffers(context.Background(), "missing")
	if err != ErrSessionNotFound {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestStartSession_RunsToCompletion(t *testing.T) {
	svc, _, offerRepo, cache, broadcaster := newTestService()
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, "test", "adaptive", "stubborn", 500*time.Millisecond)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	finished, err := svc.StartSession(ctx, created.ID, 42)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if finished.Status != "finished" {
		t.Fatalf("status = %q, want finished", finished.Status)
	}
	switch finished.EndedBy {
	case negotiation.EndAccept, negotiation.EndDeadline, negotiation.EndMaxRounds:
	default:
		t.Errorf("endedBy = %q", finished.EndedBy)
	}

	offers, err := offerRepo.ListBySession(ctx, created.ID)
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(offers) == 0 {
		t.Error("expected persisted offers")
	}
	for _, o := range offers {
		if o.UtilityA < 0 || o.UtilityA > 1 || o.UtilityB < 0 || o.UtilityB > 1 {
			t.Errorf("offer utilities out of range: %f, %f", o.UtilityA, o.UtilityB)
		}
	}

	if len(cache.rounds) != 0 || len(cache.timers) != 0 {
		t.Error("session cache should be cleared after finish")
	}

	types := broadcaster.types()
	if len(types) < 2 {
		t.Fatalf("expected at least 2 broadcast events, got %d", len(types))
	}
	if types[0] != "session_started" {
		t.Errorf("first event = %q, want session_started", types[0])
	}
	if types[len(types)-1] != "session_finished" {
		t.Errorf("last event = %q, want session_finished", types[len(types)-1])
	}
}

func TestStartSession_NotPending(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, "test", "random", "random", 200*time.Millisecond)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := svc.StartSession(ctx, created.ID, 1); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if _, err := svc.StartSession(ctx, created.ID, 1); err != ErrSessionNotPending {
		t.Errorf("second start err = %v, want ErrSessionNotPending", err)
	}
}

func TestForceFinish(t *testing.T) {
	svc, sessionRepo, _, cache, broadcaster := newTestService()
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, "test", "adaptive", "adaptive", time.Minute)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := sessionRepo.SetActive(ctx, created.ID); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if err := cache.SetRound(ctx, created.ID, 17); err != nil {
		t.Fatalf("SetRound: %v", err)
	}

	if err := svc.ForceFinish(ctx, created.ID); err != nil {
		t.Fatalf("ForceFinish: %v", err)
	}

	s, _ := sessionRepo.FindByID(ctx, created.ID)
	if s.Status != "finished" {
		t.Errorf("status = %q, want finished", s.Status)
	}
	if s.EndedBy != negotiation.EndDeadline {
		t.Errorf("endedBy = %q, want %q", s.EndedBy, negotiation.EndDeadline)
	}
	if s.Rounds != 17 {
		t.Errorf("rounds = %d, want 17", s.Rounds)
	}
	if s.Agreement != nil {
		t.Error("forced finish should have no agreement")
	}
	if len(cache.rounds) != 0 {
		t.Error("session cache should be cleared")
	}

	types := broadcaster.types()
	if len(types) == 0 || types[len(types)-1] != "session_finished" {
		t.Errorf("expected session_finished broadcast, got %v", types)
	}
}

func TestForceFinish_NotActive(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	ctx := context.Background()

	created, err := svc.CreateSession(ctx, "test", "adaptive", "adaptive", time.Minute)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := svc.ForceFinish(ctx, created.ID); err != ErrSessionNotActive {
		t.Errorf("err = %v, want ErrSessionNotActive", err)
	}
}

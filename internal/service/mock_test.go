package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/AndreiDascalu/ANL2024/internal/model"
)

type mockSessionRepo struct {
	sessions map[string]*model.Session
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{sessions: make(map[string]*model.Session)}
}

func (m *mockSessionRepo) Create(_ context.Context, name, strategyA, strategyB string, deadline time.Time) (*model.Session, error) {
	s := &model.Session{
		ID:        fmt.Sprintf("session-%d", len(m.sessions)+1),
		Name:      name,
		StrategyA: strategyA,
		StrategyB: strategyB,
		Status:    "pending",
		Deadline:  deadline,
		CreatedAt: time.Now(),
	}
	m.sessions[s.ID] = s
	return s, nil
}

func (m *mockSessionRepo) FindByID(_ context.Context, id string) (*model.Session, error) {
	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *mockSessionRepo) ListRecent(_ context.Context) ([]model.Session, error) {
	var result []model.Session
	for _, s := range m.sessions {
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockSessionRepo) SetActive(_ context.Context, id string) error {
	if s, ok := m.sessions[id]; ok && s.Status == "pending" {
		s.Status = "active"
		now := time.Now()
		s.StartedAt = &now
	}
	return nil
}

func (m *mockSessionRepo) SetFinished(_ context.Context, id, endedBy string, agreement json.RawMessage, utilityA, utilityB float64, rounds int) error {
	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("session not found")
	}
	s.Status = "finished"
	s.EndedBy = endedBy
	s.Agreement = agreement
	s.UtilityA = utilityA
	s.UtilityB = utilityB
	s.Rounds = rounds
	now := time.Now()
	s.FinishedAt = &now
	return nil
}

func (m *mockSessionRepo) ListExpired(_ context.Context) ([]model.Session, error) {
	var result []model.Session
	for _, s := range m.sessions {
		if s.Status == "active" && s.Deadline.Before(time.Now()) {
			result = append(result, *s)
		}
	}
	return result, nil
}

type mockOfferRepo struct {
	offers map[string][]model.Offer
}

func newMockOfferRepo() *mockOfferRepo {
	return &mockOfferRepo{offers: make(map[string][]model.Offer)}
}

func (m *mockOfferRepo) Save(_ context.Context, offers []model.Offer) error {
	for _, o := range offers {
		m.offers[o.SessionID] = append(m.offers[o.SessionID], o)
	}
	return nil
}

func (m *mockOfferRepo) ListBySession(_ context.Context, sessionID string) ([]model.Offer, error) {
	return m.offers[sessionID], nil
}

// mockCache implements repository.SessionCache for testing.
type mockCache struct {
	lastOffers map[string]json.RawMessage // key: "sessionID:actor"
	rounds     map[string]int
	timers     map[string]time.Time
}

func newMockCache() *mockCache {
	return &mockCache{
		lastOffers: make(map[string]json.RawMessage),
		rounds:     make(map[string]int),
		timers:     make(map[string]time.Time),
	}
}

func (c *mockCache) SetLastOffer(_ context.Context, sessionID, actor string, bid json.RawMessage) error {
	c.lastOffers[sessionID+":"+actor] = bid
	return nil
}

func (c *mockCache) GetLastOffer(_ context.Context, sessionID, actor string) (json.RawMessage, error) {
	return c.lastOffers[sessionID+":"+actor], nil
}

func (c *mockCache) SetRound(_ context.Context, sessionID string, round int) error {
	c.rounds[sessionID] = round
	return nil
}

func (c *mockCache) GetRound(_ context.Context, sessionID string) (int, error) {
	return c.rounds[sessionID], nil
}

func (c *mockCache) SetTimer(_ context.Context, sessionID string, deadline time.Time) error {
	c.timers[sessionID] = deadline
	return nil
}

func (c *mockCache) ClearTimer(_ context.Context, sessionID string) error {
	delete(c.timers, sessionID)
	return nil
}

func (c *mockCache) DeleteSessionData(_ context.Context, sessionID string) error {
	delete(c.rounds, sessionID)
	delete(c.timers, sessionID)
	for _, actor := range []string{"A", "B"} {
		delete(c.lastOffers, sessionID+":"+actor)
	}
	return nil
}

// recordingBroadcaster captures broadcast events for assertions.
type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

type broadcastEvent struct {
	sessionID string
	eventType string
}

func (b *recordingBroadcaster) BroadcastSessionEvent(sessionID, eventType string, _ any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{sessionID: sessionID, eventType: eventType})
}

func (b *recordingBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var result []string
	for _, e := range b.events {
		result = append(result, e.eventType)
	}
	return result
}

package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AndreiDascalu/ANL2024/internal/auth"
	"github.com/AndreiDascalu/ANL2024/internal/model"
	"github.com/AndreiDascalu/ANL2024/internal/service"
)

// --- Mock repositories ---

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
	}
	return nil
}

func (m *mockSessionRepo) SetFinished(_ context.Context, id, endedBy string, agreement json.RawMessage, utilityA, utilityB float64, rounds int) error {
	if s, ok := m.sessions[id]; ok {
		s.Status = "finished"
		s.EndedBy = endedBy
		s.Agreement = agreement
		s.UtilityA = utilityA
		s.UtilityB = utilityB
		s.Rounds = rounds
	}
	return nil
}

func (m *mockSessionRepo) ListExpired(_ context.Context) ([]model.Session, error) {
	return nil, nil
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

type mockCache struct{}

func (mockCache) SetLastOffer(context.Context, string, string, json.RawMessage) error { return nil }
func (mockCache) GetLastOffer(context.Context, string, string) (json.RawMessage, error) {
	return nil, nil
}
func (mockCache) SetRound(context.Context, string, int) error           { return nil }
func (mockCache) GetRound(context.Context, string) (int, error)         { return 0, nil }
func (mockCache) SetTimer(context.Context, string, time.Time) error     { return nil }
func (mockCache) ClearTimer(context.Context, string) error              { return nil }
func (mockCache) DeleteSessionData(context.Context, string) error       { return nil }

func newTestHandler() (*SessionHandler, *mockSessionRepo) {
	repo := newMockSessionRepo()
	svc := service.NewSessionService(repo, newMockOfferRepo(), mockCache{}, service.NoopBroadcaster{}, "")
	return NewSessionHandler(svc), repo
}

func TestCreateSessionEndpoint(t *testing.T) {
	h, _ := newTestHandler()

	body := `{"name":"match","strategy_a":"adaptive","strategy_b":"random","duration":"30s"}`
	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateSession(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var got model.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.StrategyA != "adaptive" || got.StrategyB != "random" {
		t.Errorf("strategies = %q, %q", got.StrategyA, got.StrategyB)
	}
	if got.Status != "pending" {
		t.Errorf("status = %q, want pending", got.Status)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	h, _ := newTestHandler()

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing name", `{"strategy_a":"adaptive"}`, http.StatusBadRequest},
		{"unknown strategy", `{"name":"x","strategy_a":"nope"}`, http.StatusBadRequest},
		{"bad duration", `{"name":"x","duration":"forever"}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.CreateSession(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestGetSessionNotFound(t *testing.T) {
	h, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/sessions/missing", nil)
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()
	h.GetSession(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetSessionFound(t *testing.T) {
	h, repo := newTestHandler()
	created, _ := repo.Create(context.Background(), "match", "adaptive", "adaptive", time.Now().Add(time.Minute))

	req := httptest.NewRequest(http.MethodGet, "/sessions/"+created.ID, nil)
	req.SetPathValue("id", created.ID)
	rec := httptest.NewRecorder()
	h.GetSession(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got model.Session
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("id = %q, want %q", got.ID, created.ID)
	}
}

func TestListSessionsEmpty(t *testing.T) {
	h, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	rec := httptest.NewRecorder()
	h.ListSessions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want []", body)
	}
}

func TestListStrategiesEndpoint(t *testing.T) {
	h, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/strategies", nil)
	rec := httptest.NewRecorder()
	h.ListStrategies(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got struct {
		Strategies []string `json:"strategies"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Strategies) == 0 {
		t.Error("expected at least one strategy")
	}
}

func TestStartSessionConflict(t *testing.T) {
	h, repo := newTestHandler()
	created, _ := repo.Create(context.Background(), "match", "adaptive", "adaptive", time.Now().Add(time.Minute))
	repo.SetActive(context.Background(), created.ID)

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+created.ID+"/start", nil)
	req.SetPathValue("id", created.ID)
	rec := httptest.NewRecorder()
	h.StartSession(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestStartSessionBadSeed(t *testing.T) {
	h, repo := newTestHandler()
	created, _ := repo.Create(context.Background(), "match", "adaptive", "adaptive", time.Now().Add(time.Minute))

	req := httptest.NewRequest(http.MethodPost, "/sessions/"+created.ID+"/start?seed=abc", nil)
	req.SetPathValue("id", created.ID)
	rec := httptest.NewRecorder()
	h.StartSession(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestLoginEndpoint(t *testing.T) {
	h := NewAuthHandler(auth.NewJWTManager("test-secret"))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"name":"arena"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var pair auth.TokenPair
	if err := json.Unmarshal(rec.Body.Bytes(), &pair); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("expected non-empty token pair")
	}
}

func TestLoginMissingName(t *testing.T) {
	h := NewAuthHandler(auth.NewJWTManager("test-secret"))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRefreshTokenEndpoint(t *testing.T) {
	mgr := auth.NewJWTManager("test-secret")
	h := NewAuthHandler(mgr)

	pair, err := mgr.GenerateTokenPair("client-arena")
	if err != nil {
		t.Fatalf("generate pair: %v", err)
	}

	body := fmt.Sprintf(`{"refresh_token":%q}`, pair.RefreshToken)
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.RefreshToken(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestRefreshTokenInvalid(t *testing.T) {
	h := NewAuthHandler(auth.NewJWTManager("test-secret"))

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`{"refresh_token":"garbage"}`))
	rec := httptest.NewRecorder()
	h.RefreshToken(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

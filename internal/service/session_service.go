package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AndreiDascalu/ANL2024/internal/model"
	"github.com/AndreiDascalu/ANL2024/internal/party"
	"github.com/AndreiDascalu/ANL2024/internal/repository"
	"github.com/AndreiDascalu/ANL2024/pkg/negotiation"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionNotPending = errors.New("session is not in pending status")
	ErrSessionNotActive  = errors.New("session is not active")
	ErrUnknownStrategy   = errors.New("unknown strategy")
)

// defaultMaxRounds caps runaway sessions whose deadline clock is generous.
const defaultMaxRounds = 10000

// SessionService handles negotiation session lifecycle operations.
type SessionService struct {
	sessionRepo repository.SessionRepository
	offerRepo   repository.OfferRepository
	cache       repository.SessionCache
	broadcaster Broadcaster
	storageDir  string
}

// NewSessionService creates a SessionService.
func NewSessionService(sessionRepo repository.SessionRepository, offerRepo repository.OfferRepository, cache repository.SessionCache, broadcaster Broadcaster, storageDir string) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		offerRepo:   offerRepo,
		cache:       cache,
		broadcaster: broadcaster,
		storageDir:  storageDir,
	}
}

// CreateSession creates a new pending session between two strategies.
func (s *SessionService) CreateSession(ctx context.Context, name, strategyA, strategyB string, duration time.Duration) (*model.Session, error) {
	if strategyA == "" {
		strategyA = "adaptive"
	}
	if strategyB == "" {
		strategyB = "adaptive"
	}
	if !validStrategy(strategyA) || !validStrategy(strategyB) {
		return nil, ErrUnknownStrategy
	}
	if duration <= 0 {
		duration = time.Minute
	}
	deadline := time.Now().Add(duration)
	return s.sessionRepo.Create(ctx, name, strategyA, strategyB, deadline)
}

// GetSession returns a session by ID.
func (s *SessionService) GetSession(ctx context.Context, id string) (*model.Session, error) {
	session, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// ListSessions returns the most recent sessions.
func (s *SessionService) ListSessions(ctx context.Context) ([]model.Session, error) {
	return s.sessionRepo.ListRecent(ctx)
}

// ListOffers returns a session's offers in round order.
func (s *SessionService) ListOffers(ctx context.Context, sessionID string) ([]model.Offer, error) {
	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return s.offerRepo.ListBySession(ctx, sessionID)
}

// StartSession marks a pending session as active and runs it to completion.
// The negotiation itself runs on the calling goroutine; callers wanting
// fire-and-forget semantics start it on their own goroutine.
func (s *SessionService) StartSession(ctx context.Context, id string, seed int64) (*model.Session, error) {
	session, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.Status != "pending" {
		return nil, ErrSessionNotPending
	}

	if err := s.sessionRepo.SetActive(ctx, id); err != nil {
		return nil, err
	}
	if err := s.cache.SetTimer(ctx, id, session.Deadline); err != nil {
		log.Warn().Err(err).Str("sessionId", id).Msg("Failed to set session timer")
	}
	s.broadcaster.BroadcastSessionEvent(id, "session_started", map[string]any{
		"sessionId": id,
		"deadline":  session.Deadline,
	})

	if err := s.runSession(ctx, session, seed); err != nil {
		return nil, err
	}
	return s.sessionRepo.FindByID(ctx, id)
}

// runSession plays the session with the engine, recording every turn and
// persisting the outcome.
func (s *SessionService) runSession(ctx context.Context, session *model.Session, seed int64) error {
	profileA, profileB := negotiation.PartyProfiles()

	seedB := seed
	if seed != 0 {
		seedB = seed + 1
	}
	partyA := party.ForStrategy(session.StrategyA, seed)
	partyB := party.ForStrategy(session.StrategyB, seedB)

	start := time.Now()
	progress := negotiation.NewProgress(start, time.Until(session.Deadline))

	var pending []model.Offer
	engine := &negotiation.Engine{
		A: partyA, B: partyB,
		IDA: "A", IDB: "B",
		ProfileA: profileA, ProfileB: profileB,
		Progress:  progress,
		MaxRounds: defaultMaxRounds,
		Parameters: map[string]string{
			"storage_dir": s.storageDir,
		},
		Observer: func(t negotiation.Turn) {
			rec, bidJSON := s.turnRecord(session.ID, profileA, profileB, t)
			pending = append(pending, rec)
			if bidJSON != nil {
				if err := s.cache.SetLastOffer(ctx, session.ID, t.Actor, bidJSON); err != nil {
					log.Warn().Err(err).Str("sessionId", session.ID).Msg("Failed to cache last offer")
				}
			}
			if err := s.cache.SetRound(ctx, session.ID, t.Round); err != nil {
				log.Warn().Err(err).Str("sessionId", session.ID).Msg("Failed to cache round")
			}
			s.broadcaster.BroadcastSessionEvent(session.ID, "turn", map[string]any{
				"round":    t.Round,
				"actor":    t.Actor,
				"kind":     rec.Kind,
				"bid":      json.RawMessage(bidJSON),
				"utilityA": rec.UtilityA,
				"utilityB": rec.UtilityB,
			})
		},
	}

	result, runErr := engine.Run(ctx)
	if err := s.offerRepo.Save(ctx, pending); err != nil {
		log.Error().Err(err).Str("sessionId", session.ID).Msg("Failed to persist offers")
	}
	if runErr != nil {
		log.Error().Err(runErr).Str("sessionId", session.ID).Msg("Session run failed")
	}
	if result == nil {
		return runErr
	}

	var agreementJSON json.RawMessage
	if result.Agreement != nil {
		agreementJSON, _ = json.Marshal(result.Agreement)
	}
	if err := s.sessionRepo.SetFinished(ctx, session.ID, result.EndedBy, agreementJSON, result.UtilityA, result.UtilityB, result.Rounds); err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	if err := s.cache.DeleteSessionData(ctx, session.ID); err != nil {
		log.Warn().Err(err).Str("sessionId", session.ID).Msg("Failed to clear session cache")
	}

	s.broadcaster.BroadcastSessionEvent(session.ID, "session_finished", map[string]any{
		"endedBy":   result.EndedBy,
		"rounds":    result.Rounds,
		"agreement": agreementJSON,
		"utilityA":  result.UtilityA,
		"utilityB":  result.UtilityB,
	})
	log.Info().Str("sessionId", session.ID).Str("endedBy", result.EndedBy).
		Int("rounds", result.Rounds).
		Float64("utilityA", result.UtilityA).Float64("utilityB", result.UtilityB).
		Msg("Session finished")
	return runErr
}

// turnRecord converts an engine turn into a durable offer row.
func (s *SessionService) turnRecord(sessionID string, profileA, profileB *negotiation.Profile, t negotiation.Turn) (model.Offer, json.RawMessage) {
	rec := model.Offer{
		SessionID: sessionID,
		Round:     t.Round,
		Actor:     t.Actor,
	}
	var bid negotiation.Bid
	switch a := t.Action.(type) {
	case negotiation.Offer:
		rec.Kind = "offer"
		bid = a.Bid
	case negotiation.Accept:
		rec.Kind = "accept"
		bid = a.Bid
	}
	var bidJSON json.RawMessage
	if bid != nil {
		bidJSON, _ = json.Marshal(bid)
		rec.Bid = bidJSON
		rec.UtilityA = profileA.Utility(bid)
		rec.UtilityB = profileB.Utility(bid)
	}
	return rec, bidJSON
}

// ForceFinish ends an active session past its deadline with no agreement.
// Called by the timer listener when an active session's clock runs out
// without the engine reporting a result, e.g. after a server restart.
func (s *SessionService) ForceFinish(ctx context.Context, id string) error {
	session, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}
	if session.Status != "active" {
		return ErrSessionNotActive
	}

	rounds, err := s.cache.GetRound(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("sessionId", id).Msg("Failed to read cached round")
	}
	if err := s.sessionRepo.SetFinished(ctx, id, negotiation.EndDeadline, nil, 0, 0, rounds); err != nil {
		return fmt.Errorf("force finish session: %w", err)
	}
	if err := s.cache.DeleteSessionData(ctx, id); err != nil {
		log.Warn().Err(err).Str("sessionId", id).Msg("Failed to clear session cache")
	}
	s.broadcaster.BroadcastSessionEvent(id, "session_finished", map[string]any{
		"endedBy": negotiation.EndDeadline,
		"rounds":  rounds,
	})
	return nil
}

func validStrategy(name string) bool {
	for _, n := range party.Names() {
		if n == name {
			return true
		}
	}
	return false
}

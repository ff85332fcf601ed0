package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/AndreiDascalu/ANL2024/internal/repository"
)

// TimerListener listens for Redis keyspace notifications on expired timer keys
// and force-finishes a session when its deadline clock runs out. Also runs a
// polling fallback to catch expirations if keyspace notifications are unavailable.
type TimerListener struct {
	rdb         *redis.Client
	sessionSvc  *SessionService
	sessionRepo repository.SessionRepository
}

// NewTimerListener creates a TimerListener.
func NewTimerListener(rdb *redis.Client, sessionSvc *SessionService, sessionRepo repository.SessionRepository) *TimerListener {
	return &TimerListener{rdb: rdb, sessionSvc: sessionSvc, sessionRepo: sessionRepo}
}

// Start begins listening for expired key events and runs a polling fallback.
func (t *TimerListener) Start(ctx context.Context) {
	go t.listenKeyspace(ctx)
	t.pollExpiredSessions(ctx)
}

// listenKeyspace subscribes to Redis keyspace notifications for expired keys.
func (t *TimerListener) listenKeyspace(ctx context.Context) {
	pubsub := t.rdb.PSubscribe(ctx, "__keyevent@0__:expired")
	defer pubsub.Close()

	log.Info().Msg("Timer listener started, listening for expired keys")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			t.handleExpiry(ctx, msg.Payload)
		}
	}
}

// pollExpiredSessions periodically checks for sessions past their deadline and finishes them.
func (t *TimerListener) pollExpiredSessions(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	log.Info().Msg("Session deadline poller started (10s interval)")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Session deadline poller stopped")
			return
		case <-ticker.C:
			t.checkExpiredSessions(ctx)
		}
	}
}

// checkExpiredSessions finds active sessions past their deadline and finishes them.
func (t *TimerListener) checkExpiredSessions(ctx context.Context) {
	sessions, err := t.sessionRepo.ListExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list expired sessions")
		return
	}
	if len(sessions) > 0 {
		log.Info().Int("count", len(sessions)).Msg("Poller found expired sessions")
	}
	for _, s := range sessions {
		log.Info().Str("sessionId", s.ID).Time("deadline", s.Deadline).
			Msg("Poller finishing expired session")
		if err := t.sessionSvc.ForceFinish(ctx, s.ID); err != nil {
			log.Error().Err(err).Str("sessionId", s.ID).Msg("Force finish failed from poller")
		}
	}
}

// handleExpiry processes an expired key. Only acts on session timer keys.
func (t *TimerListener) handleExpiry(ctx context.Context, key string) {
	if !strings.HasPrefix(key, "session:") || !strings.HasSuffix(key, ":timer") {
		return
	}

	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 {
		return
	}
	sessionID := parts[1]

	log.Info().Str("sessionId", sessionID).Msg("Timer expired, force-finishing session")
	if err := t.sessionSvc.ForceFinish(ctx, sessionID); err != nil {
		log.Error().Err(err).Str("sessionId", sessionID).Msg("Force finish failed after timer expiry")
	}
}

package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Key patterns for Redis session state.
func lastOfferKey(sessionID, actor string) string {
	return "session:" + sessionID + ":last_offer:" + actor
}
func roundKey(sessionID string) string { return "session:" + sessionID + ":round" }
func timerKey(sessionID string) string { return "session:" + sessionID + ":timer" }

// SetLastOffer stores an actor's most recent bid as JSON.
func (c *Client) SetLastOffer(ctx context.Context, sessionID, actor string, bid json.RawMessage) error {
	return c.rdb.Set(ctx, lastOfferKey(sessionID, actor), []byte(bid), 0).Err()
}

// GetLastOffer retrieves an actor's most recent bid, or nil when none is set.
func (c *Client) GetLastOffer(ctx context.Context, sessionID, actor string) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, lastOfferKey(sessionID, actor)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get last offer: %w", err)
	}
	return json.RawMessage(data), nil
}

// SetRound stores the current round number.
func (c *Client) SetRound(ctx context.Context, sessionID string, round int) error {
	return c.rdb.Set(ctx, roundKey(sessionID), round, 0).Err()
}

// GetRound retrieves the current round number, zero when unset.
func (c *Client) GetRound(ctx context.Context, sessionID string) (int, error) {
	val, err := c.rdb.Get(ctx, roundKey(sessionID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get round: %w", err)
	}
	round, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("parse round: %w", err)
	}
	return round, nil
}

// deadlineGracePeriod is the extra time after the displayed deadline before
// forced finishing triggers, giving an in-flight turn a few seconds of leeway.
const deadlineGracePeriod = 5 * time.Second

// SetTimer creates a timer key with a TTL. When the key expires,
// Redis keyspace notifications trigger forced session finishing.
// The TTL includes a grace period so the key expires slightly after the displayed deadline.
func (c *Client) SetTimer(ctx context.Context, sessionID string, deadline time.Time) error {
	ttl := time.Until(deadline) + deadlineGracePeriod
	if ttl <= 0 {
		ttl = time.Second
	}
	return c.rdb.Set(ctx, timerKey(sessionID), deadline.Unix(), ttl).Err()
}

// ClearTimer removes the timer for a session.
func (c *Client) ClearTimer(ctx context.Context, sessionID string) error {
	return c.rdb.Del(ctx, timerKey(sessionID)).Err()
}

// DeleteSessionData removes all Redis data for a session (on session end).
func (c *Client) DeleteSessionData(ctx context.Context, sessionID string) error {
	keys := []string{roundKey(sessionID), timerKey(sessionID)}
	for _, actor := range []string{"A", "B"} {
		keys = append(keys, lastOfferKey(sessionID, actor))
	}
	return c.rdb.Del(ctx, keys...).Err()
}

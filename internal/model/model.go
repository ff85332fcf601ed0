package model

import (
	"encoding/json"
	"time"
)

// Session represents a bilateral negotiation session.
type Session struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	StrategyA  string          `json:"strategy_a"`
	StrategyB  string          `json:"strategy_b"`
	Status     string          `json:"status"` // pending, active, finished
	Deadline   time.Time       `json:"deadline"`
	Rounds     int             `json:"rounds,omitempty"`
	EndedBy    string          `json:"ended_by,omitempty"`
	Agreement  json.RawMessage `json:"agreement,omitempty"` // null when none
	UtilityA   float64         `json:"utility_a,omitempty"`
	UtilityB   float64         `json:"utility_b,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}

// Offer represents one action taken during a session: a proposed bid, or
// the accept that closed the session.
type Offer struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Round     int             `json:"round"`
	Actor     string          `json:"actor"` // party seat, "A" or "B"
	Kind      string          `json:"kind"`  // offer or accept
	Bid       json.RawMessage `json:"bid"`
	UtilityA  float64         `json:"utility_a"`
	UtilityB  float64         `json:"utility_b"`
	CreatedAt time.Time       `json:"created_at"`
}

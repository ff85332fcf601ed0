package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/AndreiDascalu/ANL2024/internal/model"
)

// SessionRepository defines durable session data operations.
type SessionRepository interface {
	Create(ctx context.Context, name, strategyA, strategyB string, deadline time.Time) (*model.Session, error)
	FindByID(ctx context.Context, id string) (*model.Session, error)
	ListRecent(ctx context.Context) ([]model.Session, error)
	SetActive(ctx context.Context, id string) error
	SetFinished(ctx context.Context, id, endedBy string, agreement json.RawMessage, utilityA, utilityB float64, rounds int) error
	ListExpired(ctx context.Context) ([]model.Session, error)
}

// OfferRepository defines durable offer data operations.
type OfferRepository interface {
	Save(ctx context.Context, offers []model.Offer) error
	ListBySession(ctx context.Context, sessionID string) ([]model.Offer, error)
}

// SessionCache defines live session state operations (Redis).
type SessionCache interface {
	SetLastOffer(ctx context.Context, sessionID, actor string, bid json.RawMessage) error
	GetLastOffer(ctx context.Context, sessionID, actor string) (json.RawMessage, error)
	SetRound(ctx context.Context, sessionID string, round int) error
	GetRound(ctx context.Context, sessionID string) (int, error)
	SetTimer(ctx context.Context, sessionID string, deadline time.Time) error
	ClearTimer(ctx context.Context, sessionID string) error
	DeleteSessionData(ctx context.Context, sessionID string) error
}

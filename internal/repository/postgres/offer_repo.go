package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/AndreiDascalu/ANL2024/internal/model"
)

// OfferRepo handles offer database operations.
type OfferRepo struct {
	db *sql.DB
}

// NewOfferRepo creates an OfferRepo.
func NewOfferRepo(db *sql.DB) *OfferRepo {
	return &OfferRepo{db: db}
}

// Save inserts a batch of offers inside a single transaction.
func (r *OfferRepo) Save(ctx context.Context, offers []model.Offer) error {
	if len(offers) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin offers tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO offers (session_id, round, actor, kind, bid, utility_a, utility_b)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`)
	if err != nil {
		return fmt.Errorf("prepare offer insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range offers {
		_, err = stmt.ExecContext(ctx, o.SessionID, o.Round, o.Actor, o.Kind,
			nullableJSON(o.Bid), o.UtilityA, o.UtilityB)
		if err != nil {
			return fmt.Errorf("insert offer: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit offers: %w", err)
	}
	return nil
}

// ListBySession returns a session's offers in round order.
func (r *OfferRepo) ListBySession(ctx context.Context, sessionID string) ([]model.Offer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, round, actor, kind, bid, utility_a, utility_b, created_at
		 FROM offers WHERE session_id = $1 ORDER BY round, created_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	var offers []model.Offer
	for rows.Next() {
		var (
			o   model.Offer
			bid []byte
		)
		err = rows.Scan(&o.ID, &o.SessionID, &o.Round, &o.Actor, &o.Kind,
			&bid, &o.UtilityA, &o.UtilityB, &o.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan offer: %w", err)
		}
		o.Bid = bid
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

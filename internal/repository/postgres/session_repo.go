package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AndreiDascalu/ANL2024/internal/model"
)

// SessionRepo handles session database operations.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo creates a SessionRepo.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create inserts a new pending session.
func (r *SessionRepo) Create(ctx context.Context, name, strategyA, strategyB string, deadline time.Time) (*model.Session, error) {
	var s model.Session
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO sessions (name, strategy_a, strategy_b, deadline)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, name, strategy_a, strategy_b, status, deadline, created_at`,
		name, strategyA, strategyB, deadline,
	).Scan(&s.ID, &s.Name, &s.StrategyA, &s.StrategyB, &s.Status, &s.Deadline, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &s, nil
}

// FindByID returns a session by ID, or nil when absent.
func (r *SessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	s, err := r.scanOne(r.db.QueryRowContext(ctx,
		`SELECT id, name, strategy_a, strategy_b, status, deadline, rounds, ended_by,
		        agreement, utility_a, utility_b, created_at, started_at, finished_at
		 FROM sessions WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	return s, nil
}

// ListRecent returns the most recently created sessions.
func (r *SessionRepo) ListRecent(ctx context.Context) ([]model.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, strategy_a, strategy_b, status, deadline, rounds, ended_by,
		        agreement, utility_a, utility_b, created_at, started_at, finished_at
		 FROM sessions ORDER BY created_at DESC LIMIT 50`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// SetActive marks a pending session as running.
func (r *SessionRepo) SetActive(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET status = 'active', started_at = now()
		 WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return fmt.Errorf("set session active: %w", err)
	}
	return nil
}

// SetFinished records the session outcome.
func (r *SessionRepo) SetFinished(ctx context.Context, id, endedBy string, agreement json.RawMessage, utilityA, utilityB float64, rounds int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions
		 SET status = 'finished', ended_by = $2, agreement = $3,
		     utility_a = $4, utility_b = $5, rounds = $6, finished_at = now()
		 WHERE id = $1 AND status <> 'finished'`,
		id, endedBy, nullableJSON(agreement), utilityA, utilityB, rounds)
	if err != nil {
		return fmt.Errorf("set session finished: %w", err)
	}
	return nil
}

// ListExpired returns active sessions whose deadline has passed.
func (r *SessionRepo) ListExpired(ctx context.Context) ([]model.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, strategy_a, strategy_b, status, deadline, rounds, ended_by,
		        agreement, utility_a, utility_b, created_at, started_at, finished_at
		 FROM sessions WHERE status = 'active' AND deadline < now()`)
	if err != nil {
		return nil, fmt.Errorf("list expired sessions: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SessionRepo) scanOne(row rowScanner) (*model.Session, error) {
	var (
		s          model.Session
		rounds     sql.NullInt64
		endedBy    sql.NullString
		agreement  []byte
		utilityA   sql.NullFloat64
		utilityB   sql.NullFloat64
		startedAt  sql.NullTime
		finishedAt sql.NullTime
	)
	err := row.Scan(&s.ID, &s.Name, &s.StrategyA, &s.StrategyB, &s.Status, &s.Deadline,
		&rounds, &endedBy, &agreement, &utilityA, &utilityB,
		&s.CreatedAt, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	s.Rounds = int(rounds.Int64)
	s.EndedBy = endedBy.String
	s.Agreement = agreement
	s.UtilityA = utilityA.Float64
	s.UtilityB = utilityB.Float64
	if startedAt.Valid {
		s.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		s.FinishedAt = &finishedAt.Time
	}
	return &s, nil
}

func (r *SessionRepo) scanAll(rows *sql.Rows) ([]model.Session, error) {
	var sessions []model.Session
	for rows.Next() {
		s, err := r.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// nullableJSON maps empty JSON to SQL NULL.
func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

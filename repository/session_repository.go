package repository

import (
	"context"
	"errors"
	"fmt"

	"mahjongbot/database"
	"mahjongbot/models"

	"github.com/jackc/pgx/v5"
)

const sessionColumns = `id, group_id, mode, per_point, base_score, collects_dealer_fee, status, created_at, updated_at`

// SessionRepository implements the SessionRepository interface
type SessionRepository struct {
	q queryable
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{q: db.Pool}
}

// newSessionRepositoryWithTx creates a new session repository with a transaction
func newSessionRepositoryWithTx(tx queryable) *SessionRepository {
	return &SessionRepository{q: tx}
}

// GetActiveByGroup returns the group's created or playing session
func (r *SessionRepository) GetActiveByGroup(ctx context.Context, groupID string) (*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE group_id = $1 AND status IN ('created', 'playing')
	`
	return r.getOne(ctx, query, groupID)
}

// GetActiveByGroupForUpdate returns the group's active session and locks its row
func (r *SessionRepository) GetActiveByGroupForUpdate(ctx context.Context, groupID string) (*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE group_id = $1 AND status IN ('created', 'playing')
		FOR UPDATE
	`
	return r.getOne(ctx, query, groupID)
}

func (r *SessionRepository) getOne(ctx context.Context, query string, groupID string) (*models.Session, error) {
	session, err := scanSession(r.q.QueryRow(ctx, query, groupID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active session for group %s: %w", groupID, err)
	}
	return session, nil
}

// Create inserts a session in the created status
func (r *SessionRepository) Create(ctx context.Context, groupID string, params models.SessionParams) (*models.Session, error) {
	query := `
		INSERT INTO sessions (group_id, mode, per_point, base_score, collects_dealer_fee, status)
		VALUES ($1, $2, $3, $4, $5, 'created')
		RETURNING ` + sessionColumns

	session, err := scanSession(r.q.QueryRow(ctx, query,
		groupID,
		params.Mode,
		params.PerPoint,
		params.BaseScore,
		params.CollectsDealerFee,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", mapError(err))
	}
	return session, nil
}

// UpdateStatus moves a session to a new status
func (r *SessionRepository) UpdateStatus(ctx context.Context, sessionID int64, status models.SessionStatus) error {
	query := `UPDATE sessions SET status = $2 WHERE id = $1`

	tag, err := r.q.Exec(ctx, query, sessionID, string(status))
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("session %d not found", sessionID)
	}
	return nil
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var session models.Session
	var status string
	err := row.Scan(
		&session.ID,
		&session.GroupID,
		&session.Mode,
		&session.PerPoint,
		&session.BaseScore,
		&session.CollectsDealerFee,
		&status,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	session.Status = models.SessionStatus(status)
	return &session, nil
}

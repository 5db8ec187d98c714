package repository

import (
	"context"
	"fmt"

	"mahjongbot/database"
	"mahjongbot/models"

	"github.com/jackc/pgx/v5"
)

// ParticipantRepository implements the ParticipantRepository interface
type ParticipantRepository struct {
	q queryable
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db *database.DB) *ParticipantRepository {
	return &ParticipantRepository{q: db.Pool}
}

// newParticipantRepositoryWithTx creates a new participant repository with a transaction
func newParticipantRepositoryWithTx(tx queryable) *ParticipantRepository {
	return &ParticipantRepository{q: tx}
}

// ListBySession returns the session's participants in seat order
func (r *ParticipantRepository) ListBySession(ctx context.Context, sessionID int64) ([]*models.Participant, error) {
	query := `
		SELECT id, session_id, external_user_id, nickname, seat_number, wind, is_dealer, score, created_at
		FROM participants
		WHERE session_id = $1
		ORDER BY seat_number
	`

	rows, err := r.q.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.Participant
	for rows.Next() {
		var p models.Participant
		var wind *string
		if err := rows.Scan(
			&p.ID,
			&p.SessionID,
			&p.ExternalUserID,
			&p.Nickname,
			&p.SeatNumber,
			&wind,
			&p.IsDealer,
			&p.Score,
			&p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		p.Wind = toWind(wind)
		participants = append(participants, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}

	return participants, nil
}

// Create inserts a participant and fills its generated fields
func (r *ParticipantRepository) Create(ctx context.Context, participant *models.Participant) error {
	query := `
		INSERT INTO participants (session_id, external_user_id, nickname, seat_number, wind, is_dealer)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, score, created_at
	`

	err := r.q.QueryRow(ctx, query,
		participant.SessionID,
		participant.ExternalUserID,
		participant.Nickname,
		participant.SeatNumber,
		fromWind(participant.Wind),
		participant.IsDealer,
	).Scan(&participant.ID, &participant.Score, &participant.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create participant: %w", mapError(err))
	}
	return nil
}

// UpdateWind sets the wind a participant holds
func (r *ParticipantRepository) UpdateWind(ctx context.Context, participantID int64, wind models.Wind) error {
	query := `UPDATE participants SET wind = $2 WHERE id = $1`

	tag, err := r.q.Exec(ctx, query, participantID, string(wind))
	if err != nil {
		return fmt.Errorf("failed to update wind: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("participant %d not found", participantID)
	}
	return nil
}

// SetDealer marks a participant as dealer
func (r *ParticipantRepository) SetDealer(ctx context.Context, participantID int64) error {
	query := `UPDATE participants SET is_dealer = TRUE WHERE id = $1`

	tag, err := r.q.Exec(ctx, query, participantID)
	if err != nil {
		return fmt.Errorf("failed to set dealer: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("participant %d not found", participantID)
	}
	return nil
}

// Delete removes a participant
func (r *ParticipantRepository) Delete(ctx context.Context, participantID int64) error {
	query := `DELETE FROM participants WHERE id = $1`

	tag, err := r.q.Exec(ctx, query, participantID)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("participant %d not found", participantID)
	}
	return nil
}

// RenumberSeats closes gaps left by a withdrawal, keeping the seat order.
// The seat constraint is deferred so the shift may pass through duplicates.
func (r *ParticipantRepository) RenumberSeats(ctx context.Context, sessionID int64) error {
	query := `
		UPDATE participants p
		SET seat_number = ordered.new_seat
		FROM (
			SELECT id, ROW_NUMBER() OVER (ORDER BY seat_number) AS new_seat
			FROM participants
			WHERE session_id = $1
		) ordered
		WHERE p.id = ordered.id AND p.seat_number <> ordered.new_seat
	`

	if _, err := r.q.Exec(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to renumber seats: %w", mapError(err))
	}
	return nil
}

// ListRecentByUser returns a user's latest tables across every group
func (r *ParticipantRepository) ListRecentByUser(ctx context.Context, externalUserID string, limit int) ([]*models.Participation, error) {
	query := `
		SELECT s.id, s.mode, p.nickname, p.wind, p.is_dealer, s.created_at
		FROM participants p
		JOIN sessions s ON s.id = p.session_id
		WHERE p.external_user_id = $1
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, externalUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent participations: %w", err)
	}

	participations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Participation, error) {
		var p models.Participation
		var wind *string
		if err := row.Scan(&p.SessionID, &p.Mode, &p.Nickname, &wind, &p.IsDealer, &p.PlayedAt); err != nil {
			return nil, err
		}
		p.Wind = toWind(wind)
		return &p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan recent participations: %w", err)
	}
	return participations, nil
}

func toWind(s *string) *models.Wind {
	if s == nil {
		return nil
	}
	w := models.Wind(*s)
	return &w
}

func fromWind(w *models.Wind) *string {
	if w == nil {
		return nil
	}
	s := string(*w)
	return &s
}

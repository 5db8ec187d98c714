package repository

import (
	"context"
	"errors"
	"fmt"

	"mahjongbot/database"
	"mahjongbot/models"

	"github.com/jackc/pgx/v5"
)

const profileColumns = `id, external_user_id, display_name, preferred_nickname, total_games, total_won, total_lost, net, created_at, updated_at`

// ProfileRepository implements the ProfileRepository interface
type ProfileRepository struct {
	q queryable
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{q: db.Pool}
}

// newProfileRepositoryWithTx creates a new profile repository with a transaction
func newProfileRepositoryWithTx(tx queryable) *ProfileRepository {
	return &ProfileRepository{q: tx}
}

// GetByExternalID retrieves a profile by platform user id
func (r *ProfileRepository) GetByExternalID(ctx context.Context, externalUserID string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE external_user_id = $1`

	profile, err := scanProfile(r.q.QueryRow(ctx, query, externalUserID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", externalUserID, err)
	}
	return profile, nil
}

// Create inserts a profile with zeroed statistics
func (r *ProfileRepository) Create(ctx context.Context, externalUserID, displayName string, preferredNickname *string) (*models.Profile, error) {
	query := `
		INSERT INTO profiles (external_user_id, display_name, preferred_nickname)
		VALUES ($1, $2, $3)
		RETURNING ` + profileColumns

	profile, err := scanProfile(r.q.QueryRow(ctx, query, externalUserID, displayName, preferredNickname))
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", mapError(err))
	}
	return profile, nil
}

// UpdateDisplayName overwrites the stored platform display name
func (r *ProfileRepository) UpdateDisplayName(ctx context.Context, profileID int64, displayName string) error {
	query := `UPDATE profiles SET display_name = $2 WHERE id = $1`
	return r.execOne(ctx, "update display name", query, profileID, displayName)
}

// UpdatePreferredNickname sets the user chosen nickname
func (r *ProfileRepository) UpdatePreferredNickname(ctx context.Context, profileID int64, nickname string) error {
	query := `UPDATE profiles SET preferred_nickname = $2 WHERE id = $1`
	return r.execOne(ctx, "update preferred nickname", query, profileID, nickname)
}

// RecordResult adds one finished game to the profile's totals and returns the new totals
func (r *ProfileRepository) RecordResult(ctx context.Context, profileID int64, won, lost int64) (*models.Profile, error) {
	query := `
		UPDATE profiles
		SET total_games = total_games + 1,
			total_won = total_won + $2,
			total_lost = total_lost + $3,
			net = (total_won + $2) - (total_lost + $3)
		WHERE id = $1
		RETURNING ` + profileColumns

	profile, err := scanProfile(r.q.QueryRow(ctx, query, profileID, won, lost))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("profile %d not found", profileID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record result: %w", mapError(err))
	}
	return profile, nil
}

// TopByGroup returns profiles with recorded games that sat at a table in the group
func (r *ProfileRepository) TopByGroup(ctx context.Context, groupID string, limit int) ([]*models.Profile, error) {
	query := `
		SELECT ` + profileColumns + `
		FROM profiles pr
		WHERE pr.total_games > 0
		  AND EXISTS (
			SELECT 1
			FROM participants p
			JOIN sessions s ON s.id = p.session_id
			WHERE p.external_user_id = pr.external_user_id AND s.group_id = $1
		  )
		ORDER BY pr.net DESC, pr.id
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}

	profiles, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Profile, error) {
		return scanProfile(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan leaderboard: %w", err)
	}
	return profiles, nil
}

func (r *ProfileRepository) execOne(ctx context.Context, action, query string, args ...any) error {
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to %s: profile not found", action)
	}
	return nil
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(
		&p.ID,
		&p.ExternalUserID,
		&p.DisplayName,
		&p.PreferredNickname,
		&p.TotalGames,
		&p.TotalWon,
		&p.TotalLost,
		&p.Net,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

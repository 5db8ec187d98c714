package testutil

import (
	"context"
	"fmt"
	"testing"

	"mahjongbot/database"
	"mahjongbot/models"

	"github.com/stretchr/testify/require"
)

// DefaultSessionParams returns the rules a plain creation command produces
func DefaultSessionParams() models.SessionParams {
	return models.SessionParams{
		Mode:              "台麻",
		PerPoint:          10,
		BaseScore:         30,
		CollectsDealerFee: true,
	}
}

// UserID returns the external id used for the n-th test user
func UserID(n int) string {
	return fmt.Sprintf("U%032d", n)
}

// InsertSession writes a session row directly, bypassing the service layer
func InsertSession(t *testing.T, db *database.DB, groupID string, status models.SessionStatus) *models.Session {
	t.Helper()

	params := DefaultSessionParams()
	session := &models.Session{
		GroupID:           groupID,
		Mode:              params.Mode,
		PerPoint:          params.PerPoint,
		BaseScore:         params.BaseScore,
		CollectsDealerFee: params.CollectsDealerFee,
		Status:            status,
	}

	err := db.QueryRow(context.Background(), `
		INSERT INTO sessions (group_id, mode, per_point, base_score, collects_dealer_fee, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, groupID, session.Mode, session.PerPoint, session.BaseScore, session.CollectsDealerFee, string(status)).
		Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
	require.NoError(t, err)

	return session
}

// InsertParticipant seats a test user directly
func InsertParticipant(t *testing.T, db *database.DB, sessionID int64, userID, nickname string, seat int) *models.Participant {
	t.Helper()

	p := &models.Participant{
		SessionID:      sessionID,
		ExternalUserID: userID,
		Nickname:       nickname,
		SeatNumber:     seat,
	}
	err := db.QueryRow(context.Background(), `
		INSERT INTO participants (session_id, external_user_id, nickname, seat_number)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, sessionID, userID, nickname, seat).Scan(&p.ID, &p.CreatedAt)
	require.NoError(t, err)

	return p
}

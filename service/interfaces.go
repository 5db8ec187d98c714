package service

import (
	"context"

	"mahjongbot/events"
	"mahjongbot/models"
)

// SessionRepository defines the interface for session data access
type SessionRepository interface {
	// GetActiveByGroup returns the group's created or playing session, or nil
	GetActiveByGroup(ctx context.Context, groupID string) (*models.Session, error)

	// GetActiveByGroupForUpdate returns the group's active session with a row lock, or nil
	GetActiveByGroupForUpdate(ctx context.Context, groupID string) (*models.Session, error)

	// Create inserts a new session in the created status
	Create(ctx context.Context, groupID string, params models.SessionParams) (*models.Session, error)

	// UpdateStatus moves a session to a new status
	UpdateStatus(ctx context.Context, sessionID int64, status models.SessionStatus) error
}

// ParticipantRepository defines the interface for participant data access
type ParticipantRepository interface {
	// ListBySession returns a session's participants ordered by seat
	ListBySession(ctx context.Context, sessionID int64) ([]*models.Participant, error)

	// Create inserts a participant and fills its generated fields
	Create(ctx context.Context, participant *models.Participant) error

	// UpdateWind sets the wind a participant holds
	UpdateWind(ctx context.Context, participantID int64, wind models.Wind) error

	// SetDealer marks a participant as the session's dealer
	SetDealer(ctx context.Context, participantID int64) error

	// Delete removes a participant
	Delete(ctx context.Context, participantID int64) error

	// RenumberSeats rewrites seat numbers to 1..N keeping their relative order
	RenumberSeats(ctx context.Context, sessionID int64) error

	// ListRecentByUser returns a user's most recent participations across all groups
	ListRecentByUser(ctx context.Context, externalUserID string, limit int) ([]*models.Participation, error)
}

// ProfileRepository defines the interface for profile data access
type ProfileRepository interface {
	// GetByExternalID retrieves a profile by platform user id, or nil
	GetByExternalID(ctx context.Context, externalUserID string) (*models.Profile, error)

	// Create inserts a profile with zeroed statistics
	Create(ctx context.Context, externalUserID, displayName string, preferredNickname *string) (*models.Profile, error)

	// UpdateDisplayName overwrites the stored platform display name
	UpdateDisplayName(ctx context.Context, profileID int64, displayName string) error

	// UpdatePreferredNickname sets the user chosen nickname
	UpdatePreferredNickname(ctx context.Context, profileID int64, nickname string) error

	// RecordResult adds one finished game to a profile's totals
	RecordResult(ctx context.Context, profileID int64, won, lost int64) (*models.Profile, error)

	// TopByGroup returns profiles that played in the group ordered by net descending
	TopByGroup(ctx context.Context, groupID string, limit int) ([]*models.Profile, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork scopes the repositories of one command to a single transaction
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SessionRepository() SessionRepository
	ParticipantRepository() ParticipantRepository
	ProfileRepository() ProfileRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates a fresh unit of work per command
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// SessionService runs the table setup state machine for one group at a time
type SessionService interface {
	// CreateSession opens a new table for the group
	CreateSession(ctx context.Context, groupID string, params models.SessionParams) (*models.Session, error)

	// AdmitParticipant seats a user at the group's table under their effective nickname
	AdmitParticipant(ctx context.Context, groupID, externalUserID, displayName string) (*AdmissionResult, error)

	// AssignWind gives a participant a seat wind
	AssignWind(ctx context.Context, groupID, externalUserID string, wind models.Wind) (*WindResult, error)

	// AssignDealer makes a participant the dealer and starts play
	AssignDealer(ctx context.Context, groupID, externalUserID string) (*DealerResult, error)

	// Withdraw removes a participant from a table that has not started
	Withdraw(ctx context.Context, groupID, externalUserID string) (*WithdrawResult, error)

	// Query returns the group's active table
	Query(ctx context.Context, groupID string) (*models.SessionSnapshot, error)

	// EndSession closes the group's active table
	EndSession(ctx context.Context, groupID, externalUserID string) (*models.Session, error)
}

// IdentityService maps platform users to persistent profiles
type IdentityService interface {
	// Resolve returns the user's profile, creating it or refreshing its display name
	Resolve(ctx context.Context, externalUserID, displayName string) (*models.Profile, error)

	// SetNickname stores the user's preferred nickname
	SetNickname(ctx context.Context, externalUserID, rawNickname, fallbackDisplayName string) (*NicknameChange, error)

	// GetProfile returns the user's profile, or nil when they have none
	GetProfile(ctx context.Context, externalUserID string) (*models.Profile, error)
}

// StatsService defines the interface for statistics operations
type StatsService interface {
	// RecordResult adds one finished game to a user's totals
	RecordResult(ctx context.Context, externalUserID string, won, lost int64) (*models.Profile, error)

	// Leaderboard returns the group's top players by net result
	Leaderboard(ctx context.Context, groupID string, limit int) ([]*models.LeaderboardEntry, error)

	// GetUserStats returns a user's totals and recent tables, or nil without a profile
	GetUserStats(ctx context.Context, externalUserID string) (*models.UserStats, error)
}

// AdmissionResult describes a successful join
type AdmissionResult struct {
	Participant *models.Participant
	Profile     *models.Profile
	Snapshot    *models.SessionSnapshot
	// UsedPreferred is true when the seat took the profile's preferred nickname
	UsedPreferred bool
	// WindsNeeded is set when this join filled the last seat
	WindsNeeded bool
}

// WindResult describes a successful wind selection
type WindResult struct {
	Participant *models.Participant
	Wind        models.Wind
	Snapshot    *models.SessionSnapshot
	// Unchanged is set when the participant already held the wind
	Unchanged bool
	// ReadyForDealer is set once four participants hold four distinct winds
	ReadyForDealer bool
}

// DealerResult describes the start of play
type DealerResult struct {
	Dealer   *models.Participant
	Snapshot *models.SessionSnapshot
}

// WithdrawResult describes a participant leaving a table
type WithdrawResult struct {
	Withdrawn *models.Participant
	Snapshot  *models.SessionSnapshot
}

// NicknameChange describes a preferred nickname update
type NicknameChange struct {
	Profile *models.Profile
	// Previous is the effective nickname before the change
	Previous string
	// Created is set when the profile did not exist before
	Created bool
}

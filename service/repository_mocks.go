package service

import (
	"context"

	"mahjongbot/events"
	"mahjongbot/models"

	"github.com/stretchr/testify/mock"
)

// MockSessionRepository is a mock implementation of SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) GetActiveByGroup(ctx context.Context, groupID string) (*models.Session, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) GetActiveByGroupForUpdate(ctx context.Context, groupID string) (*models.Session, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) Create(ctx context.Context, groupID string, params models.SessionParams) (*models.Session, error) {
	args := m.Called(ctx, groupID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) UpdateStatus(ctx context.Context, sessionID int64, status models.SessionStatus) error {
	args := m.Called(ctx, sessionID, status)
	return args.Error(0)
}

// MockParticipantRepository is a mock implementation of ParticipantRepository
type MockParticipantRepository struct {
	mock.Mock
}

func (m *MockParticipantRepository) ListBySession(ctx context.Context, sessionID int64) ([]*models.Participant, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Participant), args.Error(1)
}

func (m *MockParticipantRepository) Create(ctx context.Context, participant *models.Participant) error {
	args := m.Called(ctx, participant)
	return args.Error(0)
}

func (m *MockParticipantRepository) UpdateWind(ctx context.Context, participantID int64, wind models.Wind) error {
	args := m.Called(ctx, participantID, wind)
	return args.Error(0)
}

func (m *MockParticipantRepository) SetDealer(ctx context.Context, participantID int64) error {
	args := m.Called(ctx, participantID)
	return args.Error(0)
}

func (m *MockParticipantRepository) Delete(ctx context.Context, participantID int64) error {
	args := m.Called(ctx, participantID)
	return args.Error(0)
}

func (m *MockParticipantRepository) RenumberSeats(ctx context.Context, sessionID int64) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockParticipantRepository) ListRecentByUser(ctx context.Context, externalUserID string, limit int) ([]*models.Participation, error) {
	args := m.Called(ctx, externalUserID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Participation), args.Error(1)
}

// MockProfileRepository is a mock implementation of ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetByExternalID(ctx context.Context, externalUserID string) (*models.Profile, error) {
	args := m.Called(ctx, externalUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileRepository) Create(ctx context.Context, externalUserID, displayName string, preferredNickname *string) (*models.Profile, error) {
	args := m.Called(ctx, externalUserID, displayName, preferredNickname)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileRepository) UpdateDisplayName(ctx context.Context, profileID int64, displayName string) error {
	args := m.Called(ctx, profileID, displayName)
	return args.Error(0)
}

func (m *MockProfileRepository) UpdatePreferredNickname(ctx context.Context, profileID int64, nickname string) error {
	args := m.Called(ctx, profileID, nickname)
	return args.Error(0)
}

func (m *MockProfileRepository) RecordResult(ctx context.Context, profileID int64, won, lost int64) (*models.Profile, error) {
	args := m.Called(ctx, profileID, won, lost)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileRepository) TopByGroup(ctx context.Context, groupID string, limit int) ([]*models.Profile, error) {
	args := m.Called(ctx, groupID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Profile), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
	Sessions     *MockSessionRepository
	Participants *MockParticipantRepository
	Profiles     *MockProfileRepository
	Events       *MockEventPublisher
}

// NewMockUnitOfWork creates a mock unit of work with fresh repository mocks
func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		Sessions:     new(MockSessionRepository),
		Participants: new(MockParticipantRepository),
		Profiles:     new(MockProfileRepository),
		Events:       new(MockEventPublisher),
	}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) SessionRepository() SessionRepository {
	return m.Sessions
}

func (m *MockUnitOfWork) ParticipantRepository() ParticipantRepository {
	return m.Participants
}

func (m *MockUnitOfWork) ProfileRepository() ProfileRepository {
	return m.Profiles
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.Events
}

// AssertExpectations checks the unit of work and every repository mock
func (m *MockUnitOfWork) AssertExpectations(t mock.TestingT) bool {
	ok := m.Mock.AssertExpectations(t)
	ok = m.Sessions.AssertExpectations(t) && ok
	ok = m.Participants.AssertExpectations(t) && ok
	ok = m.Profiles.AssertExpectations(t) && ok
	ok = m.Events.AssertExpectations(t) && ok
	return ok
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

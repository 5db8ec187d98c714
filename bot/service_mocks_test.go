package bot

import (
	"context"

	"mahjongbot/models"
	"mahjongbot/service"

	"github.com/stretchr/testify/mock"
)

type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) CreateSession(ctx context.Context, groupID string, params models.SessionParams) (*models.Session, error) {
	args := m.Called(ctx, groupID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionService) AdmitParticipant(ctx context.Context, groupID, externalUserID, displayName string) (*service.AdmissionResult, error) {
	args := m.Called(ctx, groupID, externalUserID, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AdmissionResult), args.Error(1)
}

func (m *MockSessionService) AssignWind(ctx context.Context, groupID, externalUserID string, wind models.Wind) (*service.WindResult, error) {
	args := m.Called(ctx, groupID, externalUserID, wind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WindResult), args.Error(1)
}

func (m *MockSessionService) AssignDealer(ctx context.Context, groupID, externalUserID string) (*service.DealerResult, error) {
	args := m.Called(ctx, groupID, externalUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DealerResult), args.Error(1)
}

func (m *MockSessionService) Withdraw(ctx context.Context, groupID, externalUserID string) (*service.WithdrawResult, error) {
	args := m.Called(ctx, groupID, externalUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WithdrawResult), args.Error(1)
}

func (m *MockSessionService) Query(ctx context.Context, groupID string) (*models.SessionSnapshot, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SessionSnapshot), args.Error(1)
}

func (m *MockSessionService) EndSession(ctx context.Context, groupID, externalUserID string) (*models.Session, error) {
	args := m.Called(ctx, groupID, externalUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

type MockIdentityService struct {
	mock.Mock
}

func (m *MockIdentityService) Resolve(ctx context.Context, externalUserID, displayName string) (*models.Profile, error) {
	args := m.Called(ctx, externalUserID, displayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockIdentityService) SetNickname(ctx context.Context, externalUserID, rawNickname, fallbackDisplayName string) (*service.NicknameChange, error) {
	args := m.Called(ctx, externalUserID, rawNickname, fallbackDisplayName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.NicknameChange), args.Error(1)
}

func (m *MockIdentityService) GetProfile(ctx context.Context, externalUserID string) (*models.Profile, error) {
	args := m.Called(ctx, externalUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) RecordResult(ctx context.Context, externalUserID string, won, lost int64) (*models.Profile, error) {
	args := m.Called(ctx, externalUserID, won, lost)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockStatsService) Leaderboard(ctx context.Context, groupID string, limit int) ([]*models.LeaderboardEntry, error) {
	args := m.Called(ctx, groupID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LeaderboardEntry), args.Error(1)
}

func (m *MockStatsService) GetUserStats(ctx context.Context, externalUserID string) (*models.UserStats, error) {
	args := m.Called(ctx, externalUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserStats), args.Error(1)
}

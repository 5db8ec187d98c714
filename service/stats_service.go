package service

import (
	"context"
	"fmt"

	"mahjongbot/models"

	log "github.com/sirupsen/logrus"
)

// RecentParticipationLimit is how many past tables personal stats include
const RecentParticipationLimit = 3

// statsService implements the StatsService interface
type statsService struct {
	uowFactory UnitOfWorkFactory
}

// NewStatsService creates a new stats service
func NewStatsService(uowFactory UnitOfWorkFactory) StatsService {
	return &statsService{uowFactory: uowFactory}
}

// RecordResult adds one finished game to a user's totals
func (s *statsService) RecordResult(ctx context.Context, externalUserID string, won, lost int64) (*models.Profile, error) {
	if won < 0 || lost < 0 {
		return nil, &ValidationError{Problems: []string{"won and lost amounts must not be negative"}}
	}

	var profile *models.Profile
	err := runInUnitOfWork(ctx, s.uowFactory, "record_result", func(uow UnitOfWork) error {
		existing, err := uow.ProfileRepository().GetByExternalID(ctx, externalUserID)
		if err != nil {
			return fmt.Errorf("failed to get profile: %w", err)
		}
		if existing == nil {
			return ErrProfileNotFound
		}

		profile, err = uow.ProfileRepository().RecordResult(ctx, existing.ID, won, lost)
		if err != nil {
			return fmt.Errorf("failed to record result: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"userID": externalUserID,
		"won":    won,
		"lost":   lost,
		"net":    profile.Net,
	}).Info("Recorded game result")

	return profile, nil
}

// Leaderboard returns the group's top players by net result
func (s *statsService) Leaderboard(ctx context.Context, groupID string, limit int) ([]*models.LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("leaderboard limit must be positive, got %d", limit)
	}

	var profiles []*models.Profile
	err := runInUnitOfWork(ctx, s.uowFactory, "leaderboard", func(uow UnitOfWork) error {
		var err error
		profiles, err = uow.ProfileRepository().TopByGroup(ctx, groupID, limit)
		if err != nil {
			return fmt.Errorf("failed to get leaderboard: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entries := make([]*models.LeaderboardEntry, len(profiles))
	for i, p := range profiles {
		entries[i] = &models.LeaderboardEntry{Rank: i + 1, Profile: p}
	}
	return entries, nil
}

// GetUserStats returns a user's totals and recent tables, or nil without a profile
func (s *statsService) GetUserStats(ctx context.Context, externalUserID string) (*models.UserStats, error) {
	var stats *models.UserStats
	err := runInUnitOfWork(ctx, s.uowFactory, "user_stats", func(uow UnitOfWork) error {
		profile, err := uow.ProfileRepository().GetByExternalID(ctx, externalUserID)
		if err != nil {
			return fmt.Errorf("failed to get profile: %w", err)
		}
		if profile == nil {
			return nil
		}

		recent, err := uow.ParticipantRepository().ListRecentByUser(ctx, externalUserID, RecentParticipationLimit)
		if err != nil {
			return fmt.Errorf("failed to get recent tables: %w", err)
		}

		stats = &models.UserStats{Profile: profile, Recent: recent}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

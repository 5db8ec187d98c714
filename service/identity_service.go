package service

import (
	"context"
	"fmt"

	"mahjongbot/commands"
	"mahjongbot/events"
	"mahjongbot/models"

	log "github.com/sirupsen/logrus"
)

// identityService implements the IdentityService interface
type identityService struct {
	uowFactory UnitOfWorkFactory
	locks      *GroupLocks
}

// NewIdentityService creates a new identity service
func NewIdentityService(uowFactory UnitOfWorkFactory, locks *GroupLocks) IdentityService {
	return &identityService{
		uowFactory: uowFactory,
		locks:      locks,
	}
}

// inUser serializes work on one user's profile and runs it in a unit of work
func (s *identityService) inUser(ctx context.Context, externalUserID, operation string, fn func(uow UnitOfWork) error) error {
	unlock := s.locks.Lock("profile:" + externalUserID)
	defer unlock()

	return runInUnitOfWork(ctx, s.uowFactory, operation, fn)
}

// Resolve returns the user's profile, creating it or refreshing its display name
func (s *identityService) Resolve(ctx context.Context, externalUserID, displayName string) (*models.Profile, error) {
	var profile *models.Profile
	err := s.inUser(ctx, externalUserID, "resolve_profile", func(uow UnitOfWork) error {
		var err error
		profile, err = resolveProfile(ctx, uow.ProfileRepository(), externalUserID, displayName)
		return err
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// SetNickname stores the user's preferred nickname, creating the profile when needed
func (s *identityService) SetNickname(ctx context.Context, externalUserID, rawNickname, fallbackDisplayName string) (*NicknameChange, error) {
	nickname, err := commands.CleanNickname(rawNickname)
	if err != nil {
		return nil, err
	}

	var change *NicknameChange
	err = s.inUser(ctx, externalUserID, "set_nickname", func(uow UnitOfWork) error {
		profiles := uow.ProfileRepository()

		profile, err := profiles.GetByExternalID(ctx, externalUserID)
		if err != nil {
			return fmt.Errorf("failed to get profile: %w", err)
		}

		if profile == nil {
			profile, err = profiles.Create(ctx, externalUserID, fallbackDisplayName, &nickname)
			if err != nil {
				return fmt.Errorf("failed to create profile: %w", err)
			}
			change = &NicknameChange{Profile: profile, Previous: fallbackDisplayName, Created: true}
		} else {
			previous := profile.EffectiveNickname()
			if err := profiles.UpdatePreferredNickname(ctx, profile.ID, nickname); err != nil {
				return fmt.Errorf("failed to update nickname: %w", err)
			}
			profile.PreferredNickname = &nickname
			change = &NicknameChange{Profile: profile, Previous: previous}
		}

		uow.EventBus().Publish(events.ProfileNicknameChangedEvent{
			ExternalUserID: externalUserID,
			Previous:       change.Previous,
			Nickname:       nickname,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"userID":  externalUserID,
		"created": change.Created,
	}).Info("Preferred nickname set")

	return change, nil
}

// GetProfile returns the user's profile, or nil when they have none
func (s *identityService) GetProfile(ctx context.Context, externalUserID string) (*models.Profile, error) {
	var profile *models.Profile
	err := runInUnitOfWork(ctx, s.uowFactory, "get_profile", func(uow UnitOfWork) error {
		var err error
		profile, err = uow.ProfileRepository().GetByExternalID(ctx, externalUserID)
		if err != nil {
			return fmt.Errorf("failed to get profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// resolveProfile finds or creates the user's profile inside the caller's unit of work.
// The display name is refreshed when it changed; the preferred nickname is never touched.
func resolveProfile(ctx context.Context, profiles ProfileRepository, externalUserID, displayName string) (*models.Profile, error) {
	profile, err := profiles.GetByExternalID(ctx, externalUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if profile == nil {
		profile, err = profiles.Create(ctx, externalUserID, displayName, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create profile: %w", err)
		}
		return profile, nil
	}

	if displayName != "" && profile.DisplayName != displayName {
		if err := profiles.UpdateDisplayName(ctx, profile.ID, displayName); err != nil {
			return nil, fmt.Errorf("failed to refresh display name: %w", err)
		}
		profile.DisplayName = displayName
	}

	return profile, nil
}

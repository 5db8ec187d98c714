package service

import (
	"context"
	"fmt"

	"mahjongbot/commands"
	"mahjongbot/events"
	"mahjongbot/models"

	log "github.com/sirupsen/logrus"
)

// sessionService implements the SessionService interface
type sessionService struct {
	uowFactory UnitOfWorkFactory
	locks      *GroupLocks
}

// NewSessionService creates a new session service
func NewSessionService(uowFactory UnitOfWorkFactory, locks *GroupLocks) SessionService {
	return &sessionService{
		uowFactory: uowFactory,
		locks:      locks,
	}
}

// inGroup serializes work on one group and runs it in a unit of work
func (s *sessionService) inGroup(ctx context.Context, groupID, operation string, fn func(uow UnitOfWork) error) error {
	unlock := s.locks.Lock(groupID)
	defer unlock()

	return runInUnitOfWork(ctx, s.uowFactory, operation, fn)
}

// CreateSession opens a new table for the group
func (s *sessionService) CreateSession(ctx context.Context, groupID string, params models.SessionParams) (*models.Session, error) {
	if problems := commands.ValidateSessionCreation(params); len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	var session *models.Session
	err := s.inGroup(ctx, groupID, "create_session", func(uow UnitOfWork) error {
		existing, err := uow.SessionRepository().GetActiveByGroupForUpdate(ctx, groupID)
		if err != nil {
			return fmt.Errorf("failed to check active session: %w", err)
		}
		if existing != nil {
			return &DuplicateSessionError{SessionID: existing.ID}
		}

		session, err = uow.SessionRepository().Create(ctx, groupID, params)
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}

		uow.EventBus().Publish(events.SessionCreatedEvent{
			SessionID:         session.ID,
			GroupID:           groupID,
			Mode:              session.Mode,
			PerPoint:          session.PerPoint,
			BaseScore:         session.BaseScore,
			CollectsDealerFee: session.CollectsDealerFee,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"groupID":   groupID,
		"sessionID": session.ID,
		"mode":      session.Mode,
	}).Info("Session created")

	return session, nil
}

// AdmitParticipant seats a user at the group's table under their effective nickname
func (s *sessionService) AdmitParticipant(ctx context.Context, groupID, externalUserID, displayName string) (*AdmissionResult, error) {
	var result *AdmissionResult
	err := s.inGroup(ctx, groupID, "admit_participant", func(uow UnitOfWork) error {
		snapshot, err := loadActiveSnapshot(ctx, uow, groupID)
		if err != nil {
			return err
		}

		if snapshot.Session.Status == models.SessionStatusPlaying {
			return ErrSessionInProgress
		}
		if existing := snapshot.Find(externalUserID); existing != nil {
			return progressionError(ErrAlreadyJoined, existing.Nickname, true)
		}
		if snapshot.Count() >= models.MaxParticipants {
			return ErrSessionFull
		}

		profile, err := resolveProfile(ctx, uow.ProfileRepository(), externalUserID, displayName)
		if err != nil {
			return err
		}

		nickname := profile.EffectiveNickname()
		if holder := snapshot.FindByNickname(nickname); holder != nil {
			return progressionError(ErrNicknameTaken, nickname, false)
		}

		participant := &models.Participant{
			SessionID:      snapshot.Session.ID,
			ExternalUserID: externalUserID,
			Nickname:       nickname,
			SeatNumber:     snapshot.Count() + 1,
		}
		if err := uow.ParticipantRepository().Create(ctx, participant); err != nil {
			return fmt.Errorf("failed to add participant: %w", err)
		}
		snapshot.Participants = append(snapshot.Participants, participant)

		uow.EventBus().Publish(events.ParticipantJoinedEvent{
			SessionID:        snapshot.Session.ID,
			GroupID:          groupID,
			ExternalUserID:   externalUserID,
			Nickname:         nickname,
			SeatNumber:       participant.SeatNumber,
			ParticipantCount: snapshot.Count(),
		})

		result = &AdmissionResult{
			Participant:   participant,
			Profile:       profile,
			Snapshot:      snapshot,
			UsedPreferred: profile.HasPreferredNickname(),
			WindsNeeded:   snapshot.Count() == models.MaxParticipants,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"groupID":   groupID,
		"sessionID": result.Snapshot.Session.ID,
		"userID":    externalUserID,
		"seat":      result.Participant.SeatNumber,
	}).Info("Participant joined")

	return result, nil
}

// AssignWind gives a participant a seat wind
func (s *sessionService) AssignWind(ctx context.Context, groupID, externalUserID string, wind models.Wind) (*WindResult, error) {
	var result *WindResult
	err := s.inGroup(ctx, groupID, "assign_wind", func(uow UnitOfWork) error {
		snapshot, err := loadActiveSnapshot(ctx, uow, groupID)
		if err != nil {
			return err
		}

		participant := snapshot.Find(externalUserID)
		if participant == nil {
			return ErrNotJoined
		}
		if snapshot.Session.Status == models.SessionStatusPlaying {
			return ErrSessionInProgress
		}

		holder := snapshot.WindHolder(wind)
		if holder != nil && holder.ExternalUserID != externalUserID {
			return progressionError(ErrWindTaken, holder.Nickname, false)
		}

		result = &WindResult{Participant: participant, Wind: wind, Snapshot: snapshot}
		if holder != nil {
			result.Unchanged = true
			result.ReadyForDealer = snapshot.WindsComplete()
			return nil
		}

		if err := uow.ParticipantRepository().UpdateWind(ctx, participant.ID, wind); err != nil {
			return fmt.Errorf("failed to update wind: %w", err)
		}
		participant.Wind = &wind
		result.ReadyForDealer = snapshot.WindsComplete()

		uow.EventBus().Publish(events.WindSelectedEvent{
			SessionID:      snapshot.Session.ID,
			GroupID:        groupID,
			ExternalUserID: externalUserID,
			Nickname:       participant.Nickname,
			Wind:           wind,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"groupID":        groupID,
		"userID":         externalUserID,
		"wind":           wind,
		"readyForDealer": result.ReadyForDealer,
	}).Info("Wind assigned")

	return result, nil
}

// AssignDealer makes a participant the dealer and starts play
func (s *sessionService) AssignDealer(ctx context.Context, groupID, externalUserID string) (*DealerResult, error) {
	var result *DealerResult
	err := s.inGroup(ctx, groupID, "assign_dealer", func(uow UnitOfWork) error {
		snapshot, err := loadActiveSnapshot(ctx, uow, groupID)
		if err != nil {
			return err
		}

		participant := snapshot.Find(externalUserID)
		if participant == nil {
			return ErrNotJoined
		}
		if dealer := snapshot.Dealer(); dealer != nil {
			return progressionError(ErrDealerAlreadySet, dealer.Nickname, dealer.ExternalUserID == externalUserID)
		}
		if !snapshot.WindsComplete() {
			return ErrNotReady
		}
		if !snapshot.Session.Status.CanTransition(models.SessionStatusPlaying) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, snapshot.Session.Status, models.SessionStatusPlaying)
		}

		if err := uow.ParticipantRepository().SetDealer(ctx, participant.ID); err != nil {
			return fmt.Errorf("failed to set dealer: %w", err)
		}
		if err := uow.SessionRepository().UpdateStatus(ctx, snapshot.Session.ID, models.SessionStatusPlaying); err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}
		participant.IsDealer = true
		snapshot.Session.Status = models.SessionStatusPlaying

		uow.EventBus().Publish(events.SessionStartedEvent{
			SessionID:      snapshot.Session.ID,
			GroupID:        groupID,
			DealerUserID:   externalUserID,
			DealerNickname: participant.Nickname,
		})

		result = &DealerResult{Dealer: participant, Snapshot: snapshot}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"groupID":   groupID,
		"sessionID": result.Snapshot.Session.ID,
		"dealer":    externalUserID,
	}).Info("Dealer assigned, session started")

	return result, nil
}

// Withdraw removes a participant from a table that has not started
func (s *sessionService) Withdraw(ctx context.Context, groupID, externalUserID string) (*WithdrawResult, error) {
	var result *WithdrawResult
	err := s.inGroup(ctx, groupID, "withdraw", func(uow UnitOfWork) error {
		snapshot, err := loadActiveSnapshot(ctx, uow, groupID)
		if err != nil {
			return err
		}

		participant := snapshot.Find(externalUserID)
		if participant == nil {
			return ErrNotJoined
		}
		if snapshot.Session.Status != models.SessionStatusCreated {
			return ErrSessionInProgress
		}

		participants := uow.ParticipantRepository()
		if err := participants.Delete(ctx, participant.ID); err != nil {
			return fmt.Errorf("failed to remove participant: %w", err)
		}
		if err := participants.RenumberSeats(ctx, snapshot.Session.ID); err != nil {
			return fmt.Errorf("failed to renumber seats: %w", err)
		}

		remaining, err := participants.ListBySession(ctx, snapshot.Session.ID)
		if err != nil {
			return fmt.Errorf("failed to list participants: %w", err)
		}
		snapshot.Participants = remaining

		uow.EventBus().Publish(events.ParticipantLeftEvent{
			SessionID:      snapshot.Session.ID,
			GroupID:        groupID,
			ExternalUserID: externalUserID,
			Nickname:       participant.Nickname,
			RemainingCount: len(remaining),
		})

		result = &WithdrawResult{Withdrawn: participant, Snapshot: snapshot}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"groupID":   groupID,
		"userID":    externalUserID,
		"remaining": result.Snapshot.Count(),
	}).Info("Participant withdrew")

	return result, nil
}

// Query returns the group's active table
func (s *sessionService) Query(ctx context.Context, groupID string) (*models.SessionSnapshot, error) {
	var snapshot *models.SessionSnapshot
	err := s.inGroup(ctx, groupID, "query", func(uow UnitOfWork) error {
		session, err := uow.SessionRepository().GetActiveByGroup(ctx, groupID)
		if err != nil {
			return fmt.Errorf("failed to get active session: %w", err)
		}
		if session == nil {
			return ErrNoActiveSession
		}

		participants, err := uow.ParticipantRepository().ListBySession(ctx, session.ID)
		if err != nil {
			return fmt.Errorf("failed to list participants: %w", err)
		}

		snapshot = &models.SessionSnapshot{Session: session, Participants: participants}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// EndSession closes the group's active table so a new one can be opened
func (s *sessionService) EndSession(ctx context.Context, groupID, externalUserID string) (*models.Session, error) {
	var session *models.Session
	err := s.inGroup(ctx, groupID, "end_session", func(uow UnitOfWork) error {
		snapshot, err := loadActiveSnapshot(ctx, uow, groupID)
		if err != nil {
			return err
		}

		// An empty table may be closed by anyone in the group
		if snapshot.Count() > 0 && snapshot.Find(externalUserID) == nil {
			return ErrNotJoined
		}

		previous := snapshot.Session.Status
		if !previous.CanTransition(models.SessionStatusFinished) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, previous, models.SessionStatusFinished)
		}
		if err := uow.SessionRepository().UpdateStatus(ctx, snapshot.Session.ID, models.SessionStatusFinished); err != nil {
			return fmt.Errorf("failed to finish session: %w", err)
		}
		snapshot.Session.Status = models.SessionStatusFinished

		uow.EventBus().Publish(events.SessionFinishedEvent{
			SessionID:      snapshot.Session.ID,
			GroupID:        groupID,
			PreviousStatus: previous,
			EndedBy:        externalUserID,
		})

		session = snapshot.Session
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"groupID":   groupID,
		"sessionID": session.ID,
		"endedBy":   externalUserID,
	}).Info("Session finished")

	return session, nil
}

// loadActiveSnapshot locks the group's active session and loads its participants
func loadActiveSnapshot(ctx context.Context, uow UnitOfWork, groupID string) (*models.SessionSnapshot, error) {
	session, err := uow.SessionRepository().GetActiveByGroupForUpdate(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active session: %w", err)
	}
	if session == nil {
		return nil, ErrNoActiveSession
	}

	participants, err := uow.ParticipantRepository().ListBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}

	return &models.SessionSnapshot{Session: session, Participants: participants}, nil
}

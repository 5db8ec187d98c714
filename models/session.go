package models

import (
	"time"
)

// SessionStatus represents the lifecycle state of a table session
type SessionStatus string

const (
	SessionStatusCreated  SessionStatus = "created"
	SessionStatusPlaying  SessionStatus = "playing"
	SessionStatusFinished SessionStatus = "finished"
)

// MaxParticipants is the number of seats at a table
const MaxParticipants = 4

// sessionTransitions lists every status change a session may go through.
var sessionTransitions = map[SessionStatus][]SessionStatus{
	SessionStatusCreated: {SessionStatusPlaying, SessionStatusFinished},
	SessionStatusPlaying: {SessionStatusFinished},
}

// CanTransition reports whether a session may move from one status to another
func (s SessionStatus) CanTransition(to SessionStatus) bool {
	for _, next := range sessionTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// IsActive reports whether the status still occupies the group's table
func (s SessionStatus) IsActive() bool {
	return s == SessionStatusCreated || s == SessionStatusPlaying
}

// SessionParams holds the table rules chosen when a session is opened
type SessionParams struct {
	Mode              string
	PerPoint          int
	BaseScore         int
	CollectsDealerFee bool
}

// Session represents one group's table setup
type Session struct {
	ID                int64         `db:"id"`
	GroupID           string        `db:"group_id"`
	Mode              string        `db:"mode"`
	PerPoint          int           `db:"per_point"`
	BaseScore         int           `db:"base_score"`
	CollectsDealerFee bool          `db:"collects_dealer_fee"`
	Status            SessionStatus `db:"status"`
	CreatedAt         time.Time     `db:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at"`
}

// Params returns the rule settings of the session
func (s *Session) Params() SessionParams {
	return SessionParams{
		Mode:              s.Mode,
		PerPoint:          s.PerPoint,
		BaseScore:         s.BaseScore,
		CollectsDealerFee: s.CollectsDealerFee,
	}
}

// SetupStage describes what a created session is still waiting for
type SetupStage int

const (
	StageWaitingForPlayers SetupStage = iota
	StageWaitingForWinds
	StageWaitingForDealer
	StageReady
)

// SessionSnapshot combines a session with its participants ordered by seat
type SessionSnapshot struct {
	Session      *Session
	Participants []*Participant
}

// Count returns the number of seated participants
func (s *SessionSnapshot) Count() int {
	return len(s.Participants)
}

// Find returns the participant for an external user id, or nil
func (s *SessionSnapshot) Find(externalUserID string) *Participant {
	for _, p := range s.Participants {
		if p.ExternalUserID == externalUserID {
			return p
		}
	}
	return nil
}

// FindByNickname returns the participant using a nickname, or nil
func (s *SessionSnapshot) FindByNickname(nickname string) *Participant {
	for _, p := range s.Participants {
		if p.Nickname == nickname {
			return p
		}
	}
	return nil
}

// WindHolder returns the participant holding a wind, or nil
func (s *SessionSnapshot) WindHolder(wind Wind) *Participant {
	for _, p := range s.Participants {
		if p.Wind != nil && *p.Wind == wind {
			return p
		}
	}
	return nil
}

// Dealer returns the dealer, or nil when none is assigned
func (s *SessionSnapshot) Dealer() *Participant {
	for _, p := range s.Participants {
		if p.IsDealer {
			return p
		}
	}
	return nil
}

// WindsAssigned counts participants holding a wind
func (s *SessionSnapshot) WindsAssigned() int {
	count := 0
	for _, p := range s.Participants {
		if p.Wind != nil {
			count++
		}
	}
	return count
}

// WindsComplete reports whether all four seats hold four distinct winds
func (s *SessionSnapshot) WindsComplete() bool {
	if s.Count() != MaxParticipants {
		return false
	}
	seen := make(map[Wind]bool, MaxParticipants)
	for _, p := range s.Participants {
		if p.Wind == nil || seen[*p.Wind] {
			return false
		}
		seen[*p.Wind] = true
	}
	return true
}

// WithoutWind returns the participants that have not picked a wind yet
func (s *SessionSnapshot) WithoutWind() []*Participant {
	var result []*Participant
	for _, p := range s.Participants {
		if p.Wind == nil {
			result = append(result, p)
		}
	}
	return result
}

// Stage reports the next setup step the table is waiting on
func (s *SessionSnapshot) Stage() SetupStage {
	switch {
	case s.Count() < MaxParticipants:
		return StageWaitingForPlayers
	case !s.WindsComplete():
		return StageWaitingForWinds
	case s.Dealer() == nil:
		return StageWaitingForDealer
	default:
		return StageReady
	}
}

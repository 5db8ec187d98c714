package service

import (
	"errors"
	"fmt"
	"strings"

	"mahjongbot/commands"
)

// Precondition failures of the table state machine
var (
	ErrDuplicateSession  = errors.New("group already has an active session")
	ErrNoActiveSession   = errors.New("group has no active session")
	ErrAlreadyJoined     = errors.New("user already joined the session")
	ErrSessionFull       = errors.New("session already has four participants")
	ErrNicknameTaken     = errors.New("nickname already used in the session")
	ErrNotJoined         = errors.New("user has not joined the session")
	ErrWindTaken         = errors.New("wind already taken")
	ErrDealerAlreadySet  = errors.New("dealer already assigned")
	ErrNotReady          = errors.New("session needs four participants with distinct winds")
	ErrSessionInProgress = errors.New("session is already in play")
	ErrInvalidTransition = errors.New("invalid session status transition")
)

// ErrProfileNotFound is returned when a statistics update targets an unknown user
var ErrProfileNotFound = errors.New("profile not found")

// ErrInvalidNickname is returned when a nickname fails cleaning
var ErrInvalidNickname = commands.ErrInvalidNickname

// ErrValidation is matched by every ValidationError
var ErrValidation = errors.New("invalid parameters")

// ErrConflict is returned when a concurrent command raced past a storage invariant
var ErrConflict = errors.New("concurrent modification conflict")

// ProgressionError carries the participant a precondition failure refers to
type ProgressionError struct {
	Err error
	// Nickname of the participant involved, such as the current wind holder or dealer
	Nickname string
	// Self is set when the participant involved is the caller
	Self bool
}

func (e *ProgressionError) Error() string {
	if e.Nickname == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s (%s)", e.Err.Error(), e.Nickname)
}

func (e *ProgressionError) Unwrap() error {
	return e.Err
}

func progressionError(err error, nickname string, self bool) error {
	return &ProgressionError{Err: err, Nickname: nickname, Self: self}
}

// DuplicateSessionError names the session already open in the group
type DuplicateSessionError struct {
	SessionID int64
}

func (e *DuplicateSessionError) Error() string {
	return fmt.Sprintf("%s: session %d", ErrDuplicateSession, e.SessionID)
}

func (e *DuplicateSessionError) Unwrap() error {
	return ErrDuplicateSession
}

// ValidationError lists every problem found in command parameters
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameters: %s", strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// IsPrecondition reports whether err is an expected state machine rejection
func IsPrecondition(err error) bool {
	for _, target := range []error{
		ErrDuplicateSession, ErrAlreadyJoined, ErrSessionFull, ErrNicknameTaken,
		ErrNotJoined, ErrWindTaken, ErrDealerAlreadySet, ErrNotReady,
		ErrSessionInProgress, ErrInvalidTransition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

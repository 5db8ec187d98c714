package common

import (
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// GenericFailureMessage is shown when a command fails for a reason the user cannot fix
const GenericFailureMessage = "❌ 系統發生錯誤，請稍後再試"

// BotError represents a structured error with user-facing and internal messages
type BotError struct {
	UserMessage string      // Message shown in the chat
	LogMessage  string      // Internal message for logging
	Err         error       // Underlying error
	Context     interface{} // Additional context for logging
	// Expected marks rejections caused by the user or the table state
	Expected bool
}

// Error implements the error interface
func (e *BotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.LogMessage, e.Err)
	}
	return e.LogMessage
}

// Unwrap returns the underlying error
func (e *BotError) Unwrap() error {
	return e.Err
}

// NewUserError creates an error for user-caused issues (validation, table state, etc)
func NewUserError(userMessage string, logMessage string) *BotError {
	return &BotError{
		UserMessage: userMessage,
		LogMessage:  logMessage,
		Expected:    true,
	}
}

// NewSystemError creates an error for system issues (database, unexpected state, etc)
func NewSystemError(err error, logMessage string) *BotError {
	return &BotError{
		UserMessage: GenericFailureMessage,
		LogMessage:  logMessage,
		Err:         err,
	}
}

// HandleError logs err and returns the text to reply with
func HandleError(fields log.Fields, err error) string {
	var botErr *BotError
	if errors.As(err, &botErr) {
		entry := log.WithFields(fields).WithFields(log.Fields{
			"error":        botErr.Error(),
			"user_message": botErr.UserMessage,
			"context":      botErr.Context,
		})
		if botErr.Expected {
			entry.Debug(botErr.LogMessage)
		} else {
			entry.Error(botErr.LogMessage)
		}
		return botErr.UserMessage
	}

	// Unexpected error - log full details but show generic message to user
	log.WithFields(fields).WithField("error", err.Error()).Error("Unexpected error in bot command")
	return GenericFailureMessage
}

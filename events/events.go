package events

import (
	"context"
	"sync"

	"mahjongbot/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeSessionCreated         EventType = "session.created"
	EventTypeParticipantJoined      EventType = "participant.joined"
	EventTypeWindSelected           EventType = "participant.wind_selected"
	EventTypeSessionStarted         EventType = "session.started"
	EventTypeParticipantLeft        EventType = "participant.left"
	EventTypeSessionFinished        EventType = "session.finished"
	EventTypeProfileNicknameChanged EventType = "profile.nickname_changed"
)

// AllEventTypes lists every event the bot emits
func AllEventTypes() []EventType {
	return []EventType{
		EventTypeSessionCreated,
		EventTypeParticipantJoined,
		EventTypeWindSelected,
		EventTypeSessionStarted,
		EventTypeParticipantLeft,
		EventTypeSessionFinished,
		EventTypeProfileNicknameChanged,
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// SessionCreatedEvent is emitted when a group opens a table
type SessionCreatedEvent struct {
	SessionID         int64  `json:"session_id"`
	GroupID           string `json:"group_id"`
	Mode              string `json:"mode"`
	PerPoint          int    `json:"per_point"`
	BaseScore         int    `json:"base_score"`
	CollectsDealerFee bool   `json:"collects_dealer_fee"`
}

func (e SessionCreatedEvent) Type() EventType {
	return EventTypeSessionCreated
}

// ParticipantJoinedEvent is emitted when a user takes a seat
type ParticipantJoinedEvent struct {
	SessionID        int64  `json:"session_id"`
	GroupID          string `json:"group_id"`
	ExternalUserID   string `json:"external_user_id"`
	Nickname         string `json:"nickname"`
	SeatNumber       int    `json:"seat_number"`
	ParticipantCount int    `json:"participant_count"`
}

func (e ParticipantJoinedEvent) Type() EventType {
	return EventTypeParticipantJoined
}

// WindSelectedEvent is emitted when a participant picks a wind
type WindSelectedEvent struct {
	SessionID      int64       `json:"session_id"`
	GroupID        string      `json:"group_id"`
	ExternalUserID string      `json:"external_user_id"`
	Nickname       string      `json:"nickname"`
	Wind           models.Wind `json:"wind"`
}

func (e WindSelectedEvent) Type() EventType {
	return EventTypeWindSelected
}

// SessionStartedEvent is emitted when a dealer is assigned and play begins
type SessionStartedEvent struct {
	SessionID      int64  `json:"session_id"`
	GroupID        string `json:"group_id"`
	DealerUserID   string `json:"dealer_user_id"`
	DealerNickname string `json:"dealer_nickname"`
}

func (e SessionStartedEvent) Type() EventType {
	return EventTypeSessionStarted
}

// ParticipantLeftEvent is emitted when a participant withdraws
type ParticipantLeftEvent struct {
	SessionID      int64  `json:"session_id"`
	GroupID        string `json:"group_id"`
	ExternalUserID string `json:"external_user_id"`
	Nickname       string `json:"nickname"`
	RemainingCount int    `json:"remaining_count"`
}

func (e ParticipantLeftEvent) Type() EventType {
	return EventTypeParticipantLeft
}

// SessionFinishedEvent is emitted when a table is closed
type SessionFinishedEvent struct {
	SessionID      int64                `json:"session_id"`
	GroupID        string               `json:"group_id"`
	PreviousStatus models.SessionStatus `json:"previous_status"`
	EndedBy        string               `json:"ended_by"`
}

func (e SessionFinishedEvent) Type() EventType {
	return EventTypeSessionFinished
}

// ProfileNicknameChangedEvent is emitted when a user sets a preferred nickname
type ProfileNicknameChangedEvent struct {
	ExternalUserID string `json:"external_user_id"`
	Previous       string `json:"previous"`
	Nickname       string `json:"nickname"`
}

func (e ProfileNicknameChangedEvent) Type() EventType {
	return EventTypeProfileNicknameChanged
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	wg       sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds a handler for every event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range AllEventTypes() {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event to handlers")

	// Handlers run asynchronously so a slow subscriber never blocks a command
	for i, handler := range handlers {
		b.wg.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Wait blocks until every handler started so far has returned
func (b *Bus) Wait() {
	b.wg.Wait()
}

// TransactionalBus holds events raised inside a unit of work until it commits
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Adding event to transactional bus pending queue")
	b.pending = append(b.pending, e)
}

// Flush hands pending events to the real bus; called after a successful commit
func (b *TransactionalBus) Flush(ctx context.Context) {
	if b.real == nil {
		b.pending = nil
		return
	}

	log.WithFields(log.Fields{
		"pendingEventCount": len(b.pending),
	}).Debug("Flushing pending events to main event bus")

	// Handlers outlive the command, so they get a context detached from its cancellation
	eventCtx := context.WithoutCancel(ctx)
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops pending events; called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

// Pending returns the number of buffered events
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}

package observability

// Metric name prefixes
const (
	MetricPrefix = "mahjongbot"
)

// Metric names
const (
	// Command metrics
	CommandsTotal   = MetricPrefix + ".commands.total"
	CommandDuration = MetricPrefix + ".commands.duration"

	// Session metrics
	SessionsActive = MetricPrefix + ".sessions.active"

	// Event metrics
	EventsEmittedTotal         = MetricPrefix + ".events.emitted_total"
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelCommand   = "command"
	LabelOutcome   = "outcome"
	LabelEventType = "event_type"
	LabelStatus    = "status"
)

// Command outcomes
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

package audit

import (
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers state changes with lasting significance:
	// registry resets, lottery creation and winner selection.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers refused callers and denied privileged actions.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity such as entries and listings.
	// These can be sampled or aggregated with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory `json:"category"`
	Timestamp time.Time     `json:"timestamp"`
	// Actor is the caller identity that performed the action, when known.
	Actor     string `json:"actor,omitempty"`
	Action    string `json:"action"`
	LotteryID uint32 `json:"lottery_id,omitempty"`
	// Subject is the identity the action applied to when it differs from
	// Actor, e.g. the winner of a completion.
	Subject   string `json:"subject,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type AuditEvent string

const (
	// Registry events
	EventRegistryInitialized AuditEvent = "registry_initialized"

	// Lottery events
	EventLotteryCreated   AuditEvent = "lottery_created"
	EventLotteryEntered   AuditEvent = "lottery_entered"
	EventLotteryCompleted AuditEvent = "lottery_completed"

	// Query events
	EventLotteriesRetrieved          AuditEvent = "lotteries_retrieved"
	EventCompletedLotteriesRetrieved AuditEvent = "completed_lotteries_retrieved"

	// Security events
	EventAuthFailed       AuditEvent = "auth_failed"
	EventCompletionDenied AuditEvent = "completion_denied"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventRegistryInitialized: CategoryCompliance,
	EventLotteryCreated:      CategoryCompliance,
	EventLotteryCompleted:    CategoryCompliance,

	EventAuthFailed:       CategorySecurity,
	EventCompletionDenied: CategorySecurity,

	EventLotteryEntered:              CategoryOperations,
	EventLotteriesRetrieved:          CategoryOperations,
	EventCompletedLotteriesRetrieved: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

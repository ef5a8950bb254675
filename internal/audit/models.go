package audit

import "time"

// Action names the auditable things that happen in the marketplace.
type Action string

const (
	ActionMemberRegistered Action = "member_registered"
	ActionItemListed       Action = "item_listed"
	ActionOrderCreated     Action = "order_created"
	ActionOrderCompleted   Action = "order_completed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	ActorID   string    `json:"actor_id,omitempty"`
	Subject   string    `json:"subject"`
	RequestID string    `json:"request_id,omitempty"`
}

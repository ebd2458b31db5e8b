package common

// EventKind classifies a TimelineEvent.
type EventKind string

const (
	EventInteraction   EventKind = "interaction"
	EventPayment       EventKind = "payment"
	EventPromise       EventKind = "promise"
	EventRenegotiation EventKind = "renegotiation"
)

// TimelineEvent is a read-time projection of an Interaction, Payment,
// Promise or Renegotiation. It is never persisted.
type TimelineEvent struct {
	ID          string         `json:"id"`
	Kind        EventKind      `json:"kind"`
	Timestamp   string         `json:"timestamp"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	AgentID     string         `json:"agentId,omitempty"`
	AgentName   string         `json:"agentName,omitempty"`
	Amount      *float64       `json:"amount,omitempty"`
	Status      string         `json:"status,omitempty"`
	Details     map[string]any `json:"details"`

	// ContactType is only set for interaction events and drives the
	// interaction type filter.
	ContactType string `json:"-"`
}

package events

import "time"

// Event types published by domain services. Webhook subscriptions and live
// observers filter on these string tags.
const (
	TypeInventoryLow        = "inventory.low"
	TypeInventoryUpdated    = "inventory.updated"
	TypeSiteCreated         = "site.created"
	TypeSiteUpdated         = "site.updated"
	TypeSiteClosed          = "site.closed"
	TypeQueueTokenCreated   = "queue.token.created"
	TypeQueueTokenCalled    = "queue.token.called"
	TypeQueueTokenCompleted = "queue.token.completed"
)

// DomainEvent is an immutable fact describing a committed state change. It is
// created once at publish time and never mutated; the bus hands it to each
// subscriber by value and retains nothing after fan-out.
type DomainEvent struct {
	EventType string         `json:"eventType"`
	Entity    string         `json:"entity"`
	EntityID  *int64         `json:"entityId"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

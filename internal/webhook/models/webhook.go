package models

import (
	"slices"
	"time"
)

// Webhook is a registered external endpoint plus the set of event types it
// wants delivered. The dispatcher only reads subscriptions and advances
// LastTriggeredAt; everything else is owned by the registry.
type Webhook struct {
	ID              int64      `json:"id"`
	URL             string     `json:"url"`
	Active          bool       `json:"active"`
	Events          []string   `json:"events"`
	Description     string     `json:"description,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastTriggeredAt *time.Time `json:"lastTriggeredAt,omitempty"`
}

// SubscribedTo reports whether the webhook wants events of the given type.
func (w *Webhook) SubscribedTo(eventType string) bool {
	return slices.Contains(w.Events, eventType)
}

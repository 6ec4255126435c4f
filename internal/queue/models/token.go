package models

import "time"

// TokenStatus is the lifecycle state of a queue token.
//
// WAITING -> CALLED -> SERVING -> COMPLETED, with side exits from WAITING or
// CALLED to CANCELLED and NO_SHOW. COMPLETED, CANCELLED and NO_SHOW are
// terminal; terminal tokens are retained for history, never deleted.
type TokenStatus string

const (
	StatusWaiting   TokenStatus = "WAITING"
	StatusCalled    TokenStatus = "CALLED"
	StatusServing   TokenStatus = "SERVING"
	StatusCompleted TokenStatus = "COMPLETED"
	StatusCancelled TokenStatus = "CANCELLED"
	StatusNoShow    TokenStatus = "NO_SHOW"
)

// Valid reports whether s is a known lifecycle state.
func (s TokenStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusCalled, StatusServing, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether s ends the lifecycle.
func (s TokenStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// QueueToken is a visitor's place in a site's queue. TokenNumber is assigned
// exactly once at creation and never changes; CalledAt and CompletedAt are
// set at most once, when the corresponding transition fires, and never reset.
type QueueToken struct {
	ID                   int64       `json:"id"`
	SiteID               int64       `json:"siteId"`
	TokenNumber          string      `json:"tokenNumber"`
	Status               TokenStatus `json:"status"`
	ContactName          string      `json:"contactName"`
	ContactPhone         string      `json:"contactPhone,omitempty"`
	EstimatedWaitMinutes int         `json:"estimatedWaitMinutes"`
	CreatedAt            time.Time   `json:"createdAt"`
	CalledAt             *time.Time  `json:"calledAt,omitempty"`
	CompletedAt          *time.Time  `json:"completedAt,omitempty"`
}

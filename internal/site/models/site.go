package models

import "time"

// Site is a distribution site (pantry) that runs a visitor queue.
type Site struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	City      string    `json:"city"`
	State     string    `json:"state,omitempty"`
	Open      bool      `json:"open"`
	CreatedAt time.Time `json:"createdAt"`
}

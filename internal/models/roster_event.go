package models

import "time"

// Roster event types.
const (
	RosterEventSignup     = "signup"
	RosterEventUnregister = "unregister"
)

// RosterEvent describes a single successful roster mutation.
type RosterEvent struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Activity     string    `json:"activity"`
	Email        string    `json:"email"`
	Participants int       `json:"participants"`
	OccurredAt   time.Time `json:"occurred_at"`
}

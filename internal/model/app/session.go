package app

import "time"

// Phase tracks where a session sits in its lifecycle. Transitions are
// monotonic: AwaitingDescription -> Active -> Terminated, never backwards.
type Phase string

const (
	PhaseAwaitingDescription Phase = "awaiting_description"
	PhaseActive              Phase = "active"
	PhaseTerminated          Phase = "terminated"
)

// Session captures one connection's simulated application. It lives exactly
// as long as the WebSocket that owns it.
type Session struct {
	ID        string    `json:"id"`
	Phase     Phase     `json:"phase"`
	CreatedAt time.Time `json:"createdAt"`
}

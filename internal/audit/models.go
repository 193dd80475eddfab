package audit

import "time"

// Event is an immutable, append-only record of an authentication-flow
// outcome. Events are never updated or deleted; capture is best-effort and
// must not block the auth flows that emit them.
type Event struct {
	ID     string `json:"id"`
	Action Action `json:"action"`

	// ActorUserID is the account the event concerns, when known.
	ActorUserID int64  `json:"actor_user_id,omitempty"`
	Username    string `json:"username,omitempty"`

	// Outcome is "success" or a short failure kind.
	Outcome string `json:"outcome"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type Action string

const (
	ActionRegister = Action("register")
	ActionLogin    = Action("login")
	ActionRefresh  = Action("token_refresh")
	ActionVerify   = Action("token_verify")
)

const OutcomeSuccess = "success"

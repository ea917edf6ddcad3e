package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeUserRegistered        Type = "user.registered"
	TypeUserEmailVerified     Type = "user.email_verified"
	TypeUserLogin             Type = "user.login"
	TypeUserLoginFailed       Type = "user.login_failed"
	TypePasswordResetRequest  Type = "password.reset_requested"
	TypePasswordReset         Type = "password.reset"
	TypePasswordChanged       Type = "password.changed"
	TypeAccountDeleted        Type = "account.deleted"
	TypeAdminUserStatusChange Type = "admin.user_status_changed"
	TypeAdminUserDeleted      Type = "admin.user_deleted"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Actor identifies who triggered an event.
type Actor struct {
	UserID string `json:"user_id,omitempty"`
	Role   string `json:"role,omitempty"`
	IP     string `json:"ip,omitempty"`
}

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	Status    string `json:"status"`
	Resource  string `json:"resource,omitempty"`
	Payload   any    `json:"payload,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
	Actor     Actor  `json:"actor"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}

// New stamps an event with an id, the current time and the actor stored in ctx.
func New(ctx context.Context, typ Type, status string, resource string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Status:    status,
		Resource:  resource,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Actor:     ActorFromContext(ctx),
	}
}

type actorKey struct{}

func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorKey{}).(Actor)
	return actor
}

package notifications

import (
	"context"
	"time"
)

type EventType string

const (
	UserRegistered EventType = "user.registered"
	UserUpdated    EventType = "user.updated"
	UserDeleted    EventType = "user.deleted"
)

// AccountEvent announces a change to an account. It never carries credentials.
type AccountEvent struct {
	Type       EventType `json:"type"`
	UserID     string    `json:"userId"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Notifier interface {
	Publish(ctx context.Context, ev AccountEvent) error
}

// Package queue defines the auth event payload exchanged over the message
// broker and the consumer that turns those events into audit lines.
package queue

import "time"

// Event types published by the session service.
const (
	EventUserRegistered       = "user.registered"
	EventUserLoggedIn         = "user.logged_in"
	EventUserLoggedOut        = "user.logged_out"
	EventTokenRefreshed       = "token.refreshed"
	EventRefreshReuseDetected = "refresh.reuse_detected"
	EventUserDeleted          = "user.deleted"
)

// AuthQueueName is the durable queue auth events are routed to.
const AuthQueueName = "auth.events"

// AuthEvent is published after a session-relevant change. It carries enough
// information for an audit trail without querying the user store.
type AuthEvent struct {
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	Username   string    `json:"username,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

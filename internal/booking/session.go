package booking

import (
	"context"
	"time"
)

// Session is the in-progress booking state for one conversation.
type Session struct {
	ConversationID      string    `json:"conversation_id" dynamodbav:"conversationId"`
	Department          string    `json:"department" dynamodbav:"department"`
	ConsultationSummary string    `json:"consultation_summary" dynamodbav:"consultationSummary"`
	Fields              Fields    `json:"fields" dynamodbav:"fields"`
	CreatedAt           time.Time `json:"created_at" dynamodbav:"createdAt"`
	UpdatedAt           time.Time `json:"updated_at" dynamodbav:"updatedAt"`
}

// Complete reports whether all collectable fields are present.
func (s *Session) Complete() bool {
	return s != nil && s.Fields.Complete()
}

// ExpiryPolicy selects which timestamp session age is measured from.
type ExpiryPolicy int

const (
	// ExpireFromCreation measures age from CreatedAt; updates do not extend a session.
	ExpireFromCreation ExpiryPolicy = iota
	// ExpireFromActivity measures age from UpdatedAt.
	ExpireFromActivity
)

// ExpiryPolicyFor maps the refresh-on-update setting to a policy.
func ExpiryPolicyFor(refreshOnUpdate bool) ExpiryPolicy {
	if refreshOnUpdate {
		return ExpireFromActivity
	}
	return ExpireFromCreation
}

// Anchor returns the timestamp age is measured from.
func (p ExpiryPolicy) Anchor(s *Session) time.Time {
	if p == ExpireFromActivity && !s.UpdatedAt.IsZero() {
		return s.UpdatedAt
	}
	return s.CreatedAt
}

// Expired reports whether s is older than maxAge at now.
func (p ExpiryPolicy) Expired(s *Session, maxAge time.Duration, now time.Time) bool {
	if maxAge <= 0 {
		return false
	}
	return !p.Anchor(s).Add(maxAge).After(now)
}

// SessionStore persists booking sessions keyed by conversation id.
type SessionStore interface {
	// Put inserts or replaces the session.
	Put(ctx context.Context, s *Session) error
	// Get returns ErrSessionNotFound when no live session exists.
	Get(ctx context.Context, conversationID string) (*Session, error)
	// Take atomically removes and returns the session, or ErrSessionNotFound.
	Take(ctx context.Context, conversationID string) (*Session, error)
	// ExpiredIDs lists the conversation ids whose sessions are older than maxAge.
	ExpiredIDs(ctx context.Context, maxAge time.Duration, now time.Time) ([]string, error)
	// DeleteIfExpired re-reads the session and removes it only if it is still past maxAge.
	DeleteIfExpired(ctx context.Context, conversationID string, maxAge time.Duration, now time.Time) (bool, error)
}

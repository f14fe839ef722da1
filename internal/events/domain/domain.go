package domain

import (
	"context"
	"time"
)

// Event represents an audit event.
// Type examples: "contract.submitted", "user.deleted"
// Meta may contain recipient counts, request ids, file names, etc.
type Event struct {
	ID      string
	Type    string
	UserID  string
	ActorID string
	Meta    map[string]string
	Time    time.Time
}

// Publisher publishes events to an external system (log, queue, etc.).
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

const (
	TypeContractSubmitted = "contract.submitted"
	TypeContractEmailed   = "contract.emailed"
	TypeUserDeleted       = "user.deleted"
)

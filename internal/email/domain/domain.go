package domain

import (
	"context"
	"errors"
)

// Kind labels a message for metrics and logs.
type Kind string

const (
	KindAdmin    Kind = "admin"
	KindCustomer Kind = "customer"
	KindContract Kind = "contract"
)

// Attachment is a file carried inline with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is a rendered email. HTML is required; Text is the plain alternative.
// From is optional and defaults to the configured sender address.
type Message struct {
	Kind        Kind
	From        string
	To          string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Sender delivers a single message. Implementations open their own transport per call.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

var (
	ErrNoRecipient = errors.New("email: recipient is required")
	ErrNoSender    = errors.New("email: sender address is not configured")
)

package dispatch

import (
	"context"
)

// Email is a fully composed message ready for a transport.
type Email struct {
	Recipient   string
	Sender      string
	SenderName  string
	Subject     string
	Body        string
	Attachment  []byte
	Filename    string
	ContentType string
	Disposition string
}

// Outcome is the provider's acknowledgement of an accepted send.
type Outcome struct {
	Provider   string
	StatusCode int
	MessageID  string
}

type Transport interface {
	Name() string
	Configured() bool
	Send(ctx context.Context, email Email) (Outcome, error)
}

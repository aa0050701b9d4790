package mailer

import "context"

// Message is a rendered outbound email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Sender delivers rendered messages. Implementations must be safe for
// concurrent use: the invitation issuer fans out one Send per batch entry.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

package ports

import "context"

// Message is a plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers email out of band. A non-nil error means the message was
// not handed off and must be considered undelivered.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Package notifier sends the two outbound emails of the letter scheduler:
// the submission-time confirmation and the scheduled delivery itself. Every
// implementation makes a single best-effort attempt per call; retry policy
// belongs to the caller (the delivery poller retries on its next tick, the
// submission flow does not retry at all).
package notifier

import (
	"context"
)

// Message is one outbound email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Notifier delivers a single message. Implementations must not panic past
// the caller; every failure is reported as a returned error, and the caller
// is expected to bound the call with a context deadline.
type Notifier interface {
	Send(ctx context.Context, msg *Message) error
}

// Sender identity applied by each transport.
type Sender struct {
	Name  string
	Email string
}

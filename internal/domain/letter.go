package domain

import (
	"time"
)

// Letter is a message a user writes to their future self. It is created
// once by the submission flow, read repeatedly by the delivery poller until
// due, and mutated exactly once when the sent flag flips after a confirmed
// delivery. Letters are never deleted by this subsystem.
type Letter struct {
	ID         string    `json:"id" db:"id"`
	FirstName  string    `json:"first_name" db:"first_name"`
	LastName   string    `json:"last_name" db:"last_name"`
	Email      string    `json:"email" db:"email"`
	DeliveryAt time.Time `json:"delivery_at" db:"delivery_at"`
	Body       string    `json:"body" db:"letter_text"`
	Sent       bool      `json:"sent" db:"sent"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// IsDue reports whether the letter should be delivered as of the given
// instant. The predicate is deliberately "at or before now" rather than a
// narrow window so that a skipped or delayed poll tick can never strand a
// letter: once due, a letter stays due until it is marked sent.
func (l *Letter) IsDue(asOf time.Time) bool {
	return !l.Sent && !l.DeliveryAt.After(asOf)
}

package notifier

import (
	"fmt"
	"html"
	"strings"

	"github.com/futureme/futureme/internal/domain"
	"github.com/futureme/futureme/internal/pkg/timeconv"
)

// Subjects for the two message kinds.
const (
	SubjectConfirmation = "Your Letter is Scheduled!"
	SubjectDelivery     = "A Letter from Your Past Self"
)

// ConfirmationMessage builds the email sent right after a letter is saved.
// The delivery instant is rendered in the display zone; the stored value
// stays UTC.
func ConfirmationMessage(l *domain.Letter, zone *timeconv.Zone) *Message {
	when := zone.Format(l.DeliveryAt)
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Hi %s,</p>", html.EscapeString(l.FirstName))
	fmt.Fprintf(&b, "<p>Your letter to your future self is scheduled for <strong>%s</strong>.</p>", html.EscapeString(when))
	b.WriteString("<p>Here's a preview:</p>")
	fmt.Fprintf(&b, "<blockquote>%s</blockquote>", html.EscapeString(l.Body))
	b.WriteString("<p>We'll deliver it on the scheduled date and time.</p>")
	b.WriteString("<p>— FutureMe Team</p>")

	return &Message{
		To:       l.Email,
		Subject:  SubjectConfirmation,
		HTMLBody: b.String(),
		TextBody: fmt.Sprintf("Hi %s,\n\nYour letter to your future self is scheduled for %s.\n\n— FutureMe Team\n", l.FirstName, when),
	}
}

// DeliveryMessage builds the email delivered once the letter is due.
func DeliveryMessage(l *domain.Letter, zone *timeconv.Zone) *Message {
	when := zone.Format(l.DeliveryAt)
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Hi %s,</p>", html.EscapeString(l.FirstName))
	fmt.Fprintf(&b, "<p>You asked us to deliver this letter on <strong>%s</strong>.</p>", html.EscapeString(when))
	b.WriteString("<p>Here it is:</p>")
	fmt.Fprintf(&b, "<blockquote>%s</blockquote>", html.EscapeString(l.Body))
	b.WriteString("<p>— FutureMe Team</p>")

	return &Message{
		To:       l.Email,
		Subject:  SubjectDelivery,
		HTMLBody: b.String(),
		TextBody: fmt.Sprintf("Hi %s,\n\nYou asked us to deliver this letter on %s:\n\n%s\n\n— FutureMe Team\n", l.FirstName, when, l.Body),
	}
}

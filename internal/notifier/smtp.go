package notifier

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	appconfig "github.com/futureme/futureme/internal/config"
	"github.com/futureme/futureme/internal/pkg/logger"
)

// SMTPNotifier sends mail through an authenticated SMTP submission endpoint
// (the original deployment used Gmail on port 587 with STARTTLS).
type SMTPNotifier struct {
	addr     string
	username string
	password string
	timeout  time.Duration
	sender   Sender
}

// NewSMTP creates an SMTP-backed notifier.
func NewSMTP(cfg appconfig.SMTPConfig, sender Sender) *SMTPNotifier {
	return &SMTPNotifier{
		addr:     cfg.Addr(),
		username: cfg.Username,
		password: cfg.Password,
		timeout:  cfg.Timeout(),
		sender:   sender,
	}
}

// Send delivers a single message within the configured timeout. The SMTP
// dialog itself has no context plumbing, so the exchange runs in a
// goroutine and the call returns early when the context expires; the
// abandoned dialog times out on its own.
func (n *SMTPNotifier) Send(ctx context.Context, msg *Message) error {
	body, err := n.buildMessage(msg)
	if err != nil {
		return err
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	auth := sasl.NewPlainClient("", n.username, n.password)

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(n.addr, auth, n.sender.Email, []string{msg.To}, bytes.NewReader(body))
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		logger.Info("smtp message accepted", "recipient", msg.To, "subject", msg.Subject)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}

// buildMessage serializes an RFC 5322 message with an HTML body.
func (n *SMTPNotifier) buildMessage(msg *Message) ([]byte, error) {
	if msg.To == "" {
		return nil, fmt.Errorf("message has no recipient")
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s <%s>\r\n", mime.QEncoding.Encode("utf-8", n.sender.Name), n.sender.Email)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(msg.HTMLBody)
	buf.WriteString("\r\n")
	return buf.Bytes(), nil
}

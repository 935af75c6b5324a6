package letter

import (
	"context"
	"fmt"
	"strings"

	"github.com/futureme/futureme/internal/domain"
	"github.com/futureme/futureme/internal/notifier"
	"github.com/futureme/futureme/internal/pkg/logger"
	"github.com/futureme/futureme/internal/pkg/timeconv"
)

// SubmitInput is the inbound submission payload, field names matching the
// browser form.
type SubmitInput struct {
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Email            string `json:"email"`
	DeliveryDateTime string `json:"deliveryDateTime"`
	Letter           string `json:"letter"`
}

// SubmitResult reports the outcome of a submission. ConfirmationSent is
// false when the letter was persisted but the confirmation email failed —
// a partial success, not an error.
type SubmitResult struct {
	Letter           *domain.Letter
	ConfirmationSent bool
}

// Service coordinates letter submissions between the repository and the
// notifier. Safe for concurrent use if the repository is.
type Service struct {
	repo     Repository
	notifier notifier.Notifier
	display  *timeconv.Zone
}

// NewService creates a letter service. The display zone is used only to
// render the confirmation email.
func NewService(repo Repository, n notifier.Notifier, display *timeconv.Zone) *Service {
	if display == nil {
		display = timeconv.DefaultZone
	}
	return &Service{repo: repo, notifier: n, display: display}
}

// Submit validates a submission, persists the letter with its delivery
// instant normalized to UTC, and triggers the best-effort confirmation.
// Exactly one store write happens per successful call, and at most one
// outbound notification.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*SubmitResult, error) {
	l, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.Create(ctx, l)
	if err != nil {
		return nil, fmt.Errorf("persist letter: %w", err)
	}
	l.ID = id

	result := &SubmitResult{Letter: l}

	// Confirmation is best-effort: a send failure never rolls back the
	// persisted letter, it only downgrades the response message.
	if err := s.notifier.Send(ctx, notifier.ConfirmationMessage(l, s.display)); err != nil {
		logger.Warn("confirmation email failed", "letter_id", l.ID, "recipient", l.Email, "err", err.Error())
		return result, nil
	}
	result.ConfirmationSent = true
	return result, nil
}

func (s *Service) validate(in SubmitInput) (*domain.Letter, error) {
	firstName := strings.TrimSpace(in.FirstName)
	if firstName == "" {
		return nil, &ValidationError{Field: "firstName", Reason: "is required"}
	}
	lastName := strings.TrimSpace(in.LastName)
	if lastName == "" {
		return nil, &ValidationError{Field: "lastName", Reason: "is required"}
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, &ValidationError{Field: "email", Reason: "is required"}
	}
	if !validEmail(email) {
		return nil, &ValidationError{Field: "email", Reason: "is not a valid address"}
	}
	body := strings.TrimSpace(in.Letter)
	if body == "" {
		return nil, &ValidationError{Field: "letter", Reason: "is required"}
	}

	deliveryAt, err := timeconv.ParseDeliveryAt(in.DeliveryDateTime)
	if err != nil {
		return nil, &ValidationError{Field: "deliveryDateTime", Reason: "must be an RFC3339 timestamp, e.g. 2030-01-01T00:00:00Z"}
	}

	return &domain.Letter{
		FirstName:  firstName,
		LastName:   lastName,
		Email:      email,
		DeliveryAt: deliveryAt,
		Body:       body,
	}, nil
}

func validEmail(email string) bool {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || len(local) > 64 {
		return false
	}
	if domain == "" || strings.Contains(domain, "@") || !strings.Contains(domain, ".") {
		return false
	}
	return true
}

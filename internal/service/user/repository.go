package user

import (
	"context"

	"github.com/futureme/futureme/internal/domain"
)

// Repository defines the data access contract for user accounts.
type Repository interface {
	// Create inserts a new account and returns its assigned id. It returns
	// ErrEmailExists when the email is already registered.
	Create(ctx context.Context, u *domain.User) (string, error)

	// FindByEmail looks an account up by its lowercased email. It returns
	// (nil, nil) when no account exists.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}

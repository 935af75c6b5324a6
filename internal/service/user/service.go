package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/futureme/futureme/internal/domain"
	"github.com/futureme/futureme/internal/pkg/logger"
)

// bcryptCost stays at the library default; raise only with a measured
// latency budget for signup.
const bcryptCost = bcrypt.DefaultCost

const minPasswordLen = 8

// Credentials is the inbound payload for both signup and login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Service implements account signup and login on top of a Repository.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Signup registers a new account. The password is bcrypt-hashed before it
// reaches the repository; the plaintext is never persisted or logged.
func (s *Service) Signup(ctx context.Context, creds Credentials) (*domain.User, error) {
	email, password, err := normalize(creds)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{Email: email, PasswordHash: string(hash)}
	id, err := s.repo.Create(ctx, u)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("persist user: %w", err)
	}
	u.ID = id

	logger.Info("user registered", "user_id", u.ID, "email", u.Email)
	return u, nil
}

// Login verifies credentials. Unknown email and wrong password both yield
// ErrInvalidCredentials; a bcrypt compare runs in either case so the two
// paths are not trivially distinguishable by timing.
func (s *Service) Login(ctx context.Context, creds Credentials) (*domain.User, error) {
	email, password, err := normalize(creds)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}

	hash := dummyHash
	if u != nil {
		hash = u.PasswordHash
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// dummyHash is a bcrypt hash of an unguessable throwaway value, compared
// against when the email is unknown.
var dummyHash = func() string {
	h, err := bcrypt.GenerateFromPassword([]byte("futureme-dummy-credential"), bcryptCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}()

func normalize(creds Credentials) (email, password string, err error) {
	email = strings.ToLower(strings.TrimSpace(creds.Email))
	if email == "" {
		return "", "", &domain.ValidationError{Field: "email", Reason: "is required"}
	}
	if !strings.Contains(email, "@") {
		return "", "", &domain.ValidationError{Field: "email", Reason: "is not a valid address"}
	}
	password = creds.Password
	if password == "" {
		return "", "", &domain.ValidationError{Field: "password", Reason: "is required"}
	}
	if len(password) < minPasswordLen {
		return "", "", &domain.ValidationError{Field: "password", Reason: fmt.Sprintf("must be at least %d characters", minPasswordLen)}
	}
	return email, password, nil
}

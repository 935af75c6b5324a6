package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/futureme/futureme/internal/domain"
	"github.com/futureme/futureme/internal/pkg/logger"
	"github.com/futureme/futureme/internal/service/letter"
	"github.com/futureme/futureme/internal/service/user"
)

// Handlers contains all HTTP handlers. Dependencies are injected so tests
// can swap in fakes.
type Handlers struct {
	letters *letter.Service
	users   *user.Service
	health  *HealthChecker
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(letters *letter.Service, users *user.Service, health *HealthChecker) *Handlers {
	return &Handlers{
		letters: letters,
		users:   users,
		health:  health,
	}
}

// HandleSendLetter schedules a letter for future delivery.
//
//	POST /send-letter
func (h *Handlers) HandleSendLetter(w http.ResponseWriter, r *http.Request) {
	var in letter.SubmitInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := h.letters.Submit(r.Context(), in)
	if err != nil {
		if domain.IsValidation(err) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("letter submission failed", "err", err.Error())
		respondError(w, http.StatusInternalServerError, "Failed to save letter")
		return
	}

	message := "Letter scheduled successfully!"
	if !res.ConfirmationSent {
		message = "Letter saved, but confirmation email failed."
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":          message,
		"id":               res.Letter.ID,
		"deliveryDateTime": res.Letter.DeliveryAt,
	})
}

// HandleSignup registers a new account.
//
//	POST /signup
func (h *Handlers) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var creds user.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	u, err := h.users.Signup(r.Context(), creds)
	if err != nil {
		switch {
		case domain.IsValidation(err):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, user.ErrEmailExists):
			respondError(w, http.StatusConflict, "Email exists")
		default:
			logger.Error("signup failed", "err", err.Error())
			respondError(w, http.StatusInternalServerError, "Failed to create account")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Signup successful",
		"id":      u.ID,
	})
}

// HandleLogin verifies credentials.
//
//	POST /login
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var creds user.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	u, err := h.users.Login(r.Context(), creds)
	if err != nil {
		switch {
		case domain.IsValidation(err):
			respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, user.ErrInvalidCredentials):
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
		default:
			logger.Error("login failed", "err", err.Error())
			respondError(w, http.StatusInternalServerError, "Failed to log in")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"email":   u.Email,
	})
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

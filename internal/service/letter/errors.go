package letter

import (
	"errors"

	"github.com/futureme/futureme/internal/domain"
)

// Sentinel errors for the letter service layer.
var (
	ErrNotFound = errors.New("letter not found")
)

// ValidationError is re-exported from domain so callers of this package
// rarely need a second import.
type ValidationError = domain.ValidationError

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	return domain.IsValidation(err)
}

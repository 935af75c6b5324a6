package logger

import "strings"

// RedactEmail masks a recipient address for safe logging.
// "ann.lee@example.com" → "an***@example.com"
// Local parts of two characters or fewer are fully masked.
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "***@***"
	}
	if len(local) > 2 {
		return local[:2] + "***@" + domain
	}
	return "***@" + domain
}

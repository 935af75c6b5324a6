// Package letter implements the scheduled-letter business logic: validating
// and normalizing submissions, writing through to the store, and triggering
// the best-effort confirmation email. The delivery side lives in
// internal/worker; both share the Repository contract defined here.
package letter

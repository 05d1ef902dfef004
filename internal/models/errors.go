package models

import "errors"

// Expected engine outcomes. Handlers map these to 4xx responses via pkg/response;
// anything else is treated as a storage failure and becomes a 500.
var (
	// ErrNotFound means a referenced entity is absent.
	ErrNotFound = errors.New("not found")
	// ErrCapacityExceeded means the event has no remaining capacity.
	ErrCapacityExceeded = errors.New("event capacity exceeded")
	// ErrAlreadyRegistered guards the one-registration-per-user invariant.
	ErrAlreadyRegistered = errors.New("already registered for this event")
	// ErrAlreadySubmitted guards the one-attempt-per-user invariant.
	ErrAlreadySubmitted = errors.New("quiz already submitted")
	// ErrNotEligible means the user fails the event's eligibility restrictions.
	ErrNotEligible = errors.New("not eligible for this event")
	// ErrInvalidState means a state-machine violation (e.g. approving a non-pending registration).
	ErrInvalidState = errors.New("invalid state for this operation")
	// ErrAlreadyCheckedIn means the check-in token was already used.
	ErrAlreadyCheckedIn = errors.New("already checked in")
	// ErrQuizNotActive means the current time is outside the quiz window.
	ErrQuizNotActive = errors.New("quiz is not active")
	// ErrInvalidInput means malformed input (e.g. non-positive penalty).
	ErrInvalidInput = errors.New("invalid input")
)

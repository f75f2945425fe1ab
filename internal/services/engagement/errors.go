package engagement

import "errors"

// Sentinel errors returned by the engagement engine. Handlers map these
// to HTTP status codes; the engine never retries on its own.
var (
	// ErrNotFound is returned when a referenced definition or record
	// does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyStarted is returned when starting a challenge that the
	// user already has a progress record for.
	ErrAlreadyStarted = errors.New("challenge already started")

	// ErrNotStarted is returned when advancing a challenge the user
	// never started.
	ErrNotStarted = errors.New("challenge not started")

	// ErrChallengeNotLive is returned when starting a challenge whose
	// active window does not contain the current time.
	ErrChallengeNotLive = errors.New("challenge is not currently active")

	// ErrNotClaimable is returned when claiming a milestone reward that
	// is missing, incomplete, or already claimed.
	ErrNotClaimable = errors.New("milestone reward not claimable")

	// ErrInvalidActivity is returned for unknown activity types or
	// non-positive activity values.
	ErrInvalidActivity = errors.New("invalid activity event")
)

package mirror

import "errors"

var (
	// ErrPermanent marks a push the remote store rejected outright.
	// Retrying the same document will not succeed.
	ErrPermanent = errors.New("mirror rejected document")

	// ErrRelayDisabled is returned when a push is attempted against a
	// relay whose configuration disables it.
	ErrRelayDisabled = errors.New("mirror relay is disabled")

	errEmptyBaseURL    = errors.New("mirror base_url is required when enabled")
	errEmptyCollection = errors.New("mirror collection is required when enabled")
)

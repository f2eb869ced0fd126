package lutron

import "errors"

var (
	// ErrLoginFailed means the repeater rejected the integration credentials.
	ErrLoginFailed = errors.New("lutron: login failed")

	// ErrNotConnected is returned when sending without an active session.
	ErrNotConnected = errors.New("lutron: not connected")

	// ErrBadDatabase means the integration database could not be parsed.
	ErrBadDatabase = errors.New("lutron: invalid integration database")
)

// SPDX-License-Identifier: MIT

package application

import "errors"

var (
	// ErrNoAdapters is returned when New runs with an empty adapter registry.
	ErrNoAdapters = errors.New("no infrastructure adapters registered")

	// ErrAlreadyStarted is returned when Run is called twice.
	ErrAlreadyStarted = errors.New("application already started")

	// ErrNotStarted is returned when shutting down an application that never ran.
	ErrNotStarted = errors.New("application not started")

	// ErrUnknownStoreBackend is returned for an unrecognised journal backend.
	ErrUnknownStoreBackend = errors.New("unknown event store backend")
)

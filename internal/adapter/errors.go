package adapter

import "errors"

var (
	// ErrNotConnected is returned when the authority cannot be reached.
	// It is not an error to query callers: the engine answers from the
	// offline vault instead.
	ErrNotConnected = errors.New("marketplace authority not reachable")

	// ErrUnexpectedStatus is returned when the authority answers with a
	// status code the client does not understand.
	ErrUnexpectedStatus = errors.New("unexpected authority response status")
)

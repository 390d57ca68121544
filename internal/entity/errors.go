package entity

import (
	"errors"
	"fmt"
)

var (
	// Session errors
	ErrSessionClosed      = errors.New("edit session is closed")
	ErrEmptyImage         = errors.New("image is empty")
	ErrInvalidDisplaySize = errors.New("display width must be positive")
	ErrInvalidFactor      = errors.New("scale factor must be a positive finite number")

	// Selection errors
	ErrNoSelection        = errors.New("no selection in progress")
	ErrSelectionTooSmall  = errors.New("polygon selection needs at least 3 points")
	ErrEmptySelection     = errors.New("selection has no area")
	ErrTransitionInFlight = errors.New("previous perspective transition is still in flight")

	// Processing errors
	ErrNotReady          = errors.New("no processed image is available yet")
	ErrUnknownTemplate   = errors.New("unknown template")
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrFileTooLarge      = errors.New("file size exceeds maximum limit")
)

// SelectionError reports a selection that was discarded on close. It is not a hard
// failure: the operation state is left as it was.
type SelectionError struct {
	Points int
	Err    error
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("selection discarded (%d points): %v", e.Points, e.Err)
}

func (e *SelectionError) Unwrap() error { return e.Err }

// ProcessingError carries the message the remote processor reported.
type ProcessingError struct {
	Message string
}

func (e *ProcessingError) Error() string {
	return "processing failed: " + e.Message
}

// TransportError wraps a network or transport failure talking to the processor.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports a response body or image payload that could not be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// NotReadyError is returned when an export is requested before any processing round trip
// has completed.
type NotReadyError struct {
	SessionID string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("session %s: %v", e.SessionID, ErrNotReady)
}

func (e *NotReadyError) Unwrap() error { return ErrNotReady }

// IsProcessorFailure reports whether err belongs to the processor-facing failures that are
// surfaced to the user but never end the session.
func IsProcessorFailure(err error) bool {
	var (
		pe *ProcessingError
		te *TransportError
		de *DecodeError
	)
	return errors.As(err, &pe) || errors.As(err, &te) || errors.As(err, &de)
}

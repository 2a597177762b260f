package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration = errors.New("configuration error")

	ErrCredentialNotFound = errors.New("credential not found")
	ErrAuthentication     = errors.New("authentication failed")

	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session is expired")

	ErrStateMismatch = errors.New("oauth state mismatch")

	ErrInvalidLocation = errors.New("city and country are required")
)

// Identity provider rejected the token request or answered with something unusable
type AcquisitionError struct {
	// HTTP status of the token endpoint response, 0 if no response was received
	StatusCode int

	// Provider error code or a short reason
	Reason string

	Err error
}

func (e *AcquisitionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("token acquisition failed: status %d: %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("token acquisition failed: %s", e.Reason)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// Target platform rejected the submission
type PublishError struct {
	StatusCode int
	Reason     string
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish failed: %s", e.Reason)
}

// Interactive authorization handshake failed at Step
type CallbackError struct {
	Step   string
	Reason string
	Err    error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("oauth callback failed at %s: %s", e.Step, e.Reason)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

// Document could not be rendered in full. Field names the first missing value
type FormatError struct {
	Field string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed document: %s is missing", e.Field)
}

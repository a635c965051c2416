package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPhoneNumber indicates a phone number that cannot be
	// normalized to a dialable form.
	ErrInvalidPhoneNumber = errors.New("invalid phone number format")
	// ErrMessageTooLong indicates an SMS body over the provider limit.
	ErrMessageTooLong = errors.New("message exceeds 1600 character SMS limit")
	// ErrMissingParameters indicates a request missing required parameters.
	ErrMissingParameters = errors.New("missing required parameters")
)

// ProviderError carries a downstream API failure back to the HTTP caller.
type ProviderError struct {
	Provider   string
	StatusCode int
	Detail     string
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s API error: %s", e.Provider, e.Detail)
}

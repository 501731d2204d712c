package interfaces

import "errors"

// Error kinds shared by provider-facing components. Clients wrap their
// transport errors with one of these so callers can branch with errors.Is
// without knowing which provider is configured.
var (
	// ErrAuthentication marks a rejected credential. Not retryable without a
	// new key.
	ErrAuthentication = errors.New("provider authentication failed")

	// ErrProvider marks a transport or quota failure. The whole index or
	// query operation may be retried.
	ErrProvider = errors.New("provider request failed")

	// ErrSynthesis marks a failure while generating the final answer.
	ErrSynthesis = errors.New("answer synthesis failed")
)

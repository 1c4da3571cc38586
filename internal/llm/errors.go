package llm

import "errors"

// Common errors returned by the llm package
var (
	// ErrProviderFailure is returned when a provider call fails for any
	// reason, including transport errors and empty responses.
	ErrProviderFailure = errors.New("provider call failed")

	// ErrNoCredentials is returned on the first call to a provider whose
	// API key was never configured. Construction never fails on missing
	// credentials; only real calls do.
	ErrNoCredentials = errors.New("no credentials configured for provider")

	// ErrUnknownProvider is returned when an unrecognized provider is
	// selected.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrEmptyResponse is returned when a provider call succeeds but
	// produces no usable text.
	ErrEmptyResponse = errors.New("empty response from provider")

	// ErrNoMessages is returned when Generate is called with an empty
	// message list.
	ErrNoMessages = errors.New("no messages to send")
)

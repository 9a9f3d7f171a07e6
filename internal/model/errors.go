package model

import "fmt"

// CredentialRequiredMessage is reported when a custom provider is selected
// without an API key.
const CredentialRequiredMessage = "Custom API key required for this provider."

// ResolutionError is returned when a repository URL cannot be turned into an
// owner/name pair.
type ResolutionError struct {
	URL    string
	Reason string
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve repository url %q: %s", e.URL, e.Reason)
}

// Stage reports the pipeline stage that produced the error.
func (e *ResolutionError) Stage() Stage { return StageResolving }

// NoMatchError is returned when the tree is empty or no candidate file
// survived filtering and fetching.
type NoMatchError struct {
	Repository RepositoryRef
	Outcome    TreeOutcome
}

// Error implements the error interface.
func (e *NoMatchError) Error() string {
	return fmt.Sprintf("no matching source files in %s (tree %s)", e.Repository, e.Outcome)
}

// Stage reports the pipeline stage that produced the error.
func (e *NoMatchError) Stage() Stage { return StageAggregating }

// CredentialError is returned when the selected provider needs an API key
// that was not supplied.
type CredentialError struct {
	Provider string
	Message  string
}

// Error implements the error interface.
func (e *CredentialError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return CredentialRequiredMessage
}

// Stage reports the pipeline stage that produced the error.
func (e *CredentialError) Stage() Stage { return StageDispatching }

// ProviderError is returned when a provider call fails at the transport or
// API level. Message is the provider's own error text when it sent one.
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Stage reports the pipeline stage that produced the error.
func (e *ProviderError) Stage() Stage { return StageDispatching }

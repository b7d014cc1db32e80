package ai

import "errors"

var (
	// ErrMissingAPIKey is returned by provider constructors when no credential is supplied.
	ErrMissingAPIKey = errors.New("ai: missing api key")

	// ErrEmptyResponse is returned when the provider answers without any text.
	ErrEmptyResponse = errors.New("ai: empty response")

	// ErrNoJSON is returned by the extractor when no strategy yields a value of the requested shape.
	ErrNoJSON = errors.New("ai: no valid JSON found in response")
)

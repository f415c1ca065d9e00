package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrUnauthorized indicates the provider rejected the credential (HTTP 401/403).
var ErrUnauthorized = errors.New("ai credential rejected")

// ErrEmptyResponse is returned when the provider answered without any choice or candidate.
var ErrEmptyResponse = errors.New("ai returned no content")

package search

import "fmt"

// QueryTooLongError reports user input exceeding the configured maximum
// query length. Callers map it to a client-error response.
type QueryTooLongError struct {
	MaxLength int
}

func (e *QueryTooLongError) Error() string {
	return fmt.Sprintf("search query exceeds maximum length of %d characters", e.MaxLength)
}

// UnknownEntityError reports a search against an entity key that was never
// registered. This is a programming error, not user input: it is surfaced
// immediately and never retried.
type UnknownEntityError struct {
	Entity EntityKey
}

func (e *UnknownEntityError) Error() string {
	return fmt.Sprintf("search definition not found for entity %q", e.Entity)
}

// UnknownProviderError reports a misconfigured search provider name.
type UnknownProviderError struct {
	Name string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown search provider %q", e.Name)
}

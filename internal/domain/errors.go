package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnknownAttribute is returned when an attribute name is not one of the six features
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrUnknownCategory matches any *UnknownCategoryError via errors.Is
	ErrUnknownCategory = errors.New("value not in trained vocabulary")

	// ErrInvalidFeatureVector is returned when the estimator receives a malformed vector
	ErrInvalidFeatureVector = errors.New("invalid feature vector")

	// ErrSearchProvider matches any *SearchProviderError via errors.Is
	ErrSearchProvider = errors.New("search provider request failed")

	// ErrStoreUnavailable matches any *StoreUnavailableError via errors.Is
	ErrStoreUnavailable = errors.New("historical store unavailable")

	// ErrSearchDisabled is returned when no search API key is configured
	ErrSearchDisabled = errors.New("marketplace search disabled")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
)

// UnknownCategoryError reports an attribute value absent from the trained vocabulary.
type UnknownCategoryError struct {
	Attribute string
	Value     string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: not in trained vocabulary", e.Value, e.Attribute)
}

func (e *UnknownCategoryError) Is(target error) bool {
	return target == ErrUnknownCategory
}

// SearchProviderError wraps a network, status or decoding failure for one domain.
type SearchProviderError struct {
	Domain     string
	StatusCode int
	Err        error
}

func (e *SearchProviderError) Error() string {
	target := e.Domain
	if target == "" {
		target = "unrestricted"
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("search %s: status %d: %v", target, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("search %s: %v", target, e.Err)
}

func (e *SearchProviderError) Unwrap() error { return e.Err }

func (e *SearchProviderError) Is(target error) bool {
	return target == ErrSearchProvider
}

// StoreUnavailableError wraps a failure to reach the historical store.
type StoreUnavailableError struct {
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("historical store unavailable: %v", e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

func (e *StoreUnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

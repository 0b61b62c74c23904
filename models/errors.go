package models

import (
	"errors"
	"fmt"
)

var (
	// ErrDataIntegrity indicates a result is missing its 1:1 Call or RaceMeta row.
	ErrDataIntegrity = errors.New("data integrity")

	// ErrLookupMismatch indicates a race matched zero or several reference rows.
	ErrLookupMismatch = errors.New("lookup mismatch")

	// ErrUpstreamFeed indicates the reload step produced no usable result set.
	ErrUpstreamFeed = errors.New("upstream feed")
)

// DataIntegrityError names the result and the missing association.
type DataIntegrityError struct {
	ResultID string
	Missing  string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity: result %s has no %s row", e.ResultID, e.Missing)
}

// Unwrap lets errors.Is match ErrDataIntegrity.
func (e *DataIntegrityError) Unwrap() error { return ErrDataIntegrity }

// LookupMismatchError reports how many reference rows matched a key.
type LookupMismatchError struct {
	Sheet   string
	Key     string
	Matches int
}

func (e *LookupMismatchError) Error() string {
	return fmt.Sprintf("lookup mismatch: sheet %s key %q matched %d rows, want 1", e.Sheet, e.Key, e.Matches)
}

// Unwrap lets errors.Is match ErrLookupMismatch.
func (e *LookupMismatchError) Unwrap() error { return ErrLookupMismatch }

// UpstreamFeedError wraps the reason a reload produced nothing usable.
type UpstreamFeedError struct {
	Source string
	Err    error
}

func (e *UpstreamFeedError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("upstream feed: %s produced no results", e.Source)
	}
	return fmt.Sprintf("upstream feed: %s: %v", e.Source, e.Err)
}

// Is matches ErrUpstreamFeed; Unwrap exposes the cause.
func (e *UpstreamFeedError) Is(target error) bool { return target == ErrUpstreamFeed }

func (e *UpstreamFeedError) Unwrap() error { return e.Err }

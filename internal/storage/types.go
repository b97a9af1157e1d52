package storage

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound indicates that the requested record does not exist. It is a
	// legitimate, expected outcome — distinct from a store failure — and is
	// never logged as an error.
	ErrNotFound = errors.New("record not found")

	// ErrNotConfigured indicates that no backing store was configured. The
	// resolution core logs this once and then behaves as if the store were
	// empty.
	ErrNotConfigured = errors.New("store not configured")

	// ErrAccessBlocked indicates that the backing store explicitly denied
	// read access. The backoff guard converts detected access-denial errors
	// into this sentinel and suppresses further attempts for a cooldown
	// window.
	ErrAccessBlocked = errors.New("store read access blocked")
)

// accessBlockedMarkers are message fragments that identify an administrative
// read block, as opposed to an ordinary query failure. The backing store
// enters a read-suspended state during bulk reloads; hammering it with
// retries during that window is wasteful for every page view.
var accessBlockedMarkers = []string{
	"permission denied",
	"access blocked",
	"read suspended",
	"not authorized",
}

// IsAccessBlocked reports whether err represents an administratively blocked
// read. It matches both the ErrAccessBlocked sentinel and driver errors whose
// message carries a known marker.
func IsAccessBlocked(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAccessBlocked) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range accessBlockedMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// schemaMismatchMarkers are message fragments produced when a query shape is
// unsupported by the current store version: a missing full-text column on
// PostgreSQL, an absent FTS5 module on SQLite, or a query-syntax rejection by
// either index.
var schemaMismatchMarkers = []string{
	"undefined column",
	"undefined table",
	"undefined function",
	"no such column",
	"no such table",
	"no such module",
	"fts5: syntax error",
	"syntax error in tsquery",
}

// IsSchemaMismatch reports whether err represents a schema-level query
// failure, i.e. one worth retrying with the documented fallback query shape.
// Other failures (network, permissions, cancellation) must not trigger the
// fallback.
func IsSchemaMismatch(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range schemaMismatchMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// QueryStrategy tags which query shape produced a result during
// indexed/fallback negotiation.
type QueryStrategy int

const (
	// StrategyIndexed means the modern, index-backed query shape succeeded.
	StrategyIndexed QueryStrategy = iota

	// StrategyFallback means the indexed shape failed at the schema level and
	// the legacy substring shape was used instead.
	StrategyFallback

	// StrategyFailed means neither shape produced a result.
	StrategyFailed
)

// String returns the strategy name for logs.
func (s QueryStrategy) String() string {
	switch s {
	case StrategyIndexed:
		return "indexed"
	case StrategyFallback:
		return "fallback"
	default:
		return "failed"
	}
}

// Negotiate runs the indexed query form first and retries once with the
// fallback form when — and only when — the store reports a schema-level
// failure. The negotiation is modeled as a plain function returning a tagged
// strategy rather than exception-driven control flow, so it is unit-testable
// without a real store.
func Negotiate[T any](indexed, fallback func() (T, error)) (T, QueryStrategy, error) {
	result, err := indexed()
	if err == nil {
		return result, StrategyIndexed, nil
	}
	if !IsSchemaMismatch(err) {
		var zero T
		return zero, StrategyFailed, err
	}

	result, err = fallback()
	if err != nil {
		var zero T
		return zero, StrategyFailed, err
	}
	return result, StrategyFallback, nil
}

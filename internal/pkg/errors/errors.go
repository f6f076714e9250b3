// Package errors holds the sentinel errors used across the entity store,
// session runtime and protocol layers. Each maps to a wire error kind from
// spec.md §7 via Kind.
package errors

import "errors"

var (
	ErrNotFound         = errors.New("record not found")
	ErrBadFrame         = errors.New("bad_frame")
	ErrUnknownType      = errors.New("unknown_type")
	ErrMissingField     = errors.New("missing_field")
	ErrNoSuchSession    = errors.New("no_such_session")
	ErrNotJoined        = errors.New("not_joined")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrAlreadyHasHost   = errors.New("already_has_host")
	ErrStaleQuestion    = errors.New("stale_question")
	ErrAlreadyAnswered  = errors.New("already_answered")
	ErrPaused           = errors.New("paused")
	ErrRateLimited      = errors.New("rate_limited")
	ErrGenerationFailed = errors.New("generation_failed")
	ErrStoreUnavailable = errors.New("store_unavailable")
	ErrInternal         = errors.New("internal_error")
	ErrCodeExhausted    = errors.New("code_exhausted")
	ErrInvalidQuestions = errors.New("invalid question set")
)

// Kind maps a sentinel error to its wire-protocol error kind string
// (spec.md §7). Errors that don't match any sentinel are reported as
// internal_error.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrBadFrame):
		return "bad_frame"
	case errors.Is(err, ErrUnknownType):
		return "unknown_type"
	case errors.Is(err, ErrMissingField):
		return "missing_field"
	case errors.Is(err, ErrNoSuchSession):
		return "no_such_session"
	case errors.Is(err, ErrNotJoined):
		return "not_joined"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrAlreadyHasHost):
		return "already_has_host"
	case errors.Is(err, ErrStaleQuestion):
		return "stale_question"
	case errors.Is(err, ErrAlreadyAnswered):
		return "already_answered"
	case errors.Is(err, ErrPaused):
		return "paused"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrGenerationFailed):
		return "generation_failed"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrCodeExhausted):
		return "store_unavailable"
	default:
		return "internal_error"
	}
}

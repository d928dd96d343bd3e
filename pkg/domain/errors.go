package domain

import "errors"

var (
	// ErrInvariantViolation means the persisted cursor is ahead of the
	// caller's current date. Only external corruption of the state blob can
	// produce this.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrAuthRefreshFailed means the identity provider rejected the
	// credential exchange. The previous state is left untouched so a later
	// retry is safe.
	ErrAuthRefreshFailed = errors.New("auth refresh failed")

	// ErrMalformedResponse means a source response did not match the
	// provider's documented shape. The cursor is not advanced.
	ErrMalformedResponse = errors.New("malformed response")
)

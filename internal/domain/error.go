package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUserNotFound    = errors.New("user not found")

	// Redemption taxonomy, in the order the redeem flow checks them.
	ErrEmptyCode       = errors.New("referral code is empty")
	ErrUnauthenticated = errors.New("caller is not authenticated")
	ErrInvalidCode     = errors.New("referral code is invalid or inactive")
	ErrCodeExhausted   = errors.New("referral code has reached its usage limit")
	ErrAlreadyRedeemed = errors.New("referral code already redeemed by this user")

	// Storage classification
	ErrStorage            = errors.New("storage failure")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid executor context")
)

// IsValidationErr reports whether err is a caller mistake that is safe to
// retry after correcting input.
func IsValidationErr(err error) bool {
	return errors.Is(err, ErrEmptyCode) || errors.Is(err, ErrInvalidArgument)
}

// IsBusinessRejection reports whether err is terminal for the given
// (code, user) pair and must not be retried automatically.
func IsBusinessRejection(err error) bool {
	return errors.Is(err, ErrInvalidCode) ||
		errors.Is(err, ErrCodeExhausted) ||
		errors.Is(err, ErrAlreadyRedeemed)
}

// IsStorageErr reports whether err is a transient data-store failure the
// caller may retry with backoff.
func IsStorageErr(err error) bool {
	return errors.Is(err, ErrStorage) ||
		errors.Is(err, ErrReadDatabaseRow) ||
		errors.Is(err, ErrInvalidExecContext)
}

package core

import "errors"

var (
	// ErrInvalidInput is returned when a request field is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrChallengeInvalid is returned when a nonce is unknown, expired, or
	// already consumed. Callers cannot distinguish the three cases.
	ErrChallengeInvalid = errors.New("invalid or expired challenge")

	// ErrWalletMismatch is returned when the wallet in a verification request
	// does not match the wallet the challenge was issued for.
	ErrWalletMismatch = errors.New("wallet does not match challenge")

	// ErrSignatureInvalid is returned when cryptographic verification fails.
	ErrSignatureInvalid = errors.New("invalid signature")

	// ErrNotFound is returned when an account lookup finds nothing.
	ErrNotFound = errors.New("account not found")

	// ErrEmailUnverified is returned when an API token is requested for an
	// account whose email has not been verified.
	ErrEmailUnverified = errors.New("email not verified")

	// ErrInvalidToken is returned when a session or API token fails parsing
	// or signature checks.
	ErrInvalidToken = errors.New("invalid token")

	// ErrStoreFailed is returned when a store operation fails for reasons
	// other than the record's state.
	ErrStoreFailed = errors.New("store operation failed")
)

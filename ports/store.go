package ports

import (
	"context"

	"github.com/playsolmates/warden/core"
)

// NonceStore persists outstanding authentication challenges.
type NonceStore interface {
	// Put stores a new challenge keyed by its nonce. The nonce must be
	// globally unique; storing a duplicate fails.
	Put(ctx context.Context, challenge *core.Challenge) error

	// Consume atomically checks that the nonce exists, is unexpired, and is
	// unused, marks it used, and returns the stored challenge. Any other
	// state fails with core.ErrChallengeInvalid. Only one concurrent caller
	// may succeed for a given nonce.
	Consume(ctx context.Context, nonce string) (*core.Challenge, error)
}

// AccountStore reads and lazily creates minimal account records.
type AccountStore interface {
	// FindOrCreateByWallet returns the account for the wallet, creating the
	// given record if none exists. Idempotent on wallet address: concurrent
	// callers all observe the same stored account.
	FindOrCreateByWallet(ctx context.Context, wallet string, fresh *core.Account) (*core.Account, error)

	// FindByWallet returns the account for the wallet, or core.ErrNotFound.
	FindByWallet(ctx context.Context, wallet string) (*core.Account, error)

	// FindByEmail returns the account for the case-normalized email, or
	// core.ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*core.Account, error)

	// TouchLogin updates the account's last-login timestamp.
	TouchLogin(ctx context.Context, wallet string) error
}

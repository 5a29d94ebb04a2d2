package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/playsolmates/warden/core"
)

// MemoryStore is an in-memory implementation of the store interfaces, used
// in tests and single-process development setups.
type MemoryStore struct {
	mu       sync.Mutex
	nonces   map[string]*core.Challenge
	accounts map[string]*core.Account // keyed by wallet
	emails   map[string]string        // lowercased email -> wallet
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nonces:   make(map[string]*core.Challenge),
		accounts: make(map[string]*core.Account),
		emails:   make(map[string]string),
	}
}

// Put stores a new challenge, rejecting duplicate nonces.
func (s *MemoryStore) Put(ctx context.Context, challenge *core.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nonces[challenge.Nonce]; exists {
		return fmt.Errorf("%w: duplicate nonce", core.ErrStoreFailed)
	}

	cp := *challenge
	s.nonces[challenge.Nonce] = &cp

	return nil
}

// Consume marks the nonce used under the store lock, so only one caller can
// ever observe it unused.
func (s *MemoryStore) Consume(ctx context.Context, nonce string) (*core.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, exists := s.nonces[nonce]
	if !exists || challenge.Used || challenge.Expired(time.Now()) {
		return nil, core.ErrChallengeInvalid
	}

	challenge.Used = true
	cp := *challenge

	return &cp, nil
}

// FindOrCreateByWallet returns the stored account or inserts fresh.
func (s *MemoryStore) FindOrCreateByWallet(ctx context.Context, wallet string, fresh *core.Account) (*core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.accounts[wallet]; ok {
		cp := *existing
		return &cp, nil
	}

	cp := *fresh
	s.accounts[wallet] = &cp
	if cp.Email != "" {
		s.emails[strings.ToLower(cp.Email)] = wallet
	}

	out := cp
	return &out, nil
}

// FindByWallet returns the account for the wallet.
func (s *MemoryStore) FindByWallet(ctx context.Context, wallet string) (*core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[wallet]
	if !ok {
		return nil, core.ErrNotFound
	}

	cp := *account
	return &cp, nil
}

// FindByEmail returns the account indexed under the lowercased email.
func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (*core.Account, error) {
	s.mu.Lock()
	wallet, ok := s.emails[strings.ToLower(email)]
	s.mu.Unlock()

	if !ok {
		return nil, core.ErrNotFound
	}

	return s.FindByWallet(ctx, wallet)
}

// TouchLogin updates the account's last-login timestamp.
func (s *MemoryStore) TouchLogin(ctx context.Context, wallet string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[wallet]
	if !ok {
		return core.ErrNotFound
	}

	account.LastLoginAt = time.Now().UTC()
	return nil
}

// SeedAccount inserts an account directly, for tests.
func (s *MemoryStore) SeedAccount(account *core.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *account
	s.accounts[cp.Wallet] = &cp
	if cp.Email != "" {
		s.emails[strings.ToLower(cp.Email)] = cp.Wallet
	}
}

package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/playsolmates/warden/core"
	"github.com/playsolmates/warden/internal/solana"
	"github.com/playsolmates/warden/ports"
)

const (
	// ChallengeTTL is how long an issued nonce can be used.
	ChallengeTTL = 5 * time.Minute

	// challengeFormat is the exact text wallets sign. It is part of the wire
	// contract with wallet-side clients; changing it breaks signing
	// compatibility.
	challengeFormat = "PlaySolMates Authentication\n\nDomain: %s\nWallet: %s\nNonce: %s\nTimestamp: %s\n\nSign this message to verify wallet ownership."

	friendCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	friendCodeLength   = 8
)

// Challenge is the response to a nonce request.
type Challenge struct {
	Nonce     string `json:"nonce"`
	Message   string `json:"messageToSign"`
	ExpiresIn int    `json:"expiresIn"` // seconds
}

// AuthService implements the wallet challenge-response protocol and
// session/API token issuance.
type AuthService struct {
	nonces   ports.NonceStore
	accounts ports.AccountStore
	tokens   ports.Tokenizer
	eventPub ports.EventPublisher
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	nonces ports.NonceStore,
	accounts ports.AccountStore,
	tokens ports.Tokenizer,
	eventPub ports.EventPublisher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		nonces:   nonces,
		accounts: accounts,
		tokens:   tokens,
		eventPub: eventPub,
		logger:   logger,
	}
}

// CreateChallenge issues a fresh single-use challenge for the wallet. The
// domain is the host the client is authenticating against.
func (s *AuthService) CreateChallenge(ctx context.Context, wallet, domain string) (*Challenge, error) {
	walletB58, _, err := solana.NormalizeWallet(wallet)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}

	now := time.Now().UTC()
	nonce := uuid.New().String()
	message := fmt.Sprintf(challengeFormat, domain, walletB58, nonce, now.Format(time.RFC3339))

	challenge := &core.Challenge{
		Nonce:     nonce,
		Wallet:    walletB58,
		Message:   message,
		IssuedAt:  now,
		ExpiresAt: now.Add(ChallengeTTL),
	}

	if err := s.nonces.Put(ctx, challenge); err != nil {
		return nil, fmt.Errorf("failed to store challenge: %w", err)
	}

	s.logger.Info("challenge issued", "wallet", walletB58)

	return &Challenge{
		Nonce:     nonce,
		Message:   message,
		ExpiresIn: int(ChallengeTTL.Seconds()),
	}, nil
}

// VerifyWallet is the trust boundary of the system. It consumes the nonce
// (stopping replays), checks the wallet binding, and verifies the Ed25519
// signature over the stored challenge message. On success it resolves or
// lazily creates the account and mints a session token.
//
// A failed attempt burns the nonce; the client must request a fresh
// challenge to retry.
func (s *AuthService) VerifyWallet(ctx context.Context, wallet, nonce, signature string) (*core.Account, string, error) {
	if wallet == "" || nonce == "" || signature == "" {
		return nil, "", fmt.Errorf("%w: wallet, nonce, and signature are required", core.ErrInvalidInput)
	}

	walletB58, pubKey, err := solana.NormalizeWallet(wallet)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}

	challenge, err := s.nonces.Consume(ctx, nonce)
	if err != nil {
		if errors.Is(err, core.ErrChallengeInvalid) {
			s.logger.Info("challenge rejected", "wallet", walletB58, "reason", "unknown, expired, or reused nonce")
			return nil, "", core.ErrChallengeInvalid
		}
		return nil, "", err
	}

	if challenge.Wallet != walletB58 {
		s.logger.Info("challenge rejected", "wallet", walletB58, "reason", "wallet mismatch")
		return nil, "", core.ErrWalletMismatch
	}

	sig, err := solana.DecodeSignature(signature)
	if err != nil {
		s.logger.Info("signature rejected", "wallet", walletB58, "reason", err.Error())
		return nil, "", core.ErrSignatureInvalid
	}

	if !solana.VerifyMessage(pubKey, challenge.Message, sig) {
		s.logger.Info("signature rejected", "wallet", walletB58, "reason", "verification failed")
		return nil, "", core.ErrSignatureInvalid
	}

	account, err := s.resolveAccount(ctx, walletB58)
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.IssueSessionToken(walletB58)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue session token: %w", err)
	}

	if err := s.eventPub.PublishLogin(ctx, walletB58); err != nil {
		// The session is already issued; a missed notification must not
		// fail the login.
		s.logger.Warn("failed to publish login event", "wallet", walletB58, "error", err)
	}

	s.logger.Info("wallet verified", "wallet", walletB58, "account", account.ID)

	return account, token, nil
}

// IssueAPIToken mints a long-lived bearer token for the account registered
// under the email. Only accounts with a verified email qualify.
func (s *AuthService) IssueAPIToken(ctx context.Context, email string) (string, core.Profile, error) {
	if email == "" {
		return "", core.Profile{}, fmt.Errorf("%w: email is required", core.ErrInvalidInput)
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			s.logger.Info("api token refused", "email", email, "reason", "no account")
			return "", core.Profile{}, core.ErrNotFound
		}
		return "", core.Profile{}, err
	}

	if !account.EmailVerified {
		s.logger.Info("api token refused", "email", email, "reason", "email unverified")
		return "", core.Profile{}, core.ErrEmailUnverified
	}

	token, err := s.tokens.IssueAPIToken(account)
	if err != nil {
		return "", core.Profile{}, fmt.Errorf("failed to issue api token: %w", err)
	}

	s.logger.Info("api token issued", "email", account.Email, "account", account.ID)

	return token, core.ProfileOf(account), nil
}

// ResolveSession recovers the identity bound to a session token. Absent,
// malformed, expired, and foreign-key tokens all resolve to nil: callers
// must not be able to distinguish tampering from absence.
func (s *AuthService) ResolveSession(ctx context.Context, token string) *core.Identity {
	if token == "" {
		return nil
	}

	wallet, err := s.tokens.ParseSessionToken(token)
	if err != nil {
		return nil
	}

	return &core.Identity{Wallet: wallet}
}

// CurrentAccount loads the account behind a resolved identity.
func (s *AuthService) CurrentAccount(ctx context.Context, identity *core.Identity) (*core.Account, error) {
	return s.accounts.FindByWallet(ctx, identity.Wallet)
}

// Logout notifies other instances that the session for the token, if any,
// ended. Cookie deletion is the transport's job; logout itself always
// succeeds.
func (s *AuthService) Logout(ctx context.Context, token string) {
	identity := s.ResolveSession(ctx, token)
	if identity == nil {
		return
	}

	if err := s.eventPub.PublishLogout(ctx, identity.Wallet); err != nil {
		s.logger.Warn("failed to publish logout event", "wallet", identity.Wallet, "error", err)
	}
}

// resolveAccount finds the account for the wallet or creates the minimal
// first-login record, idempotently on wallet address.
func (s *AuthService) resolveAccount(ctx context.Context, wallet string) (*core.Account, error) {
	now := time.Now().UTC()
	fresh := &core.Account{
		ID:           uuid.New().String(),
		Wallet:       wallet,
		FriendCode:   generateFriendCode(),
		AuthProvider: "wallet",
		CreatedAt:    now,
		LastLoginAt:  now,
	}

	account, err := s.accounts.FindOrCreateByWallet(ctx, wallet, fresh)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve account: %w", err)
	}

	if account.ID != fresh.ID {
		if err := s.accounts.TouchLogin(ctx, wallet); err != nil {
			s.logger.Warn("failed to update last login", "wallet", wallet, "error", err)
		}
	}

	return account, nil
}

func generateFriendCode() string {
	b := make([]byte, friendCodeLength)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the process is unusable anyway.
		panic(fmt.Sprintf("friend code generation: %v", err))
	}
	for i := range b {
		b[i] = friendCodeAlphabet[int(b[i])%len(friendCodeAlphabet)]
	}
	return string(b)
}

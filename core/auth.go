package core

import "time"

// Challenge represents an outstanding authentication challenge.
// It is created when a wallet requests a nonce and consumed exactly once
// during signature verification.
type Challenge struct {
	Nonce     string    `json:"nonce"`     // Unique single-use token
	Wallet    string    `json:"wallet"`    // Base58 Solana address the challenge is bound to
	Message   string    `json:"message"`   // Full text the wallet must sign
	IssuedAt  time.Time `json:"createdAt"` // When the challenge was created
	ExpiresAt time.Time `json:"expiresAt"` // When the challenge expires
	Used      bool      `json:"used"`      // Set once, on successful consumption
}

// Expired reports whether the challenge has passed its expiry at the given
// instant. Expired challenges are treated as absent even if the store has
// not physically purged them yet.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Identity is a verified assertion that the caller controls the private key
// for Wallet. It is only ever produced by signature verification or by
// session resolution; no caller-supplied claim becomes an Identity directly.
type Identity struct {
	Wallet string
}

// Account is the minimal user record the auth subsystem reads and, on first
// wallet login, lazily creates. Everything beyond these fields belongs to
// external collaborators.
type Account struct {
	ID            string    `json:"id"`
	Wallet        string    `json:"wallet"`
	Email         string    `json:"email,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	DisplayName   string    `json:"displayName,omitempty"`
	AvatarURL     string    `json:"avatarUrl,omitempty"`
	FriendCode    string    `json:"friendCode"`
	IsVIP         bool      `json:"isVip"`
	AuthProvider  string    `json:"authProvider"`
	CreatedAt     time.Time `json:"createdAt"`
	LastLoginAt   time.Time `json:"lastLoginAt"`
}

// Profile is the redacted account view returned alongside issued tokens.
// It must never carry credential material.
type Profile struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	Wallet      string `json:"wallet,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
	IsVIP       bool   `json:"isVip"`
}

// ProfileOf builds the public view of an account.
func ProfileOf(a *Account) Profile {
	return Profile{
		ID:          a.ID,
		Email:       a.Email,
		Wallet:      a.Wallet,
		DisplayName: a.DisplayName,
		AvatarURL:   a.AvatarURL,
		IsVIP:       a.IsVIP,
	}
}

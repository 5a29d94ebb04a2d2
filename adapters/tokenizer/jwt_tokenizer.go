package tokenizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/playsolmates/warden/core"
	"github.com/playsolmates/warden/ports"
)

const (
	AudienceSession = "warden:session"
	AudienceAPI     = "warden:api"

	// SessionTTL is the lifetime of a session credential.
	SessionTTL = 7 * 24 * time.Hour

	// APITokenTTL is the lifetime of an API bearer token. There is no
	// revocation bookkeeping; expiry is the only termination path.
	APITokenTTL = 30 * 24 * time.Hour
)

// JWTTokenizer mints and parses HS256 tokens over a shared signing secret.
// Rotating the secret invalidates every outstanding session and API token.
type JWTTokenizer struct {
	secret []byte
}

// NewJWTTokenizer creates a tokenizer with the given signing secret.
func NewJWTTokenizer(secret []byte) ports.Tokenizer {
	return &JWTTokenizer{secret: secret}
}

// IssueSessionToken mints a session token for the verified wallet.
func (j *JWTTokenizer) IssueSessionToken(wallet string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   wallet,
			Audience:  jwt.ClaimStrings{AudienceSession},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
		},
		Wallet: wallet,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, nil
}

// ParseSessionToken verifies a session token and returns the bound wallet.
// Every failure mode collapses to core.ErrInvalidToken.
func (j *JWTTokenizer) ParseSessionToken(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secret, nil
	}, jwt.WithAudience(AudienceSession))

	if err != nil || !token.Valid {
		return "", core.ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || claims.Wallet == "" {
		return "", core.ErrInvalidToken
	}

	return claims.Wallet, nil
}

// IssueAPIToken mints a bearer token carrying the account's id, email, and
// display name.
func (j *JWTTokenizer) IssueAPIToken(account *core.Account) (string, error) {
	name := account.DisplayName
	if name == "" && account.Email != "" {
		name = strings.SplitN(account.Email, "@", 2)[0]
	}

	now := time.Now()
	claims := APIClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			Audience:  jwt.ClaimStrings{AudienceAPI},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(APITokenTTL)),
		},
		Email: account.Email,
		Name:  name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign api token: %w", err)
	}

	return signed, nil
}

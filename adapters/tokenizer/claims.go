package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims combines standard claims with the wallet bound to the session
type SessionClaims struct {
	jwt.RegisteredClaims
	Wallet string `json:"wallet"`
}

// APIClaims carry the account profile fields embedded in API bearer tokens
type APIClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Package solana handles Solana wallet address normalization and Ed25519
// signature verification for the challenge-response login flow.
package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/mr-tron/base58"
)

var hexPattern = regexp.MustCompile(`^[0-9a-fA-F]+$`)

// NormalizeWallet decodes a wallet address supplied by a client. Standard
// Solana clients send base58; some mobile MWA clients (e.g. Seeker) send the
// raw 32-byte public key as base64 or base64url. The canonical form is
// base58.
func NormalizeWallet(input string) (string, ed25519.PublicKey, error) {
	w := strings.TrimSpace(input)
	if w == "" {
		return "", nil, fmt.Errorf("empty wallet address")
	}

	if pk, err := base58.Decode(w); err == nil && len(pk) == ed25519.PublicKeySize {
		return w, ed25519.PublicKey(pk), nil
	}

	pk, err := decodeBase64Any(w)
	if err != nil {
		return "", nil, fmt.Errorf("wallet is neither base58 nor base64: %w", err)
	}
	if len(pk) != ed25519.PublicKeySize {
		return "", nil, fmt.Errorf("invalid public key length: got %d, want %d", len(pk), ed25519.PublicKeySize)
	}

	return base58.Encode(pk), ed25519.PublicKey(pk), nil
}

// DecodeSignature decodes a detached Ed25519 signature. Wallets are not
// consistent about encoding: base64, base64url without padding, base58, and
// hex all occur in the wild, so each is attempted in turn.
func DecodeSignature(input string) ([]byte, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, fmt.Errorf("empty signature")
	}

	// Characters from the base64 alphabets rule out base58, so order the
	// attempts accordingly; the first decoding that yields a 64-byte value
	// wins. Hex is last because every hex string is also valid base64.
	decoders := []func(string) ([]byte, error){decodeBase64Any, base58.Decode, decodeHex}
	if !strings.ContainsAny(s, "+/=-_") {
		decoders = []func(string) ([]byte, error){base58.Decode, decodeBase64Any, decodeHex}
	}

	var lastLen int
	for _, decode := range decoders {
		sig, err := decode(s)
		if err != nil {
			continue
		}
		if len(sig) == ed25519.SignatureSize {
			return sig, nil
		}
		lastLen = len(sig)
	}

	if lastLen != 0 {
		return nil, fmt.Errorf("invalid signature length: got %d, want %d", lastLen, ed25519.SignatureSize)
	}
	return nil, fmt.Errorf("undecodable signature encoding")
}

// VerifyMessage reports whether sig is a valid detached Ed25519 signature
// over message under pub.
func VerifyMessage(pub ed25519.PublicKey, message string, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, []byte(message), sig)
}

// PublicKeyToBase58 encodes an Ed25519 public key to a base58 Solana address.
func PublicKeyToBase58(pub ed25519.PublicKey) string {
	return base58.Encode(pub)
}

func decodeHex(s string) ([]byte, error) {
	h := strings.TrimPrefix(s, "0x")
	if !hexPattern.MatchString(h) || len(h)%2 != 0 {
		return nil, fmt.Errorf("invalid hex")
	}
	return hex.DecodeString(h)
}

// decodeBase64Any accepts base64 and base64url, padded or not.
func decodeBase64Any(s string) ([]byte, error) {
	b64 := strings.NewReplacer("-", "+", "_", "/").Replace(s)
	switch len(b64) % 4 {
	case 2:
		b64 += "=="
	case 3:
		b64 += "="
	case 1:
		return nil, fmt.Errorf("invalid base64 length")
	}
	return base64.StdEncoding.DecodeString(b64)
}

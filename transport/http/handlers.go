package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playsolmates/warden/core"
	"github.com/playsolmates/warden/service"
)

// SessionCookieName is the cookie carrying the signed session credential.
const SessionCookieName = "solmate_session"

const sessionCookieMaxAge = 7 * 24 * 60 * 60 // seconds, matches the token TTL

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService  *service.AuthService
	authDomain   string
	secureCookie bool
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService, authDomain string, secureCookie bool) *AuthHandlers {
	return &AuthHandlers{
		authService:  authService,
		authDomain:   authDomain,
		secureCookie: secureCookie,
	}
}

// Nonce handles the challenge request
func (h *AuthHandlers) Nonce(c *gin.Context) {
	var req struct {
		Wallet string `json:"wallet"`
	}

	if err := c.ShouldBindJSON(&req); err != nil || req.Wallet == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Wallet address required"})
		return
	}

	domain := c.Request.Host
	if domain == "" {
		domain = h.authDomain
	}

	challenge, err := h.authService.CreateChallenge(c.Request.Context(), req.Wallet, domain)
	if err != nil {
		if errors.Is(err, core.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate nonce"})
		return
	}

	c.JSON(http.StatusOK, challenge)
}

// Verify handles signature verification and session issuance
func (h *AuthHandlers) Verify(c *gin.Context) {
	var req struct {
		Wallet    string `json:"wallet"`
		Nonce     string `json:"nonce"`
		Signature string `json:"signature"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		return
	}

	account, token, err := h.authService.VerifyWallet(c.Request.Context(), req.Wallet, req.Nonce, req.Signature)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required fields"})
		case errors.Is(err, core.ErrChallengeInvalid):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired nonce"})
		case errors.Is(err, core.ErrWalletMismatch):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Wallet does not match challenge"})
		case errors.Is(err, core.ErrSignatureInvalid):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification failed"})
		}
		return
	}

	h.setSessionCookie(c, token, sessionCookieMaxAge)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user":    accountSummary(account),
	})
}

// Token handles API token issuance for email-verified accounts
func (h *AuthHandlers) Token(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}

	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}

	token, profile, err := h.authService.IssueAPIToken(c.Request.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, core.ErrEmailUnverified):
			c.JSON(http.StatusForbidden, gin.H{"error": "Email not verified"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user": gin.H{
			"id":          profile.ID,
			"email":       profile.Email,
			"displayName": profile.DisplayName,
			"avatarUrl":   profile.AvatarURL,
			"isVip":       profile.IsVIP,
		},
	})
}

// Logout deletes the session cookie. Idempotent; always succeeds.
func (h *AuthHandlers) Logout(c *gin.Context) {
	if token, err := c.Cookie(SessionCookieName); err == nil {
		h.authService.Logout(c.Request.Context(), token)
	}

	h.setSessionCookie(c, "", -1)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me returns the account behind the current session
func (h *AuthHandlers) Me(c *gin.Context) {
	identity := IdentityFromContext(c)
	if identity == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	account, err := h.authService.CurrentAccount(c.Request.Context(), identity)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": accountSummary(account)})
}

func (h *AuthHandlers) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, value, maxAge, "/", "", h.secureCookie, true)
}

func accountSummary(account *core.Account) gin.H {
	return gin.H{
		"id":           account.ID,
		"wallet":       account.Wallet,
		"email":        account.Email,
		"displayName":  account.DisplayName,
		"friendCode":   account.FriendCode,
		"isVip":        account.IsVIP,
		"authProvider": account.AuthProvider,
	}
}

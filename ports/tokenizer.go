package ports

import "github.com/playsolmates/warden/core"

// Tokenizer mints and parses the two credential kinds the service issues.
type Tokenizer interface {
	// Session token operations (cookie-bound, 7 day expiry)
	IssueSessionToken(wallet string) (string, error)
	ParseSessionToken(token string) (wallet string, err error)

	// API token operations (bearer-header, 30 day expiry)
	IssueAPIToken(account *core.Account) (string, error)
}

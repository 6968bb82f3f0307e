package usecase

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrStateNotFound indicates the OAuth state token was never issued or
	// was already redeemed
	ErrStateNotFound = goerr.New("oauth state not found")

	// ErrStateExpired indicates the OAuth state token outlived its window
	ErrStateExpired = goerr.New("oauth state expired")

	// ErrOAuthNotConfigured indicates the Slack app credentials are missing
	ErrOAuthNotConfigured = goerr.New("oauth credentials not configured")
)

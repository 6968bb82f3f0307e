package auth

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// StateTTL is how long an issued OAuth state token stays redeemable
const StateTTL = 10 * time.Minute

// StateIntent is the payload embedded in a state token: what the install
// handshake should do once the user comes back from Slack.
type StateIntent struct {
	RedirectURI string
	RequestedBy types.SlackUserID
}

// State is a short-lived, single-use correlation record persisted between the
// start of the OAuth handshake and its callback, so the handshake survives a
// process restart.
type State struct {
	Token     types.StateToken
	Intent    StateIntent
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewState issues a state with a cryptographically random token
func NewState(intent StateIntent, now time.Time) (*State, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, goerr.Wrap(err, "failed to generate state token")
	}

	return &State{
		Token:     types.StateToken(hex.EncodeToString(buf)),
		Intent:    intent,
		ExpiresAt: now.Add(StateTTL),
		CreatedAt: now,
	}, nil
}

// Validate checks if the State is valid
func (s *State) Validate() error {
	if err := s.Token.Validate(); err != nil {
		return goerr.Wrap(err, "invalid state")
	}
	if s.ExpiresAt.IsZero() {
		return goerr.New("state expiry is required")
	}
	return nil
}

// Expired reports whether the state can no longer be redeemed
func (s *State) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

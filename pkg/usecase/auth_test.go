package usecase_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/askloop/askloop/pkg/domain/interfaces"
	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/model/auth"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/askloop/askloop/pkg/repository/memory"
	"github.com/askloop/askloop/pkg/usecase"
)

func TestOAuthState(t *testing.T) {
	ctx := context.Background()
	intent := auth.StateIntent{RedirectURI: "https://askloop.example.com/auth/callback", RequestedBy: "U_ADMIN"}

	t.Run("a token can be redeemed exactly once", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo)

		state, err := uc.Auth.IssueState(ctx, intent)
		gt.NoError(t, err).Required()

		got, err := uc.Auth.RedeemState(ctx, state.Token)
		gt.NoError(t, err).Required()
		gt.Value(t, got.RedirectURI).Equal(intent.RedirectURI)
		gt.Value(t, got.RequestedBy).Equal(intent.RequestedBy)

		_, err = uc.Auth.RedeemState(ctx, state.Token)
		gt.Bool(t, errors.Is(err, usecase.ErrStateNotFound)).True()
	})

	t.Run("an unknown token is rejected", func(t *testing.T) {
		uc := usecase.New(memory.New())

		_, err := uc.Auth.RedeemState(ctx, "deadbeef")
		gt.Bool(t, errors.Is(err, usecase.ErrStateNotFound)).True()
	})

	t.Run("an expired token is rejected and consumed", func(t *testing.T) {
		repo := memory.New()
		now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
		uc := usecase.New(repo, usecase.WithClock(func() time.Time { return now }))

		state, err := uc.Auth.IssueState(ctx, intent)
		gt.NoError(t, err).Required()

		now = now.Add(auth.StateTTL + time.Second)
		_, err = uc.Auth.RedeemState(ctx, state.Token)
		gt.Bool(t, errors.Is(err, usecase.ErrStateExpired)).True()

		// Consumed on the failed redemption; a retry sees no token at all
		_, err = uc.Auth.RedeemState(ctx, state.Token)
		gt.Bool(t, errors.Is(err, usecase.ErrStateNotFound)).True()
	})

	t.Run("losing the redemption race maps to ErrStateNotFound", func(t *testing.T) {
		repo := &racedStateRepo{Repository: memory.New()}
		uc := usecase.New(repo)

		state, err := uc.Auth.IssueState(ctx, intent)
		gt.NoError(t, err).Required()

		// The token is loaded fine, but the delete reports it already gone:
		// another redemption consumed it first
		_, err = uc.Auth.RedeemState(ctx, state.Token)
		gt.Bool(t, errors.Is(err, usecase.ErrStateNotFound)).True()
	})

	t.Run("sweep removes only expired tokens", func(t *testing.T) {
		repo := memory.New()
		now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
		uc := usecase.New(repo, usecase.WithClock(func() time.Time { return now }))

		old, err := uc.Auth.IssueState(ctx, intent)
		gt.NoError(t, err).Required()

		now = now.Add(auth.StateTTL + time.Second)
		fresh, err := uc.Auth.IssueState(ctx, intent)
		gt.NoError(t, err).Required()

		removed, err := uc.Auth.SweepStates(ctx)
		gt.NoError(t, err).Required()
		gt.Number(t, removed).Equal(1)

		_, err = repo.GetState(ctx, old.Token)
		gt.Value(t, err).NotNil()
		_, err = repo.GetState(ctx, fresh.Token)
		gt.NoError(t, err)
	})
}

func TestInstallURL(t *testing.T) {
	ctx := context.Background()
	intent := auth.StateIntent{RedirectURI: "https://askloop.example.com/auth/callback"}

	t.Run("requires configured credentials", func(t *testing.T) {
		uc := usecase.New(memory.New())

		_, err := uc.Auth.InstallURL(ctx, intent)
		gt.Bool(t, errors.Is(err, usecase.ErrOAuthNotConfigured)).True()
	})

	t.Run("embeds client id, scopes and a redeemable state", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo, usecase.WithOAuthCredentials("client-id-1", "client-secret-1"))

		rawURL, err := uc.Auth.InstallURL(ctx, intent)
		gt.NoError(t, err).Required()
		gt.Bool(t, strings.HasPrefix(rawURL, "https://slack.com/oauth/v2/authorize?")).True()

		parsed, err := url.Parse(rawURL)
		gt.NoError(t, err).Required()
		q := parsed.Query()
		gt.Value(t, q.Get("client_id")).Equal("client-id-1")
		gt.Value(t, q.Get("redirect_uri")).Equal(intent.RedirectURI)
		gt.Bool(t, strings.Contains(q.Get("scope"), "chat:write")).True()

		got, err := uc.Auth.RedeemState(ctx, types.StateToken(q.Get("state")))
		gt.NoError(t, err).Required()
		gt.Value(t, got.RedirectURI).Equal(intent.RedirectURI)
	})
}

// racedStateRepo simulates losing a redemption race: the state record reads
// fine but is gone by the time the delete runs.
type racedStateRepo struct {
	interfaces.Repository
}

func (r *racedStateRepo) DeleteState(ctx context.Context, token types.StateToken) error {
	return goerr.Wrap(model.ErrNotFound, "state not found")
}

// oauthTransport answers the oauth.v2.access exchange with a canned grant
type oauthTransport struct {
	body string
}

func (tr *oauthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(tr.body)),
		Request:    req,
	}, nil
}

func TestInstallCallback(t *testing.T) {
	ctx := context.Background()
	intent := auth.StateIntent{RedirectURI: "https://askloop.example.com/auth/callback", RequestedBy: "U_ADMIN"}

	grant := `{"ok":true,"access_token":"xoxb-new","token_type":"bot",` +
		`"scope":"chat:write","bot_user_id":"U_BOT",` +
		`"team":{"id":"T_INSTALL","name":"acme"}}`

	repo := memory.New()
	var invalidated []types.WorkspaceID
	uc := usecase.New(repo,
		usecase.WithOAuthCredentials("client-id-1", "client-secret-1"),
		usecase.WithHTTPClient(&http.Client{Transport: &oauthTransport{body: grant}}),
		usecase.WithInstallHook(func(id types.WorkspaceID) {
			invalidated = append(invalidated, id)
		}),
	)

	state, err := uc.Auth.IssueState(ctx, intent)
	gt.NoError(t, err).Required()

	inst, err := uc.Auth.HandleCallback(ctx, state.Token, "code-123")
	gt.NoError(t, err).Required()
	gt.Value(t, inst.WorkspaceID).Equal("T_INSTALL")
	gt.Value(t, inst.BotToken).Equal("xoxb-new")
	gt.Value(t, inst.InstalledBy).Equal(intent.RequestedBy)

	stored, err := repo.GetInstallation(ctx, "T_INSTALL")
	gt.NoError(t, err).Required()
	gt.Value(t, stored.BotToken).Equal("xoxb-new")
	gt.Value(t, stored.TeamName).Equal("acme")

	// The workspace record is registered ahead of the first event
	ws, err := repo.Workspace().Get(ctx, "T_INSTALL")
	gt.NoError(t, err).Required()
	gt.Value(t, ws.Name).Equal("acme")

	// Any client cached for the workspace must be dropped: a reinstall
	// rotates the bot token
	gt.Array(t, invalidated).Equal([]types.WorkspaceID{"T_INSTALL"})
}

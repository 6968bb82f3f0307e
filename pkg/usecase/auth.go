package usecase

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/model/auth"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/askloop/askloop/pkg/utils/async"
	"github.com/askloop/askloop/pkg/utils/logging"
)

// Scopes the bot requests at install time
const installScopes = "channels:history,channels:read,chat:write,groups:read,im:write,usergroups:read,users:read"

// AuthUseCase drives the Slack OAuth install handshake and the state-token
// lifecycle around it.
type AuthUseCase struct {
	uc           *UseCases
	clientID     string
	clientSecret string

	// httpClient is swapped out in tests; nil means http.DefaultClient
	httpClient *http.Client

	// onInstall is notified after a completed install so cached clients for
	// the workspace can be dropped (the old bot token is dead after a
	// reinstall)
	onInstall func(types.WorkspaceID)
}

// Configured reports whether the install handshake can run
func (x *AuthUseCase) Configured() bool {
	return x.clientID != "" && x.clientSecret != ""
}

// IssueState persists a fresh single-use state token for an install attempt
func (x *AuthUseCase) IssueState(ctx context.Context, intent auth.StateIntent) (*auth.State, error) {
	state, err := auth.NewState(intent, x.uc.now())
	if err != nil {
		return nil, err
	}
	if err := x.uc.repo.PutState(ctx, state); err != nil {
		return nil, goerr.Wrap(err, "failed to persist oauth state")
	}
	return state, nil
}

// RedeemState consumes a state token. A token can be redeemed exactly once;
// a second redemption and an unknown token both return ErrStateNotFound, and
// an expired token returns ErrStateExpired after being removed.
func (x *AuthUseCase) RedeemState(ctx context.Context, token types.StateToken) (*auth.StateIntent, error) {
	state, err := x.uc.repo.GetState(ctx, token)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, goerr.Wrap(ErrStateNotFound, "unknown or already redeemed token")
		}
		return nil, goerr.Wrap(err, "failed to load oauth state")
	}

	// Single use: delete before honoring, so a concurrent redemption of the
	// same token cannot both succeed
	if err := x.uc.repo.DeleteState(ctx, token); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			// Lost the race against a concurrent redemption
			return nil, goerr.Wrap(ErrStateNotFound, "token already redeemed")
		}
		return nil, goerr.Wrap(err, "failed to consume oauth state")
	}

	if state.Expired(x.uc.now()) {
		return nil, goerr.Wrap(ErrStateExpired, "token expired",
			goerr.V("expired_at", state.ExpiresAt))
	}

	intent := state.Intent
	return &intent, nil
}

// SweepStates deletes expired, unredeemed state tokens to bound storage
// growth. Returns the number removed.
func (x *AuthUseCase) SweepStates(ctx context.Context) (int, error) {
	states, err := x.uc.repo.ListStates(ctx)
	if err != nil {
		return 0, goerr.Wrap(err, "failed to list oauth states")
	}

	now := x.uc.now()
	removed := 0
	for _, s := range states {
		if !s.Expired(now) {
			continue
		}
		if err := x.uc.repo.DeleteState(ctx, s.Token); err != nil {
			// A token that survives one sweep gets caught by the next
			logging.From(ctx).Warn("failed to delete expired oauth state",
				"error", err.Error())
			continue
		}
		removed++
	}
	return removed, nil
}

// InstallURL builds the Slack authorize URL for a fresh install attempt,
// issuing and embedding a state token.
func (x *AuthUseCase) InstallURL(ctx context.Context, intent auth.StateIntent) (string, error) {
	if !x.Configured() {
		return "", ErrOAuthNotConfigured
	}

	state, err := x.IssueState(ctx, intent)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("client_id", x.clientID)
	q.Set("scope", installScopes)
	q.Set("state", state.Token.String())
	if intent.RedirectURI != "" {
		q.Set("redirect_uri", intent.RedirectURI)
	}

	return "https://slack.com/oauth/v2/authorize?" + q.Encode(), nil
}

// HandleCallback completes the OAuth handshake: redeems the state token,
// exchanges the temporary code for a bot token, and persists the
// installation record for the workspace.
func (x *AuthUseCase) HandleCallback(ctx context.Context, token types.StateToken, code string) (*auth.Installation, error) {
	if !x.Configured() {
		return nil, ErrOAuthNotConfigured
	}

	intent, err := x.RedeemState(ctx, token)
	if err != nil {
		return nil, err
	}

	httpClient := x.httpClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := slack.GetOAuthV2ResponseContext(ctx, httpClient, x.clientID, x.clientSecret, code, intent.RedirectURI)
	if err != nil {
		return nil, goerr.Wrap(err, "oauth code exchange failed")
	}

	inst := &auth.Installation{
		WorkspaceID: types.WorkspaceID(resp.Team.ID),
		TeamName:    resp.Team.Name,
		BotToken:    resp.AccessToken,
		BotUserID:   types.SlackUserID(resp.BotUserID),
		Scopes:      resp.Scope,
		InstalledBy: intent.RequestedBy,
		InstalledAt: x.uc.now(),
	}
	if err := x.uc.repo.PutInstallation(ctx, inst); err != nil {
		return nil, goerr.Wrap(err, "failed to persist installation",
			goerr.V("workspace_id", inst.WorkspaceID))
	}

	// Ensure the workspace record exists even before the first event arrives
	if _, err := x.uc.repo.Workspace().Get(ctx, inst.WorkspaceID); errors.Is(err, model.ErrNotFound) {
		ws := &model.Workspace{ID: inst.WorkspaceID, Name: resp.Team.Name, CreatedAt: x.uc.now()}
		if err := x.uc.repo.Workspace().Put(ctx, ws); err != nil {
			logging.From(ctx).Warn("failed to register workspace after install",
				"workspace_id", inst.WorkspaceID, "error", err.Error())
		}
	}

	// A reinstall rotates the bot token; any client cached for this
	// workspace is now posting with a dead credential
	if x.onInstall != nil {
		x.onInstall(inst.WorkspaceID)
	}

	logging.From(ctx).Info("workspace installed",
		"workspace_id", inst.WorkspaceID, "team_name", inst.TeamName)

	return inst, nil
}

// StateSweeper runs SweepStates periodically. Same lifecycle contract as the
// escalation engine: Start does not block, Stop waits for the loop to exit.
type StateSweeper struct {
	auth     *AuthUseCase
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewStateSweeper(auth *AuthUseCase, interval time.Duration) *StateSweeper {
	return &StateSweeper{
		auth:     auth,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (w *StateSweeper) Start(ctx context.Context) error {
	logging.Default().Info("oauth state sweeper starting", "interval", w.interval.String())
	async.Dispatch(ctx, func(ctx context.Context) error {
		w.run(ctx)
		return nil
	})
	return nil
}

func (w *StateSweeper) Stop() {
	close(w.stopCh)
	<-w.doneCh
}

func (w *StateSweeper) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if removed, err := w.auth.SweepStates(ctx); err != nil {
				logging.Default().Error("oauth state sweep failed", "error", err.Error())
			} else if removed > 0 {
				logging.Default().Info("expired oauth states removed", "count", removed)
			}

		case <-w.stopCh:
			return

		case <-ctx.Done():
			return
		}
	}
}

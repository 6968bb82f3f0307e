package slack

import (
	"context"
	"errors"
	"sync"

	"github.com/askloop/askloop/pkg/domain/interfaces"
	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// ErrNoInstallation indicates the workspace has no usable bot token. The
// caller should skip the workspace, not retry.
var ErrNoInstallation = goerr.New("no usable installation for workspace")

// Factory builds a Service from an installation's credentials. Swapped out in
// tests to avoid real API clients.
type Factory func(token string, botUserID types.SlackUserID) (Service, error)

// Provider hands out per-workspace Slack clients, caching them so the
// escalation engine does not rebuild a client on every tick.
type Provider struct {
	repo    interfaces.Repository
	factory Factory

	mu      sync.RWMutex
	clients map[types.WorkspaceID]Service
}

type ProviderOption func(*Provider)

// WithFactory replaces the client constructor
func WithFactory(f Factory) ProviderOption {
	return func(p *Provider) {
		p.factory = f
	}
}

func NewProvider(repo interfaces.Repository, opts ...ProviderOption) *Provider {
	p := &Provider{
		repo:    repo,
		factory: New,
		clients: make(map[types.WorkspaceID]Service),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ClientFor returns a Slack client authorized for the workspace. Returns
// ErrNoInstallation when the workspace was never installed or its token was
// revoked.
func (p *Provider) ClientFor(ctx context.Context, workspaceID types.WorkspaceID) (Service, error) {
	p.mu.RLock()
	svc, ok := p.clients[workspaceID]
	p.mu.RUnlock()
	if ok {
		return svc, nil
	}

	inst, err := p.repo.GetInstallation(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, goerr.Wrap(ErrNoInstallation, "workspace not installed",
				goerr.V("workspace_id", workspaceID))
		}
		return nil, goerr.Wrap(err, "failed to load installation",
			goerr.V("workspace_id", workspaceID))
	}
	if !inst.Usable() {
		return nil, goerr.Wrap(ErrNoInstallation, "installation revoked",
			goerr.V("workspace_id", workspaceID))
	}

	svc, err = p.factory(inst.BotToken, inst.BotUserID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build Slack client",
			goerr.V("workspace_id", workspaceID))
	}

	p.mu.Lock()
	// Another goroutine may have built one meanwhile; keep the first.
	if existing, ok := p.clients[workspaceID]; ok {
		svc = existing
	} else {
		p.clients[workspaceID] = svc
	}
	p.mu.Unlock()

	return svc, nil
}

// Invalidate drops the cached client for a workspace. Called after a token
// rotation or an auth failure so the next ClientFor re-reads the installation.
func (p *Provider) Invalidate(workspaceID types.WorkspaceID) {
	p.mu.Lock()
	delete(p.clients, workspaceID)
	p.mu.Unlock()
}

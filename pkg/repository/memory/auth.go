package memory

import (
	"context"
	"sync"

	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/model/auth"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type authStore struct {
	mu            sync.RWMutex
	installations map[types.WorkspaceID]*auth.Installation
	states        map[types.StateToken]*auth.State
}

func newAuthStore() *authStore {
	return &authStore{
		installations: make(map[types.WorkspaceID]*auth.Installation),
		states:        make(map[types.StateToken]*auth.State),
	}
}

func (r *Memory) PutInstallation(ctx context.Context, inst *auth.Installation) error {
	if err := inst.Validate(); err != nil {
		return goerr.Wrap(err, "invalid installation")
	}

	r.auth.mu.Lock()
	defer r.auth.mu.Unlock()

	copied := *inst
	r.auth.installations[inst.WorkspaceID] = &copied
	return nil
}

func (r *Memory) GetInstallation(ctx context.Context, workspaceID types.WorkspaceID) (*auth.Installation, error) {
	if err := workspaceID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid workspace ID")
	}

	r.auth.mu.RLock()
	defer r.auth.mu.RUnlock()

	inst, ok := r.auth.installations[workspaceID]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "installation not found",
			goerr.V("workspace_id", workspaceID))
	}

	copied := *inst
	return &copied, nil
}

func (r *Memory) PutState(ctx context.Context, state *auth.State) error {
	if err := state.Validate(); err != nil {
		return goerr.Wrap(err, "invalid state")
	}

	r.auth.mu.Lock()
	defer r.auth.mu.Unlock()

	copied := *state
	r.auth.states[state.Token] = &copied
	return nil
}

func (r *Memory) GetState(ctx context.Context, token types.StateToken) (*auth.State, error) {
	if err := token.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid state token")
	}

	r.auth.mu.RLock()
	defer r.auth.mu.RUnlock()

	state, ok := r.auth.states[token]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "state not found")
	}

	copied := *state
	return &copied, nil
}

func (r *Memory) DeleteState(ctx context.Context, token types.StateToken) error {
	if err := token.Validate(); err != nil {
		return goerr.Wrap(err, "invalid state token")
	}

	r.auth.mu.Lock()
	defer r.auth.mu.Unlock()

	if _, ok := r.auth.states[token]; !ok {
		return goerr.Wrap(model.ErrNotFound, "state not found")
	}

	delete(r.auth.states, token)
	return nil
}

func (r *Memory) ListStates(ctx context.Context) ([]*auth.State, error) {
	r.auth.mu.RLock()
	defer r.auth.mu.RUnlock()

	result := make([]*auth.State, 0, len(r.auth.states))
	for _, state := range r.auth.states {
		copied := *state
		result = append(result, &copied)
	}
	return result, nil
}

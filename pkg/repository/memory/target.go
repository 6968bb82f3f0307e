package memory

import (
	"context"
	"sync"
	"time"

	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type targetRepository struct {
	mu      sync.RWMutex
	targets map[types.WorkspaceID]map[string]*model.EscalationTarget
}

func newTargetRepository() *targetRepository {
	return &targetRepository{
		targets: make(map[types.WorkspaceID]map[string]*model.EscalationTarget),
	}
}

func copyTarget(t *model.EscalationTarget) *model.EscalationTarget {
	copied := *t
	return &copied
}

func (r *targetRepository) Put(ctx context.Context, target *model.EscalationTarget) error {
	if err := target.Validate(); err != nil {
		return goerr.Wrap(err, "invalid escalation target")
	}
	if target.ID == "" {
		return goerr.New("target ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.targets[target.WorkspaceID]
	if !ok {
		ws = make(map[string]*model.EscalationTarget)
		r.targets[target.WorkspaceID] = ws
	}

	stored := copyTarget(target)
	if existing, ok := ws[target.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	ws[target.ID] = stored
	return nil
}

func (r *targetRepository) ListByLevel(ctx context.Context, workspaceID types.WorkspaceID, level int) ([]*model.EscalationTarget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.EscalationTarget, 0)
	ws, ok := r.targets[workspaceID]
	if !ok {
		return result, nil
	}
	for _, t := range ws {
		if t.Level == level && t.Active {
			result = append(result, copyTarget(t))
		}
	}
	model.SortTargets(result)
	return result, nil
}

func (r *targetRepository) List(ctx context.Context, workspaceID types.WorkspaceID) ([]*model.EscalationTarget, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.EscalationTarget, 0)
	ws, ok := r.targets[workspaceID]
	if !ok {
		return result, nil
	}
	for _, t := range ws {
		result = append(result, copyTarget(t))
	}
	model.SortTargets(result)
	return result, nil
}

func (r *targetRepository) Delete(ctx context.Context, workspaceID types.WorkspaceID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.targets[workspaceID]
	if !ok {
		return goerr.Wrap(model.ErrNotFound, "target not found", goerr.V("id", id))
	}
	if _, ok := ws[id]; !ok {
		return goerr.Wrap(model.ErrNotFound, "target not found", goerr.V("id", id))
	}
	delete(ws, id)
	return nil
}

package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type workspaceRepository struct {
	mu         sync.RWMutex
	workspaces map[types.WorkspaceID]*model.Workspace
	configs    map[types.WorkspaceID]*model.WorkspaceConfig
}

func newWorkspaceRepository() *workspaceRepository {
	return &workspaceRepository{
		workspaces: make(map[types.WorkspaceID]*model.Workspace),
		configs:    make(map[types.WorkspaceID]*model.WorkspaceConfig),
	}
}

func copyWorkspace(ws *model.Workspace) *model.Workspace {
	copied := *ws
	return &copied
}

func copyConfig(cfg *model.WorkspaceConfig) *model.WorkspaceConfig {
	copied := *cfg
	return &copied
}

func (r *workspaceRepository) Put(ctx context.Context, ws *model.Workspace) error {
	if err := ws.Validate(); err != nil {
		return goerr.Wrap(err, "invalid workspace")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyWorkspace(ws)
	if existing, ok := r.workspaces[ws.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.workspaces[ws.ID] = stored
	return nil
}

func (r *workspaceRepository) Get(ctx context.Context, id types.WorkspaceID) (*model.Workspace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ws, ok := r.workspaces[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "workspace not found", goerr.V("id", id))
	}
	return copyWorkspace(ws), nil
}

func (r *workspaceRepository) List(ctx context.Context) ([]*model.Workspace, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Workspace, 0, len(r.workspaces))
	for _, ws := range r.workspaces {
		result = append(result, copyWorkspace(ws))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *workspaceRepository) GetConfig(ctx context.Context, id types.WorkspaceID) (*model.WorkspaceConfig, error) {
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid workspace ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cfg, ok := r.configs[id]; ok {
		return copyConfig(cfg), nil
	}

	// Lazy default creation on first access
	cfg := model.NewWorkspaceConfig(id)
	cfg.UpdatedAt = time.Now().UTC()
	r.configs[id] = copyConfig(cfg)
	return cfg, nil
}

func (r *workspaceRepository) PutConfig(ctx context.Context, cfg *model.WorkspaceConfig) error {
	if err := cfg.Validate(); err != nil {
		return goerr.Wrap(err, "invalid workspace config")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyConfig(cfg)
	stored.UpdatedAt = time.Now().UTC()
	r.configs[cfg.WorkspaceID] = stored
	return nil
}

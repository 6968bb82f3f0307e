package interfaces

import (
	"context"

	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
)

// WorkspaceRepository defines the interface for Workspace data access
type WorkspaceRepository interface {
	// Put upserts a workspace record
	Put(ctx context.Context, ws *model.Workspace) error

	// Get retrieves a workspace by ID
	Get(ctx context.Context, id types.WorkspaceID) (*model.Workspace, error)

	// List retrieves all known workspaces
	List(ctx context.Context) ([]*model.Workspace, error)

	// GetConfig retrieves the workspace configuration, lazily creating and
	// persisting the defaults when none exists yet
	GetConfig(ctx context.Context, id types.WorkspaceID) (*model.WorkspaceConfig, error)

	// PutConfig upserts the workspace configuration
	PutConfig(ctx context.Context, cfg *model.WorkspaceConfig) error
}

package interfaces

import (
	"context"

	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
)

// TargetRepository defines the interface for EscalationTarget data access
type TargetRepository interface {
	// Put upserts a target row
	Put(ctx context.Context, target *model.EscalationTarget) error

	// ListByLevel retrieves active targets for one level, ordered by
	// priority then insertion order
	ListByLevel(ctx context.Context, workspaceID types.WorkspaceID, level int) ([]*model.EscalationTarget, error)

	// List retrieves all targets of a workspace
	List(ctx context.Context, workspaceID types.WorkspaceID) ([]*model.EscalationTarget, error)

	// Delete removes a target row
	Delete(ctx context.Context, workspaceID types.WorkspaceID, id string) error
}

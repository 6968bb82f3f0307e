package interfaces

import (
	"context"

	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
)

// ChannelRepository defines the interface for Channel data access
type ChannelRepository interface {
	// Put upserts a channel record
	Put(ctx context.Context, ch *model.Channel) error

	// Get retrieves a channel by ID within a workspace
	Get(ctx context.Context, workspaceID types.WorkspaceID, id types.ChannelID) (*model.Channel, error)

	// GetMany retrieves the listed channels in one call. Unknown IDs are
	// simply absent from the result, not an error; the sweep treats them as
	// channels with no override.
	GetMany(ctx context.Context, workspaceID types.WorkspaceID, ids []types.ChannelID) (map[types.ChannelID]*model.Channel, error)

	// List retrieves all channels of a workspace
	List(ctx context.Context, workspaceID types.WorkspaceID) ([]*model.Channel, error)
}

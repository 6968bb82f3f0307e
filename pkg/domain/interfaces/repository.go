package interfaces

import (
	"context"

	"github.com/askloop/askloop/pkg/domain/model/auth"
	"github.com/askloop/askloop/pkg/domain/types"
)

// Repository defines the interface for data persistence
type Repository interface {
	Workspace() WorkspaceRepository
	Channel() ChannelRepository
	Question() QuestionRepository
	Target() TargetRepository
	Escalation() EscalationRepository

	// Installation records (one per workspace)
	PutInstallation(ctx context.Context, inst *auth.Installation) error
	GetInstallation(ctx context.Context, workspaceID types.WorkspaceID) (*auth.Installation, error)

	// OAuth state records (single use)
	PutState(ctx context.Context, state *auth.State) error
	GetState(ctx context.Context, token types.StateToken) (*auth.State, error)
	DeleteState(ctx context.Context, token types.StateToken) error
	ListStates(ctx context.Context) ([]*auth.State, error)

	Close() error
}

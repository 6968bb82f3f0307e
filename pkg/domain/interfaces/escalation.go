package interfaces

import (
	"context"

	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
)

// EscalationRepository defines the interface for the append-only escalation log
type EscalationRepository interface {
	// Append writes one log row. Rows are never updated or deleted here.
	Append(ctx context.Context, e *model.Escalation) error

	// ListByQuestion retrieves log rows for a question, oldest first
	ListByQuestion(ctx context.Context, workspaceID types.WorkspaceID, questionID types.QuestionID) ([]*model.Escalation, error)
}

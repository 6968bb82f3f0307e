package interfaces

import (
	"context"
	"time"

	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
)

// QuestionRepository defines the interface for Question data access
type QuestionRepository interface {
	// Create inserts a question if absent. When a question with the same
	// (workspace, channel, message timestamp) already exists, it returns an
	// error wrapping model.ErrQuestionExists and leaves the stored row
	// untouched.
	// This is the sole mechanism preventing double-counting under duplicate
	// event delivery, including concurrent delivery.
	Create(ctx context.Context, q *model.Question) (*model.Question, error)

	// Get retrieves a question by ID
	Get(ctx context.Context, workspaceID types.WorkspaceID, id types.QuestionID) (*model.Question, error)

	// ListOpen retrieves unanswered, non-paused questions of a workspace
	ListOpen(ctx context.Context, workspaceID types.WorkspaceID) ([]*model.Question, error)

	// ListSince retrieves all questions asked at or after since (for stats)
	ListSince(ctx context.Context, workspaceID types.WorkspaceID, since time.Time) ([]*model.Question, error)

	// MarkAnswered sets status=answered with the answerer and time.
	// Idempotent: marking an already-answered question is a no-op.
	MarkAnswered(ctx context.Context, workspaceID types.WorkspaceID, id types.QuestionID, answeredBy types.SlackUserID, at time.Time) error

	// MarkDismissed sets status=dismissed
	MarkDismissed(ctx context.Context, workspaceID types.WorkspaceID, id types.QuestionID) error

	// AdvanceLevel sets the escalation level and last-escalated time
	AdvanceLevel(ctx context.Context, workspaceID types.WorkspaceID, id types.QuestionID, newLevel int, at time.Time) error

	// Pause sets the level to the paused sentinel. Terminal for scheduling;
	// the status stays unanswered for audit.
	Pause(ctx context.Context, workspaceID types.WorkspaceID, id types.QuestionID) error
}

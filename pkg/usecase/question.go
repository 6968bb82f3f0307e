package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/askloop/askloop/pkg/service/policy"
	"github.com/askloop/askloop/pkg/utils/logging"
)

// QuestionUseCase handles question ingestion and lifecycle mutations on
// behalf of the event-ingestion collaborator.
type QuestionUseCase struct {
	uc       *UseCases
	policies *policy.Resolver
}

// EffectivePolicy exposes the merged workspace and channel configuration,
// mainly for admin inspection endpoints.
func (x *QuestionUseCase) EffectivePolicy(ctx context.Context, workspaceID types.WorkspaceID, channelID types.ChannelID) (*model.EscalationPolicy, error) {
	return x.policies.Effective(ctx, workspaceID, channelID)
}

// IngestInput carries one detected question message
type IngestInput struct {
	WorkspaceID   types.WorkspaceID
	WorkspaceName string
	ChannelID     types.ChannelID
	AskedBy       types.SlackUserID
	MessageTS     types.MessageTS
	ThreadTS      types.MessageTS
	Text          string
	Keywords      []string
	AskedAt       time.Time

	IsSideConversation bool
	SourceApp          string
	TicketID           string
}

// Ingest records a question exactly once. Duplicate delivery of the same
// message, including concurrent delivery, returns the stored question with
// created=false and no error.
func (x *QuestionUseCase) Ingest(ctx context.Context, input IngestInput) (*model.Question, bool, error) {
	if err := x.ensureWorkspace(ctx, input.WorkspaceID, input.WorkspaceName); err != nil {
		return nil, false, err
	}

	q := model.NewQuestion(input.WorkspaceID, input.ChannelID, input.AskedBy, input.MessageTS, input.Text, input.AskedAt)
	q.ThreadTS = input.ThreadTS
	q.Keywords = input.Keywords
	q.IsSideConversation = input.IsSideConversation
	q.SourceApp = input.SourceApp
	q.TicketID = input.TicketID
	if q.AskedAt.IsZero() {
		q.AskedAt = input.MessageTS.Time()
	}

	created, err := x.uc.repo.Question().Create(ctx, q)
	if err == nil {
		logging.From(ctx).Info("question ingested",
			"question_id", created.ID,
			"workspace_id", created.WorkspaceID,
			"channel_id", created.ChannelID)
		return created, true, nil
	}
	if !errors.Is(err, model.ErrQuestionExists) {
		return nil, false, goerr.Wrap(err, "failed to create question", goerr.V("question_id", q.ID))
	}

	existing, getErr := x.uc.repo.Question().Get(ctx, q.WorkspaceID, q.ID)
	if getErr != nil {
		return nil, false, goerr.Wrap(getErr, "failed to load existing question", goerr.V("question_id", q.ID))
	}
	return existing, false, nil
}

// ensureWorkspace creates the workspace record on the first observed event
// from a new team.
func (x *QuestionUseCase) ensureWorkspace(ctx context.Context, id types.WorkspaceID, name string) error {
	_, err := x.uc.repo.Workspace().Get(ctx, id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return goerr.Wrap(err, "failed to get workspace", goerr.V("workspace_id", id))
	}

	ws := &model.Workspace{
		ID:        id,
		Name:      name,
		CreatedAt: x.uc.now(),
	}
	if err := x.uc.repo.Workspace().Put(ctx, ws); err != nil {
		return goerr.Wrap(err, "failed to create workspace", goerr.V("workspace_id", id))
	}
	logging.From(ctx).Info("workspace registered", "workspace_id", id, "name", name)
	return nil
}

// Get retrieves a question by ID
func (x *QuestionUseCase) Get(ctx context.Context, workspaceID types.WorkspaceID, id types.QuestionID) (*model.Question, error) {
	return x.uc.repo.Question().Get(ctx, workspaceID, id)
}

// Answer marks a question answered. Idempotent: answering an already-answered
// question keeps the first answer.
func (x *QuestionUseCase) Answer(ctx context.Context, workspaceID types.WorkspaceID, id types.QuestionID, answeredBy types.SlackUserID) error {
	if err := x.uc.repo.Question().MarkAnswered(ctx, workspaceID, id, answeredBy, x.uc.now()); err != nil {
		return goerr.Wrap(err, "failed to mark question answered", goerr.V("question_id", id))
	}
	return nil
}

// Dismiss marks a question dismissed (resolved without an answer)
func (x *QuestionUseCase) Dismiss(ctx context.Context, workspaceID types.WorkspaceID, id types.QuestionID) error {
	if err := x.uc.repo.Question().MarkDismissed(ctx, workspaceID, id); err != nil {
		return goerr.Wrap(err, "failed to dismiss question", goerr.V("question_id", id))
	}
	return nil
}

// Pause suspends escalation for a question. The question stays unanswered
// for audit; it just stops climbing the ladder.
func (x *QuestionUseCase) Pause(ctx context.Context, workspaceID types.WorkspaceID, id types.QuestionID) error {
	if err := x.uc.repo.Question().Pause(ctx, workspaceID, id); err != nil {
		return goerr.Wrap(err, "failed to pause question", goerr.V("question_id", id))
	}
	return nil
}

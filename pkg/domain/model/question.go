package model

import (
	"time"

	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Question is the central entity: one tracked question message. The document
// key (workspace, channel, message timestamp) is the idempotency guarantee
// against duplicate event delivery.
type Question struct {
	ID          types.QuestionID
	WorkspaceID types.WorkspaceID
	ChannelID   types.ChannelID
	AskedBy     types.SlackUserID
	MessageTS   types.MessageTS
	ThreadTS    types.MessageTS // empty when the question is not in a thread
	Text        string
	Keywords    []string
	AskedAt     time.Time

	Status          types.QuestionStatus
	Level           int
	LastEscalatedAt *time.Time
	AnsweredAt      *time.Time
	AnsweredBy      types.SlackUserID

	// Provenance
	IsSideConversation bool
	SourceApp          string
	TicketID           string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewQuestion builds a Question in its initial state with the canonical ID
func NewQuestion(workspaceID types.WorkspaceID, channelID types.ChannelID, askedBy types.SlackUserID, ts types.MessageTS, text string, askedAt time.Time) *Question {
	return &Question{
		ID:          types.NewQuestionID(workspaceID, channelID, ts),
		WorkspaceID: workspaceID,
		ChannelID:   channelID,
		AskedBy:     askedBy,
		MessageTS:   ts,
		Text:        text,
		AskedAt:     askedAt,
		Status:      types.QuestionStatusUnanswered,
		Level:       types.LevelNone,
	}
}

// Validate checks if the Question is valid
func (q *Question) Validate() error {
	if err := q.WorkspaceID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid question")
	}
	if err := q.ChannelID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid question")
	}
	if err := q.MessageTS.Validate(); err != nil {
		return goerr.Wrap(err, "invalid question")
	}
	if !q.Status.Normalize().IsValid() {
		return goerr.New("invalid question status", goerr.V("status", q.Status))
	}
	if q.AskedAt.IsZero() {
		return goerr.New("question asked_at is required", goerr.V("id", q.ID))
	}
	return nil
}

// Paused reports whether escalation has been suspended for this question
func (q *Question) Paused() bool {
	return q.Level == types.LevelPaused
}

// IsOpen reports whether the question is still eligible for scheduling:
// unanswered, not dismissed, and not paused.
func (q *Question) IsOpen() bool {
	return q.Status.Normalize() == types.QuestionStatusUnanswered && !q.Paused()
}

// LastAdvanceTime is the reference point for threshold evaluation: the ask
// time while unescalated, then the time of the previous escalation. Each
// level's dwell time is measured from here, so the total delay to the final
// level is the sum of the three thresholds.
func (q *Question) LastAdvanceTime() time.Time {
	if q.Level == types.LevelNone || q.LastEscalatedAt == nil {
		return q.AskedAt
	}
	return *q.LastEscalatedAt
}

// EscalationDue reports whether the question has dwelt at its current level
// longer than the policy threshold for that level. Questions at the final
// level have no further tier and are never due.
func (q *Question) EscalationDue(policy *EscalationPolicy, now time.Time) bool {
	if !q.IsOpen() || !policy.EscalationEnabled {
		return false
	}
	threshold, ok := policy.ThresholdFor(q.Level)
	if !ok {
		return false
	}
	return now.Sub(q.LastAdvanceTime()) > threshold
}

// ThreadRootTS returns the timestamp identifying the question's thread:
// the thread root when the question was asked inside one, otherwise the
// question message itself.
func (q *Question) ThreadRootTS() types.MessageTS {
	if q.ThreadTS != "" {
		return q.ThreadTS
	}
	return q.MessageTS
}

package escalation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
	slacksvc "github.com/askloop/askloop/pkg/service/slack"
	"github.com/askloop/askloop/pkg/utils/logging"
	"github.com/askloop/askloop/pkg/utils/retry"
)

// escalate notifies every target of the new level and then advances the
// question. Target failures are recorded in the log row but never block the
// advance: a flaky destination must not make the question re-notify all the
// others on the next tick.
func (e *Engine) escalate(ctx context.Context, svc slacksvc.Service, q *model.Question, level int, targets []*model.EscalationTarget, now time.Time) error {
	logger := logging.From(ctx)

	link, err := svc.Permalink(ctx, q.ChannelID, q.MessageTS)
	if err != nil {
		// A missing link degrades the message, nothing more
		logger.Warn("failed to resolve question permalink",
			"question_id", q.ID, "error", err.Error())
		link = ""
	}

	results := make([]string, 0, len(targets))
	for _, t := range targets {
		if err := e.notify(ctx, svc, q, t, level, link); err != nil {
			logger.Error("escalation notification failed",
				"question_id", q.ID,
				"target_type", t.Type,
				"target_id", t.TargetID,
				"error", err.Error())
			results = append(results, fmt.Sprintf("%s %s: failed (%v)", t.Type, t.TargetID, err))
			continue
		}
		results = append(results, fmt.Sprintf("%s %s: notified", t.Type, t.TargetID))
	}
	if len(targets) == 0 {
		results = append(results, "no targets configured")
	}

	if err := e.repo.Question().AdvanceLevel(ctx, q.WorkspaceID, q.ID, level, now); err != nil {
		return goerr.Wrap(err, "failed to advance question level",
			goerr.V("question_id", q.ID), goerr.V("level", level))
	}

	row := &model.Escalation{
		QuestionID:  q.ID,
		WorkspaceID: q.WorkspaceID,
		Level:       level,
		Summary:     strings.Join(results, "; "),
		CreatedAt:   now,
	}
	if err := e.repo.Escalation().Append(ctx, row); err != nil {
		// The advance already happened; losing one audit row is tolerable
		logger.Error("failed to append escalation log",
			"question_id", q.ID, "error", err.Error())
	}

	logger.Info("question escalated",
		"question_id", q.ID,
		"workspace_id", q.WorkspaceID,
		"level", level,
		"targets", len(targets))

	return nil
}

// notify delivers one escalation notification, retrying transient Slack
// failures with the server-provided rate-limit wait when present.
func (e *Engine) notify(ctx context.Context, svc slacksvc.Service, q *model.Question, t *model.EscalationTarget, level int, link string) error {
	return retry.Do(ctx, func(ctx context.Context) error {
		switch t.Type {
		case types.TargetTypeUser:
			return svc.PostDirectMessage(ctx, types.SlackUserID(t.TargetID), directMessageText(q, level, link))

		case types.TargetTypeUserGroup:
			_, err := svc.PostThreadReply(ctx, q.ChannelID, q.ThreadRootTS(), groupMentionText(t.TargetID, level))
			return err

		case types.TargetTypeChannel:
			_, err := svc.PostChannelMessage(ctx, types.ChannelID(t.TargetID), channelNoticeText(q, level, link))
			return err

		default:
			return goerr.New("unknown target type", goerr.V("type", t.Type))
		}
	}, e.retryOpts...)
}

func levelLabel(level int) string {
	switch level {
	case types.LevelFirst:
		return "first"
	case types.LevelSecond:
		return "second"
	case types.LevelFinal:
		return "final"
	default:
		return fmt.Sprintf("level %d", level)
	}
}

func directMessageText(q *model.Question, level int, link string) string {
	var b strings.Builder
	fmt.Fprintf(&b, ":rotating_light: A question from <@%s> has reached the %s escalation level without an answer.", q.AskedBy, levelLabel(level))
	if link != "" {
		fmt.Fprintf(&b, "\n%s", link)
	} else {
		fmt.Fprintf(&b, "\nChannel: <#%s>", q.ChannelID)
	}
	return b.String()
}

func groupMentionText(groupID types.TargetID, level int) string {
	return fmt.Sprintf("<!subteam^%s> This question is still unanswered and has reached the %s escalation level.", groupID, levelLabel(level))
}

func channelNoticeText(q *model.Question, level int, link string) string {
	var b strings.Builder
	fmt.Fprintf(&b, ":rotating_light: Unanswered question in <#%s> escalated to the %s level.", q.ChannelID, levelLabel(level))
	if link != "" {
		fmt.Fprintf(&b, "\n%s", link)
	}
	return b.String()
}

package escalation

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
	slacksvc "github.com/askloop/askloop/pkg/service/slack"
	"github.com/askloop/askloop/pkg/utils/logging"
	"github.com/askloop/askloop/pkg/utils/retry"
)

// reconcile checks the question's thread for human replies before escalating
// and applies the channel's answer-detection mode. Returns true when the
// question was resolved or paused and must not escalate this tick.
func (e *Engine) reconcile(ctx context.Context, svc slacksvc.Service, q *model.Question, mode types.DetectionMode) (bool, error) {
	if mode == types.DetectionModeEmojiOnly {
		// Replies are irrelevant; only an explicit acknowledgment resolves
		return false, nil
	}

	replies, err := retry.DoValue(ctx, func(ctx context.Context) ([]slacksvc.Reply, error) {
		return svc.ListThreadReplies(ctx, q.ChannelID, q.ThreadRootTS(), q.MessageTS)
	}, e.retryOpts...)
	if err != nil {
		return false, goerr.Wrap(err, "failed to list thread replies",
			goerr.V("question_id", q.ID))
	}

	reply, ok := firstHumanReply(replies, q.AskedBy, svc.BotUserID())
	if !ok {
		return false, nil
	}

	switch mode {
	case types.DetectionModeThreadAuto:
		if err := e.repo.Question().MarkAnswered(ctx, q.WorkspaceID, q.ID, reply.UserID, reply.TS.Time()); err != nil {
			return false, goerr.Wrap(err, "failed to mark question answered",
				goerr.V("question_id", q.ID))
		}
		logging.From(ctx).Info("question answered by thread reply",
			"question_id", q.ID, "answered_by", reply.UserID)
		return true, nil

	default: // hybrid
		if err := e.repo.Question().Pause(ctx, q.WorkspaceID, q.ID); err != nil {
			return false, goerr.Wrap(err, "failed to pause question",
				goerr.V("question_id", q.ID))
		}
		logging.From(ctx).Info("question paused after thread reply",
			"question_id", q.ID, "replied_by", reply.UserID)
		return true, nil
	}
}

// firstHumanReply returns the earliest reply that counts as a potential
// answer: not a bot message, not the bot's own posts, and not the asker
// following up on their own question.
func firstHumanReply(replies []slacksvc.Reply, askedBy, botUserID types.SlackUserID) (slacksvc.Reply, bool) {
	for _, r := range replies {
		if r.IsBot || r.UserID == botUserID || r.UserID == askedBy || r.UserID == "" {
			continue
		}
		return r, true
	}
	return slacksvc.Reply{}, false
}

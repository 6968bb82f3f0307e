package slack

import (
	"context"
	"strconv"

	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// client implements Service on top of slack-go
type client struct {
	api       *slack.Client
	botUserID types.SlackUserID
}

// New creates a Slack service bound to one workspace's bot token. botUserID is
// the identity the token belongs to, taken from the installation record.
func New(token string, botUserID types.SlackUserID) (Service, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}

	return &client{
		api:       slack.New(token),
		botUserID: botUserID,
	}, nil
}

func (c *client) BotUserID() types.SlackUserID {
	return c.botUserID
}

func (c *client) PostThreadReply(ctx context.Context, channelID types.ChannelID, threadTS types.MessageTS, text string) (types.MessageTS, error) {
	_, ts, err := c.api.PostMessageContext(ctx, channelID.String(),
		slack.MsgOptionText(text, false),
		slack.MsgOptionTS(threadTS.String()),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to post thread reply",
			goerr.V("channel_id", channelID), goerr.V("thread_ts", threadTS))
	}
	return types.MessageTS(ts), nil
}

func (c *client) PostChannelMessage(ctx context.Context, channelID types.ChannelID, text string) (types.MessageTS, error) {
	_, ts, err := c.api.PostMessageContext(ctx, channelID.String(),
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return "", goerr.Wrap(err, "failed to post channel message",
			goerr.V("channel_id", channelID))
	}
	return types.MessageTS(ts), nil
}

func (c *client) PostDirectMessage(ctx context.Context, userID types.SlackUserID, text string) error {
	ch, _, _, err := c.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users: []string{userID.String()},
	})
	if err != nil {
		return goerr.Wrap(err, "failed to open DM", goerr.V("user_id", userID))
	}

	if _, _, err := c.api.PostMessageContext(ctx, ch.ID, slack.MsgOptionText(text, false)); err != nil {
		return goerr.Wrap(err, "failed to post DM", goerr.V("user_id", userID))
	}
	return nil
}

func (c *client) ListThreadReplies(ctx context.Context, channelID types.ChannelID, threadTS types.MessageTS, since types.MessageTS) ([]Reply, error) {
	var replies []Reply
	var cursor string

	for {
		msgs, hasMore, nextCursor, err := c.api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
			ChannelID: channelID.String(),
			Timestamp: threadTS.String(),
			Oldest:    since.String(),
			Cursor:    cursor,
			Limit:     200,
		})
		if err != nil {
			return nil, goerr.Wrap(err, "failed to get thread replies",
				goerr.V("channel_id", channelID), goerr.V("thread_ts", threadTS))
		}

		for _, msg := range msgs {
			// The API includes the thread root; only messages after the
			// reference point count as replies.
			if msg.Timestamp == threadTS.String() || !tsAfter(msg.Timestamp, since.String()) {
				continue
			}
			replies = append(replies, Reply{
				UserID: types.SlackUserID(msg.User),
				TS:     types.MessageTS(msg.Timestamp),
				Text:   msg.Text,
				IsBot:  msg.BotID != "",
			})
		}

		if !hasMore || nextCursor == "" {
			break
		}
		cursor = nextCursor
	}

	return replies, nil
}

// tsAfter compares Slack message timestamps numerically
func tsAfter(ts, reference string) bool {
	a, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return false
	}
	b, err := strconv.ParseFloat(reference, 64)
	if err != nil {
		return true
	}
	return a > b
}

func (c *client) Permalink(ctx context.Context, channelID types.ChannelID, ts types.MessageTS) (string, error) {
	link, err := c.api.GetPermalinkContext(ctx, &slack.PermalinkParameters{
		Channel: channelID.String(),
		Ts:      ts.String(),
	})
	if err != nil {
		return "", goerr.Wrap(err, "failed to get permalink",
			goerr.V("channel_id", channelID), goerr.V("ts", ts))
	}
	return link, nil
}

func (c *client) LookupUser(ctx context.Context, userID types.SlackUserID) (*User, error) {
	user, err := c.api.GetUserInfoContext(ctx, userID.String())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get user info", goerr.V("user_id", userID))
	}

	return &User{
		ID:       types.SlackUserID(user.ID),
		Name:     user.Name,
		RealName: user.RealName,
		IsBot:    user.IsBot,
		Deleted:  user.Deleted,
	}, nil
}

func (c *client) LookupUserGroup(ctx context.Context, groupID types.TargetID) (*UserGroup, error) {
	// The API has no single-group endpoint; list and match.
	groups, err := c.api.GetUserGroupsContext(ctx, slack.GetUserGroupsOptionIncludeDisabled(true))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list user groups", goerr.V("group_id", groupID))
	}

	for _, g := range groups {
		if g.ID != groupID.String() {
			continue
		}
		ug := &UserGroup{
			ID:     types.TargetID(g.ID),
			Handle: g.Handle,
			Name:   g.Name,
		}
		if g.DateDelete > 0 {
			ug.DeletedAt = g.DateDelete.Time()
		}
		return ug, nil
	}

	return nil, nil
}

func (c *client) LookupChannel(ctx context.Context, channelID types.ChannelID) (*Channel, error) {
	info, err := c.api.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{
		ChannelID: channelID.String(),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get channel info", goerr.V("channel_id", channelID))
	}

	return &Channel{
		ID:         types.ChannelID(info.ID),
		Name:       info.Name,
		IsArchived: info.IsArchived,
		IsMember:   info.IsMember,
	}, nil
}

package slack

import (
	"context"
	"time"

	"github.com/askloop/askloop/pkg/domain/types"
)

// Service provides the subset of the Slack Web API the escalation engine and
// target validation need, bound to one workspace's bot token.
type Service interface {
	// BotUserID returns the bot identity this client posts as. Replies from
	// this user never count as answers.
	BotUserID() types.SlackUserID

	// PostThreadReply posts text into the thread rooted at threadTS
	PostThreadReply(ctx context.Context, channelID types.ChannelID, threadTS types.MessageTS, text string) (types.MessageTS, error)

	// PostChannelMessage posts a standalone message to a channel
	PostChannelMessage(ctx context.Context, channelID types.ChannelID, text string) (types.MessageTS, error)

	// PostDirectMessage opens (or reuses) a DM with the user and posts text
	PostDirectMessage(ctx context.Context, userID types.SlackUserID, text string) error

	// ListThreadReplies retrieves replies in the thread rooted at threadTS
	// posted strictly after since (the root message itself is excluded)
	ListThreadReplies(ctx context.Context, channelID types.ChannelID, threadTS types.MessageTS, since types.MessageTS) ([]Reply, error)

	// Permalink resolves a browser link for a message. Best-effort; callers
	// fall back to plain references when it fails.
	Permalink(ctx context.Context, channelID types.ChannelID, ts types.MessageTS) (string, error)

	// LookupUser retrieves a user for target validation
	LookupUser(ctx context.Context, userID types.SlackUserID) (*User, error)

	// LookupUserGroup retrieves a user group for target validation
	LookupUserGroup(ctx context.Context, groupID types.TargetID) (*UserGroup, error)

	// LookupChannel retrieves a channel for target validation
	LookupChannel(ctx context.Context, channelID types.ChannelID) (*Channel, error)
}

// Reply is a thread reply observed via the API
type Reply struct {
	UserID types.SlackUserID
	TS     types.MessageTS
	Text   string
	IsBot  bool
}

// User represents a Slack user
type User struct {
	ID       types.SlackUserID
	Name     string
	RealName string
	IsBot    bool
	Deleted  bool
}

// UserGroup represents a Slack user group
type UserGroup struct {
	ID        types.TargetID
	Handle    string
	Name      string
	DeletedAt time.Time // zero when the group is alive
}

// Channel represents a Slack channel
type Channel struct {
	ID         types.ChannelID
	Name       string
	IsArchived bool
	IsMember   bool
}

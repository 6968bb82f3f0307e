package slack_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/askloop/askloop/pkg/domain/model/auth"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/askloop/askloop/pkg/repository/memory"
	slacksvc "github.com/askloop/askloop/pkg/service/slack"
)

type stubService struct{}

func (s *stubService) BotUserID() types.SlackUserID { return "U_BOT" }
func (s *stubService) PostThreadReply(ctx context.Context, channelID types.ChannelID, threadTS types.MessageTS, text string) (types.MessageTS, error) {
	return "", nil
}
func (s *stubService) PostChannelMessage(ctx context.Context, channelID types.ChannelID, text string) (types.MessageTS, error) {
	return "", nil
}
func (s *stubService) PostDirectMessage(ctx context.Context, userID types.SlackUserID, text string) error {
	return nil
}
func (s *stubService) ListThreadReplies(ctx context.Context, channelID types.ChannelID, threadTS, since types.MessageTS) ([]slacksvc.Reply, error) {
	return nil, nil
}
func (s *stubService) Permalink(ctx context.Context, channelID types.ChannelID, ts types.MessageTS) (string, error) {
	return "", nil
}
func (s *stubService) LookupUser(ctx context.Context, userID types.SlackUserID) (*slacksvc.User, error) {
	return nil, nil
}
func (s *stubService) LookupUserGroup(ctx context.Context, groupID types.TargetID) (*slacksvc.UserGroup, error) {
	return nil, nil
}
func (s *stubService) LookupChannel(ctx context.Context, channelID types.ChannelID) (*slacksvc.Channel, error) {
	return nil, nil
}

func TestProviderClientCache(t *testing.T) {
	ctx := context.Background()
	wsID := types.WorkspaceID("T_PROV")

	repo := memory.New()
	install := func(t *testing.T, token string) {
		t.Helper()
		gt.NoError(t, repo.PutInstallation(ctx, &auth.Installation{
			WorkspaceID: wsID,
			BotToken:    token,
			BotUserID:   "U_BOT",
			InstalledAt: time.Now(),
		})).Required()
	}

	var tokens []string
	provider := slacksvc.NewProvider(repo, slacksvc.WithFactory(
		func(token string, botUserID types.SlackUserID) (slacksvc.Service, error) {
			tokens = append(tokens, token)
			return &stubService{}, nil
		}))

	t.Run("uninstalled workspace yields ErrNoInstallation", func(t *testing.T) {
		_, err := provider.ClientFor(ctx, wsID)
		gt.Bool(t, errors.Is(err, slacksvc.ErrNoInstallation)).True()
	})

	t.Run("client is built once and cached", func(t *testing.T) {
		install(t, "xoxb-old")

		_, err := provider.ClientFor(ctx, wsID)
		gt.NoError(t, err).Required()
		_, err = provider.ClientFor(ctx, wsID)
		gt.NoError(t, err).Required()

		gt.Array(t, tokens).Equal([]string{"xoxb-old"})
	})

	t.Run("invalidate picks up a rotated token", func(t *testing.T) {
		install(t, "xoxb-new")

		// Still cached under the old credential until invalidated
		_, err := provider.ClientFor(ctx, wsID)
		gt.NoError(t, err).Required()
		gt.Array(t, tokens).Equal([]string{"xoxb-old"})

		provider.Invalidate(wsID)

		_, err = provider.ClientFor(ctx, wsID)
		gt.NoError(t, err).Required()
		gt.Array(t, tokens).Equal([]string{"xoxb-old", "xoxb-new"})
	})
}

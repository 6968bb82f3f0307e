package auth

import (
	"time"

	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Installation is the persisted record of a completed Slack app install for
// one workspace. The bot token is the credential every API call for that
// tenant is made with.
type Installation struct {
	WorkspaceID types.WorkspaceID
	TeamName    string
	BotToken    string `masq:"secret"`
	BotUserID   types.SlackUserID
	Scopes      string
	InstalledBy types.SlackUserID
	InstalledAt time.Time
}

// Validate checks if the Installation is valid
func (i *Installation) Validate() error {
	if err := i.WorkspaceID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid installation")
	}
	if i.BotToken == "" {
		return goerr.New("installation bot token is required",
			goerr.V("workspace_id", i.WorkspaceID))
	}
	return nil
}

// Usable reports whether the record carries a credential worth trying
func (i *Installation) Usable() bool {
	return i != nil && i.BotToken != ""
}

package config

import (
	"log/slog"

	"github.com/urfave/cli/v3"
)

// Slack holds CLI flags for the Slack app credentials used by the OAuth
// install handshake. Per-workspace bot tokens come from the installation
// records, not from flags.
type Slack struct {
	clientID     string
	clientSecret string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-client-id",
			Usage:       "Slack OAuth client ID",
			Category:    "Slack",
			Sources:     cli.EnvVars("ASKLOOP_SLACK_CLIENT_ID"),
			Destination: &x.clientID,
		},
		&cli.StringFlag{
			Name:        "slack-client-secret",
			Usage:       "Slack OAuth client secret",
			Category:    "Slack",
			Sources:     cli.EnvVars("ASKLOOP_SLACK_CLIENT_SECRET"),
			Destination: &x.clientSecret,
		},
	}
}

// ClientID returns the Slack OAuth client ID
func (x *Slack) ClientID() string {
	return x.clientID
}

// ClientSecret returns the Slack OAuth client secret
func (x *Slack) ClientSecret() string {
	return x.clientSecret
}

// IsConfigured reports whether the install handshake can run
func (x *Slack) IsConfigured() bool {
	return x.clientID != "" && x.clientSecret != ""
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("client-id.len", len(x.clientID)),
		slog.Int("client-secret.len", len(x.clientSecret)),
	)
}

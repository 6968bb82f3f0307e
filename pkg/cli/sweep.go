package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/askloop/askloop/pkg/cli/config"
	"github.com/askloop/askloop/pkg/service/escalation"
	slacksvc "github.com/askloop/askloop/pkg/service/slack"
	"github.com/askloop/askloop/pkg/utils/logging"
)

// cmdSweep runs a single escalation pass and exits. Useful for cron-style
// deployments and for poking a stuck environment by hand.
func cmdSweep() *cli.Command {
	var concurrency int
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "sweep-concurrency",
			Usage:       "Maximum workspaces swept in parallel",
			Value:       4,
			Sources:     cli.EnvVars("ASKLOOP_SWEEP_CONCURRENCY"),
			Destination: &concurrency,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:  "sweep",
		Usage: "Run one escalation sweep and exit",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			provider := slacksvc.NewProvider(repo)
			engine := escalation.New(repo, provider,
				escalation.WithConcurrency(concurrency),
			)

			if err := engine.Sweep(ctx); err != nil {
				return goerr.Wrap(err, "sweep failed")
			}

			logging.Default().Info("sweep completed")
			return nil
		},
	}
}

package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/askloop/askloop/pkg/cli/config"
	httpctrl "github.com/askloop/askloop/pkg/controller/http"
	"github.com/askloop/askloop/pkg/service/escalation"
	slacksvc "github.com/askloop/askloop/pkg/service/slack"
	"github.com/askloop/askloop/pkg/usecase"
	"github.com/askloop/askloop/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var sweepInterval time.Duration
	var sweepConcurrency int
	var repoCfg config.Repository
	var slackCfg config.Slack
	var sentryCfg config.Sentry
	var policyCfg config.Policy

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("ASKLOOP_ADDR"),
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "sweep-interval",
			Usage:       "Time between escalation sweeps",
			Value:       30 * time.Second,
			Sources:     cli.EnvVars("ASKLOOP_SWEEP_INTERVAL"),
			Destination: &sweepInterval,
		},
		&cli.IntFlag{
			Name:        "sweep-concurrency",
			Usage:       "Maximum workspaces swept in parallel",
			Value:       4,
			Sources:     cli.EnvVars("ASKLOOP_SWEEP_CONCURRENCY"),
			Destination: &sweepConcurrency,
		},
	}
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)
	flags = append(flags, policyCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server and the escalation engine",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			sentryCloser, err := sentryCfg.Configure(c.Root().Version)
			if err != nil {
				return goerr.Wrap(err, "failed to configure sentry")
			}
			defer sentryCloser()

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			if err := policyCfg.Apply(ctx, repo); err != nil {
				return goerr.Wrap(err, "failed to apply policy config")
			}

			provider := slacksvc.NewProvider(repo)

			ucOpts := []usecase.Option{
				usecase.WithInstallHook(provider.Invalidate),
			}
			if slackCfg.IsConfigured() {
				ucOpts = append(ucOpts, usecase.WithOAuthCredentials(slackCfg.ClientID(), slackCfg.ClientSecret()))
				logging.Default().Info("Slack OAuth install endpoint enabled", "slack", slackCfg)
			} else {
				logging.Default().Warn("Slack OAuth credentials not configured, install endpoint disabled")
			}
			uc := usecase.New(repo, ucOpts...)
			engine := escalation.New(repo, provider,
				escalation.WithInterval(sweepInterval),
				escalation.WithConcurrency(sweepConcurrency),
			)
			if err := engine.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start escalation engine")
			}

			stateSweeper := usecase.NewStateSweeper(uc.Auth, time.Minute)
			if err := stateSweeper.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start oauth state sweeper")
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc),
				ReadHeaderTimeout: 30 * time.Second,
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				engine.Stop()
				stateSweeper.Stop()
				return err

			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				// In-flight sweeps finish before the process exits
				engine.Stop()
				stateSweeper.Stop()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}

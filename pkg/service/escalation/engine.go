// Package escalation runs the periodic sweep that advances unanswered
// questions through the escalation ladder and notifies the configured targets.
package escalation

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/errgroup"

	"github.com/askloop/askloop/pkg/domain/interfaces"
	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/askloop/askloop/pkg/service/policy"
	slacksvc "github.com/askloop/askloop/pkg/service/slack"
	"github.com/askloop/askloop/pkg/service/target"
	"github.com/askloop/askloop/pkg/utils/async"
	"github.com/askloop/askloop/pkg/utils/errutil"
	"github.com/askloop/askloop/pkg/utils/logging"
	"github.com/askloop/askloop/pkg/utils/retry"
)

const (
	defaultInterval    = 30 * time.Second
	defaultConcurrency = 4
)

// Engine manages the background sweep loop
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - A tick that overruns the interval causes the next tick to be skipped, not
//   queued, so at most one sweep runs at a time
type Engine struct {
	repo     interfaces.Repository
	provider *slacksvc.Provider
	policies *policy.Resolver
	targets  *target.Resolver

	interval    time.Duration
	concurrency int
	now         func() time.Time
	retryOpts   []retry.Option

	sweeping atomic.Bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

type Option func(*Engine)

// WithInterval sets the time between sweeps
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.interval = d
	}
}

// WithConcurrency caps how many workspaces are swept in parallel
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		e.concurrency = n
	}
}

// WithClock replaces the time source (for tests)
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRetryOptions replaces the retry policy for Slack calls (for tests)
func WithRetryOptions(opts ...retry.Option) Option {
	return func(e *Engine) {
		e.retryOpts = opts
	}
}

// New creates an escalation engine
func New(repo interfaces.Repository, provider *slacksvc.Provider, opts ...Option) *Engine {
	e := &Engine{
		repo:        repo,
		provider:    provider,
		policies:    policy.New(repo),
		targets:     target.New(repo),
		interval:    defaultInterval,
		concurrency: defaultConcurrency,
		now:         time.Now,
		retryOpts:   slacksvc.RetryOptions(),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins the background sweep loop. Does not block.
func (e *Engine) Start(ctx context.Context) error {
	logging.Default().Info("escalation engine starting",
		"interval", e.interval.String(),
		"concurrency", e.concurrency)

	async.Dispatch(ctx, func(ctx context.Context) error {
		e.run(ctx)
		return nil
	})

	return nil
}

// Stop signals the engine to stop and waits for the loop to exit
func (e *Engine) Stop() {
	logging.Default().Info("escalation engine stopping")
	close(e.stopCh)
	<-e.doneCh
	logging.Default().Info("escalation engine stopped")
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.doneCh)

	if err := e.Sweep(ctx); err != nil {
		logging.Default().Error("escalation sweep failed (will retry next interval)",
			"error", err.Error())
	}

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := e.Sweep(ctx); err != nil {
				logging.Default().Error("escalation sweep failed (will retry next interval)",
					"error", err.Error())
			}

		case <-e.stopCh:
			return

		case <-ctx.Done():
			logging.Default().Info("escalation engine context cancelled")
			return
		}
	}
}

// Sweep runs one pass over all workspaces. When a sweep is already in flight,
// the call is skipped rather than queued.
func (e *Engine) Sweep(ctx context.Context) error {
	if !e.sweeping.CompareAndSwap(false, true) {
		logging.Default().Warn("escalation sweep still running, skipping tick")
		return nil
	}
	defer e.sweeping.Store(false)

	workspaces, err := e.repo.Workspace().List(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list workspaces")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, ws := range workspaces {
		g.Go(func() error {
			if err := e.sweepWorkspace(gctx, ws.ID); err != nil {
				// One broken tenant must not stop the others
				errutil.Handle(gctx, err, "workspace sweep failed")
			}
			return nil
		})
	}

	return g.Wait()
}

// sweepWorkspace evaluates every open question of one workspace against its
// effective policy and escalates the ones that are due.
func (e *Engine) sweepWorkspace(ctx context.Context, workspaceID types.WorkspaceID) error {
	svc, err := e.provider.ClientFor(ctx, workspaceID)
	if err != nil {
		if errors.Is(err, slacksvc.ErrNoInstallation) {
			logging.From(ctx).Debug("skipping workspace without installation",
				"workspace_id", workspaceID)
			return nil
		}
		return err
	}

	questions, err := e.repo.Question().ListOpen(ctx, workspaceID)
	if err != nil {
		return goerr.Wrap(err, "failed to list open questions",
			goerr.V("workspace_id", workspaceID))
	}
	if len(questions) == 0 {
		return nil
	}

	channelIDs := make([]types.ChannelID, 0, len(questions))
	seen := make(map[types.ChannelID]bool, len(questions))
	for _, q := range questions {
		if !seen[q.ChannelID] {
			seen[q.ChannelID] = true
			channelIDs = append(channelIDs, q.ChannelID)
		}
	}

	cfg, policies, err := e.policies.Snapshot(ctx, workspaceID, channelIDs)
	if err != nil {
		return err
	}

	now := e.now()
	targetsByLevel := make(map[int][]*model.EscalationTarget)

	for _, q := range questions {
		pol := policies[q.ChannelID]
		if !q.EscalationDue(pol, now) {
			continue
		}

		handled, err := e.reconcile(ctx, svc, q, pol.DetectionMode)
		if err != nil {
			errutil.Handle(ctx, err, "failed to reconcile question replies")
			continue
		}
		if handled {
			continue
		}

		level := q.Level + 1
		targets, ok := targetsByLevel[level]
		if !ok {
			targets, err = e.targets.ForLevel(ctx, cfg, level)
			if err != nil {
				return err
			}
			targetsByLevel[level] = targets
		}

		if err := e.escalate(ctx, svc, q, level, targets, now); err != nil {
			// Keep going; the next question may still succeed
			errutil.Handle(ctx, err, "failed to escalate question")
		}
	}

	return nil
}

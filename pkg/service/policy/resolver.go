// Package policy resolves the effective escalation policy for channels by
// overlaying channel overrides on the workspace configuration.
package policy

import (
	"context"

	"github.com/askloop/askloop/pkg/domain/interfaces"
	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Resolver computes effective policies with a bounded number of reads: one
// config fetch plus one batched channel fetch per workspace, regardless of
// how many questions reference the channels.
type Resolver struct {
	repo interfaces.Repository
}

func New(repo interfaces.Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Effective returns the policy for a single channel
func (r *Resolver) Effective(ctx context.Context, workspaceID types.WorkspaceID, channelID types.ChannelID) (*model.EscalationPolicy, error) {
	policies, err := r.EffectiveMany(ctx, workspaceID, []types.ChannelID{channelID})
	if err != nil {
		return nil, err
	}
	return policies[channelID], nil
}

// EffectiveMany returns the policy for each listed channel. Channels with no
// stored record get the workspace defaults. Every requested ID is present in
// the result.
func (r *Resolver) EffectiveMany(ctx context.Context, workspaceID types.WorkspaceID, channelIDs []types.ChannelID) (map[types.ChannelID]*model.EscalationPolicy, error) {
	_, policies, err := r.Snapshot(ctx, workspaceID, channelIDs)
	return policies, err
}

// Snapshot returns both the workspace config and the per-channel policies in
// one pass. The sweep needs the raw config as well (for the legacy target
// fallback), and issuing a second config read per workspace per tick adds up.
func (r *Resolver) Snapshot(ctx context.Context, workspaceID types.WorkspaceID, channelIDs []types.ChannelID) (*model.WorkspaceConfig, map[types.ChannelID]*model.EscalationPolicy, error) {
	cfg, err := r.repo.Workspace().GetConfig(ctx, workspaceID)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to get workspace config",
			goerr.V("workspace_id", workspaceID))
	}

	channels, err := r.repo.Channel().GetMany(ctx, workspaceID, channelIDs)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to get channels",
			goerr.V("workspace_id", workspaceID))
	}

	policies := make(map[types.ChannelID]*model.EscalationPolicy, len(channelIDs))
	for _, id := range channelIDs {
		ch, ok := channels[id]
		if !ok {
			ch = &model.Channel{ID: id, WorkspaceID: workspaceID}
		}
		policies[id] = ch.Policy(cfg)
	}

	return cfg, policies, nil
}

// Config returns the raw workspace configuration, creating defaults on first
// access.
func (r *Resolver) Config(ctx context.Context, workspaceID types.WorkspaceID) (*model.WorkspaceConfig, error) {
	cfg, err := r.repo.Workspace().GetConfig(ctx, workspaceID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get workspace config",
			goerr.V("workspace_id", workspaceID))
	}
	return cfg, nil
}

package model

import (
	"time"

	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// ChannelOverride holds per-channel settings. Every field is optional; a nil
// field falls back to the workspace-wide configuration.
type ChannelOverride struct {
	EscalationEnabled *bool
	FirstThreshold    *int
	SecondThreshold   *int
	FinalThreshold    *int
	DetectionMode     *types.DetectionMode
}

// Channel is a monitored conversation container within a workspace
type Channel struct {
	ID          types.ChannelID
	WorkspaceID types.WorkspaceID
	Name        string
	Monitored   bool
	Override    *ChannelOverride
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks if the Channel is valid
func (c *Channel) Validate() error {
	if err := c.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid channel")
	}
	if err := c.WorkspaceID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid channel")
	}
	if c.Override != nil && c.Override.DetectionMode != nil && !c.Override.DetectionMode.IsValid() {
		return goerr.New("invalid detection mode override",
			goerr.V("channel_id", c.ID), goerr.V("mode", *c.Override.DetectionMode))
	}
	return nil
}

// Policy overlays the channel override on the workspace config and returns the
// effective escalation policy for this channel.
func (c *Channel) Policy(cfg *WorkspaceConfig) *EscalationPolicy {
	p := &EscalationPolicy{
		FirstThreshold:    cfg.FirstThreshold,
		SecondThreshold:   cfg.SecondThreshold,
		FinalThreshold:    cfg.FinalThreshold,
		DetectionMode:     cfg.DetectionMode.Normalize(),
		EscalationEnabled: true,
	}

	o := c.Override
	if o == nil {
		return p
	}
	if o.EscalationEnabled != nil {
		p.EscalationEnabled = *o.EscalationEnabled
	}
	if o.FirstThreshold != nil {
		p.FirstThreshold = *o.FirstThreshold
	}
	if o.SecondThreshold != nil {
		p.SecondThreshold = *o.SecondThreshold
	}
	if o.FinalThreshold != nil {
		p.FinalThreshold = *o.FinalThreshold
	}
	if o.DetectionMode != nil {
		p.DetectionMode = o.DetectionMode.Normalize()
	}
	return p
}

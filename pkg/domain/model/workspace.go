package model

import (
	"time"

	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Workspace represents an installed Slack workspace (a tenant). It is created
// on the first observed event from a new team and never hard-deleted here.
type Workspace struct {
	ID        types.WorkspaceID
	Name      string
	CreatedAt time.Time
}

// Validate checks if the Workspace is valid
func (w *Workspace) Validate() error {
	if err := w.ID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid workspace")
	}
	return nil
}

// Default workspace configuration values applied on first access
const (
	DefaultFirstThreshold  = 30   // minutes
	DefaultSecondThreshold = 60   // minutes
	DefaultFinalThreshold  = 1440 // minutes
)

// WorkspaceConfig holds workspace-wide escalation settings (1:1 with
// Workspace). Channel overrides are layered on top of it; see EscalationPolicy.
//
// The Legacy* fields are the deprecated single-target configuration that
// predates the EscalationTarget table. They are kept so workspaces that never
// ran the target migration keep escalating; see the target resolver fallback.
type WorkspaceConfig struct {
	WorkspaceID types.WorkspaceID

	FirstThreshold  int // minutes before level 1
	SecondThreshold int // minutes at level 1 before level 2
	FinalThreshold  int // minutes at level 2 before level 3

	DetectionMode types.DetectionMode

	LegacyMigrated      bool
	LegacyLevel1Group   types.TargetID
	LegacyLevel2Channel types.TargetID
	LegacyLevel3User    types.TargetID

	UpdatedAt time.Time
}

// NewWorkspaceConfig returns the default configuration for a workspace
func NewWorkspaceConfig(workspaceID types.WorkspaceID) *WorkspaceConfig {
	return &WorkspaceConfig{
		WorkspaceID:     workspaceID,
		FirstThreshold:  DefaultFirstThreshold,
		SecondThreshold: DefaultSecondThreshold,
		FinalThreshold:  DefaultFinalThreshold,
		DetectionMode:   types.DetectionModeHybrid,
	}
}

// Validate checks if the WorkspaceConfig is valid
func (c *WorkspaceConfig) Validate() error {
	if err := c.WorkspaceID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid workspace config")
	}
	if c.FirstThreshold <= 0 || c.SecondThreshold <= 0 || c.FinalThreshold <= 0 {
		return goerr.New("escalation thresholds must be positive",
			goerr.V("first", c.FirstThreshold),
			goerr.V("second", c.SecondThreshold),
			goerr.V("final", c.FinalThreshold))
	}
	if !c.DetectionMode.Normalize().IsValid() {
		return goerr.New("invalid detection mode", goerr.V("mode", c.DetectionMode))
	}
	return nil
}

// EscalationPolicy is the effective configuration for one channel after
// overlaying channel overrides on the workspace config.
type EscalationPolicy struct {
	FirstThreshold    int
	SecondThreshold   int
	FinalThreshold    int
	DetectionMode     types.DetectionMode
	EscalationEnabled bool
}

// ThresholdFor returns the dwell time a question must exceed at the given
// level before advancing to the next one. ok is false when the level has no
// further tier (final or paused).
func (p *EscalationPolicy) ThresholdFor(level int) (time.Duration, bool) {
	switch level {
	case types.LevelNone:
		return time.Duration(p.FirstThreshold) * time.Minute, true
	case types.LevelFirst:
		return time.Duration(p.SecondThreshold) * time.Minute, true
	case types.LevelSecond:
		return time.Duration(p.FinalThreshold) * time.Minute, true
	default:
		return 0, false
	}
}

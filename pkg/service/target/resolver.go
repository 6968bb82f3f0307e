// Package target resolves notification destinations for escalation levels,
// covering both the target table and the legacy single-target configuration.
package target

import (
	"context"

	"github.com/askloop/askloop/pkg/domain/interfaces"
	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Resolver looks up the ordered target list for an escalation level
type Resolver struct {
	repo interfaces.Repository
}

func New(repo interfaces.Repository) *Resolver {
	return &Resolver{repo: repo}
}

// ForLevel returns the active targets for a level, ordered by priority then
// insertion order. When the target table has no rows for the level and the
// workspace never ran the target migration, it falls back to the legacy
// per-level field: at most one synthesized target, or none when the field is
// empty.
func (r *Resolver) ForLevel(ctx context.Context, cfg *model.WorkspaceConfig, level int) ([]*model.EscalationTarget, error) {
	if !types.IsEscalationLevel(level) {
		return nil, goerr.New("level out of range", goerr.V("level", level))
	}

	targets, err := r.repo.Target().ListByLevel(ctx, cfg.WorkspaceID, level)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list targets",
			goerr.V("workspace_id", cfg.WorkspaceID), goerr.V("level", level))
	}
	if len(targets) > 0 || cfg.LegacyMigrated {
		return targets, nil
	}

	if t := legacyTarget(cfg, level); t != nil {
		return []*model.EscalationTarget{t}, nil
	}
	return nil, nil
}

// legacyTarget synthesizes a target from the deprecated single-destination
// fields. The legacy scheme was fixed: a user group at level 1, a channel at
// level 2, a user at level 3.
func legacyTarget(cfg *model.WorkspaceConfig, level int) *model.EscalationTarget {
	var typ types.TargetType
	var id types.TargetID

	switch level {
	case types.LevelFirst:
		typ, id = types.TargetTypeUserGroup, cfg.LegacyLevel1Group
	case types.LevelSecond:
		typ, id = types.TargetTypeChannel, cfg.LegacyLevel2Channel
	case types.LevelFinal:
		typ, id = types.TargetTypeUser, cfg.LegacyLevel3User
	}
	if id == "" {
		return nil
	}

	return &model.EscalationTarget{
		ID:          "legacy:" + id.String(),
		WorkspaceID: cfg.WorkspaceID,
		Type:        typ,
		TargetID:    id,
		Level:       level,
		Active:      true,
	}
}

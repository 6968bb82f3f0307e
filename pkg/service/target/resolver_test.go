package target_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/askloop/askloop/pkg/repository/memory"
	"github.com/askloop/askloop/pkg/service/target"
)

func TestResolverForLevel(t *testing.T) {
	ctx := context.Background()
	wsID := types.WorkspaceID("T_TARGET")

	putTarget := func(t *testing.T, repo *memory.Memory, id string, typ types.TargetType, targetID types.TargetID, level, priority int, active bool) {
		t.Helper()
		gt.NoError(t, repo.Target().Put(ctx, &model.EscalationTarget{
			ID:          id,
			WorkspaceID: wsID,
			Type:        typ,
			TargetID:    targetID,
			Level:       level,
			Priority:    priority,
			Active:      active,
			CreatedAt:   time.Now(),
		})).Required()
	}

	t.Run("returns table rows ordered by priority", func(t *testing.T) {
		repo := memory.New()
		putTarget(t, repo, "t1", types.TargetTypeUser, "U_SECOND", types.LevelFirst, 2, true)
		putTarget(t, repo, "t2", types.TargetTypeUser, "U_FIRST", types.LevelFirst, 1, true)
		putTarget(t, repo, "t3", types.TargetTypeUser, "U_INACTIVE", types.LevelFirst, 0, false)

		cfg := model.NewWorkspaceConfig(wsID)
		targets, err := target.New(repo).ForLevel(ctx, cfg, types.LevelFirst)
		gt.NoError(t, err).Required()

		gt.Array(t, targets).Length(2)
		gt.Value(t, targets[0].TargetID).Equal("U_FIRST")
		gt.Value(t, targets[1].TargetID).Equal("U_SECOND")
	})

	t.Run("falls back to legacy fields when the table is empty", func(t *testing.T) {
		repo := memory.New()
		cfg := model.NewWorkspaceConfig(wsID)
		cfg.LegacyLevel1Group = "S_ONCALL"
		cfg.LegacyLevel2Channel = "C_ALERTS"
		cfg.LegacyLevel3User = "U_MANAGER"

		r := target.New(repo)

		first, err := r.ForLevel(ctx, cfg, types.LevelFirst)
		gt.NoError(t, err).Required()
		gt.Array(t, first).Length(1)
		gt.Value(t, first[0].Type).Equal(types.TargetTypeUserGroup)
		gt.Value(t, first[0].TargetID).Equal("S_ONCALL")

		second, err := r.ForLevel(ctx, cfg, types.LevelSecond)
		gt.NoError(t, err).Required()
		gt.Array(t, second).Length(1)
		gt.Value(t, second[0].Type).Equal(types.TargetTypeChannel)

		final, err := r.ForLevel(ctx, cfg, types.LevelFinal)
		gt.NoError(t, err).Required()
		gt.Array(t, final).Length(1)
		gt.Value(t, final[0].Type).Equal(types.TargetTypeUser)
		gt.Value(t, final[0].TargetID).Equal("U_MANAGER")
	})

	t.Run("legacy fallback yields nothing when the field is empty", func(t *testing.T) {
		repo := memory.New()
		cfg := model.NewWorkspaceConfig(wsID)
		cfg.LegacyLevel1Group = "S_ONCALL"

		targets, err := target.New(repo).ForLevel(ctx, cfg, types.LevelSecond)
		gt.NoError(t, err).Required()
		gt.Array(t, targets).Length(0)
	})

	t.Run("table rows suppress the legacy fallback", func(t *testing.T) {
		repo := memory.New()
		putTarget(t, repo, "t1", types.TargetTypeUser, "U_NEW", types.LevelFirst, 0, true)

		cfg := model.NewWorkspaceConfig(wsID)
		cfg.LegacyLevel1Group = "S_ONCALL"

		targets, err := target.New(repo).ForLevel(ctx, cfg, types.LevelFirst)
		gt.NoError(t, err).Required()
		gt.Array(t, targets).Length(1)
		gt.Value(t, targets[0].TargetID).Equal("U_NEW")
	})

	t.Run("migrated workspaces never fall back", func(t *testing.T) {
		repo := memory.New()
		cfg := model.NewWorkspaceConfig(wsID)
		cfg.LegacyMigrated = true
		cfg.LegacyLevel1Group = "S_ONCALL"

		targets, err := target.New(repo).ForLevel(ctx, cfg, types.LevelFirst)
		gt.NoError(t, err).Required()
		gt.Array(t, targets).Length(0)
	})

	t.Run("rejects levels outside the ladder", func(t *testing.T) {
		repo := memory.New()
		cfg := model.NewWorkspaceConfig(wsID)

		_, err := target.New(repo).ForLevel(ctx, cfg, types.LevelNone)
		gt.Value(t, err).NotNil()

		_, err = target.New(repo).ForLevel(ctx, cfg, types.LevelPaused)
		gt.Value(t, err).NotNil()
	})
}

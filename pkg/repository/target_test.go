package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/askloop/askloop/pkg/domain/interfaces"
	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/askloop/askloop/pkg/repository/memory"
)

func runTargetRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	const wsID = types.WorkspaceID("T_WS")

	put := func(t *testing.T, repo interfaces.Repository, id string, level, priority int, active bool, createdAt time.Time) {
		t.Helper()
		gt.NoError(t, repo.Target().Put(context.Background(), &model.EscalationTarget{
			ID:          id,
			WorkspaceID: wsID,
			Type:        types.TargetTypeUser,
			TargetID:    types.TargetID("U_" + id),
			Level:       level,
			Priority:    priority,
			Active:      active,
			CreatedAt:   createdAt,
		})).Required()
	}

	t.Run("ListByLevel returns active targets ordered by priority then insertion", func(t *testing.T) {
		repo := newRepo(t)
		base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

		put(t, repo, "late-high", types.LevelFirst, 1, true, base.Add(time.Hour))
		put(t, repo, "early-high", types.LevelFirst, 1, true, base)
		put(t, repo, "low", types.LevelFirst, 9, true, base)
		put(t, repo, "inactive", types.LevelFirst, 0, false, base)
		put(t, repo, "other-level", types.LevelSecond, 0, true, base)

		got, err := repo.Target().ListByLevel(context.Background(), wsID, types.LevelFirst)
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(3)
		gt.Value(t, got[0].ID).Equal("early-high")
		gt.Value(t, got[1].ID).Equal("late-high")
		gt.Value(t, got[2].ID).Equal("low")
	})

	t.Run("Delete removes a target", func(t *testing.T) {
		repo := newRepo(t)
		base := time.Now().UTC()

		put(t, repo, "doomed", types.LevelFinal, 0, true, base)
		gt.NoError(t, repo.Target().Delete(context.Background(), wsID, "doomed")).Required()

		got, err := repo.Target().ListByLevel(context.Background(), wsID, types.LevelFinal)
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(0)
	})
}

func runEscalationRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	const wsID = types.WorkspaceID("T_WS")
	const qID = types.QuestionID("T_WS:C1:1700000000.000100")

	t.Run("Append assigns ID and ListByQuestion returns oldest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

		for i, level := range []int{types.LevelFirst, types.LevelSecond} {
			gt.NoError(t, repo.Escalation().Append(ctx, &model.Escalation{
				QuestionID:  qID,
				WorkspaceID: wsID,
				Level:       level,
				Summary:     "user U1: notified",
				CreatedAt:   base.Add(time.Duration(i) * time.Hour),
			})).Required()
		}

		rows, err := repo.Escalation().ListByQuestion(ctx, wsID, qID)
		gt.NoError(t, err).Required()
		gt.Array(t, rows).Length(2)
		gt.Value(t, rows[0].Level).Equal(types.LevelFirst)
		gt.Value(t, rows[1].Level).Equal(types.LevelSecond)
		gt.Value(t, rows[0].ID).NotEqual(types.EscalationID(""))
	})
}

func TestTargetRepository_Memory(t *testing.T) {
	runTargetRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestTargetRepository_Firestore(t *testing.T) {
	runTargetRepositoryTest(t, newFirestoreRepo)
}

func TestEscalationRepository_Memory(t *testing.T) {
	runEscalationRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestEscalationRepository_Firestore(t *testing.T) {
	runEscalationRepositoryTest(t, newFirestoreRepo)
}

package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
)

func testPolicy() *model.EscalationPolicy {
	return &model.EscalationPolicy{
		FirstThreshold:    2,
		SecondThreshold:   4,
		FinalThreshold:    1440,
		DetectionMode:     types.DetectionModeHybrid,
		EscalationEnabled: true,
	}
}

func TestEscalationDue(t *testing.T) {
	askedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	newQ := func() *model.Question {
		return model.NewQuestion("T1", "C1", "U1", "1700000000.000100", "why?", askedAt)
	}

	t.Run("not due just before the first threshold", func(t *testing.T) {
		q := newQ()
		now := askedAt.Add(2*time.Minute - time.Second)
		gt.Bool(t, q.EscalationDue(testPolicy(), now)).False()
	})

	t.Run("due just after the first threshold", func(t *testing.T) {
		q := newQ()
		now := askedAt.Add(2*time.Minute + time.Second)
		gt.Bool(t, q.EscalationDue(testPolicy(), now)).True()
	})

	t.Run("dwell time at level 1 is measured from the last escalation", func(t *testing.T) {
		q := newQ()
		escalatedAt := askedAt.Add(3 * time.Minute)
		q.Level = types.LevelFirst
		q.LastEscalatedAt = &escalatedAt

		gt.Bool(t, q.EscalationDue(testPolicy(), escalatedAt.Add(4*time.Minute-time.Second))).False()
		gt.Bool(t, q.EscalationDue(testPolicy(), escalatedAt.Add(4*time.Minute+time.Second))).True()
	})

	t.Run("final level is never due again", func(t *testing.T) {
		q := newQ()
		escalatedAt := askedAt.Add(time.Hour)
		q.Level = types.LevelFinal
		q.LastEscalatedAt = &escalatedAt

		gt.Bool(t, q.EscalationDue(testPolicy(), escalatedAt.Add(365*24*time.Hour))).False()
	})

	t.Run("paused, answered and dismissed questions are never due", func(t *testing.T) {
		far := askedAt.Add(time.Hour)

		paused := newQ()
		paused.Level = types.LevelPaused
		gt.Bool(t, paused.EscalationDue(testPolicy(), far)).False()

		answered := newQ()
		answered.Status = types.QuestionStatusAnswered
		gt.Bool(t, answered.EscalationDue(testPolicy(), far)).False()

		dismissed := newQ()
		dismissed.Status = types.QuestionStatusDismissed
		gt.Bool(t, dismissed.EscalationDue(testPolicy(), far)).False()
	})

	t.Run("disabled escalation suppresses due checks", func(t *testing.T) {
		q := newQ()
		pol := testPolicy()
		pol.EscalationEnabled = false
		gt.Bool(t, q.EscalationDue(pol, askedAt.Add(time.Hour))).False()
	})
}

func TestChannelPolicyOverlay(t *testing.T) {
	cfg := model.NewWorkspaceConfig("T1")

	t.Run("channel without override inherits workspace config", func(t *testing.T) {
		ch := &model.Channel{ID: "C1", WorkspaceID: "T1"}
		pol := ch.Policy(cfg)

		gt.Value(t, pol.FirstThreshold).Equal(model.DefaultFirstThreshold)
		gt.Value(t, pol.DetectionMode).Equal(types.DetectionModeHybrid)
		gt.Bool(t, pol.EscalationEnabled).True()
	})

	t.Run("non-nil override fields win", func(t *testing.T) {
		disabled := false
		first := 5
		mode := types.DetectionModeEmojiOnly
		ch := &model.Channel{
			ID:          "C1",
			WorkspaceID: "T1",
			Override: &model.ChannelOverride{
				EscalationEnabled: &disabled,
				FirstThreshold:    &first,
				DetectionMode:     &mode,
			},
		}
		pol := ch.Policy(cfg)

		gt.Bool(t, pol.EscalationEnabled).False()
		gt.Value(t, pol.FirstThreshold).Equal(5)
		gt.Value(t, pol.SecondThreshold).Equal(model.DefaultSecondThreshold)
		gt.Value(t, pol.DetectionMode).Equal(types.DetectionModeEmojiOnly)
	})
}

func TestThresholdFor(t *testing.T) {
	pol := testPolicy()

	d, ok := pol.ThresholdFor(types.LevelNone)
	gt.Bool(t, ok).True()
	gt.Value(t, d).Equal(2 * time.Minute)

	d, ok = pol.ThresholdFor(types.LevelSecond)
	gt.Bool(t, ok).True()
	gt.Value(t, d).Equal(1440 * time.Minute)

	_, ok = pol.ThresholdFor(types.LevelFinal)
	gt.Bool(t, ok).False()

	_, ok = pol.ThresholdFor(types.LevelPaused)
	gt.Bool(t, ok).False()
}

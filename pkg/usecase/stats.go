package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
)

// StatsUseCase aggregates question outcomes for reporting. Read-only; nothing
// here feeds back into scheduling.
type StatsUseCase struct {
	uc *UseCases
}

// Compute aggregates all questions asked at or after since
func (x *StatsUseCase) Compute(ctx context.Context, workspaceID types.WorkspaceID, since time.Time) (*model.WorkspaceStats, error) {
	questions, err := x.uc.repo.Question().ListSince(ctx, workspaceID, since)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list questions for stats",
			goerr.V("workspace_id", workspaceID))
	}

	stats := &model.WorkspaceStats{
		WorkspaceID: workspaceID,
		Since:       since,
		Total:       len(questions),
	}

	byChannel := make(map[types.ChannelID]*model.ChannelStats)
	byAnswerer := make(map[types.SlackUserID]*model.AnswererStats)
	var responseSecs []float64

	for _, q := range questions {
		ch, ok := byChannel[q.ChannelID]
		if !ok {
			ch = &model.ChannelStats{ChannelID: q.ChannelID}
			byChannel[q.ChannelID] = ch
		}
		ch.Total++

		// LastEscalatedAt survives both answering and the paused sentinel
		// overwriting Level, so it is the reliable escalation marker
		if q.LastEscalatedAt != nil {
			stats.Escalated++
		}

		switch q.Status.Normalize() {
		case types.QuestionStatusAnswered:
			stats.Answered++
			ch.Answered++
			if q.AnsweredBy != "" {
				a, ok := byAnswerer[q.AnsweredBy]
				if !ok {
					a = &model.AnswererStats{UserID: q.AnsweredBy}
					byAnswerer[q.AnsweredBy] = a
				}
				a.Answered++
			}
			if q.AnsweredAt != nil && q.AnsweredAt.After(q.AskedAt) {
				responseSecs = append(responseSecs, q.AnsweredAt.Sub(q.AskedAt).Seconds())
			}

		case types.QuestionStatusDismissed:
			stats.Dismissed++

		default:
			stats.Unanswered++
		}
	}

	if stats.Total > 0 {
		stats.AnswerRate = float64(stats.Answered) / float64(stats.Total)
	}
	if len(responseSecs) > 0 {
		sort.Float64s(responseSecs)
		var sum float64
		for _, s := range responseSecs {
			sum += s
		}
		stats.MeanResponseSeconds = sum / float64(len(responseSecs))
		stats.P50ResponseSeconds = percentile(responseSecs, 0.50)
		stats.P90ResponseSeconds = percentile(responseSecs, 0.90)
	}

	for _, ch := range byChannel {
		stats.ByChannel = append(stats.ByChannel, *ch)
	}
	sort.Slice(stats.ByChannel, func(i, j int) bool {
		if stats.ByChannel[i].Total != stats.ByChannel[j].Total {
			return stats.ByChannel[i].Total > stats.ByChannel[j].Total
		}
		return stats.ByChannel[i].ChannelID < stats.ByChannel[j].ChannelID
	})

	for _, a := range byAnswerer {
		stats.ByAnswerer = append(stats.ByAnswerer, *a)
	}
	sort.Slice(stats.ByAnswerer, func(i, j int) bool {
		if stats.ByAnswerer[i].Answered != stats.ByAnswerer[j].Answered {
			return stats.ByAnswerer[i].Answered > stats.ByAnswerer[j].Answered
		}
		return stats.ByAnswerer[i].UserID < stats.ByAnswerer[j].UserID
	})

	return stats, nil
}

// percentile returns the nearest-rank percentile of sorted values
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(p*float64(len(sorted))+0.5) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

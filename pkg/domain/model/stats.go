package model

import (
	"time"

	"github.com/askloop/askloop/pkg/domain/types"
)

// ChannelStats is the per-channel breakdown within WorkspaceStats
type ChannelStats struct {
	ChannelID types.ChannelID
	Total     int
	Answered  int
}

// AnswererStats is the per-responder breakdown within WorkspaceStats
type AnswererStats struct {
	UserID   types.SlackUserID
	Answered int
}

// WorkspaceStats aggregates question outcomes for one workspace over a window.
// Read-only reporting; nothing here feeds back into scheduling.
type WorkspaceStats struct {
	WorkspaceID types.WorkspaceID
	Since       time.Time

	Total      int
	Answered   int
	Dismissed  int
	Unanswered int
	Escalated  int // questions that reached at least level 1

	AnswerRate float64 // answered / total, 0 when total is 0

	MeanResponseSeconds float64
	P50ResponseSeconds  float64
	P90ResponseSeconds  float64

	ByChannel  []ChannelStats
	ByAnswerer []AnswererStats
}

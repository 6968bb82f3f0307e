package model

import (
	"sort"
	"time"

	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// EscalationTarget is an ordered notification destination for one escalation
// level. Duplicates are allowed; each one simply executes.
type EscalationTarget struct {
	ID          string
	WorkspaceID types.WorkspaceID
	Type        types.TargetType
	TargetID    types.TargetID
	DisplayName string // cached; may lag behind the directory
	Level       int
	Priority    int
	Active      bool
	CreatedAt   time.Time
}

// Validate checks if the EscalationTarget is valid
func (t *EscalationTarget) Validate() error {
	if err := t.WorkspaceID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid escalation target")
	}
	if !t.Type.IsValid() {
		return goerr.New("invalid target type", goerr.V("type", t.Type))
	}
	if t.TargetID == "" {
		return goerr.New("target ID is required", goerr.V("id", t.ID))
	}
	if !types.IsEscalationLevel(t.Level) {
		return goerr.New("target level out of range", goerr.V("level", t.Level))
	}
	return nil
}

// SortTargets orders targets by priority ascending, then insertion order
func SortTargets(targets []*EscalationTarget) {
	sort.SliceStable(targets, func(i, j int) bool {
		if targets[i].Priority != targets[j].Priority {
			return targets[i].Priority < targets[j].Priority
		}
		return targets[i].CreatedAt.Before(targets[j].CreatedAt)
	})
}

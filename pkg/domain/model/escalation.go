package model

import (
	"time"

	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Escalation is one row of the append-only escalation log: a single
// escalation attempt for a question, written once and read only for audit.
type Escalation struct {
	ID          types.EscalationID
	QuestionID  types.QuestionID
	WorkspaceID types.WorkspaceID
	Level       int
	Summary     string // human-readable record of which actions ran and how they ended
	CreatedAt   time.Time
}

// Validate checks if the Escalation is valid
func (e *Escalation) Validate() error {
	if err := e.QuestionID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid escalation")
	}
	if err := e.WorkspaceID.Validate(); err != nil {
		return goerr.Wrap(err, "invalid escalation")
	}
	return nil
}

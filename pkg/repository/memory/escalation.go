package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

type escalationRepository struct {
	mu   sync.RWMutex
	rows map[types.WorkspaceID][]*model.Escalation
}

func newEscalationRepository() *escalationRepository {
	return &escalationRepository{
		rows: make(map[types.WorkspaceID][]*model.Escalation),
	}
}

func copyEscalation(e *model.Escalation) *model.Escalation {
	copied := *e
	return &copied
}

func (r *escalationRepository) Append(ctx context.Context, e *model.Escalation) error {
	if err := e.Validate(); err != nil {
		return goerr.Wrap(err, "invalid escalation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyEscalation(e)
	if stored.ID == "" {
		stored.ID = types.EscalationID(uuid.Must(uuid.NewV7()).String())
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	r.rows[e.WorkspaceID] = append(r.rows[e.WorkspaceID], stored)
	return nil
}

func (r *escalationRepository) ListByQuestion(ctx context.Context, workspaceID types.WorkspaceID, questionID types.QuestionID) ([]*model.Escalation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Escalation, 0)
	for _, e := range r.rows[workspaceID] {
		if e.QuestionID == questionID {
			result = append(result, copyEscalation(e))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

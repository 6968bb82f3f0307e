package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type questionRepository struct {
	mu        sync.Mutex
	questions map[types.WorkspaceID]map[types.QuestionID]*model.Question
}

func newQuestionRepository() *questionRepository {
	return &questionRepository{
		questions: make(map[types.WorkspaceID]map[types.QuestionID]*model.Question),
	}
}

func copyQuestion(q *model.Question) *model.Question {
	copied := *q
	if q.Keywords != nil {
		kw := make([]string, len(q.Keywords))
		copy(kw, q.Keywords)
		copied.Keywords = kw
	}
	if q.LastEscalatedAt != nil {
		t := *q.LastEscalatedAt
		copied.LastEscalatedAt = &t
	}
	if q.AnsweredAt != nil {
		t := *q.AnsweredAt
		copied.AnsweredAt = &t
	}
	return &copied
}

func (r *questionRepository) Create(ctx context.Context, q *model.Question) (*model.Question, error) {
	if err := q.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid question")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.questions[q.WorkspaceID]
	if !ok {
		ws = make(map[types.QuestionID]*model.Question)
		r.questions[q.WorkspaceID] = ws
	}

	id := q.ID
	if id == "" {
		id = types.NewQuestionID(q.WorkspaceID, q.ChannelID, q.MessageTS)
	}
	if _, exists := ws[id]; exists {
		return nil, goerr.Wrap(model.ErrQuestionExists, "question already ingested",
			goerr.V("workspace_id", q.WorkspaceID), goerr.V("id", id))
	}

	now := time.Now().UTC()
	created := copyQuestion(q)
	created.ID = id
	created.Status = q.Status.Normalize()
	created.CreatedAt = now
	created.UpdatedAt = now

	ws[id] = created
	return copyQuestion(created), nil
}

func (r *questionRepository) get(workspaceID types.WorkspaceID, id types.QuestionID) (*model.Question, error) {
	ws, ok := r.questions[workspaceID]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "question not found", goerr.V("id", id))
	}
	q, ok := ws[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "question not found", goerr.V("id", id))
	}
	return q, nil
}

func (r *questionRepository) Get(ctx context.Context, workspaceID types.WorkspaceID, id types.QuestionID) (*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, err := r.get(workspaceID, id)
	if err != nil {
		return nil, err
	}
	return copyQuestion(q), nil
}

func (r *questionRepository) ListOpen(ctx context.Context, workspaceID types.WorkspaceID) ([]*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.questions[workspaceID]
	if !ok {
		return []*model.Question{}, nil
	}

	result := make([]*model.Question, 0)
	for _, q := range ws {
		if q.IsOpen() {
			result = append(result, copyQuestion(q))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AskedAt.Before(result[j].AskedAt) })
	return result, nil
}

func (r *questionRepository) ListSince(ctx context.Context, workspaceID types.WorkspaceID, since time.Time) ([]*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.questions[workspaceID]
	if !ok {
		return []*model.Question{}, nil
	}

	result := make([]*model.Question, 0)
	for _, q := range ws {
		if !q.AskedAt.Before(since) {
			result = append(result, copyQuestion(q))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AskedAt.Before(result[j].AskedAt) })
	return result, nil
}

func (r *questionRepository) MarkAnswered(ctx context.Context, workspaceID types.WorkspaceID, id types.QuestionID, answeredBy types.SlackUserID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, err := r.get(workspaceID, id)
	if err != nil {
		return err
	}

	// Idempotent: the first answer wins
	if q.Status == types.QuestionStatusAnswered {
		return nil
	}

	q.Status = types.QuestionStatusAnswered
	q.AnsweredBy = answeredBy
	answeredAt := at
	q.AnsweredAt = &answeredAt
	q.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *questionRepository) MarkDismissed(ctx context.Context, workspaceID types.WorkspaceID, id types.QuestionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, err := r.get(workspaceID, id)
	if err != nil {
		return err
	}

	q.Status = types.QuestionStatusDismissed
	q.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *questionRepository) AdvanceLevel(ctx context.Context, workspaceID types.WorkspaceID, id types.QuestionID, newLevel int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, err := r.get(workspaceID, id)
	if err != nil {
		return err
	}

	q.Level = newLevel
	escalatedAt := at
	q.LastEscalatedAt = &escalatedAt
	q.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *questionRepository) Pause(ctx context.Context, workspaceID types.WorkspaceID, id types.QuestionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, err := r.get(workspaceID, id)
	if err != nil {
		return err
	}

	q.Level = types.LevelPaused
	q.UpdatedAt = time.Now().UTC()
	return nil
}

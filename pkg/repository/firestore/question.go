package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type questionRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newQuestionRepository(client *firestore.Client) *questionRepository {
	return &questionRepository{client: client}
}

func (r *questionRepository) questionsCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_questions"
	}
	return "questions"
}

// Create relies on Firestore's document-create semantics for idempotency: the
// document ID is derived from (workspace, channel, message timestamp), so a
// second delivery of the same message fails with AlreadyExists no matter how
// concurrent the deliveries are.
func (r *questionRepository) Create(ctx context.Context, q *model.Question) (*model.Question, error) {
	if err := q.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid question")
	}

	now := time.Now().UTC()
	created := *q
	if created.ID == "" {
		created.ID = types.NewQuestionID(q.WorkspaceID, q.ChannelID, q.MessageTS)
	}
	created.Status = q.Status.Normalize()
	created.CreatedAt = now
	created.UpdatedAt = now

	docRef := r.client.Collection(r.questionsCollection()).Doc(created.ID.String())
	if _, err := docRef.Create(ctx, &created); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(model.ErrQuestionExists, "question already ingested",
				goerr.V("workspace_id", q.WorkspaceID), goerr.V("id", created.ID))
		}
		return nil, goerr.Wrap(err, "failed to create question", goerr.V("id", created.ID))
	}

	return &created, nil
}

func (r *questionRepository) Get(ctx context.Context, workspaceID types.WorkspaceID, id types.QuestionID) (*model.Question, error) {
	doc, err := r.client.Collection(r.questionsCollection()).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "question not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get question", goerr.V("id", id))
	}

	var q model.Question
	if err := doc.DataTo(&q); err != nil {
		return nil, goerr.Wrap(err, "failed to decode question", goerr.V("id", id))
	}
	return &q, nil
}

func (r *questionRepository) ListOpen(ctx context.Context, workspaceID types.WorkspaceID) ([]*model.Question, error) {
	iter := r.client.Collection(r.questionsCollection()).
		Where("WorkspaceID", "==", workspaceID.String()).
		Where("Status", "==", types.QuestionStatusUnanswered.String()).
		Documents(ctx)
	defer iter.Stop()

	questions := make([]*model.Question, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate questions")
		}

		var q model.Question
		if err := doc.DataTo(&q); err != nil {
			return nil, goerr.Wrap(err, "failed to decode question", goerr.V("doc_id", doc.Ref.ID))
		}
		// Paused questions keep the unanswered status; filtered here rather
		// than in the query to avoid an inequality clause on Level.
		if q.Paused() {
			continue
		}
		questions = append(questions, &q)
	}
	return questions, nil
}

func (r *questionRepository) ListSince(ctx context.Context, workspaceID types.WorkspaceID, since time.Time) ([]*model.Question, error) {
	iter := r.client.Collection(r.questionsCollection()).
		Where("WorkspaceID", "==", workspaceID.String()).
		Where("AskedAt", ">=", since).
		Documents(ctx)
	defer iter.Stop()

	questions := make([]*model.Question, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate questions")
		}

		var q model.Question
		if err := doc.DataTo(&q); err != nil {
			return nil, goerr.Wrap(err, "failed to decode question", goerr.V("doc_id", doc.Ref.ID))
		}
		questions = append(questions, &q)
	}
	return questions, nil
}

// mutate runs a read-modify-write transaction on one question document
func (r *questionRepository) mutate(ctx context.Context, id types.QuestionID, fn func(q *model.Question) bool) error {
	docRef := r.client.Collection(r.questionsCollection()).Doc(id.String())

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(model.ErrNotFound, "question not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get question")
		}

		var q model.Question
		if err := doc.DataTo(&q); err != nil {
			return goerr.Wrap(err, "failed to decode question", goerr.V("id", id))
		}

		if !fn(&q) {
			return nil // no-op
		}
		q.UpdatedAt = time.Now().UTC()
		return tx.Set(docRef, &q)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to update question", goerr.V("id", id))
	}
	return nil
}

func (r *questionRepository) MarkAnswered(ctx context.Context, workspaceID types.WorkspaceID, id types.QuestionID, answeredBy types.SlackUserID, at time.Time) error {
	return r.mutate(ctx, id, func(q *model.Question) bool {
		// Idempotent: the first answer wins
		if q.Status == types.QuestionStatusAnswered {
			return false
		}
		q.Status = types.QuestionStatusAnswered
		q.AnsweredBy = answeredBy
		answeredAt := at
		q.AnsweredAt = &answeredAt
		return true
	})
}

func (r *questionRepository) MarkDismissed(ctx context.Context, workspaceID types.WorkspaceID, id types.QuestionID) error {
	return r.mutate(ctx, id, func(q *model.Question) bool {
		q.Status = types.QuestionStatusDismissed
		return true
	})
}

func (r *questionRepository) AdvanceLevel(ctx context.Context, workspaceID types.WorkspaceID, id types.QuestionID, newLevel int, at time.Time) error {
	return r.mutate(ctx, id, func(q *model.Question) bool {
		q.Level = newLevel
		escalatedAt := at
		q.LastEscalatedAt = &escalatedAt
		return true
	})
}

func (r *questionRepository) Pause(ctx context.Context, workspaceID types.WorkspaceID, id types.QuestionID) error {
	return r.mutate(ctx, id, func(q *model.Question) bool {
		q.Level = types.LevelPaused
		return true
	})
}

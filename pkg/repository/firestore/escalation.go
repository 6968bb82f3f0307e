package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
)

type escalationRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newEscalationRepository(client *firestore.Client) *escalationRepository {
	return &escalationRepository{client: client}
}

func (r *escalationRepository) escalationsCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_escalations"
	}
	return "escalations"
}

func (r *escalationRepository) Append(ctx context.Context, e *model.Escalation) error {
	if err := e.Validate(); err != nil {
		return goerr.Wrap(err, "invalid escalation")
	}

	stored := *e
	if stored.ID == "" {
		stored.ID = types.EscalationID(uuid.Must(uuid.NewV7()).String())
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	docRef := r.client.Collection(r.escalationsCollection()).Doc(stored.ID.String())
	if _, err := docRef.Create(ctx, &stored); err != nil {
		return goerr.Wrap(err, "failed to append escalation", goerr.V("id", stored.ID))
	}
	return nil
}

func (r *escalationRepository) ListByQuestion(ctx context.Context, workspaceID types.WorkspaceID, questionID types.QuestionID) ([]*model.Escalation, error) {
	iter := r.client.Collection(r.escalationsCollection()).
		Where("QuestionID", "==", questionID.String()).
		OrderBy("CreatedAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	rows := make([]*model.Escalation, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate escalations")
		}

		var e model.Escalation
		if err := doc.DataTo(&e); err != nil {
			return nil, goerr.Wrap(err, "failed to decode escalation", goerr.V("doc_id", doc.Ref.ID))
		}
		rows = append(rows, &e)
	}
	return rows, nil
}

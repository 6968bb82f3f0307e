package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type targetRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newTargetRepository(client *firestore.Client) *targetRepository {
	return &targetRepository{client: client}
}

func (r *targetRepository) targetsCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_escalation_targets"
	}
	return "escalation_targets"
}

func targetDocID(workspaceID types.WorkspaceID, id string) string {
	return fmt.Sprintf("%s:%s", workspaceID, id)
}

func (r *targetRepository) Put(ctx context.Context, target *model.EscalationTarget) error {
	if err := target.Validate(); err != nil {
		return goerr.Wrap(err, "invalid escalation target")
	}
	if target.ID == "" {
		return goerr.New("target ID is required")
	}

	stored := *target
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	docRef := r.client.Collection(r.targetsCollection()).Doc(targetDocID(target.WorkspaceID, target.ID))
	if _, err := docRef.Set(ctx, &stored); err != nil {
		return goerr.Wrap(err, "failed to put target", goerr.V("id", target.ID))
	}
	return nil
}

func (r *targetRepository) ListByLevel(ctx context.Context, workspaceID types.WorkspaceID, level int) ([]*model.EscalationTarget, error) {
	iter := r.client.Collection(r.targetsCollection()).
		Where("WorkspaceID", "==", workspaceID.String()).
		Where("Level", "==", level).
		Where("Active", "==", true).
		Documents(ctx)
	defer iter.Stop()

	targets, err := collectTargets(iter)
	if err != nil {
		return nil, err
	}
	model.SortTargets(targets)
	return targets, nil
}

func (r *targetRepository) List(ctx context.Context, workspaceID types.WorkspaceID) ([]*model.EscalationTarget, error) {
	iter := r.client.Collection(r.targetsCollection()).
		Where("WorkspaceID", "==", workspaceID.String()).
		Documents(ctx)
	defer iter.Stop()

	targets, err := collectTargets(iter)
	if err != nil {
		return nil, err
	}
	model.SortTargets(targets)
	return targets, nil
}

func collectTargets(iter *firestore.DocumentIterator) ([]*model.EscalationTarget, error) {
	targets := make([]*model.EscalationTarget, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate targets")
		}

		var t model.EscalationTarget
		if err := doc.DataTo(&t); err != nil {
			return nil, goerr.Wrap(err, "failed to decode target", goerr.V("doc_id", doc.Ref.ID))
		}
		targets = append(targets, &t)
	}
	return targets, nil
}

func (r *targetRepository) Delete(ctx context.Context, workspaceID types.WorkspaceID, id string) error {
	docRef := r.client.Collection(r.targetsCollection()).Doc(targetDocID(workspaceID, id))

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(model.ErrNotFound, "target not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get target", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete target", goerr.V("id", id))
	}
	return nil
}

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

type workspaceRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newWorkspaceRepository(client *firestore.Client) *workspaceRepository {
	return &workspaceRepository{client: client}
}

func (r *workspaceRepository) workspacesCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_workspaces"
	}
	return "workspaces"
}

func (r *workspaceRepository) configsCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_workspace_configs"
	}
	return "workspace_configs"
}

func (r *workspaceRepository) Put(ctx context.Context, ws *model.Workspace) error {
	if err := ws.Validate(); err != nil {
		return goerr.Wrap(err, "invalid workspace")
	}

	docRef := r.client.Collection(r.workspacesCollection()).Doc(ws.ID.String())

	stored := *ws
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		switch {
		case err == nil:
			// Preserve the original creation time on re-register
			var existing model.Workspace
			if err := doc.DataTo(&existing); err != nil {
				return goerr.Wrap(err, "failed to decode workspace")
			}
			stored.CreatedAt = existing.CreatedAt
		case status.Code(err) == codes.NotFound:
			if stored.CreatedAt.IsZero() {
				stored.CreatedAt = time.Now().UTC()
			}
		default:
			return goerr.Wrap(err, "failed to get workspace")
		}
		return tx.Set(docRef, &stored)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to put workspace", goerr.V("id", ws.ID))
	}
	return nil
}

func (r *workspaceRepository) Get(ctx context.Context, id types.WorkspaceID) (*model.Workspace, error) {
	doc, err := r.client.Collection(r.workspacesCollection()).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "workspace not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get workspace", goerr.V("id", id))
	}

	var ws model.Workspace
	if err := doc.DataTo(&ws); err != nil {
		return nil, goerr.Wrap(err, "failed to decode workspace", goerr.V("id", id))
	}
	return &ws, nil
}

func (r *workspaceRepository) List(ctx context.Context) ([]*model.Workspace, error) {
	iter := r.client.Collection(r.workspacesCollection()).Documents(ctx)
	defer iter.Stop()

	var workspaces []*model.Workspace
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate workspaces")
		}

		var ws model.Workspace
		if err := doc.DataTo(&ws); err != nil {
			return nil, goerr.Wrap(err, "failed to decode workspace", goerr.V("doc_id", doc.Ref.ID))
		}
		workspaces = append(workspaces, &ws)
	}
	return workspaces, nil
}

func (r *workspaceRepository) GetConfig(ctx context.Context, id types.WorkspaceID) (*model.WorkspaceConfig, error) {
	if err := id.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid workspace ID")
	}

	docRef := r.client.Collection(r.configsCollection()).Doc(id.String())

	var cfg model.WorkspaceConfig
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				// Lazy default creation on first access
				created := model.NewWorkspaceConfig(id)
				created.UpdatedAt = time.Now().UTC()
				cfg = *created
				return tx.Create(docRef, created)
			}
			return goerr.Wrap(err, "failed to get workspace config")
		}
		return doc.DataTo(&cfg)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve workspace config", goerr.V("id", id))
	}
	return &cfg, nil
}

func (r *workspaceRepository) PutConfig(ctx context.Context, cfg *model.WorkspaceConfig) error {
	if err := cfg.Validate(); err != nil {
		return goerr.Wrap(err, "invalid workspace config")
	}

	stored := *cfg
	stored.UpdatedAt = time.Now().UTC()

	docRef := r.client.Collection(r.configsCollection()).Doc(cfg.WorkspaceID.String())
	if _, err := docRef.Set(ctx, &stored); err != nil {
		return goerr.Wrap(err, "failed to put workspace config", goerr.V("id", cfg.WorkspaceID))
	}
	return nil
}

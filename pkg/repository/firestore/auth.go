package firestore

import (
	"context"

	"github.com/askloop/askloop/pkg/domain/model"
	"github.com/askloop/askloop/pkg/domain/model/auth"
	"github.com/askloop/askloop/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	installationsCollection = "installations"
	statesCollection        = "oauth_states"
)

func (f *Firestore) PutInstallation(ctx context.Context, inst *auth.Installation) error {
	if err := inst.Validate(); err != nil {
		return goerr.Wrap(err, "invalid installation")
	}

	docRef := f.client.Collection(installationsCollection).Doc(inst.WorkspaceID.String())
	if _, err := docRef.Set(ctx, inst); err != nil {
		return goerr.Wrap(err, "failed to put installation", goerr.V("workspace_id", inst.WorkspaceID))
	}
	return nil
}

func (f *Firestore) GetInstallation(ctx context.Context, workspaceID types.WorkspaceID) (*auth.Installation, error) {
	if err := workspaceID.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid workspace ID")
	}

	doc, err := f.client.Collection(installationsCollection).Doc(workspaceID.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "installation not found",
				goerr.V("workspace_id", workspaceID))
		}
		return nil, goerr.Wrap(err, "failed to get installation")
	}

	var inst auth.Installation
	if err := doc.DataTo(&inst); err != nil {
		return nil, goerr.Wrap(err, "failed to decode installation")
	}
	return &inst, nil
}

func (f *Firestore) PutState(ctx context.Context, state *auth.State) error {
	if err := state.Validate(); err != nil {
		return goerr.Wrap(err, "invalid state")
	}

	docRef := f.client.Collection(statesCollection).Doc(state.Token.String())
	if _, err := docRef.Set(ctx, state); err != nil {
		return goerr.Wrap(err, "failed to put state")
	}
	return nil
}

func (f *Firestore) GetState(ctx context.Context, token types.StateToken) (*auth.State, error) {
	if err := token.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid state token")
	}

	doc, err := f.client.Collection(statesCollection).Doc(token.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "state not found")
		}
		return nil, goerr.Wrap(err, "failed to get state")
	}

	var state auth.State
	if err := doc.DataTo(&state); err != nil {
		return nil, goerr.Wrap(err, "failed to decode state")
	}
	return &state, nil
}

func (f *Firestore) DeleteState(ctx context.Context, token types.StateToken) error {
	if err := token.Validate(); err != nil {
		return goerr.Wrap(err, "invalid state token")
	}

	docRef := f.client.Collection(statesCollection).Doc(token.String())

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(model.ErrNotFound, "state not found")
		}
		return goerr.Wrap(err, "failed to get state")
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete state")
	}
	return nil
}

func (f *Firestore) ListStates(ctx context.Context) ([]*auth.State, error) {
	iter := f.client.Collection(statesCollection).Documents(ctx)
	defer iter.Stop()

	states := make([]*auth.State, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate states")
		}

		var state auth.State
		if err := doc.DataTo(&state); err != nil {
			return nil, goerr.Wrap(err, "failed to decode state", goerr.V("doc_id", doc.Ref.ID))
		}
		states = append(states, &state)
	}
	return states, nil
}

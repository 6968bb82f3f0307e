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

type channelRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newChannelRepository(client *firestore.Client) *channelRepository {
	return &channelRepository{client: client}
}

func (r *channelRepository) channelsCollection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_channels"
	}
	return "channels"
}

func channelDocID(workspaceID types.WorkspaceID, id types.ChannelID) string {
	return fmt.Sprintf("%s:%s", workspaceID, id)
}

func (r *channelRepository) Put(ctx context.Context, ch *model.Channel) error {
	if err := ch.Validate(); err != nil {
		return goerr.Wrap(err, "invalid channel")
	}

	docRef := r.client.Collection(r.channelsCollection()).Doc(channelDocID(ch.WorkspaceID, ch.ID))

	stored := *ch
	now := time.Now().UTC()
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(docRef)
		switch {
		case err == nil:
			var existing model.Channel
			if err := doc.DataTo(&existing); err != nil {
				return goerr.Wrap(err, "failed to decode channel")
			}
			stored.CreatedAt = existing.CreatedAt
		case status.Code(err) == codes.NotFound:
			if stored.CreatedAt.IsZero() {
				stored.CreatedAt = now
			}
		default:
			return goerr.Wrap(err, "failed to get channel")
		}
		stored.UpdatedAt = now
		return tx.Set(docRef, &stored)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to put channel", goerr.V("id", ch.ID))
	}
	return nil
}

func (r *channelRepository) Get(ctx context.Context, workspaceID types.WorkspaceID, id types.ChannelID) (*model.Channel, error) {
	doc, err := r.client.Collection(r.channelsCollection()).Doc(channelDocID(workspaceID, id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrNotFound, "channel not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get channel", goerr.V("id", id))
	}

	var ch model.Channel
	if err := doc.DataTo(&ch); err != nil {
		return nil, goerr.Wrap(err, "failed to decode channel", goerr.V("id", id))
	}
	return &ch, nil
}

func (r *channelRepository) GetMany(ctx context.Context, workspaceID types.WorkspaceID, ids []types.ChannelID) (map[types.ChannelID]*model.Channel, error) {
	result := make(map[types.ChannelID]*model.Channel, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	refs := make([]*firestore.DocumentRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, r.client.Collection(r.channelsCollection()).Doc(channelDocID(workspaceID, id)))
	}

	docs, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to batch get channels", goerr.V("count", len(ids)))
	}

	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		var ch model.Channel
		if err := doc.DataTo(&ch); err != nil {
			return nil, goerr.Wrap(err, "failed to decode channel", goerr.V("doc_id", doc.Ref.ID))
		}
		result[ch.ID] = &ch
	}
	return result, nil
}

func (r *channelRepository) List(ctx context.Context, workspaceID types.WorkspaceID) ([]*model.Channel, error) {
	iter := r.client.Collection(r.channelsCollection()).
		Where("WorkspaceID", "==", workspaceID.String()).
		Documents(ctx)
	defer iter.Stop()

	channels := make([]*model.Channel, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate channels")
		}

		var ch model.Channel
		if err := doc.DataTo(&ch); err != nil {
			return nil, goerr.Wrap(err, "failed to decode channel", goerr.V("doc_id", doc.Ref.ID))
		}
		channels = append(channels, &ch)
	}
	return channels, nil
}

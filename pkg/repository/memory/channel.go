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

type channelRepository struct {
	mu       sync.RWMutex
	channels map[types.WorkspaceID]map[types.ChannelID]*model.Channel
}

func newChannelRepository() *channelRepository {
	return &channelRepository{
		channels: make(map[types.WorkspaceID]map[types.ChannelID]*model.Channel),
	}
}

func copyChannel(ch *model.Channel) *model.Channel {
	copied := *ch
	if ch.Override != nil {
		o := *ch.Override
		if ch.Override.EscalationEnabled != nil {
			v := *ch.Override.EscalationEnabled
			o.EscalationEnabled = &v
		}
		if ch.Override.FirstThreshold != nil {
			v := *ch.Override.FirstThreshold
			o.FirstThreshold = &v
		}
		if ch.Override.SecondThreshold != nil {
			v := *ch.Override.SecondThreshold
			o.SecondThreshold = &v
		}
		if ch.Override.FinalThreshold != nil {
			v := *ch.Override.FinalThreshold
			o.FinalThreshold = &v
		}
		if ch.Override.DetectionMode != nil {
			v := *ch.Override.DetectionMode
			o.DetectionMode = &v
		}
		copied.Override = &o
	}
	return &copied
}

func (r *channelRepository) Put(ctx context.Context, ch *model.Channel) error {
	if err := ch.Validate(); err != nil {
		return goerr.Wrap(err, "invalid channel")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ws, ok := r.channels[ch.WorkspaceID]
	if !ok {
		ws = make(map[types.ChannelID]*model.Channel)
		r.channels[ch.WorkspaceID] = ws
	}

	now := time.Now().UTC()
	stored := copyChannel(ch)
	if existing, ok := ws[ch.ID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	ws[ch.ID] = stored
	return nil
}

func (r *channelRepository) Get(ctx context.Context, workspaceID types.WorkspaceID, id types.ChannelID) (*model.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ws, ok := r.channels[workspaceID]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "channel not found", goerr.V("id", id))
	}
	ch, ok := ws[id]
	if !ok {
		return nil, goerr.Wrap(model.ErrNotFound, "channel not found", goerr.V("id", id))
	}
	return copyChannel(ch), nil
}

func (r *channelRepository) GetMany(ctx context.Context, workspaceID types.WorkspaceID, ids []types.ChannelID) (map[types.ChannelID]*model.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[types.ChannelID]*model.Channel, len(ids))
	ws, ok := r.channels[workspaceID]
	if !ok {
		return result, nil
	}
	for _, id := range ids {
		if ch, ok := ws[id]; ok {
			result[id] = copyChannel(ch)
		}
	}
	return result, nil
}

func (r *channelRepository) List(ctx context.Context, workspaceID types.WorkspaceID) ([]*model.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ws, ok := r.channels[workspaceID]
	if !ok {
		return []*model.Channel{}, nil
	}

	result := make([]*model.Channel, 0, len(ws))
	for _, ch := range ws {
		result = append(result, copyChannel(ch))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

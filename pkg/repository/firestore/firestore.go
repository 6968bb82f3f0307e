package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/askloop/askloop/pkg/domain/interfaces"
	"github.com/m-mizutani/goerr/v2"
)

// Firestore is the production repository backend. Documents are keyed so that
// the natural uniqueness of each entity maps onto the document ID; in
// particular a question's ID embeds (workspace, channel, message timestamp),
// which makes duplicate ingestion a document-create conflict.
type Firestore struct {
	client     *firestore.Client
	workspace  *workspaceRepository
	channel    *channelRepository
	question   *questionRepository
	target     *targetRepository
	escalation *escalationRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix namespaces all collections, used to isolate test runs
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.workspace.collectionPrefix = prefix
		f.channel.collectionPrefix = prefix
		f.question.collectionPrefix = prefix
		f.target.collectionPrefix = prefix
		f.escalation.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID == "" {
		client, err = firestore.NewClient(ctx, projectID)
	} else {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:     client,
		workspace:  newWorkspaceRepository(client),
		channel:    newChannelRepository(client),
		question:   newQuestionRepository(client),
		target:     newTargetRepository(client),
		escalation: newEscalationRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Workspace() interfaces.WorkspaceRepository {
	return f.workspace
}

func (f *Firestore) Channel() interfaces.ChannelRepository {
	return f.channel
}

func (f *Firestore) Question() interfaces.QuestionRepository {
	return f.question
}

func (f *Firestore) Target() interfaces.TargetRepository {
	return f.target
}

func (f *Firestore) Escalation() interfaces.EscalationRepository {
	return f.escalation
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
)

// Collection names. Every collection lives under workspaces/{workspaceID}.
const (
	collectionWorkspaces    = "workspaces"
	collectionMemories      = "memories"
	collectionConversations = "conversations"
	collectionMessages      = "messages"
	collectionInjections    = "injections"
	collectionActivities    = "activities"
)

type Firestore struct {
	client       *firestore.Client
	memory       *memoryRepository
	injection    *injectionRepository
	conversation *conversationRepository
	activity     *activityRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prefixes the root collection name, which lets tests
// share one database without colliding.
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.memory.prefix = prefix
		f.injection.prefix = prefix
		f.conversation.prefix = prefix
		f.activity.prefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	base := paths{client: client}
	f := &Firestore{
		client:       client,
		memory:       &memoryRepository{paths: base},
		injection:    &injectionRepository{paths: base},
		conversation: &conversationRepository{paths: base},
		activity:     &activityRepository{paths: base},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Memory() interfaces.MemoryRepository {
	return f.memory
}

func (f *Firestore) Injection() interfaces.InjectionRepository {
	return f.injection
}

func (f *Firestore) Conversation() interfaces.ConversationRepository {
	return f.conversation
}

func (f *Firestore) Activity() interfaces.ActivityRepository {
	return f.activity
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

// paths builds collection references shared by every repository
type paths struct {
	client *firestore.Client
	prefix string
}

func (p paths) workspace(workspaceID string) *firestore.DocumentRef {
	return p.client.Collection(p.prefix + collectionWorkspaces).Doc(workspaceID)
}

func (p paths) memories(workspaceID string) *firestore.CollectionRef {
	return p.workspace(workspaceID).Collection(collectionMemories)
}

func (p paths) conversations(workspaceID string) *firestore.CollectionRef {
	return p.workspace(workspaceID).Collection(collectionConversations)
}

func (p paths) messages(workspaceID string, conversationID model.ConversationID) *firestore.CollectionRef {
	return p.conversations(workspaceID).Doc(string(conversationID)).Collection(collectionMessages)
}

func (p paths) injections(workspaceID string) *firestore.CollectionRef {
	return p.workspace(workspaceID).Collection(collectionInjections)
}

func (p paths) activities(workspaceID string) *firestore.CollectionRef {
	return p.workspace(workspaceID).Collection(collectionActivities)
}

// injectionDocID makes the (conversation, memory) pair the document identity,
// so the pair is unique by construction.
func injectionDocID(conversationID model.ConversationID, memoryID model.MemoryID) string {
	return string(conversationID) + "__" + string(memoryID)
}

// deleteAll deletes every document returned by iter
func deleteAll(ctx context.Context, iter *firestore.DocumentIterator) (int, error) {
	defer iter.Stop()

	deleted := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return deleted, goerr.Wrap(err, "failed to iterate documents")
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return deleted, goerr.Wrap(err, "failed to delete document", goerr.V("path", doc.Ref.Path))
		}
		deleted++
	}
	return deleted, nil
}

// nextTimestamp returns now, nudged forward when the clock has not advanced
// past prev. Firestore keeps microsecond precision.
func nextTimestamp(prev time.Time) time.Time {
	now := time.Now().UTC().Truncate(time.Microsecond)
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

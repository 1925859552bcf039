package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// maxArrayContainsAny is the Firestore limit on array-contains-any values
const maxArrayContainsAny = 30

// memoryDoc is the Firestore document representation of model.Memory.
// Embedding is stored as firestore.Vector32 so a vector index can serve it.
type memoryDoc struct {
	ID             model.MemoryID     `firestore:"ID"`
	WorkspaceID    string             `firestore:"WorkspaceID"`
	Title          string             `firestore:"Title"`
	Content        string             `firestore:"Content"`
	Snippet        string             `firestore:"Snippet"`
	Tags           []string           `firestore:"Tags"`
	Embedding      firestore.Vector32 `firestore:"Embedding,omitempty"`
	EmbeddingModel string             `firestore:"EmbeddingModel"`
	Metadata       map[string]any     `firestore:"Metadata"`
	Version        int64              `firestore:"Version"`
	CreatedAt      time.Time          `firestore:"CreatedAt"`
	UpdatedAt      time.Time          `firestore:"UpdatedAt"`
}

func toMemoryDoc(m *model.Memory) *memoryDoc {
	doc := &memoryDoc{
		ID:             m.ID,
		WorkspaceID:    m.WorkspaceID,
		Title:          m.Title,
		Content:        m.Content,
		Snippet:        m.Snippet,
		Tags:           m.Tags,
		EmbeddingModel: m.EmbeddingModel,
		Metadata:       m.Metadata,
		Version:        m.Version,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if m.HasEmbedding() {
		doc.Embedding = firestore.Vector32(m.Embedding)
	}
	return doc
}

func fromMemoryDoc(d *memoryDoc) *model.Memory {
	m := &model.Memory{
		ID:             d.ID,
		WorkspaceID:    d.WorkspaceID,
		Title:          d.Title,
		Content:        d.Content,
		Snippet:        d.Snippet,
		Tags:           d.Tags,
		EmbeddingModel: d.EmbeddingModel,
		Metadata:       d.Metadata,
		Version:        d.Version,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	if m.Tags == nil {
		m.Tags = []string{}
	}
	if m.Metadata == nil {
		m.Metadata = map[string]any{}
	}
	if len(d.Embedding) > 0 {
		m.Embedding = model.Embedding(d.Embedding)
	}
	return m
}

type memoryRepository struct {
	paths
}

func notFound(workspaceID string, memoryID model.MemoryID) error {
	return goerr.Wrap(model.ErrNotFound, "memory not found",
		goerr.V(model.WorkspaceIDKey, workspaceID),
		goerr.V(model.MemoryIDKey, memoryID))
}

func (r *memoryRepository) Create(ctx context.Context, mem *model.Memory) (*model.Memory, error) {
	created := mem.Copy()
	if created.ID == "" {
		created.ID = model.NewMemoryID()
	}
	if created.Version == 0 {
		created.Version = 1
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	if created.UpdatedAt.IsZero() {
		created.UpdatedAt = created.CreatedAt
	}
	created.CreatedAt = created.CreatedAt.Truncate(time.Microsecond)
	created.UpdatedAt = created.UpdatedAt.Truncate(time.Microsecond)

	docRef := r.memories(created.WorkspaceID).Doc(string(created.ID))
	if _, err := docRef.Create(ctx, toMemoryDoc(created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create memory", goerr.V(model.MemoryIDKey, created.ID))
	}

	return created, nil
}

func (r *memoryRepository) Get(ctx context.Context, workspaceID string, memoryID model.MemoryID) (*model.Memory, error) {
	doc, err := r.memories(workspaceID).Doc(string(memoryID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, notFound(workspaceID, memoryID)
		}
		return nil, goerr.Wrap(err, "failed to get memory", goerr.V(model.MemoryIDKey, memoryID))
	}

	var d memoryDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal memory", goerr.V(model.MemoryIDKey, memoryID))
	}

	return fromMemoryDoc(&d), nil
}

func (r *memoryRepository) Update(ctx context.Context, mem *model.Memory, expectedVersion int64) (*model.Memory, error) {
	docRef := r.memories(mem.WorkspaceID).Doc(string(mem.ID))

	var updated *memoryDoc
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return notFound(mem.WorkspaceID, mem.ID)
			}
			return goerr.Wrap(err, "failed to get memory in transaction", goerr.V(model.MemoryIDKey, mem.ID))
		}

		var current memoryDoc
		if err := snap.DataTo(&current); err != nil {
			return goerr.Wrap(err, "failed to unmarshal memory", goerr.V(model.MemoryIDKey, mem.ID))
		}
		if current.Version != expectedVersion {
			return goerr.Wrap(model.ErrConcurrencyConflict, "memory version mismatch",
				goerr.V(model.MemoryIDKey, mem.ID),
				goerr.V("expected", expectedVersion),
				goerr.V("actual", current.Version))
		}

		doc := toMemoryDoc(mem)
		doc.Version = expectedVersion + 1
		doc.CreatedAt = current.CreatedAt
		doc.UpdatedAt = nextTimestamp(current.UpdatedAt)
		updated = doc
		return tx.Set(docRef, doc)
	})
	if err != nil {
		return nil, err
	}

	return fromMemoryDoc(updated), nil
}

func (r *memoryRepository) Delete(ctx context.Context, workspaceID string, memoryID model.MemoryID) error {
	docRef := r.memories(workspaceID).Doc(string(memoryID))
	links := r.injections(workspaceID).Where("MemoryID", "==", string(memoryID))

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(docRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return notFound(workspaceID, memoryID)
			}
			return goerr.Wrap(err, "failed to get memory", goerr.V(model.MemoryIDKey, memoryID))
		}

		linkRefs, err := collectRefs(tx.Documents(links))
		if err != nil {
			return err
		}

		for _, ref := range linkRefs {
			if err := tx.Delete(ref); err != nil {
				return goerr.Wrap(err, "failed to delete injection link", goerr.V("path", ref.Path))
			}
		}
		return tx.Delete(docRef)
	})
}

func (r *memoryRepository) List(ctx context.Context, workspaceID string, opts ...interfaces.ListMemoryOption) ([]*model.Memory, error) {
	cfg := interfaces.BuildListMemoryConfig(opts...)

	q := r.memories(workspaceID).Query
	if tags := cfg.Tags(); len(tags) > 0 && len(tags) <= maxArrayContainsAny {
		q = q.Where("Tags", "array-contains-any", tags)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	memories := make([]*model.Memory, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate memories")
		}

		var d memoryDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal memory")
		}
		memories = append(memories, fromMemoryDoc(&d))
	}

	return cfg.Apply(memories), nil
}

func (r *memoryRepository) DeleteByWorkspace(ctx context.Context, workspaceID string) (int, error) {
	if _, err := deleteAll(ctx, r.injections(workspaceID).Documents(ctx)); err != nil {
		return 0, goerr.Wrap(err, "failed to delete workspace injection links", goerr.V(model.WorkspaceIDKey, workspaceID))
	}
	deleted, err := deleteAll(ctx, r.memories(workspaceID).Documents(ctx))
	if err != nil {
		return deleted, goerr.Wrap(err, "failed to delete workspace memories", goerr.V(model.WorkspaceIDKey, workspaceID))
	}
	return deleted, nil
}

func collectRefs(iter *firestore.DocumentIterator) ([]*firestore.DocumentRef, error) {
	defer iter.Stop()

	var refs []*firestore.DocumentRef
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate documents")
		}
		refs = append(refs, doc.Ref)
	}
	return refs, nil
}

package repository_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/repository/firestore"
	"github.com/ahammadshawki8/chimera/pkg/repository/memory"
	"github.com/ahammadshawki8/chimera/pkg/repository/sqlite"
	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
)

// repoFactories lists every backend the shared runners are executed against
func repoFactories() map[string]func(t *testing.T) interfaces.Repository {
	return map[string]func(t *testing.T) interfaces.Repository{
		"Memory":    newMemoryRepository,
		"SQLite":    newSQLiteRepository,
		"Firestore": newFirestoreRepository,
	}
}

func runAllBackends(t *testing.T, runner func(t *testing.T, newRepo func(t *testing.T) interfaces.Repository)) {
	t.Helper()
	for name, factory := range repoFactories() {
		t.Run(name, func(t *testing.T) {
			runner(t, factory)
		})
	}
}

func newMemoryRepository(t *testing.T) interfaces.Repository {
	t.Helper()
	return memory.New()
}

func newSQLiteRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	path := filepath.Join(t.TempDir(), "chimera.db")
	repo, err := sqlite.New(context.Background(), path)
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	ctx := context.Background()
	prefix := "test_" + uuid.NewString()[:8] + "_"
	repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix(prefix))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

// newWorkspaceID isolates each subtest's data inside a shared backend
func newWorkspaceID() string {
	return "ws-" + uuid.NewString()
}

func newTestMemory(workspaceID, title string, tags ...string) *model.Memory {
	return model.NewMemory(workspaceID, title, "content of "+title, tags, map[string]any{"source": "test"})
}

func createConversation(t *testing.T, repo interfaces.Repository, workspaceID string) *model.Conversation {
	t.Helper()
	conv, err := repo.Conversation().Create(context.Background(), model.NewConversation(workspaceID, "test", "echo"))
	gt.NoError(t, err).Required()
	return conv
}

func sleepTick() {
	time.Sleep(2 * time.Millisecond)
}

package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/model/auth"
	"github.com/ahammadshawki8/chimera/pkg/repository/memory"
	"github.com/ahammadshawki8/chimera/pkg/usecase"
	"github.com/m-mizutani/gt"
)

const (
	testWorkspace = "ws-test"
	testUser      = auth.UserID("alice")
)

func userContext() context.Context {
	return auth.ContextWithUser(context.Background(), testUser)
}

// mockEmbedder is a mock interfaces.Embedder for testing
type mockEmbedder struct {
	embedFn func(ctx context.Context, text string) (model.Embedding, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (model.Embedding, error) {
	return m.embedFn(ctx, text)
}

func (m *mockEmbedder) Model() string {
	return "mock@1"
}

func (m *mockEmbedder) Dimension() int {
	return 3
}

// tableEmbedder returns fixed vectors per text and fails for unknown text
func tableEmbedder(table map[string]model.Embedding) *mockEmbedder {
	return &mockEmbedder{
		embedFn: func(ctx context.Context, text string) (model.Embedding, error) {
			vec, ok := table[text]
			if !ok {
				return nil, model.ErrEmbeddingUnavailable
			}
			return vec, nil
		},
	}
}

// mockDispatcher is a mock interfaces.Dispatcher for testing
type mockDispatcher struct {
	callFn func(ctx context.Context, modelID string, ac *model.AssembledContext) (*model.Completion, error)
}

func (m *mockDispatcher) Call(ctx context.Context, modelID string, ac *model.AssembledContext) (*model.Completion, error) {
	return m.callFn(ctx, modelID, ac)
}

// recordingNotifier keeps every activity it is given
type recordingNotifier struct {
	mu         sync.Mutex
	activities []*model.Activity
}

func (r *recordingNotifier) Notify(ctx context.Context, a *model.Activity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activities = append(r.activities, a)
}

func (r *recordingNotifier) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]string, 0, len(r.activities))
	for _, a := range r.activities {
		result = append(result, string(a.Type))
	}
	return result
}

func newUseCases(t *testing.T, opts ...usecase.Option) (*usecase.UseCases, *memory.Memory) {
	t.Helper()
	repo := memory.New()
	return usecase.New(repo, opts...), repo
}

func createMemory(t *testing.T, uc *usecase.UseCases, title, content string, tags ...string) *model.Memory {
	t.Helper()
	res, err := uc.Memory.CreateMemory(userContext(), testWorkspace, usecase.CreateMemoryInput{
		Title:   title,
		Content: content,
		Tags:    tags,
	})
	gt.NoError(t, err).Required()
	return res.Memory
}

func createConversation(t *testing.T, uc *usecase.UseCases, modelID string) *model.Conversation {
	t.Helper()
	conv, err := uc.Conversation.CreateConversation(userContext(), testWorkspace, "", modelID)
	gt.NoError(t, err).Required()
	return conv
}

// sleepTick separates timestamps of consecutive writes
func sleepTick() {
	time.Sleep(2 * time.Millisecond)
}

package repository_test

import (
	"context"
	"testing"

	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/types"
	"github.com/m-mizutani/gt"
)

func runActivityRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("List returns newest first with limit", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		wsID := newWorkspaceID()

		for _, typ := range []types.ActivityType{
			types.ActivityMemoryCreated,
			types.ActivityConversationCreated,
			types.ActivityMessageSent,
		} {
			gt.NoError(t, repo.Activity().Put(ctx, model.NewActivity(wsID, typ, typ.String(), map[string]any{"k": "v"}))).Required()
			sleepTick()
		}

		activities, err := repo.Activity().List(ctx, wsID, 2)
		gt.NoError(t, err).Required()
		gt.Array(t, activities).Length(2).Required()
		gt.Value(t, activities[0].Type).Equal(types.ActivityMessageSent)
		gt.Value(t, activities[1].Type).Equal(types.ActivityConversationCreated)
		gt.Value(t, activities[0].Metadata["k"]).Equal(any("v"))

		other, err := repo.Activity().List(ctx, newWorkspaceID(), 0)
		gt.NoError(t, err).Required()
		gt.Array(t, other).Length(0)
	})
}

func TestActivityRepository(t *testing.T) {
	runAllBackends(t, runActivityRepositoryTest)
}

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/model/auth"
	"github.com/ahammadshawki8/chimera/pkg/service/access"
	"github.com/ahammadshawki8/chimera/pkg/usecase"
	"github.com/m-mizutani/gt"
)

type failingChecker struct{}

func (failingChecker) HasAccess(ctx context.Context, userID auth.UserID, workspaceID string) (bool, error) {
	return false, errors.New("directory down")
}

func TestAccessGuard(t *testing.T) {
	checker, err := access.NewStatic([]access.Workspace{
		{ID: testWorkspace, Members: []string{string(testUser)}},
		{ID: "ws-open", Members: []string{access.Wildcard}},
	})
	gt.NoError(t, err).Required()

	t.Run("member is allowed", func(t *testing.T) {
		uc, _ := newUseCases(t, usecase.WithAccessChecker(checker))
		_, err := uc.Memory.ListMemories(userContext(), testWorkspace)
		gt.NoError(t, err)
	})

	t.Run("wildcard workspace allows anyone", func(t *testing.T) {
		uc, _ := newUseCases(t, usecase.WithAccessChecker(checker))
		_, err := uc.Memory.ListMemories(auth.ContextWithUser(context.Background(), "carol"), "ws-open")
		gt.NoError(t, err)
	})

	t.Run("unknown workspace is denied", func(t *testing.T) {
		uc, _ := newUseCases(t, usecase.WithAccessChecker(checker))
		_, err := uc.Conversation.ListConversations(userContext(), "ws-unknown")
		gt.Error(t, err).Is(model.ErrAccessDenied)
	})

	t.Run("empty workspace ID is invalid", func(t *testing.T) {
		uc, _ := newUseCases(t)
		_, err := uc.Memory.SearchMemories(userContext(), "", "q", 1)
		gt.Error(t, err).Is(model.ErrValidation)
	})

	t.Run("checker failure denies the call", func(t *testing.T) {
		uc, _ := newUseCases(t, usecase.WithAccessChecker(failingChecker{}))
		_, err := uc.Activity.ListActivities(userContext(), testWorkspace, 0)
		gt.Value(t, err).NotNil()
		gt.Bool(t, errors.Is(err, model.ErrNotFound)).False()
	})
}

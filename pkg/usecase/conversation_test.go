package usecase_test

import (
	"context"
	"testing"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/types"
	"github.com/ahammadshawki8/chimera/pkg/usecase"
	"github.com/m-mizutani/gt"
)

func TestConversationUseCase_CreateConversation(t *testing.T) {
	t.Run("uses the default title and records activity", func(t *testing.T) {
		notifier := &recordingNotifier{}
		uc, _ := newUseCases(t, usecase.WithActivityNotifier(notifier))

		conv, err := uc.Conversation.CreateConversation(userContext(), testWorkspace, "  ", "gpt-4o")
		gt.NoError(t, err).Required()

		gt.Value(t, conv.Title).Equal(model.DefaultConversationTitle)
		gt.Value(t, conv.ModelID).Equal("gpt-4o")
		gt.Value(t, conv.Status).Equal(types.ConversationStatusActive)
		gt.Value(t, notifier.Types()).Equal([]string{string(types.ActivityConversationCreated)})
	})

	t.Run("requires a model ID", func(t *testing.T) {
		uc, _ := newUseCases(t)
		_, err := uc.Conversation.CreateConversation(userContext(), testWorkspace, "chat", "")
		gt.Error(t, err).Is(model.ErrValidation)
	})
}

func TestConversationUseCase_ListMessages(t *testing.T) {
	t.Run("returns the last messages in order", func(t *testing.T) {
		uc, _ := newUseCases(t, usecase.WithDispatcher(fixedDispatcher("ok")))
		conv := createConversation(t, uc, "gpt-4o")

		for _, text := range []string{"one", "two"} {
			_, err := uc.Context.SendMessage(userContext(), testWorkspace, conv.ID, text)
			gt.NoError(t, err).Required()
			sleepTick()
		}

		all, err := uc.Conversation.ListMessages(userContext(), testWorkspace, conv.ID, 0)
		gt.NoError(t, err).Required()
		gt.Array(t, all).Length(4).Required()
		gt.Value(t, all[0].Content).Equal("one")
		gt.Value(t, all[0].Role).Equal(types.MessageRoleUser)
		gt.Value(t, all[1].Role).Equal(types.MessageRoleAssistant)

		last, err := uc.Conversation.ListMessages(userContext(), testWorkspace, conv.ID, 2)
		gt.NoError(t, err).Required()
		gt.Array(t, last).Length(2).Required()
		gt.Value(t, last[0].Content).Equal("two")
	})

	t.Run("unknown conversation is not found", func(t *testing.T) {
		uc, _ := newUseCases(t)
		_, err := uc.Conversation.ListMessages(userContext(), testWorkspace, model.NewConversationID(), 0)
		gt.Error(t, err).Is(model.ErrNotFound)
	})
}

func TestConversationUseCase_DeleteConversation(t *testing.T) {
	t.Run("removes links but keeps memories", func(t *testing.T) {
		uc, _ := newUseCases(t)
		conv := createConversation(t, uc, "echo")
		mem := createMemory(t, uc, "Kept", "still stored")

		_, err := uc.Injection.Inject(userContext(), testWorkspace, conv.ID, mem.ID)
		gt.NoError(t, err).Required()

		gt.NoError(t, uc.Conversation.DeleteConversation(userContext(), testWorkspace, conv.ID)).Required()

		_, err = uc.Conversation.GetConversation(userContext(), testWorkspace, conv.ID)
		gt.Error(t, err).Is(model.ErrNotFound)

		got, err := uc.Memory.GetMemory(userContext(), testWorkspace, mem.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.ID).Equal(mem.ID)

		convs, err := uc.Conversation.ListConversations(userContext(), testWorkspace)
		gt.NoError(t, err)
		gt.Array(t, convs).Length(0)
	})
}

func TestConversationUseCase_PinMessage(t *testing.T) {
	t.Run("pins and unpins a stored message", func(t *testing.T) {
		uc, _ := newUseCases(t, usecase.WithDispatcher(fixedDispatcher("noted")))
		conv := createConversation(t, uc, "gpt-4o")

		res, err := uc.Context.SendMessage(userContext(), testWorkspace, conv.ID, "the deploy key rotates monthly")
		gt.NoError(t, err).Required()

		msg, err := uc.Conversation.PinMessage(userContext(), testWorkspace, conv.ID, res.UserMessage.ID, true)
		gt.NoError(t, err).Required()
		gt.Bool(t, msg.Pinned).True()

		msgs, err := uc.Conversation.ListMessages(userContext(), testWorkspace, conv.ID, 0)
		gt.NoError(t, err).Required()
		gt.Array(t, msgs).Length(2).Required()
		gt.Bool(t, msgs[0].Pinned).True()
		gt.Bool(t, msgs[1].Pinned).False()

		msg, err = uc.Conversation.PinMessage(userContext(), testWorkspace, conv.ID, res.UserMessage.ID, false)
		gt.NoError(t, err).Required()
		gt.Bool(t, msg.Pinned).False()
	})

	t.Run("unknown message is not found", func(t *testing.T) {
		uc, _ := newUseCases(t)
		conv := createConversation(t, uc, "echo")

		_, err := uc.Conversation.PinMessage(userContext(), testWorkspace, conv.ID, model.NewMessageID(), true)
		gt.Error(t, err).Is(model.ErrNotFound)
	})

	t.Run("missing caller is denied", func(t *testing.T) {
		uc, _ := newUseCases(t)
		conv := createConversation(t, uc, "echo")

		_, err := uc.Conversation.PinMessage(context.Background(), testWorkspace, conv.ID, model.NewMessageID(), true)
		gt.Error(t, err).Is(model.ErrAccessDenied)
	})
}

func TestConversationUseCase_DeleteMessage(t *testing.T) {
	t.Run("deleted message leaves the history", func(t *testing.T) {
		uc, _ := newUseCases(t, usecase.WithDispatcher(fixedDispatcher("ok")))
		conv := createConversation(t, uc, "gpt-4o")

		first, err := uc.Context.SendMessage(userContext(), testWorkspace, conv.ID, "typo mesage")
		gt.NoError(t, err).Required()
		sleepTick()
		_, err = uc.Context.SendMessage(userContext(), testWorkspace, conv.ID, "second")
		gt.NoError(t, err).Required()

		gt.NoError(t, uc.Conversation.DeleteMessage(userContext(), testWorkspace, conv.ID, first.UserMessage.ID)).Required()

		msgs, err := uc.Conversation.ListMessages(userContext(), testWorkspace, conv.ID, 0)
		gt.NoError(t, err).Required()
		gt.Array(t, msgs).Length(3).Required()
		for _, m := range msgs {
			gt.Value(t, m.ID).NotEqual(first.UserMessage.ID)
		}

		ac, err := uc.Context.BuildContext(userContext(), testWorkspace, conv.ID, "next")
		gt.NoError(t, err).Required()
		gt.Array(t, ac.History).Length(3).Required()
		gt.Value(t, ac.History[0].Role).Equal(types.MessageRoleAssistant)
	})

	t.Run("deleting twice is not found", func(t *testing.T) {
		uc, _ := newUseCases(t, usecase.WithDispatcher(fixedDispatcher("ok")))
		conv := createConversation(t, uc, "gpt-4o")

		res, err := uc.Context.SendMessage(userContext(), testWorkspace, conv.ID, "hello")
		gt.NoError(t, err).Required()

		gt.NoError(t, uc.Conversation.DeleteMessage(userContext(), testWorkspace, conv.ID, res.AssistantMessage.ID)).Required()
		err = uc.Conversation.DeleteMessage(userContext(), testWorkspace, conv.ID, res.AssistantMessage.ID)
		gt.Error(t, err).Is(model.ErrNotFound)
	})
}

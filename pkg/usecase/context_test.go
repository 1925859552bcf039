package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/types"
	"github.com/ahammadshawki8/chimera/pkg/service/provider"
	"github.com/ahammadshawki8/chimera/pkg/usecase"
	"github.com/m-mizutani/gt"
)

func fixedDispatcher(reply string) *mockDispatcher {
	return &mockDispatcher{
		callFn: func(ctx context.Context, modelID string, ac *model.AssembledContext) (*model.Completion, error) {
			return &model.Completion{
				Text:     reply,
				ModelID:  modelID,
				Provider: types.ProviderOpenAI,
				Usage:    &model.TokenUsage{InputTokens: 12, OutputTokens: 3},
			}, nil
		},
	}
}

func TestContextUseCase_BuildContext(t *testing.T) {
	t.Run("memories come before history in injection order", func(t *testing.T) {
		uc, _ := newUseCases(t, usecase.WithDispatcher(fixedDispatcher("ok")))
		conv := createConversation(t, uc, "gpt-4")
		first := createMemory(t, uc, "First", "first fact")
		second := createMemory(t, uc, "Second", "second fact")

		_, err := uc.Injection.Inject(userContext(), testWorkspace, conv.ID, second.ID)
		gt.NoError(t, err).Required()
		sleepTick()
		_, err = uc.Injection.Inject(userContext(), testWorkspace, conv.ID, first.ID)
		gt.NoError(t, err).Required()

		_, err = uc.Context.SendMessage(userContext(), testWorkspace, conv.ID, "hello")
		gt.NoError(t, err).Required()

		ac, err := uc.Context.BuildContext(userContext(), testWorkspace, conv.ID, "next question")
		gt.NoError(t, err).Required()

		gt.Value(t, ac.Preamble).Equal(model.DefaultSystemPreamble)
		gt.Array(t, ac.Memories).Length(2).Required()
		gt.Value(t, ac.Memories[0].Title).Equal("Second")
		gt.Value(t, ac.Memories[1].Title).Equal("First")
		gt.Array(t, ac.History).Length(2).Required()
		gt.Value(t, ac.History[0].Role).Equal(types.MessageRoleUser)
		gt.Value(t, ac.History[0].Content).Equal("hello")
		gt.Value(t, ac.History[1].Role).Equal(types.MessageRoleAssistant)
		gt.Value(t, ac.UserMessage).Equal("next question")

		prompt := ac.SystemPrompt()
		secondAt := strings.Index(prompt, "--- memory "+second.ID.String()+": Second ---")
		firstAt := strings.Index(prompt, "--- memory "+first.ID.String()+": First ---")
		gt.Bool(t, secondAt >= 0).True()
		gt.Bool(t, secondAt < firstAt).True()
	})

	t.Run("history window keeps the latest turns", func(t *testing.T) {
		uc, _ := newUseCases(t, usecase.WithDispatcher(fixedDispatcher("ok")))
		conv := createConversation(t, uc, "gpt-4")
		for _, msg := range []string{"one", "two", "three"} {
			_, err := uc.Context.SendMessage(userContext(), testWorkspace, conv.ID, msg)
			gt.NoError(t, err).Required()
		}

		ac, err := uc.Context.BuildContext(userContext(), testWorkspace, conv.ID, "four", usecase.WithHistoryWindow(3))
		gt.NoError(t, err).Required()
		gt.Array(t, ac.History).Length(3).Required()
		gt.Value(t, ac.History[0].Content).Equal("ok")
		gt.Value(t, ac.History[1].Content).Equal("three")
		gt.Value(t, ac.History[2].Content).Equal("ok")

		ac, err = uc.Context.BuildContext(userContext(), testWorkspace, conv.ID, "four", usecase.WithHistoryWindow(-1))
		gt.NoError(t, err).Required()
		gt.Array(t, ac.History).Length(0)
	})

	t.Run("deleted memory disappears from context", func(t *testing.T) {
		uc, _ := newUseCases(t)
		conv := createConversation(t, uc, "echo")
		mem := createMemory(t, uc, "gone", "soon deleted")

		_, err := uc.Injection.Inject(userContext(), testWorkspace, conv.ID, mem.ID)
		gt.NoError(t, err).Required()
		gt.NoError(t, uc.Memory.DeleteMemory(userContext(), testWorkspace, mem.ID)).Required()

		ac, err := uc.Context.BuildContext(userContext(), testWorkspace, conv.ID, "hi")
		gt.NoError(t, err).Required()
		gt.Array(t, ac.Memories).Length(0)
		gt.Value(t, ac.MemoryBlock()).Equal("")
	})

	t.Run("custom preamble", func(t *testing.T) {
		uc, _ := newUseCases(t)
		conv := createConversation(t, uc, "echo")

		ac, err := uc.Context.BuildContext(userContext(), testWorkspace, conv.ID, "hi", usecase.WithPreamble("Be brief."))
		gt.NoError(t, err).Required()
		gt.Value(t, ac.SystemPrompt()).Equal("Be brief.")
	})

	t.Run("unknown conversation is not found", func(t *testing.T) {
		uc, _ := newUseCases(t)
		_, err := uc.Context.BuildContext(userContext(), testWorkspace, model.NewConversationID(), "hi")
		gt.Error(t, err).Is(model.ErrNotFound)
	})
}

func TestContextUseCase_SendMessage(t *testing.T) {
	t.Run("unknown model falls back to echo", func(t *testing.T) {
		notifier := &recordingNotifier{}
		uc, _ := newUseCases(t, usecase.WithActivityNotifier(notifier))
		conv := createConversation(t, uc, "no-such-model")

		res, err := uc.Context.SendMessage(userContext(), testWorkspace, conv.ID, "ping")
		gt.NoError(t, err).Required()
		gt.Value(t, res.AssistantMessage.Content).Equal(provider.EchoReply("ping"))
		gt.Value(t, res.AssistantMessage.Role).Equal(types.MessageRoleAssistant)
		gt.Value(t, res.Completion.Provider).Equal(types.ProviderEcho)
		gt.Value(t, notifier.Types()).Equal([]string{"conversation_created", "message_sent"})
	})

	t.Run("reply metadata records model and tokens", func(t *testing.T) {
		uc, _ := newUseCases(t, usecase.WithDispatcher(fixedDispatcher("answer")))
		conv := createConversation(t, uc, "gpt-4")

		res, err := uc.Context.SendMessage(userContext(), testWorkspace, conv.ID, "question")
		gt.NoError(t, err).Required()
		gt.Value(t, res.AssistantMessage.Metadata["model_used"]).Equal(any("gpt-4"))
		gt.Value(t, res.AssistantMessage.Metadata["provider"]).Equal(any("openai"))
		gt.Value(t, res.AssistantMessage.Metadata["tokens"]).Equal(any(15))

		msgs, err := uc.Conversation.ListMessages(userContext(), testWorkspace, conv.ID, 0)
		gt.NoError(t, err).Required()
		gt.Array(t, msgs).Length(2).Required()
		gt.Value(t, msgs[0].Content).Equal("question")
		gt.Value(t, msgs[1].Content).Equal("answer")
	})

	t.Run("context excludes the message being sent from history", func(t *testing.T) {
		var seen *model.AssembledContext
		uc, _ := newUseCases(t, usecase.WithDispatcher(&mockDispatcher{
			callFn: func(ctx context.Context, modelID string, ac *model.AssembledContext) (*model.Completion, error) {
				seen = ac
				return &model.Completion{Text: "r", ModelID: modelID, Provider: types.ProviderOpenAI}, nil
			},
		}))
		conv := createConversation(t, uc, "gpt-4")

		_, err := uc.Context.SendMessage(userContext(), testWorkspace, conv.ID, "first")
		gt.NoError(t, err).Required()
		gt.Value(t, seen).NotNil().Required()
		gt.Array(t, seen.History).Length(0)
		gt.Value(t, seen.UserMessage).Equal("first")
	})

	t.Run("provider failure keeps the user message", func(t *testing.T) {
		uc, _ := newUseCases(t, usecase.WithDispatcher(&mockDispatcher{
			callFn: func(ctx context.Context, modelID string, ac *model.AssembledContext) (*model.Completion, error) {
				return nil, errors.Join(model.ErrProviderUnavailable, errors.New("503"))
			},
		}))
		conv := createConversation(t, uc, "gpt-4")

		res, err := uc.Context.SendMessage(userContext(), testWorkspace, conv.ID, "are you there")
		gt.Error(t, err).Is(model.ErrProviderUnavailable)
		gt.Value(t, res).NotNil().Required()
		gt.Value(t, res.UserMessage).NotNil()
		gt.Value(t, res.AssistantMessage).Nil()

		msgs, err := uc.Conversation.ListMessages(userContext(), testWorkspace, conv.ID, 0)
		gt.NoError(t, err).Required()
		gt.Array(t, msgs).Length(1).Required()
		gt.Value(t, msgs[0].Role).Equal(types.MessageRoleUser)
	})

	t.Run("blank message is rejected", func(t *testing.T) {
		uc, _ := newUseCases(t)
		conv := createConversation(t, uc, "echo")
		_, err := uc.Context.SendMessage(userContext(), testWorkspace, conv.ID, "  ")
		gt.Error(t, err).Is(model.ErrValidation)
	})

	t.Run("auto extraction stores important facts", func(t *testing.T) {
		uc, _ := newUseCases(t, usecase.WithDispatcher(fixedDispatcher("Noted.")))
		conv := createConversation(t, uc, "gpt-4")

		res, err := uc.Context.SendMessage(userContext(), testWorkspace, conv.ID,
			"Please remember that I prefer Go for backend services", usecase.WithAutoExtract(true))
		gt.NoError(t, err).Required()
		gt.Array(t, res.Warnings).Length(0)
		gt.Bool(t, len(res.Extracted) > 0).True()

		for _, m := range res.Extracted {
			gt.Value(t, m.Metadata["auto_extracted"]).Equal(any(true))
			gt.Value(t, m.Metadata["conversation_id"]).Equal(any(conv.ID.String()))
		}

		memories, err := uc.Memory.ListMemories(userContext(), testWorkspace)
		gt.NoError(t, err).Required()
		gt.Array(t, memories).Length(len(res.Extracted))
	})

	t.Run("small talk is not extracted", func(t *testing.T) {
		uc, _ := newUseCases(t, usecase.WithDispatcher(fixedDispatcher("Hi!")))
		conv := createConversation(t, uc, "gpt-4")

		res, err := uc.Context.SendMessage(userContext(), testWorkspace, conv.ID, "hi", usecase.WithAutoExtract(true))
		gt.NoError(t, err).Required()
		gt.Array(t, res.Extracted).Length(0)
	})

	t.Run("token budget drops oldest history first", func(t *testing.T) {
		var seen *model.AssembledContext
		uc, _ := newUseCases(t, usecase.WithDispatcher(&mockDispatcher{
			callFn: func(ctx context.Context, modelID string, ac *model.AssembledContext) (*model.Completion, error) {
				seen = ac
				return &model.Completion{Text: strings.Repeat("word ", 20), ModelID: modelID, Provider: types.ProviderOpenAI}, nil
			},
		}))
		conv := createConversation(t, uc, "gpt-4")
		mem := createMemory(t, uc, "pin", "short")
		_, err := uc.Injection.Inject(userContext(), testWorkspace, conv.ID, mem.ID)
		gt.NoError(t, err).Required()

		for range 3 {
			_, err := uc.Context.SendMessage(userContext(), testWorkspace, conv.ID, strings.Repeat("abcd", 10))
			gt.NoError(t, err).Required()
		}

		res, err := uc.Context.SendMessage(userContext(), testWorkspace, conv.ID, "last",
			usecase.WithPreamble(""), usecase.WithTokenBudget(60))
		gt.NoError(t, err).Required()
		gt.Bool(t, res.Budget.DroppedHistory > 0).True()
		gt.Number(t, res.Budget.DroppedMemories).Equal(0)
		gt.Bool(t, res.Budget.Tokens <= 60).True()
		gt.Array(t, seen.Memories).Length(1)
		gt.Value(t, seen.UserMessage).Equal("last")
	})

	t.Run("concurrent sends to one conversation stay paired", func(t *testing.T) {
		const senders = 6

		type call struct {
			userMessage string
			history     []model.ContextTurn
		}
		var (
			mu    sync.Mutex
			calls []call
		)
		uc, _ := newUseCases(t, usecase.WithDispatcher(&mockDispatcher{
			callFn: func(ctx context.Context, modelID string, ac *model.AssembledContext) (*model.Completion, error) {
				// Holds the conversation long enough for the other senders to queue up
				time.Sleep(5 * time.Millisecond)
				mu.Lock()
				calls = append(calls, call{
					userMessage: ac.UserMessage,
					history:     append([]model.ContextTurn(nil), ac.History...),
				})
				mu.Unlock()
				return &model.Completion{Text: "re: " + ac.UserMessage, ModelID: modelID, Provider: types.ProviderOpenAI}, nil
			},
		}))
		conv := createConversation(t, uc, "gpt-4")

		var wg sync.WaitGroup
		errs := make([]error, senders)
		for i := range senders {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = uc.Context.SendMessage(userContext(), testWorkspace, conv.ID,
					fmt.Sprintf("message %d", i), usecase.WithHistoryWindow(4*senders))
			}()
		}
		wg.Wait()
		for _, err := range errs {
			gt.NoError(t, err).Required()
		}

		msgs, err := uc.Conversation.ListMessages(userContext(), testWorkspace, conv.ID, 0)
		gt.NoError(t, err).Required()
		gt.Array(t, msgs).Length(2 * senders).Required()

		userIndex := map[string]int{}
		for i := 0; i < len(msgs); i += 2 {
			gt.Value(t, msgs[i].Role).Equal(types.MessageRoleUser)
			gt.Value(t, msgs[i+1].Role).Equal(types.MessageRoleAssistant)
			gt.Value(t, msgs[i+1].Content).Equal("re: " + msgs[i].Content)
			userIndex[msgs[i].Content] = i
		}
		gt.Number(t, len(userIndex)).Equal(senders)

		gt.Array(t, calls).Length(senders).Required()
		for _, c := range calls {
			idx, ok := userIndex[c.userMessage]
			gt.Bool(t, ok).True().Required()

			// Every pair stored before this send is in its history, in order
			gt.Array(t, c.history).Length(idx).Required()
			for j, turn := range c.history {
				gt.Value(t, turn.Role).Equal(msgs[j].Role)
				gt.Value(t, turn.Content).Equal(msgs[j].Content)
			}
		}
	})
}

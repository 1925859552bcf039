package usecase

import (
	"context"

	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// InjectResult reports the active link and whether this call created it
type InjectResult struct {
	Link    *model.InjectionLink
	Created bool
}

type InjectionUseCase struct {
	repo     interfaces.Repository
	guard    *accessGuard
	notifier interfaces.ActivityNotifier
}

func NewInjectionUseCase(repo interfaces.Repository, guard *accessGuard, notifier interfaces.ActivityNotifier) *InjectionUseCase {
	return &InjectionUseCase{
		repo:     repo,
		guard:    guard,
		notifier: notifier,
	}
}

// Inject makes the memory active in the conversation. Both must belong to
// the workspace. Injecting an already active memory changes nothing.
func (uc *InjectionUseCase) Inject(ctx context.Context, workspaceID string, conversationID model.ConversationID, memoryID model.MemoryID) (*InjectResult, error) {
	if err := uc.guard.check(ctx, workspaceID); err != nil {
		return nil, err
	}

	if _, err := uc.repo.Conversation().Get(ctx, workspaceID, conversationID); err != nil {
		return nil, goerr.Wrap(err, "failed to get conversation",
			goerr.V(model.WorkspaceIDKey, workspaceID),
			goerr.V(model.ConversationIDKey, conversationID))
	}
	mem, err := uc.repo.Memory().Get(ctx, workspaceID, memoryID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get memory",
			goerr.V(model.WorkspaceIDKey, workspaceID),
			goerr.V(model.MemoryIDKey, memoryID))
	}

	link := model.NewInjectionLink(workspaceID, conversationID, memoryID)
	created, err := uc.repo.Injection().Put(ctx, link)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to inject memory",
			goerr.V(model.ConversationIDKey, conversationID),
			goerr.V(model.MemoryIDKey, memoryID))
	}

	if !created {
		// Report the stored link so InjectedAt reflects the first injection
		links, err := uc.repo.Injection().List(ctx, workspaceID, conversationID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list injections", goerr.V(model.ConversationIDKey, conversationID))
		}
		for _, l := range links {
			if l.MemoryID == memoryID {
				link = l
				break
			}
		}
		return &InjectResult{Link: link}, nil
	}

	uc.notifier.Notify(ctx, model.NewActivity(workspaceID, types.ActivityMemoryInjected,
		"Injected memory: "+mem.Title,
		map[string]any{"memory_id": memoryID.String(), "conversation_id": conversationID.String()}))

	return &InjectResult{Link: link, Created: true}, nil
}

// Remove deactivates the memory in the conversation. Removing a memory that
// is not active succeeds.
func (uc *InjectionUseCase) Remove(ctx context.Context, workspaceID string, conversationID model.ConversationID, memoryID model.MemoryID) error {
	if err := uc.guard.check(ctx, workspaceID); err != nil {
		return err
	}

	if _, err := uc.repo.Conversation().Get(ctx, workspaceID, conversationID); err != nil {
		return goerr.Wrap(err, "failed to get conversation",
			goerr.V(model.WorkspaceIDKey, workspaceID),
			goerr.V(model.ConversationIDKey, conversationID))
	}

	if err := uc.repo.Injection().Delete(ctx, workspaceID, conversationID, memoryID); err != nil {
		return goerr.Wrap(err, "failed to remove injection",
			goerr.V(model.ConversationIDKey, conversationID),
			goerr.V(model.MemoryIDKey, memoryID))
	}

	uc.notifier.Notify(ctx, model.NewActivity(workspaceID, types.ActivityMemoryRemoved,
		"Removed memory from conversation",
		map[string]any{"memory_id": memoryID.String(), "conversation_id": conversationID.String()}))

	return nil
}

// ListActive returns the conversation's links in injection order
func (uc *InjectionUseCase) ListActive(ctx context.Context, workspaceID string, conversationID model.ConversationID) ([]*model.InjectionLink, error) {
	if err := uc.guard.check(ctx, workspaceID); err != nil {
		return nil, err
	}

	if _, err := uc.repo.Conversation().Get(ctx, workspaceID, conversationID); err != nil {
		return nil, goerr.Wrap(err, "failed to get conversation",
			goerr.V(model.WorkspaceIDKey, workspaceID),
			goerr.V(model.ConversationIDKey, conversationID))
	}

	links, err := uc.repo.Injection().List(ctx, workspaceID, conversationID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list injections", goerr.V(model.ConversationIDKey, conversationID))
	}
	return links, nil
}

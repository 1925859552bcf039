package memory

import (
	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is an in-process repository for development and tests
type Memory struct {
	memory       *memoryRepository
	injection    *injectionRepository
	conversation *conversationRepository
	activity     *activityRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	injectionRepo := newInjectionRepository()
	memoryRepo := newMemoryRepository(injectionRepo)
	conversationRepo := newConversationRepository(injectionRepo)
	injectionRepo.memories = memoryRepo
	injectionRepo.conversations = conversationRepo

	return &Memory{
		memory:       memoryRepo,
		injection:    injectionRepo,
		conversation: conversationRepo,
		activity:     newActivityRepository(),
	}
}

func (m *Memory) Memory() interfaces.MemoryRepository {
	return m.memory
}

func (m *Memory) Injection() interfaces.InjectionRepository {
	return m.injection
}

func (m *Memory) Conversation() interfaces.ConversationRepository {
	return m.conversation
}

func (m *Memory) Activity() interfaces.ActivityRepository {
	return m.activity
}

func (m *Memory) Close() error {
	return nil
}

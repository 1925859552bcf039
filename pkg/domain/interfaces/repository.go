package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Memory() MemoryRepository
	Injection() InjectionRepository
	Conversation() ConversationRepository
	Activity() ActivityRepository

	Close() error
}

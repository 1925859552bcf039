package model

import "time"

// InjectionLink records that a memory is active in a conversation.
// The pair (ConversationID, MemoryID) is unique.
type InjectionLink struct {
	ConversationID ConversationID
	MemoryID       MemoryID
	WorkspaceID    string
	InjectedAt     time.Time
}

// NewInjectionLink creates a link stamped with the current time
func NewInjectionLink(workspaceID string, conversationID ConversationID, memoryID MemoryID) *InjectionLink {
	return &InjectionLink{
		ConversationID: conversationID,
		MemoryID:       memoryID,
		WorkspaceID:    workspaceID,
		InjectedAt:     time.Now().UTC(),
	}
}

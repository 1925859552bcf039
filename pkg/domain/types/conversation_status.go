package types

import "fmt"

// ConversationStatus represents the lifecycle state of a conversation
type ConversationStatus string

const (
	ConversationStatusActive    ConversationStatus = "active"
	ConversationStatusCompleted ConversationStatus = "completed"
	ConversationStatusArchived  ConversationStatus = "archived"
)

// IsValid checks if the conversation status is valid
func (s ConversationStatus) IsValid() bool {
	switch s {
	case ConversationStatusActive,
		ConversationStatusCompleted,
		ConversationStatusArchived:
		return true
	default:
		return false
	}
}

// Normalize returns the status, treating empty as ConversationStatusActive.
func (s ConversationStatus) Normalize() ConversationStatus {
	if s == "" {
		return ConversationStatusActive
	}
	return s
}

func (s ConversationStatus) String() string {
	return string(s)
}

// ParseConversationStatus parses a string into a ConversationStatus
func ParseConversationStatus(s string) (ConversationStatus, error) {
	status := ConversationStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid conversation status: %s", s)
	}
	return status, nil
}

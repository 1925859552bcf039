package types

import "fmt"

// ActivityType classifies workspace activity feed events
type ActivityType string

const (
	ActivityMemoryCreated       ActivityType = "memory_created"
	ActivityMemoryUpdated       ActivityType = "memory_updated"
	ActivityMemoryDeleted       ActivityType = "memory_deleted"
	ActivityMemoryInjected      ActivityType = "memory_injected"
	ActivityMemoryRemoved       ActivityType = "memory_removed"
	ActivityConversationCreated ActivityType = "conversation_created"
	ActivityMessageSent         ActivityType = "message_sent"
)

// AllActivityTypes returns all valid activity types
func AllActivityTypes() []ActivityType {
	return []ActivityType{
		ActivityMemoryCreated,
		ActivityMemoryUpdated,
		ActivityMemoryDeleted,
		ActivityMemoryInjected,
		ActivityMemoryRemoved,
		ActivityConversationCreated,
		ActivityMessageSent,
	}
}

// IsValid checks if the activity type is valid
func (t ActivityType) IsValid() bool {
	for _, v := range AllActivityTypes() {
		if t == v {
			return true
		}
	}
	return false
}

func (t ActivityType) String() string {
	return string(t)
}

// ParseActivityType parses a string into an ActivityType
func ParseActivityType(s string) (ActivityType, error) {
	t := ActivityType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid activity type: %s", s)
	}
	return t, nil
}

package types

import (
	"fmt"
	"strings"
)

// ProviderKind is the closed set of completion provider families a model
// can be routed to.
type ProviderKind string

const (
	ProviderOpenAI    ProviderKind = "openai"
	ProviderAnthropic ProviderKind = "anthropic"
	ProviderGemini    ProviderKind = "gemini"
	ProviderEcho      ProviderKind = "echo"
)

// AllProviderKinds returns all valid provider kinds
func AllProviderKinds() []ProviderKind {
	return []ProviderKind{
		ProviderOpenAI,
		ProviderAnthropic,
		ProviderGemini,
		ProviderEcho,
	}
}

// IsValid checks if the provider kind is valid
func (k ProviderKind) IsValid() bool {
	switch k {
	case ProviderOpenAI,
		ProviderAnthropic,
		ProviderGemini,
		ProviderEcho:
		return true
	default:
		return false
	}
}

func (k ProviderKind) String() string {
	return string(k)
}

// ParseProviderKind parses a string into a ProviderKind, ignoring case
func ParseProviderKind(s string) (ProviderKind, error) {
	kind := ProviderKind(strings.ToLower(strings.TrimSpace(s)))
	if !kind.IsValid() {
		return "", fmt.Errorf("invalid provider kind: %s", s)
	}
	return kind, nil
}

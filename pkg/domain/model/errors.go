package model

import "github.com/m-mizutani/goerr/v2"

// Error taxonomy shared by every layer. Backends and services wrap these
// sentinels with goerr so callers can classify failures with errors.Is.
var (
	ErrNotFound             = goerr.New("not found")
	ErrAccessDenied         = goerr.New("access denied")
	ErrValidation           = goerr.New("validation failed")
	ErrEmbeddingUnavailable = goerr.New("embedding unavailable")
	ErrConcurrencyConflict  = goerr.New("concurrency conflict")
	ErrProviderUnavailable  = goerr.New("provider unavailable")
	ErrInternal             = goerr.New("internal error")
)

// Context keys used in goerr values.
const (
	WorkspaceIDKey    = "workspace_id"
	MemoryIDKey       = "memory_id"
	ConversationIDKey = "conversation_id"
	MessageIDKey      = "message_id"
	UserIDKey         = "user_id"
	VersionKey        = "version"
	FieldKey          = "field"
)

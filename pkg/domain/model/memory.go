package model

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// SnippetLength is the number of characters (runes) kept in Memory.Snippet
	SnippetLength = 150

	// MaxTitleLength is the maximum number of characters in a memory title
	MaxTitleLength = 255
)

// MemoryID is a UUID-based identifier for Memory
type MemoryID string

// NewMemoryID generates a new UUID v4 MemoryID
func NewMemoryID() MemoryID {
	return MemoryID(uuid.New().String())
}

func (id MemoryID) String() string {
	return string(id)
}

// Memory is a titled fragment of knowledge owned by one workspace.
// Embedding, when present, was computed from the current Content by the
// model recorded in EmbeddingModel.
type Memory struct {
	ID             MemoryID
	WorkspaceID    string
	Title          string
	Content        string
	Snippet        string
	Tags           []string
	Embedding      Embedding
	EmbeddingModel string
	Metadata       map[string]any
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewMemory builds a version 1 memory with derived snippet and normalized tags.
// Embedding is left absent; the caller attaches it once generated.
func NewMemory(workspaceID, title, content string, tags []string, metadata map[string]any) *Memory {
	now := time.Now().UTC()
	return &Memory{
		ID:          NewMemoryID(),
		WorkspaceID: workspaceID,
		Title:       strings.TrimSpace(title),
		Content:     content,
		Snippet:     MakeSnippet(content),
		Tags:        NormalizeTags(tags),
		Metadata:    copyMetadata(metadata),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks the user supplied fields of the memory
func (m *Memory) Validate() error {
	if m.WorkspaceID == "" {
		return goerr.Wrap(ErrValidation, "workspace ID is required", goerr.V(FieldKey, "workspace_id"))
	}
	if strings.TrimSpace(m.Title) == "" {
		return goerr.Wrap(ErrValidation, "title is required", goerr.V(FieldKey, "title"))
	}
	if utf8.RuneCountInString(m.Title) > MaxTitleLength {
		return goerr.Wrap(ErrValidation, "title is too long",
			goerr.V(FieldKey, "title"),
			goerr.V("max", MaxTitleLength))
	}
	if strings.TrimSpace(m.Content) == "" {
		return goerr.Wrap(ErrValidation, "content is required", goerr.V(FieldKey, "content"))
	}
	return nil
}

// HasEmbedding reports whether the memory carries an embedding usable for ranking
func (m *Memory) HasEmbedding() bool {
	return len(m.Embedding) > 0
}

// HasAnyTag reports whether the memory carries at least one of the given tags.
// An empty filter matches every memory.
func (m *Memory) HasAnyTag(tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, want := range tags {
		for _, have := range m.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// Copy returns a deep copy of the memory
func (m *Memory) Copy() *Memory {
	if m == nil {
		return nil
	}
	copied := *m
	if m.Tags != nil {
		copied.Tags = make([]string, len(m.Tags))
		copy(copied.Tags, m.Tags)
	}
	if m.Embedding != nil {
		copied.Embedding = make(Embedding, len(m.Embedding))
		copy(copied.Embedding, m.Embedding)
	}
	copied.Metadata = copyMetadata(m.Metadata)
	return &copied
}

// MakeSnippet returns the first SnippetLength characters of content.
func MakeSnippet(content string) string {
	if utf8.RuneCountInString(content) <= SnippetLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:SnippetLength])
}

// NormalizeTags trims whitespace, drops empty tags and removes duplicates
// while keeping the first occurrence order.
func NormalizeTags(tags []string) []string {
	result := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	return result
}

func copyMetadata(src map[string]any) map[string]any {
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// MemoryPatch carries a partial update. Nil fields are left untouched.
// ExpectedVersion, when non-zero, makes the update conditional on the
// stored version.
type MemoryPatch struct {
	Title           *string
	Content         *string
	Tags            *[]string
	Metadata        map[string]any
	ExpectedVersion int64
}

// IsEmpty reports whether the patch changes no field
func (p *MemoryPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Tags == nil && p.Metadata == nil
}

// Apply writes the provided fields into m and reports whether the content
// changed. A content change recomputes the snippet and drops the embedding,
// which no longer describes the new text. Version and UpdatedAt are owned by
// the repository and are not touched here.
func (p *MemoryPatch) Apply(m *Memory) bool {
	if p.Title != nil {
		m.Title = strings.TrimSpace(*p.Title)
	}
	if p.Tags != nil {
		m.Tags = NormalizeTags(*p.Tags)
	}
	if p.Metadata != nil {
		m.Metadata = copyMetadata(p.Metadata)
	}

	if p.Content == nil || *p.Content == m.Content {
		return false
	}
	m.Content = *p.Content
	m.Snippet = MakeSnippet(m.Content)
	m.Embedding = nil
	m.EmbeddingModel = ""
	return true
}

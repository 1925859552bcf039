package interfaces

import (
	"sort"
	"strings"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/types"
)

// ListMemoryOption is a functional option for filtering and ordering memories in List
type ListMemoryOption func(*listMemoryConfig)

type listMemoryConfig struct {
	tags  []string
	sort  types.MemorySort
	limit int
}

// WithTags keeps memories carrying at least one of the given tags
func WithTags(tags ...string) ListMemoryOption {
	return func(c *listMemoryConfig) {
		c.tags = model.NormalizeTags(tags)
	}
}

// WithSort sets the listing order
func WithSort(sort types.MemorySort) ListMemoryOption {
	return func(c *listMemoryConfig) {
		c.sort = sort
	}
}

// WithLimit caps the number of returned memories. Zero or negative means no limit.
func WithLimit(limit int) ListMemoryOption {
	return func(c *listMemoryConfig) {
		c.limit = limit
	}
}

// BuildListMemoryConfig builds a listMemoryConfig from options
func BuildListMemoryConfig(opts ...ListMemoryOption) *listMemoryConfig {
	cfg := &listMemoryConfig{sort: types.MemorySortRecent}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.sort = cfg.sort.Normalize()
	return cfg
}

// Tags returns the any-of tag filter, empty when not set
func (c *listMemoryConfig) Tags() []string {
	return c.tags
}

// Sort returns the requested order
func (c *listMemoryConfig) Sort() types.MemorySort {
	return c.sort
}

// Limit returns the limit, zero when unlimited
func (c *listMemoryConfig) Limit() int {
	if c.limit < 0 {
		return 0
	}
	return c.limit
}

// Apply filters, sorts and truncates memories in place according to the
// config. Backends that cannot express the filter natively use it on the
// fetched set.
func (c *listMemoryConfig) Apply(memories []*model.Memory) []*model.Memory {
	filtered := memories[:0]
	for _, m := range memories {
		if m.HasAnyTag(c.tags) {
			filtered = append(filtered, m)
		}
	}

	switch c.sort {
	case types.MemorySortTitle:
		sort.SliceStable(filtered, func(i, j int) bool {
			ti, tj := strings.ToLower(filtered[i].Title), strings.ToLower(filtered[j].Title)
			if ti != tj {
				return ti < tj
			}
			return filtered[i].ID < filtered[j].ID
		})
	default:
		SortByRecency(filtered)
	}

	if c.Limit() > 0 && len(filtered) > c.Limit() {
		filtered = filtered[:c.Limit()]
	}
	return filtered
}

// SortByRecency orders memories by UpdatedAt descending, ID ascending on ties
func SortByRecency(memories []*model.Memory) {
	sort.SliceStable(memories, func(i, j int) bool {
		if !memories[i].UpdatedAt.Equal(memories[j].UpdatedAt) {
			return memories[i].UpdatedAt.After(memories[j].UpdatedAt)
		}
		return memories[i].ID < memories[j].ID
	})
}

package search_test

import (
	"testing"
	"time"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/service/search"
	"github.com/m-mizutani/gt"
)

func newMemory(id string, vec model.Embedding, updatedAt time.Time) *model.Memory {
	return &model.Memory{
		ID:          model.MemoryID(id),
		WorkspaceID: "ws",
		Title:       id,
		Content:     id,
		Embedding:   vec,
		Version:     1,
		CreatedAt:   updatedAt,
		UpdatedAt:   updatedAt,
	}
}

func resultIDs(results []search.Result) []model.MemoryID {
	ids := make([]model.MemoryID, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Memory.ID)
	}
	return ids
}

func TestEngine_Rank(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	query := model.Embedding{1, 0, 0}

	t.Run("orders by descending similarity", func(t *testing.T) {
		candidates := []*model.Memory{
			newMemory("far", model.Embedding{0, 1, 0}, base),
			newMemory("exact", model.Embedding{2, 0, 0}, base),
			newMemory("near", model.Embedding{1, 1, 0}, base),
		}

		results := search.New().Rank(query, candidates, 10)
		gt.Value(t, resultIDs(results)).Equal([]model.MemoryID{"exact", "near", "far"})
		gt.Bool(t, results[0].Score > 0.999).True()
		gt.Bool(t, results[2].Score < 0.001).True()
	})

	t.Run("excludes incomparable memories", func(t *testing.T) {
		candidates := []*model.Memory{
			newMemory("none", nil, base),
			newMemory("zero", model.Embedding{0, 0, 0}, base),
			newMemory("short", model.Embedding{1, 0}, base),
			newMemory("ok", model.Embedding{1, 0, 0}, base),
		}

		results := search.New().Rank(query, candidates, 10)
		gt.Value(t, resultIDs(results)).Equal([]model.MemoryID{"ok"})
	})

	t.Run("ties prefer recently updated", func(t *testing.T) {
		candidates := []*model.Memory{
			newMemory("old", model.Embedding{1, 0, 0}, base),
			newMemory("new", model.Embedding{1, 0, 0}, base.Add(time.Hour)),
			newMemory("also-old", model.Embedding{1, 0, 0}, base),
		}

		results := search.New().Rank(query, candidates, 10)
		gt.Value(t, resultIDs(results)).Equal([]model.MemoryID{"new", "also-old", "old"})
	})

	t.Run("truncates to topK without padding", func(t *testing.T) {
		candidates := []*model.Memory{
			newMemory("a", model.Embedding{1, 0, 0}, base),
			newMemory("b", model.Embedding{1, 1, 0}, base),
			newMemory("c", model.Embedding{0, 1, 0}, base),
		}

		gt.Array(t, search.New().Rank(query, candidates, 2)).Length(2)
		gt.Array(t, search.New().Rank(query, candidates, 5)).Length(3)
	})

	t.Run("zero topK uses default", func(t *testing.T) {
		var candidates []*model.Memory
		for i := range 15 {
			candidates = append(candidates, newMemory(string(rune('a'+i)), model.Embedding{1, float32(i), 0}, base))
		}

		gt.Array(t, search.New().Rank(query, candidates, 0)).Length(search.DefaultTopK)
		gt.Array(t, search.New(search.WithDefaultTopK(3)).Rank(query, candidates, 0)).Length(3)
	})

	t.Run("empty candidates", func(t *testing.T) {
		gt.Array(t, search.New().Rank(query, nil, 5)).Length(0)
	})
}

func TestEngine_Recent(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	candidates := []*model.Memory{
		newMemory("first", nil, base),
		newMemory("third", nil, base.Add(2*time.Minute)),
		newMemory("second", model.Embedding{1}, base.Add(time.Minute)),
	}

	results := search.New().Recent(candidates, 2)
	gt.Value(t, resultIDs(results)).Equal([]model.MemoryID{"third", "second"})
	gt.Value(t, candidates[0].ID).Equal(model.MemoryID("first"))
}

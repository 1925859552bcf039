package model_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/m-mizutani/gt"
)

func TestNewMemoryID(t *testing.T) {
	id1 := model.NewMemoryID()
	id2 := model.NewMemoryID()

	gt.Value(t, string(id1)).NotEqual("")
	gt.Value(t, string(id2)).NotEqual("")
	gt.Value(t, id1).NotEqual(id2)
}

func TestNewMemory(t *testing.T) {
	content := strings.Repeat("a", 200)
	mem := model.NewMemory("ws-1", "  Title  ", content, []string{"go", " go ", "", "db"}, map[string]any{"k": "v"})

	gt.Value(t, mem.Title).Equal("Title")
	gt.Number(t, mem.Version).Equal(1)
	gt.Number(t, len(mem.Snippet)).Equal(model.SnippetLength)
	gt.Value(t, mem.Tags).Equal([]string{"go", "db"})
	gt.Bool(t, mem.HasEmbedding()).False()
	gt.Value(t, mem.CreatedAt).Equal(mem.UpdatedAt)
}

func TestMakeSnippet(t *testing.T) {
	t.Run("short content is kept", func(t *testing.T) {
		gt.Value(t, model.MakeSnippet("short")).Equal("short")
	})

	t.Run("counts characters not bytes", func(t *testing.T) {
		snippet := model.MakeSnippet(strings.Repeat("記", 300))
		gt.Number(t, utf8.RuneCountInString(snippet)).Equal(model.SnippetLength)
		gt.Bool(t, utf8.ValidString(snippet)).True()
	})
}

func TestMemory_Validate(t *testing.T) {
	valid := func() *model.Memory {
		return model.NewMemory("ws-1", "title", "content", nil, nil)
	}

	t.Run("valid memory", func(t *testing.T) {
		gt.NoError(t, valid().Validate())
	})

	t.Run("empty title", func(t *testing.T) {
		m := valid()
		m.Title = " "
		gt.Error(t, m.Validate()).Is(model.ErrValidation)
	})

	t.Run("too long title", func(t *testing.T) {
		m := valid()
		m.Title = strings.Repeat("x", model.MaxTitleLength+1)
		gt.Error(t, m.Validate()).Is(model.ErrValidation)
	})

	t.Run("empty content", func(t *testing.T) {
		m := valid()
		m.Content = "\n"
		gt.Error(t, m.Validate()).Is(model.ErrValidation)
	})

	t.Run("missing workspace", func(t *testing.T) {
		m := valid()
		m.WorkspaceID = ""
		gt.Error(t, m.Validate()).Is(model.ErrValidation)
	})
}

func TestMemory_HasAnyTag(t *testing.T) {
	m := model.NewMemory("ws", "t", "c", []string{"go", "db"}, nil)
	gt.Bool(t, m.HasAnyTag(nil)).True()
	gt.Bool(t, m.HasAnyTag([]string{"rust", "db"})).True()
	gt.Bool(t, m.HasAnyTag([]string{"rust"})).False()
}

func TestMemory_Copy(t *testing.T) {
	m := model.NewMemory("ws", "t", "c", []string{"go"}, map[string]any{"k": "v"})
	m.Embedding = model.Embedding{1, 2}

	c := m.Copy()
	c.Tags[0] = "changed"
	c.Embedding[0] = 9
	c.Metadata["k"] = "changed"

	gt.Value(t, m.Tags[0]).Equal("go")
	gt.Value(t, m.Embedding[0]).Equal(float32(1))
	gt.Value(t, m.Metadata["k"]).Equal("v")
}

func TestMemoryPatch_Apply(t *testing.T) {
	newMem := func() *model.Memory {
		m := model.NewMemory("ws", "title", "old content", []string{"a"}, nil)
		m.Embedding = model.Embedding{1, 0}
		m.EmbeddingModel = "hash@1"
		return m
	}

	t.Run("title only keeps embedding", func(t *testing.T) {
		m := newMem()
		title := "new title"
		changed := (&model.MemoryPatch{Title: &title}).Apply(m)
		gt.Bool(t, changed).False()
		gt.Value(t, m.Title).Equal("new title")
		gt.Bool(t, m.HasEmbedding()).True()
		gt.Number(t, m.Version).Equal(1)
	})

	t.Run("content change drops embedding and refreshes snippet", func(t *testing.T) {
		m := newMem()
		content := "new content"
		changed := (&model.MemoryPatch{Content: &content}).Apply(m)
		gt.Bool(t, changed).True()
		gt.Value(t, m.Snippet).Equal("new content")
		gt.Bool(t, m.HasEmbedding()).False()
		gt.Value(t, m.EmbeddingModel).Equal("")
	})

	t.Run("same content is not a change", func(t *testing.T) {
		m := newMem()
		content := "old content"
		gt.Bool(t, (&model.MemoryPatch{Content: &content}).Apply(m)).False()
		gt.Bool(t, m.HasEmbedding()).True()
	})

	t.Run("tags are normalized", func(t *testing.T) {
		m := newMem()
		tags := []string{"x", "x", " y "}
		(&model.MemoryPatch{Tags: &tags}).Apply(m)
		gt.Value(t, m.Tags).Equal([]string{"x", "y"})
	})

	t.Run("empty patch", func(t *testing.T) {
		gt.Bool(t, (&model.MemoryPatch{}).IsEmpty()).True()
		gt.Bool(t, (&model.MemoryPatch{Metadata: map[string]any{}}).IsEmpty()).False()
	})
}

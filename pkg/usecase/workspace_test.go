package usecase_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/usecase"
	"github.com/m-mizutani/gt"
)

func TestWorkspaceUseCase_DeleteWorkspaceMemories(t *testing.T) {
	uc, repo := newUseCases(t)
	conv := createConversation(t, uc, "echo")
	a := createMemory(t, uc, "a", "a")
	createMemory(t, uc, "b", "b")

	_, err := uc.Injection.Inject(userContext(), testWorkspace, conv.ID, a.ID)
	gt.NoError(t, err).Required()

	n, err := uc.Workspace.DeleteWorkspaceMemories(userContext(), testWorkspace)
	gt.NoError(t, err).Required()
	gt.Number(t, n).Equal(2)

	memories, err := uc.Memory.ListMemories(userContext(), testWorkspace)
	gt.NoError(t, err).Required()
	gt.Array(t, memories).Length(0)

	links, err := repo.Injection().List(userContext(), testWorkspace, conv.ID)
	gt.NoError(t, err).Required()
	gt.Array(t, links).Length(0)

	// Conversations survive a memory purge
	_, err = uc.Conversation.GetConversation(userContext(), testWorkspace, conv.ID)
	gt.NoError(t, err)
}

func TestWorkspaceUseCase_ExportWorkspace(t *testing.T) {
	uc, _ := newUseCases(t, usecase.WithEmbedder(tableEmbedder(map[string]model.Embedding{
		"with vector": {0.5, 0.5, 0},
	})))
	createMemory(t, uc, "vec", "with vector", "x")
	sleepTick()
	createMemory(t, uc, "plain", "without vector")

	var buf bytes.Buffer
	n, err := uc.Workspace.ExportWorkspace(userContext(), testWorkspace, &buf)
	gt.NoError(t, err).Required()
	gt.Number(t, n).Equal(2)

	var records []usecase.ExportRecord
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var rec usecase.ExportRecord
		gt.NoError(t, json.Unmarshal(scanner.Bytes(), &rec)).Required()
		records = append(records, rec)
	}
	gt.NoError(t, scanner.Err())
	gt.Array(t, records).Length(2).Required()

	gt.Value(t, records[0].Title).Equal("plain")
	gt.Value(t, records[0].Tags).Equal([]string{})
	gt.Array(t, records[0].Embedding).Length(0)
	gt.Value(t, records[0].EmbeddingModel).Equal("")

	gt.Value(t, records[1].Title).Equal("vec")
	gt.Value(t, records[1].Embedding).Equal([]float32{0.5, 0.5, 0})
	gt.Number(t, records[1].EmbeddingDimension).Equal(3)
	gt.Value(t, records[1].EmbeddingModel).Equal("mock@1")
	gt.Number(t, records[1].Version).Equal(1)
}

func TestActivityUseCase_ListActivities(t *testing.T) {
	uc, repo := newUseCases(t)
	for _, desc := range []string{"first", "second", "third"} {
		gt.NoError(t, repo.Activity().Put(userContext(), model.NewActivity(testWorkspace, "memory_created", desc, nil))).Required()
		sleepTick()
	}

	activities, err := uc.Activity.ListActivities(userContext(), testWorkspace, 2)
	gt.NoError(t, err).Required()
	gt.Array(t, activities).Length(2).Required()
	gt.Value(t, activities[0].Description).Equal("third")
	gt.Value(t, activities[1].Description).Equal("second")
}

package export_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/service/export"
	"github.com/m-mizutani/gt"
)

func TestParseTarget(t *testing.T) {
	t.Run("dash is stdout", func(t *testing.T) {
		target, err := export.ParseTarget("-")
		gt.NoError(t, err).Required()
		gt.Bool(t, target.Stdout).True()
	})

	t.Run("cloud storage object", func(t *testing.T) {
		target, err := export.ParseTarget("gs://bucket/exports/ws.jsonl")
		gt.NoError(t, err).Required()
		gt.Value(t, target.Bucket).Equal("bucket")
		gt.Value(t, target.Object).Equal("exports/ws.jsonl")
		gt.Value(t, target.String()).Equal("gs://bucket/exports/ws.jsonl")
	})

	t.Run("bucket without object is invalid", func(t *testing.T) {
		for _, s := range []string{"gs://bucket", "gs://bucket/", "gs:///obj", "gs://bucket/dir/"} {
			_, err := export.ParseTarget(s)
			gt.Error(t, err).Is(model.ErrValidation)
		}
	})

	t.Run("anything else is a local path", func(t *testing.T) {
		target, err := export.ParseTarget("out/ws.jsonl")
		gt.NoError(t, err).Required()
		gt.Value(t, target.Path).Equal("out/ws.jsonl")
	})
}

func TestOpen_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ws.jsonl")
	target, err := export.ParseTarget(path)
	gt.NoError(t, err).Required()

	w, err := export.Open(t.Context(), target)
	gt.NoError(t, err).Required()
	_, err = w.Write([]byte("{}\n"))
	gt.NoError(t, err)
	gt.NoError(t, w.Close()).Required()

	data, err := os.ReadFile(path)
	gt.NoError(t, err).Required()
	gt.Value(t, string(data)).Equal("{}\n")
}

func TestOpen_CloudStorage(t *testing.T) {
	uri := os.Getenv("TEST_EXPORT_GCS_URI")
	if uri == "" {
		t.Skip("TEST_EXPORT_GCS_URI is not set")
	}

	target, err := export.ParseTarget(uri)
	gt.NoError(t, err).Required()
	w, err := export.Open(t.Context(), target)
	gt.NoError(t, err).Required()
	_, err = w.Write([]byte("{}\n"))
	gt.NoError(t, err)
	gt.NoError(t, w.Close())
}

package export

import (
	"context"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

const (
	gcsScheme   = "gs://"
	contentType = "application/x-ndjson"
)

// Target is where an export is written
type Target struct {
	// Stdout is set for "-"
	Stdout bool
	// Bucket and Object are set for gs://bucket/object
	Bucket string
	Object string
	// Path is set for a local file
	Path string
}

// ParseTarget interprets "-", "gs://bucket/object" or a local file path
func ParseTarget(s string) (Target, error) {
	switch {
	case s == "" || s == "-":
		return Target{Stdout: true}, nil

	case strings.HasPrefix(s, gcsScheme):
		bucket, object, ok := strings.Cut(strings.TrimPrefix(s, gcsScheme), "/")
		if !ok || bucket == "" || object == "" || strings.HasSuffix(object, "/") {
			return Target{}, goerr.Wrap(model.ErrValidation, "export target must be gs://bucket/object", goerr.V("target", s))
		}
		return Target{Bucket: bucket, Object: object}, nil

	default:
		return Target{Path: s}, nil
	}
}

func (t Target) String() string {
	switch {
	case t.Stdout:
		return "-"
	case t.Bucket != "":
		return gcsScheme + t.Bucket + "/" + t.Object
	default:
		return t.Path
	}
}

// Open returns a writer for the target. Closing it completes the export; for
// Cloud Storage the object only becomes visible after a successful Close.
func Open(ctx context.Context, t Target) (io.WriteCloser, error) {
	switch {
	case t.Stdout:
		return nopCloser{os.Stdout}, nil

	case t.Bucket != "":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create storage client")
		}
		w := client.Bucket(t.Bucket).Object(t.Object).NewWriter(ctx)
		w.ContentType = contentType
		return &gcsWriter{Writer: w, client: client}, nil

	default:
		// #nosec G304 - path is provided by CLI argument
		f, err := os.OpenFile(t.Path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create export file", goerr.V("path", t.Path))
		}
		return f, nil
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

type gcsWriter struct {
	*storage.Writer
	client *storage.Client
}

func (w *gcsWriter) Close() error {
	err := w.Writer.Close()
	if cerr := w.client.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		return goerr.Wrap(err, "failed to finish storage object",
			goerr.V("bucket", w.Writer.Bucket),
			goerr.V("object", w.Writer.Name))
	}
	return nil
}

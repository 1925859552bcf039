package safe

import (
	"context"
	"io"

	"github.com/ahammadshawki8/chimera/pkg/utils/logging"
)

// Close closes closer and logs a failure with what names the resource.
// A nil closer is ignored.
func Close(ctx context.Context, closer io.Closer, what string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Error("failed to close "+what, "error", err)
	}
}

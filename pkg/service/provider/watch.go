package provider

import (
	"context"
	"path/filepath"

	"github.com/ahammadshawki8/chimera/pkg/utils/errutil"
	"github.com/ahammadshawki8/chimera/pkg/utils/logging"
	"github.com/fsnotify/fsnotify"
	"github.com/m-mizutani/goerr/v2"
)

// WatchRoutes reloads the dispatcher's route table whenever the file at path
// is written. A file that fails to parse is logged and the previous table is
// kept. It blocks until ctx is done.
func WatchRoutes(ctx context.Context, d *Dispatcher, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return goerr.Wrap(err, "failed to create route file watcher")
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file are still seen
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return goerr.Wrap(err, "failed to watch route file", goerr.V("path", path))
	}

	target := filepath.Clean(path)
	logger := logging.From(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			routes, err := LoadRoutes(path)
			if err != nil {
				_ = errutil.Handle(ctx, err, "failed to reload routes")
				continue
			}
			d.Reload(routes)
			logger.Info("model routes reloaded", "path", path, "routes", len(routes.Models()))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("route file watcher error", "error", err)
		}
	}
}

package errutil

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/utils/logging"
	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
)

// IsClientError reports whether err is caused by the caller (bad input,
// missing permission, unknown ID, stale version) rather than by the system.
func IsClientError(err error) bool {
	return errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrAccessDenied) ||
		errors.Is(err, model.ErrValidation) ||
		errors.Is(err, model.ErrConcurrencyConflict)
}

// IsRetryable reports whether the failed operation may succeed if repeated
func IsRetryable(err error) bool {
	return errors.Is(err, model.ErrEmbeddingUnavailable) ||
		errors.Is(err, model.ErrProviderUnavailable) ||
		errors.Is(err, model.ErrConcurrencyConflict)
}

// Handle logs the error with a message and returns it unchanged.
// Client errors are logged at warn level. Everything else is logged as an
// error and reported to Sentry when a client has been initialized.
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}

	logger := logging.From(ctx)
	level := slog.LevelError
	if IsClientError(err) {
		level = slog.LevelWarn
	}

	// Extract goerr values for structured logging
	var ge *goerr.Error
	if errors.As(err, &ge) {
		attrs := []any{
			"error", err.Error(),
			"values", ge.Values(),
		}
		if level == slog.LevelError {
			attrs = append(attrs, "stack", ge.Stacks())
		}
		logger.Log(ctx, level, msg, attrs...)
	} else {
		logger.Log(ctx, level, msg, "error", err.Error())
	}

	if level == slog.LevelError {
		capture(ctx, err)
	}

	return err
}

func capture(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if hub.Client() == nil {
		return
	}

	var ge *goerr.Error
	if errors.As(err, &ge) {
		hub.WithScope(func(scope *sentry.Scope) {
			scope.SetContext("goerr", sentry.Context(ge.Values()))
			hub.CaptureException(err)
		})
		return
	}
	hub.CaptureException(err)
}

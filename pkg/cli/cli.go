package cli

import (
	"context"

	"github.com/ahammadshawki8/chimera/pkg/cli/config"
	"github.com/ahammadshawki8/chimera/pkg/utils/errutil"
	"github.com/ahammadshawki8/chimera/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func Run(ctx context.Context, args []string, version string) error {
	var loggerCfg config.Logger
	var sentryCfg config.Sentry
	var app appConfig
	var closers []func()

	flags := append(loggerCfg.Flags(), sentryCfg.Flags()...)
	flags = append(flags, app.Flags()...)

	root := &cli.Command{
		Name:    "chimera",
		Usage:   "Chimera memory store with context injection for LLM conversations",
		Version: version,
		Flags:   flags,
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			f, err := loggerCfg.Configure()
			if err != nil {
				return ctx, err
			}
			closers = append(closers, f)

			flush, err := sentryCfg.Configure(version)
			if err != nil {
				return ctx, err
			}
			closers = append(closers, flush)

			logging.Default().Debug("Starting chimera",
				"logger", loggerCfg,
				"sentry", sentryCfg,
				"repository", app.repository)
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
			return nil
		},
		Commands: []*cli.Command{
			cmdMemory(&app),
			cmdInject(&app),
			cmdConversation(&app),
			cmdActivity(&app),
			cmdWorkspace(&app),
			cmdExport(&app),
			cmdMigrate(&app),
		},
	}

	if err := root.Run(ctx, args); err != nil {
		return errutil.Handle(ctx, err, "failed to run chimera")
	}

	return nil
}

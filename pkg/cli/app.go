package cli

import (
	"context"
	"time"

	"github.com/ahammadshawki8/chimera/pkg/cli/config"
	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/domain/model/auth"
	"github.com/ahammadshawki8/chimera/pkg/service/activity"
	"github.com/ahammadshawki8/chimera/pkg/usecase"
	"github.com/ahammadshawki8/chimera/pkg/utils/async"
	"github.com/ahammadshawki8/chimera/pkg/utils/logging"
	"github.com/ahammadshawki8/chimera/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

// pendingWorkTimeout bounds how long the CLI waits for activity
// notifications before exiting
const pendingWorkTimeout = 10 * time.Second

// appConfig gathers the flags needed to build the use cases
type appConfig struct {
	user       string
	jsonOutput bool

	repository config.Repository
	gemini     config.Gemini
	openai     config.OpenAI
	embedding  config.Embedding
	provider   config.Provider
	access     config.Access
	slack      config.Slack
	context    config.Context
}

func (x *appConfig) Flags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user",
			Aliases:     []string{"u"},
			Usage:       "Identity of the caller",
			Sources:     cli.EnvVars("CHIMERA_USER"),
			Destination: &x.user,
		},
		&cli.BoolFlag{
			Name:        "json",
			Usage:       "Print results as JSON",
			Sources:     cli.EnvVars("CHIMERA_JSON"),
			Destination: &x.jsonOutput,
		},
	}
	flags = append(flags, x.repository.Flags()...)
	flags = append(flags, x.gemini.Flags()...)
	flags = append(flags, x.openai.Flags()...)
	flags = append(flags, x.embedding.Flags()...)
	flags = append(flags, x.provider.Flags()...)
	flags = append(flags, x.access.Flags()...)
	flags = append(flags, x.slack.Flags()...)
	flags = append(flags, x.context.Flags()...)
	return flags
}

// session is a set of use cases bound to one command run
type session struct {
	uc      *usecase.UseCases
	repo    interfaces.Repository
	async   *async.Dispatcher
	printer *printer
	cancel  context.CancelFunc
}

// Close waits for pending notifications and releases the repository
func (s *session) Close(ctx context.Context) {
	waitCtx, cancel := context.WithTimeout(ctx, pendingWorkTimeout)
	defer cancel()
	if err := s.async.Wait(waitCtx); err != nil {
		logging.From(ctx).Warn("pending activity notifications dropped", "error", err)
	}
	s.cancel()
	safe.Close(ctx, s.repo, "repository")
}

// open builds the use cases from the flags and returns a context carrying
// the caller's identity
func (x *appConfig) open(ctx context.Context) (context.Context, *session, error) {
	logger := logging.Default()
	logger.Info("Configuration",
		"repository", x.repository,
		"embedding", x.embedding,
		"provider", x.provider,
		"slack", x.slack,
		"context", x.context,
	)

	repo, err := x.repository.Configure(ctx)
	if err != nil {
		return nil, nil, err
	}

	s, err := x.build(ctx, repo)
	if err != nil {
		safe.Close(ctx, repo, "repository")
		return nil, nil, err
	}

	ctx = logging.With(ctx, logger)
	if x.user != "" {
		ctx = auth.ContextWithUser(ctx, auth.UserID(x.user))
	}
	return ctx, s, nil
}

func (x *appConfig) build(ctx context.Context, repo interfaces.Repository) (*session, error) {
	embedder, err := x.embedding.Configure(ctx, &x.gemini, &x.openai)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure embedding")
	}

	dispatcher, err := x.provider.Configure(ctx, &x.gemini, &x.openai)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure providers")
	}

	checker, err := x.access.Configure()
	if err != nil {
		return nil, err
	}

	slackSvc, err := x.slack.Configure()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to configure slack")
	}

	bg := async.NewDispatcher()
	var notifierOpts []activity.Option
	if slackSvc != nil {
		notifierOpts = append(notifierOpts, activity.WithSlack(slackSvc))
	}
	notifier := activity.New(repo.Activity(), bg, notifierOpts...)

	watchCtx, cancel := context.WithCancel(ctx)
	x.provider.Watch(watchCtx, dispatcher)

	uc := usecase.New(repo,
		usecase.WithAccessChecker(checker),
		usecase.WithEmbedder(embedder),
		usecase.WithDispatcher(dispatcher),
		usecase.WithActivityNotifier(notifier),
		usecase.WithTokenCounter(x.context.TokenCounter()),
		usecase.WithContextConfig(x.context.ContextConfig()),
	)

	return &session{
		uc:      uc,
		repo:    repo,
		async:   bg,
		printer: newPrinter(x.jsonOutput),
		cancel:  cancel,
	}, nil
}

// withSession runs fn with an opened session and closes it afterwards
func (x *appConfig) withSession(fn func(ctx context.Context, c *cli.Command, s *session) error) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		ctx, s, err := x.open(ctx)
		if err != nil {
			return err
		}
		defer s.Close(ctx)
		return fn(ctx, c, s)
	}
}

package activity

import (
	"context"

	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/service/slack"
	"github.com/ahammadshawki8/chimera/pkg/utils/async"
	"github.com/ahammadshawki8/chimera/pkg/utils/errutil"
	"github.com/m-mizutani/goerr/v2"
)

// Notifier records activities in the repository and optionally mirrors them
// to Slack. Work runs in the background; failures are logged and never
// reach the caller.
type Notifier struct {
	repo       interfaces.ActivityRepository
	dispatcher *async.Dispatcher
	slack      slack.Service
}

var _ interfaces.ActivityNotifier = &Notifier{}

type Option func(*Notifier)

// WithSlack mirrors every activity to svc
func WithSlack(svc slack.Service) Option {
	return func(n *Notifier) {
		n.slack = svc
	}
}

func New(repo interfaces.ActivityRepository, dispatcher *async.Dispatcher, opts ...Option) *Notifier {
	n := &Notifier{
		repo:       repo,
		dispatcher: dispatcher,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Notifier) Notify(ctx context.Context, activity *model.Activity) {
	if activity == nil {
		return
	}

	n.dispatcher.Dispatch(ctx, func(ctx context.Context) error {
		if err := n.repo.Put(ctx, activity); err != nil {
			return goerr.Wrap(err, "failed to record activity",
				goerr.V(model.WorkspaceIDKey, activity.WorkspaceID),
				goerr.V("type", activity.Type))
		}

		if n.slack != nil {
			if err := n.slack.PostActivity(ctx, activity); err != nil {
				_ = errutil.Handle(ctx, err, "failed to mirror activity to Slack")
			}
		}
		return nil
	})
}

package provider

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/types"
	"github.com/ahammadshawki8/chimera/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/time/rate"
)

const DefaultTimeout = 60 * time.Second

// Dispatcher routes a model ID to its provider and calls it under a timeout
// and an optional rate limit. The route table can be swapped at runtime.
type Dispatcher struct {
	routes    atomic.Pointer[Routes]
	providers map[types.ProviderKind]interfaces.Provider
	timeout   time.Duration
	limiter   *rate.Limiter
}

var _ interfaces.Dispatcher = &Dispatcher{}

type DispatcherOption func(*Dispatcher)

// WithProvider registers p for its kind, replacing any previous one
func WithProvider(p interfaces.Provider) DispatcherOption {
	return func(d *Dispatcher) {
		d.providers[p.Kind()] = p
	}
}

func WithRoutes(routes *Routes) DispatcherOption {
	return func(d *Dispatcher) {
		d.routes.Store(routes)
	}
}

func WithCallTimeout(timeout time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithCallRateLimit limits provider calls across all models
func WithCallRateLimit(perSecond float64, burst int) DispatcherOption {
	return func(d *Dispatcher) {
		if perSecond <= 0 {
			d.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewDispatcher creates a Dispatcher with the default routes and the echo
// provider registered.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		providers: map[types.ProviderKind]interfaces.Provider{
			types.ProviderEcho: NewEchoProvider(),
		},
		timeout: DefaultTimeout,
	}
	d.routes.Store(DefaultRoutes())
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Routes returns the table currently in use
func (d *Dispatcher) Routes() *Routes {
	return d.routes.Load()
}

// Reload swaps the route table. Calls already in flight keep the old one.
func (d *Dispatcher) Reload(routes *Routes) {
	if routes == nil {
		return
	}
	d.routes.Store(routes)
}

// Call sends the assembled context to the provider routed for modelID.
// Failures, including an unregistered provider and a timeout, are returned
// as model.ErrProviderUnavailable.
func (d *Dispatcher) Call(ctx context.Context, modelID string, ac *model.AssembledContext) (*model.Completion, error) {
	route := d.routes.Load().Resolve(modelID)
	attrs := []goerr.Option{
		goerr.V("model", modelID),
		goerr.V("provider", route.Provider),
	}

	p, ok := d.providers[route.Provider]
	if !ok {
		return nil, goerr.Wrap(model.ErrProviderUnavailable, "provider is not configured", attrs...)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, goerr.Wrap(model.ErrProviderUnavailable, "provider rate limit wait aborted",
				append(attrs, goerr.V("cause", err.Error()))...)
		}
	}

	started := time.Now()
	completion, err := p.Complete(ctx, route.APIModel, ac)
	if err != nil {
		if errors.Is(err, model.ErrProviderUnavailable) {
			return nil, goerr.Wrap(err, "provider call failed", attrs...)
		}
		return nil, goerr.Wrap(model.ErrProviderUnavailable, "provider call failed",
			append(attrs, goerr.V("cause", err.Error()))...)
	}

	if completion.Provider == "" {
		completion.Provider = route.Provider
	}
	if completion.ModelID == "" {
		completion.ModelID = route.APIModel
	}

	logging.From(ctx).Info("provider call completed",
		"model", modelID,
		"provider", completion.Provider,
		"duration", time.Since(started),
	)
	return completion, nil
}

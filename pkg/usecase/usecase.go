package usecase

import (
	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/service/access"
	"github.com/ahammadshawki8/chimera/pkg/service/embedding"
	"github.com/ahammadshawki8/chimera/pkg/service/provider"
	"github.com/ahammadshawki8/chimera/pkg/service/search"
	"github.com/ahammadshawki8/chimera/pkg/service/tokens"
	"github.com/ahammadshawki8/chimera/pkg/utils/keylock"
)

type UseCases struct {
	repo       interfaces.Repository
	access     interfaces.AccessChecker
	embedder   interfaces.Embedder
	engine     *search.Engine
	dispatcher interfaces.Dispatcher
	notifier   interfaces.ActivityNotifier
	counter    interfaces.TokenCounter
	contextCfg ContextConfig

	Memory       *MemoryUseCase
	Injection    *InjectionUseCase
	Context      *ContextUseCase
	Conversation *ConversationUseCase
	Activity     *ActivityUseCase
	Workspace    *WorkspaceUseCase
}

type Option func(*UseCases)

func WithAccessChecker(checker interfaces.AccessChecker) Option {
	return func(uc *UseCases) {
		uc.access = checker
	}
}

func WithEmbedder(embedder interfaces.Embedder) Option {
	return func(uc *UseCases) {
		uc.embedder = embedder
	}
}

func WithSearchEngine(engine *search.Engine) Option {
	return func(uc *UseCases) {
		uc.engine = engine
	}
}

func WithDispatcher(dispatcher interfaces.Dispatcher) Option {
	return func(uc *UseCases) {
		uc.dispatcher = dispatcher
	}
}

func WithActivityNotifier(notifier interfaces.ActivityNotifier) Option {
	return func(uc *UseCases) {
		uc.notifier = notifier
	}
}

func WithTokenCounter(counter interfaces.TokenCounter) Option {
	return func(uc *UseCases) {
		uc.counter = counter
	}
}

func WithContextConfig(cfg ContextConfig) Option {
	return func(uc *UseCases) {
		uc.contextCfg = cfg
	}
}

// New wires the use cases. Collaborators that are not given default to an
// allow-all access checker, the offline hash embedder, the default search
// engine, a dispatcher with only the echo provider and a notifier that drops
// activities.
func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:       repo,
		contextCfg: DefaultContextConfig(),
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.access == nil {
		uc.access = access.AllowAll{}
	}
	if uc.embedder == nil {
		gen, err := embedding.New(embedding.NewHashClient())
		if err != nil {
			panic("default embedding config is invalid: " + err.Error())
		}
		uc.embedder = gen
	}
	if uc.engine == nil {
		uc.engine = search.New()
	}
	if uc.dispatcher == nil {
		uc.dispatcher = provider.NewDispatcher()
	}
	if uc.notifier == nil {
		uc.notifier = discardNotifier{}
	}
	if uc.counter == nil {
		uc.counter = tokens.Estimator{}
	}

	guard := &accessGuard{checker: uc.access}

	uc.Memory = NewMemoryUseCase(repo, guard, uc.embedder, uc.engine, uc.notifier)
	uc.Injection = NewInjectionUseCase(repo, guard, uc.notifier)
	uc.Conversation = NewConversationUseCase(repo, guard, uc.notifier)
	uc.Activity = NewActivityUseCase(repo, guard)
	uc.Workspace = NewWorkspaceUseCase(repo, guard)
	uc.Context = NewContextUseCase(repo, guard, uc.dispatcher, uc.notifier, uc.counter, uc.Memory, keylock.New(), uc.contextCfg)

	return uc
}

package config

import (
	"log/slog"

	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/service/tokens"
	"github.com/ahammadshawki8/chimera/pkg/usecase"
	"github.com/ahammadshawki8/chimera/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Context holds CLI flags for context assembly defaults
type Context struct {
	preamble      string
	historyWindow int
	tokenBudget   int
	autoExtract   bool
	tokenEncoding string
}

func (x *Context) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "preamble",
			Usage:       "System preamble opening every context",
			Category:    "Context",
			Value:       model.DefaultSystemPreamble,
			Sources:     cli.EnvVars("CHIMERA_PREAMBLE"),
			Destination: &x.preamble,
		},
		&cli.IntFlag{
			Name:        "history-window",
			Usage:       "Number of prior messages included in a context (negative for none)",
			Category:    "Context",
			Value:       model.DefaultHistoryWindow,
			Sources:     cli.EnvVars("CHIMERA_HISTORY_WINDOW"),
			Destination: &x.historyWindow,
		},
		&cli.IntFlag{
			Name:        "token-budget",
			Usage:       "Maximum tokens of an assembled context (0 means unlimited)",
			Category:    "Context",
			Sources:     cli.EnvVars("CHIMERA_TOKEN_BUDGET"),
			Destination: &x.tokenBudget,
		},
		&cli.BoolFlag{
			Name:        "auto-extract",
			Usage:       "Store important facts of each exchange as memories",
			Category:    "Context",
			Sources:     cli.EnvVars("CHIMERA_AUTO_EXTRACT"),
			Destination: &x.autoExtract,
		},
		&cli.StringFlag{
			Name:        "token-encoding",
			Usage:       "tiktoken encoding used to count tokens (empty to estimate by length)",
			Category:    "Context",
			Value:       tokens.DefaultEncoding,
			Sources:     cli.EnvVars("CHIMERA_TOKEN_ENCODING"),
			Destination: &x.tokenEncoding,
		},
	}
}

func (x Context) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("history_window", x.historyWindow),
		slog.Int("token_budget", x.tokenBudget),
		slog.Bool("auto_extract", x.autoExtract),
	)
}

// ContextConfig returns the assembly defaults
func (x *Context) ContextConfig() usecase.ContextConfig {
	cfg := usecase.DefaultContextConfig()
	cfg.Preamble = x.preamble
	if x.historyWindow != 0 {
		cfg.HistoryWindow = x.historyWindow
	}
	cfg.Budget = usecase.BudgetPolicy{MaxTokens: x.tokenBudget}
	cfg.AutoExtract = x.autoExtract
	return cfg
}

// TokenCounter returns the tiktoken counter, falling back to the length
// estimate when the encoding is unset or cannot be loaded. Counting only
// matters under a token budget, so the encoding is not loaded without one.
func (x *Context) TokenCounter() interfaces.TokenCounter {
	if x.tokenEncoding == "" || x.tokenBudget <= 0 {
		return tokens.Estimator{}
	}
	counter, err := tokens.NewOrEstimate(x.tokenEncoding)
	if err != nil {
		logging.Default().Warn("token encoding unavailable, estimating by length",
			"encoding", x.tokenEncoding,
			"error", err)
	}
	return counter
}

package usecase

import (
	"github.com/ahammadshawki8/chimera/pkg/domain/interfaces"
	"github.com/ahammadshawki8/chimera/pkg/domain/model"
)

// perBlockOverhead approximates the role labels and delimiters around each
// memory block or history turn
const perBlockOverhead = 4

// BudgetPolicy bounds the token size of an assembled context. MaxTokens <= 0
// means unlimited. When over budget the oldest history turns are dropped
// first, then the most recently injected memories. The preamble and the new
// user message are always kept.
type BudgetPolicy struct {
	MaxTokens int
}

// BudgetReport tells what Apply removed
type BudgetReport struct {
	Tokens          int
	DroppedHistory  int
	DroppedMemories int
}

// Apply trims ac in place to fit the budget
func (p BudgetPolicy) Apply(ac *model.AssembledContext, counter interfaces.TokenCounter) BudgetReport {
	memCost := make([]int, len(ac.Memories))
	histCost := make([]int, len(ac.History))

	total := counter.Count(ac.Preamble) + counter.Count(ac.UserMessage) + perBlockOverhead
	for i, m := range ac.Memories {
		memCost[i] = counter.Count(m.Title) + counter.Count(m.Content) + perBlockOverhead
		total += memCost[i]
	}
	for i, t := range ac.History {
		histCost[i] = counter.Count(t.Content) + perBlockOverhead
		total += histCost[i]
	}

	report := BudgetReport{Tokens: total}
	if p.MaxTokens <= 0 {
		return report
	}

	for total > p.MaxTokens && report.DroppedHistory < len(ac.History) {
		total -= histCost[report.DroppedHistory]
		report.DroppedHistory++
	}
	ac.History = ac.History[report.DroppedHistory:]

	keep := len(ac.Memories)
	for total > p.MaxTokens && keep > 0 {
		keep--
		total -= memCost[keep]
		report.DroppedMemories++
	}
	ac.Memories = ac.Memories[:keep]

	report.Tokens = total
	return report
}

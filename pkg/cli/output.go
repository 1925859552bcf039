package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ahammadshawki8/chimera/pkg/domain/model"
	"github.com/ahammadshawki8/chimera/pkg/domain/types"
	"github.com/ahammadshawki8/chimera/pkg/service/search"
	"github.com/ahammadshawki8/chimera/pkg/usecase"
	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
)

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	labelColor   = color.New(color.FgHiBlack)
	scoreColor   = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow)
	userColor    = color.New(color.FgBlue, color.Bold)
	botColor     = color.New(color.FgMagenta, color.Bold)
)

// printer writes command results either as colored text or as JSON
type printer struct {
	w    io.Writer
	json bool
}

func newPrinter(jsonOutput bool) *printer {
	return &printer{w: os.Stdout, json: jsonOutput}
}

func (p *printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return goerr.Wrap(err, "failed to encode output")
	}
	return nil
}

func (p *printer) warnings(warnings []usecase.Warning) {
	for _, w := range warnings {
		warningColor.Fprintf(os.Stderr, "warning: %s\n", w)
	}
}

func (p *printer) Memory(m *model.Memory) error {
	if p.json {
		return p.encode(usecase.NewExportRecord(m))
	}
	titleColor.Fprintf(p.w, "%s\n", m.Title)
	labelColor.Fprintf(p.w, "  id: %s  version: %d  updated: %s\n", m.ID, m.Version, m.UpdatedAt.Format(time.RFC3339))
	if len(m.Tags) > 0 {
		labelColor.Fprintf(p.w, "  tags: %s\n", strings.Join(m.Tags, ", "))
	}
	if m.HasEmbedding() {
		labelColor.Fprintf(p.w, "  embedding: %s (%d)\n", m.EmbeddingModel, m.Embedding.Dimension())
	} else {
		warningColor.Fprintf(p.w, "  embedding: none\n")
	}
	fmt.Fprintf(p.w, "\n%s\n", m.Content)
	return nil
}

func (p *printer) MemoryResult(res *usecase.MemoryResult) error {
	p.warnings(res.Warnings)
	return p.Memory(res.Memory)
}

func (p *printer) Memories(memories []*model.Memory) error {
	if p.json {
		records := make([]*usecase.ExportRecord, 0, len(memories))
		for _, m := range memories {
			records = append(records, usecase.NewExportRecord(m))
		}
		return p.encode(records)
	}
	for _, m := range memories {
		titleColor.Fprintf(p.w, "%s", m.Title)
		labelColor.Fprintf(p.w, "  %s v%d\n", m.ID, m.Version)
		fmt.Fprintf(p.w, "  %s\n", m.Snippet)
	}
	return nil
}

type searchResult struct {
	Score  float64               `json:"score"`
	Memory *usecase.ExportRecord `json:"memory"`
}

func (p *printer) SearchResults(results []search.Result) error {
	if p.json {
		out := make([]searchResult, 0, len(results))
		for _, r := range results {
			out = append(out, searchResult{Score: r.Score, Memory: usecase.NewExportRecord(r.Memory)})
		}
		return p.encode(out)
	}
	for _, r := range results {
		scoreColor.Fprintf(p.w, "%.4f ", r.Score)
		titleColor.Fprintf(p.w, "%s", r.Memory.Title)
		labelColor.Fprintf(p.w, "  %s\n", r.Memory.ID)
		fmt.Fprintf(p.w, "       %s\n", r.Memory.Snippet)
	}
	return nil
}

func (p *printer) Links(links []*model.InjectionLink) error {
	if p.json {
		return p.encode(links)
	}
	for _, l := range links {
		fmt.Fprintf(p.w, "%s", l.MemoryID)
		labelColor.Fprintf(p.w, "  injected %s\n", l.InjectedAt.Format(time.RFC3339))
	}
	return nil
}

func (p *printer) Conversation(conv *model.Conversation) error {
	if p.json {
		return p.encode(conv)
	}
	titleColor.Fprintf(p.w, "%s\n", conv.Title)
	labelColor.Fprintf(p.w, "  id: %s  model: %s  updated: %s\n", conv.ID, conv.ModelID, conv.UpdatedAt.Format(time.RFC3339))
	return nil
}

func (p *printer) Conversations(convs []*model.Conversation) error {
	if p.json {
		return p.encode(convs)
	}
	for _, conv := range convs {
		if err := p.Conversation(conv); err != nil {
			return err
		}
	}
	return nil
}

func (p *printer) Messages(msgs []*model.Message) error {
	if p.json {
		return p.encode(msgs)
	}
	for _, m := range msgs {
		p.message(m)
	}
	return nil
}

func (p *printer) message(m *model.Message) {
	c := botColor
	if m.Role == types.MessageRoleUser {
		c = userColor
	}
	c.Fprintf(p.w, "%s", m.Role)
	if m.Pinned {
		warningColor.Fprint(p.w, " [pinned]")
	}
	labelColor.Fprintf(p.w, " %s  id: %s\n", m.CreatedAt.Format(time.RFC3339), m.ID)
	fmt.Fprintf(p.w, "%s\n\n", m.Content)
}

func (p *printer) Message(m *model.Message) error {
	if p.json {
		return p.encode(m)
	}
	p.message(m)
	return nil
}

func (p *printer) SendResult(res *usecase.SendResult) error {
	p.warnings(res.Warnings)
	if res.Budget.DroppedHistory > 0 || res.Budget.DroppedMemories > 0 {
		warningColor.Fprintf(os.Stderr, "context trimmed: %d history turns, %d memories dropped\n",
			res.Budget.DroppedHistory, res.Budget.DroppedMemories)
	}
	if p.json {
		return p.encode(res)
	}
	if res.AssistantMessage != nil {
		p.message(res.AssistantMessage)
	}
	for _, m := range res.Extracted {
		labelColor.Fprintf(p.w, "remembered: %s (%s)\n", m.Title, m.ID)
	}
	return nil
}

func (p *printer) Context(ac *model.AssembledContext) error {
	if p.json {
		return p.encode(ac)
	}
	fmt.Fprintln(p.w, ac.Render())
	return nil
}

func (p *printer) Activities(activities []*model.Activity) error {
	if p.json {
		return p.encode(activities)
	}
	for _, a := range activities {
		labelColor.Fprintf(p.w, "%s ", a.CreatedAt.Format(time.RFC3339))
		titleColor.Fprintf(p.w, "%-22s", a.Type)
		fmt.Fprintf(p.w, " %s\n", a.Description)
	}
	return nil
}

func (p *printer) Done(format string, args ...any) {
	scoreColor.Fprintf(os.Stderr, format+"\n", args...)
}

package agents

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/quantarena/quantarena/consts"
	"github.com/quantarena/quantarena/internal/memory"
	"github.com/quantarena/quantarena/internal/models"
)

// Step is one unit of pipeline work: it reads the state it depends on,
// produces a single textual artifact, and writes it back.
type Step interface {
	Name() string
	Run(ctx context.Context, state *models.TradingState) error
}

// AnalystRoles is the full analyst registry, in report order.
var AnalystRoles = []string{
	consts.MarketAnalyst,
	consts.SocialMediaAnalyst,
	consts.NewsAnalyst,
	consts.FundamentalsAnalyst,
}

func formatMessages(ctx context.Context, system, user string, vars map[string]any) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(schema.FString,
		schema.SystemMessage(system),
		schema.UserMessage(user),
	)
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("format prompt: %w", err)
	}
	return msgs, nil
}

// renderMemories turns retrieved memory records into the numbered list
// form the debate and decision prompts consume.
func renderMemories(records []memory.Record) string {
	if len(records) == 0 {
		return "No past situations on file."
	}
	var b strings.Builder
	for i, rec := range records {
		fmt.Fprintf(&b, "%d. Past decision: %s\n", i+1, rec.Decision)
		if !rec.OutcomePending {
			fmt.Fprintf(&b, "   Realized return: %.2f%%\n", rec.Outcome*100)
		}
	}
	return b.String()
}

// retrieveMemories is a nil-safe wrapper: roles without a memory store
// simply see an empty past.
func retrieveMemories(col *memory.Collection, situation string, k int) []memory.Record {
	if col == nil {
		return nil
	}
	records, err := col.Retrieve(situation, k)
	if err != nil {
		log.Printf("[agents] memory retrieve for %s failed: %v", col.Role(), err)
		return nil
	}
	return records
}

// remember appends a pending memory record for a memorizing role.
func remember(col *memory.Collection, situation, decision, rationale string) {
	if col == nil {
		return
	}
	if _, err := col.Record(situation, decision, rationale); err != nil {
		log.Printf("[agents] memory record for %s failed: %v", col.Role(), err)
	}
}

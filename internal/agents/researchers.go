package agents

import (
	"context"
	"fmt"

	"github.com/quantarena/quantarena/consts"
	"github.com/quantarena/quantarena/internal/llm"
	"github.com/quantarena/quantarena/internal/memory"
	"github.com/quantarena/quantarena/internal/models"
)

// ResearcherStep is one adversarial voice in the investment debate. Bull
// and bear share the shape and differ only in stance prompt and speaker
// label.
type ResearcherStep struct {
	role    string
	speaker string
	system  string
	gen     llm.Generator
	mem     *memory.Collection
}

func NewBullResearcher(gen llm.Generator, mem *memory.Collection) *ResearcherStep {
	return &ResearcherStep{
		role:    consts.BullResearcher,
		speaker: consts.Agent_BullResearcher,
		system:  bullSystemPrompt,
		gen:     gen,
		mem:     mem,
	}
}

func NewBearResearcher(gen llm.Generator, mem *memory.Collection) *ResearcherStep {
	return &ResearcherStep{
		role:    consts.BearResearcher,
		speaker: consts.Agent_BearResearcher,
		system:  bearSystemPrompt,
		gen:     gen,
		mem:     mem,
	}
}

func (r *ResearcherStep) Name() string { return r.role }

func (r *ResearcherStep) Run(ctx context.Context, state *models.TradingState) error {
	debate := state.InvestDebateState
	situation := state.Situation(AnalystRoles)
	pastMemories := renderMemories(retrieveMemories(r.mem, situation, 2))

	market, _ := state.Report(consts.MarketAnalyst)
	sentiment, _ := state.Report(consts.SocialMediaAnalyst)
	news, _ := state.Report(consts.NewsAnalyst)
	fundamentals, _ := state.Report(consts.FundamentalsAnalyst)

	msgs, err := formatMessages(ctx, r.system, researchDebateUserPrompt, map[string]any{
		"company":             state.CompanyOfInterest,
		"market_report":       market,
		"sentiment_report":    sentiment,
		"news_report":         news,
		"fundamentals_report": fundamentals,
		"history":             debate.History(),
		"current_response":    debate.CurrentResponse,
		"past_memories":       pastMemories,
	})
	if err != nil {
		return err
	}

	argument, err := r.gen.Generate(ctx, r.role, msgs)
	if err != nil {
		return err
	}

	if err := debate.AddUtterance(r.speaker, argument); err != nil {
		return fmt.Errorf("%s: %w", r.role, err)
	}

	remember(r.mem, situation, argument,
		fmt.Sprintf("%s argument for %s on %s", r.speaker, state.CompanyOfInterest, state.TradeDate))
	return nil
}

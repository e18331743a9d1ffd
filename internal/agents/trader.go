package agents

import (
	"context"
	"fmt"

	"github.com/quantarena/quantarena/consts"
	"github.com/quantarena/quantarena/internal/llm"
	"github.com/quantarena/quantarena/internal/memory"
	"github.com/quantarena/quantarena/internal/models"
)

// TraderStep turns the research team's investment plan into a concrete
// trading plan for the risk review.
type TraderStep struct {
	gen llm.Generator
	mem *memory.Collection
}

func NewTrader(gen llm.Generator, mem *memory.Collection) *TraderStep {
	return &TraderStep{gen: gen, mem: mem}
}

func (t *TraderStep) Name() string { return consts.Trader }

func (t *TraderStep) Run(ctx context.Context, state *models.TradingState) error {
	situation := state.Situation(AnalystRoles)
	pastMemories := renderMemories(retrieveMemories(t.mem, situation, 2))

	market, _ := state.Report(consts.MarketAnalyst)
	sentiment, _ := state.Report(consts.SocialMediaAnalyst)
	news, _ := state.Report(consts.NewsAnalyst)
	fundamentals, _ := state.Report(consts.FundamentalsAnalyst)

	msgs, err := formatMessages(ctx, traderSystemPrompt, traderUserPrompt, map[string]any{
		"company":             state.CompanyOfInterest,
		"judge_decision":      state.InvestDebateState.JudgeDecision,
		"market_report":       market,
		"sentiment_report":    sentiment,
		"news_report":         news,
		"fundamentals_report": fundamentals,
		"past_memories":       pastMemories,
	})
	if err != nil {
		return err
	}

	plan, err := t.gen.Generate(ctx, consts.Trader, msgs)
	if err != nil {
		return err
	}

	state.SetTraderPlan(plan)

	remember(t.mem, situation, plan,
		fmt.Sprintf("trading plan for %s on %s", state.CompanyOfInterest, state.TradeDate))
	return nil
}

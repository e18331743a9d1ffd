package agents

import (
	"context"
	"fmt"

	"github.com/quantarena/quantarena/consts"
	"github.com/quantarena/quantarena/internal/llm"
	"github.com/quantarena/quantarena/internal/memory"
	"github.com/quantarena/quantarena/internal/models"
)

// ResearchManagerStep judges the bull/bear debate and produces the
// investment plan the trader works from.
type ResearchManagerStep struct {
	gen llm.Generator
	mem *memory.Collection
}

func NewResearchManager(gen llm.Generator, mem *memory.Collection) *ResearchManagerStep {
	return &ResearchManagerStep{gen: gen, mem: mem}
}

func (m *ResearchManagerStep) Name() string { return consts.ResearchManager }

func (m *ResearchManagerStep) Run(ctx context.Context, state *models.TradingState) error {
	debate := state.InvestDebateState
	situation := state.Situation(AnalystRoles)
	pastMemories := renderMemories(retrieveMemories(m.mem, situation, 2))

	msgs, err := formatMessages(ctx, researchManagerSystemPrompt, researchManagerUserPrompt, map[string]any{
		"company":       state.CompanyOfInterest,
		"history":       debate.History(),
		"past_memories": pastMemories,
	})
	if err != nil {
		return err
	}

	verdict, err := m.gen.Generate(ctx, consts.ResearchManager, msgs)
	if err != nil {
		return err
	}

	if err := debate.SetJudgeDecision(verdict); err != nil {
		return fmt.Errorf("%s: %w", consts.ResearchManager, err)
	}

	remember(m.mem, situation, verdict,
		fmt.Sprintf("investment plan for %s on %s", state.CompanyOfInterest, state.TradeDate))
	return nil
}

// RiskJudgeStep closes the risk review with a ruling on the trading plan.
type RiskJudgeStep struct {
	gen llm.Generator
	mem *memory.Collection
}

func NewRiskJudge(gen llm.Generator, mem *memory.Collection) *RiskJudgeStep {
	return &RiskJudgeStep{gen: gen, mem: mem}
}

func (j *RiskJudgeStep) Name() string { return consts.RiskJudge }

func (j *RiskJudgeStep) Run(ctx context.Context, state *models.TradingState) error {
	debate := state.RiskDebateState
	situation := state.Situation(AnalystRoles)
	pastMemories := renderMemories(retrieveMemories(j.mem, situation, 2))

	msgs, err := formatMessages(ctx, riskJudgeSystemPrompt, riskJudgeUserPrompt, map[string]any{
		"company":       state.CompanyOfInterest,
		"trader_plan":   state.TraderInvestmentPlan,
		"history":       debate.History(),
		"past_memories": pastMemories,
	})
	if err != nil {
		return err
	}

	ruling, err := j.gen.Generate(ctx, consts.RiskJudge, msgs)
	if err != nil {
		return err
	}

	if err := debate.SetJudgeDecision(ruling); err != nil {
		return fmt.Errorf("%s: %w", consts.RiskJudge, err)
	}

	remember(j.mem, situation, ruling,
		fmt.Sprintf("risk ruling for %s on %s", state.CompanyOfInterest, state.TradeDate))
	return nil
}

// PortfolioManagerStep synthesizes the final recommendation; its output
// must contain the BUY/HOLD/SELL token the signal processor extracts.
type PortfolioManagerStep struct {
	gen llm.Generator
	mem *memory.Collection
}

func NewPortfolioManager(gen llm.Generator, mem *memory.Collection) *PortfolioManagerStep {
	return &PortfolioManagerStep{gen: gen, mem: mem}
}

func (p *PortfolioManagerStep) Name() string { return consts.PortfolioManager }

func (p *PortfolioManagerStep) Run(ctx context.Context, state *models.TradingState) error {
	situation := state.Situation(AnalystRoles)
	pastMemories := renderMemories(retrieveMemories(p.mem, situation, 2))

	msgs, err := formatMessages(ctx, portfolioManagerSystemPrompt, portfolioManagerUserPrompt, map[string]any{
		"company":       state.CompanyOfInterest,
		"trade_date":    state.TradeDate,
		"trader_plan":   state.TraderInvestmentPlan,
		"risk_judgment": state.RiskDebateState.JudgeDecision,
		"past_memories": pastMemories,
	})
	if err != nil {
		return err
	}

	decision, err := p.gen.Generate(ctx, consts.PortfolioManager, msgs)
	if err != nil {
		return err
	}

	state.SetFinalTradeDecision(decision)

	remember(p.mem, situation, decision,
		fmt.Sprintf("final recommendation for %s on %s", state.CompanyOfInterest, state.TradeDate))
	return nil
}

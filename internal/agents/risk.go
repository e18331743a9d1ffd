package agents

import (
	"context"
	"fmt"

	"github.com/quantarena/quantarena/consts"
	"github.com/quantarena/quantarena/internal/llm"
	"github.com/quantarena/quantarena/internal/models"
)

// RiskDebaterStep is one voice in the three-way risk review of the
// trader's plan. Risk debaters do not keep memories; only the judge that
// closes the review does.
type RiskDebaterStep struct {
	role    string
	speaker string
	system  string
	gen     llm.Generator
}

func NewRiskyAnalyst(gen llm.Generator) *RiskDebaterStep {
	return &RiskDebaterStep{
		role:    consts.RiskyAnalyst,
		speaker: consts.Agent_RiskyAnalyst,
		system:  riskySystemPrompt,
		gen:     gen,
	}
}

func NewSafeAnalyst(gen llm.Generator) *RiskDebaterStep {
	return &RiskDebaterStep{
		role:    consts.SafeAnalyst,
		speaker: consts.Agent_SafeAnalyst,
		system:  safeSystemPrompt,
		gen:     gen,
	}
}

func NewNeutralAnalyst(gen llm.Generator) *RiskDebaterStep {
	return &RiskDebaterStep{
		role:    consts.NeutralAnalyst,
		speaker: consts.Agent_NeutralAnalyst,
		system:  neutralSystemPrompt,
		gen:     gen,
	}
}

func (r *RiskDebaterStep) Name() string { return r.role }

func (r *RiskDebaterStep) Run(ctx context.Context, state *models.TradingState) error {
	debate := state.RiskDebateState

	msgs, err := formatMessages(ctx, r.system, riskDebateUserPrompt, map[string]any{
		"company":          state.CompanyOfInterest,
		"trader_plan":      state.TraderInvestmentPlan,
		"history":          debate.History(),
		"current_response": debate.CurrentResponse,
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
	return nil
}

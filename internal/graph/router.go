package graph

import (
	"github.com/quantarena/quantarena/consts"
	"github.com/quantarena/quantarena/internal/config"
	"github.com/quantarena/quantarena/internal/models"
)

// speakerNodes maps debate speaker labels back to the node that voices
// them.
var speakerNodes = map[string]string{
	consts.Agent_BullResearcher: consts.BullResearcher,
	consts.Agent_BearResearcher: consts.BearResearcher,
	consts.Agent_RiskyAnalyst:   consts.RiskyAnalyst,
	consts.Agent_SafeAnalyst:    consts.SafeAnalyst,
	consts.Agent_NeutralAnalyst: consts.NeutralAnalyst,
}

// Router encodes the pipeline graph as a pure function of state: the
// same state always yields the same next node, with no side effects, so
// runs replay deterministically.
type Router struct {
	selectedAnalysts []string
	earlyConvergence bool
}

func NewRouter(cfg *config.Config) *Router {
	return &Router{
		selectedAnalysts: cfg.SelectedAnalysts,
		earlyConvergence: cfg.EarlyConvergence,
	}
}

// Route returns the node to run next, or consts.End when the pipeline
// has produced its final synthesis.
func (r *Router) Route(state *models.TradingState) string {
	// Analyst fan-out runs until every selected analyst has reported.
	for _, role := range r.selectedAnalysts {
		if _, done := state.Report(role); !done {
			return consts.AnalystTeam
		}
	}

	// Investment debate: loop bull/bear until the budget is spent, then
	// force synthesis through the research manager.
	invest := NewDebateController(state.InvestDebateState)
	if invest.Phase() != PhaseConverged {
		if invest.ShouldContinue() {
			return speakerNodes[invest.NextSpeaker()]
		}
		return consts.ResearchManager
	}

	if state.TraderInvestmentPlan == "" {
		return consts.Trader
	}

	// Risk debate: same pattern with three voices. With early
	// convergence enabled the judge may be invoked once every voice has
	// spoken, before the budget is spent.
	risk := NewDebateController(state.RiskDebateState)
	if risk.Phase() != PhaseConverged {
		if r.earlyConvergence && risk.FullRoundDone() {
			return consts.RiskJudge
		}
		if risk.ShouldContinue() {
			return speakerNodes[risk.NextSpeaker()]
		}
		return consts.RiskJudge
	}

	if state.FinalTradeDecision == "" {
		return consts.PortfolioManager
	}

	return consts.End
}

package graph

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/quantarena/quantarena/consts"
	"github.com/quantarena/quantarena/internal/agents"
	"github.com/quantarena/quantarena/internal/config"
	"github.com/quantarena/quantarena/internal/dataflows"
	"github.com/quantarena/quantarena/internal/llm"
	"github.com/quantarena/quantarena/internal/memory"
	"github.com/quantarena/quantarena/internal/models"
	"github.com/quantarena/quantarena/internal/processing"
)

// memorizingRoles are the roles that keep long-lived memories and
// therefore receive outcome feedback. Analysts and the risk debaters
// argue from the current state only.
var memorizingRoles = []string{
	consts.BullResearcher,
	consts.BearResearcher,
	consts.ResearchManager,
	consts.Trader,
	consts.RiskJudge,
	consts.PortfolioManager,
}

// TradingAgentsGraph is the pipeline facade: it owns the model client,
// the memory store and the orchestrator, and exposes one analysis run
// per Propagate call.
type TradingAgentsGraph struct {
	config       *config.Config
	store        *memory.Store
	orchestrator *Orchestrator
	processor    *processing.SignalProcessor
}

func NewTradingAgentsGraph(cfg *config.Config) (*TradingAgentsGraph, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	gen, err := llm.NewClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("init model client: %w", err)
	}

	store, err := memory.Open(cfg.MemoryDBPath)
	if err != nil {
		return nil, fmt.Errorf("init memory store: %w", err)
	}

	toolkit := dataflows.NewToolkit(cfg)
	return assemble(cfg, gen, toolkit, store), nil
}

// assemble wires the step registry around injected collaborators.
func assemble(cfg *config.Config, gen llm.Generator, toolkit *dataflows.Toolkit, store *memory.Store) *TradingAgentsGraph {
	analysts := make([]agents.Step, 0, len(cfg.SelectedAnalysts))
	for _, role := range cfg.SelectedAnalysts {
		mandatory := cfg.MandatoryAnalyst(role)
		switch role {
		case consts.MarketAnalyst:
			analysts = append(analysts, agents.NewMarketAnalyst(gen, toolkit, mandatory))
		case consts.SocialMediaAnalyst:
			analysts = append(analysts, agents.NewSocialMediaAnalyst(gen, toolkit, mandatory))
		case consts.NewsAnalyst:
			analysts = append(analysts, agents.NewNewsAnalyst(gen, toolkit, mandatory))
		case consts.FundamentalsAnalyst:
			analysts = append(analysts, agents.NewFundamentalsAnalyst(gen, toolkit, mandatory))
		default:
			log.Printf("[TradingGraph] ignoring unknown analyst %q", role)
		}
	}

	steps := []agents.Step{
		agents.NewBullResearcher(gen, store.Collection(consts.BullResearcher)),
		agents.NewBearResearcher(gen, store.Collection(consts.BearResearcher)),
		agents.NewResearchManager(gen, store.Collection(consts.ResearchManager)),
		agents.NewTrader(gen, store.Collection(consts.Trader)),
		agents.NewRiskyAnalyst(gen),
		agents.NewSafeAnalyst(gen),
		agents.NewNeutralAnalyst(gen),
		agents.NewRiskJudge(gen, store.Collection(consts.RiskJudge)),
		agents.NewPortfolioManager(gen, store.Collection(consts.PortfolioManager)),
	}

	router := NewRouter(cfg)
	return &TradingAgentsGraph{
		config:       cfg,
		store:        store,
		orchestrator: NewOrchestrator(router, steps, analysts, cfg.AnalystWorkers, cfg.MaxRecurLimit),
		processor:    processing.NewSignalProcessor(),
	}
}

// Propagate runs one full analysis of symbol as of the given trading
// date. On failure the partially filled state is still returned so the
// caller can inspect how far the run got.
func (g *TradingAgentsGraph) Propagate(ctx context.Context, symbol, date string) (*models.TradingState, *models.TradeDecision, error) {
	if err := dataflows.ValidateSymbol(symbol); err != nil {
		return nil, nil, err
	}
	symbol = dataflows.NormalizeSymbol(symbol)
	tradeDate, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid trade date %q: %w", date, err)
	}

	state := models.NewTradingState(symbol, tradeDate,
		models.NewDebateState([]string{consts.Agent_BullResearcher, consts.Agent_BearResearcher}, g.config.MaxDebateRounds),
		models.NewDebateState([]string{consts.Agent_RiskyAnalyst, consts.Agent_SafeAnalyst, consts.Agent_NeutralAnalyst}, g.config.MaxRiskDiscussRounds),
	)

	log.Printf("[TradingGraph] analyzing %s as of %s", symbol, date)
	if err := g.orchestrator.Run(ctx, state); err != nil {
		return state, nil, err
	}

	decision, err := g.processor.Process(state)
	if err != nil {
		return state, nil, err
	}
	state.Decision = decision

	log.Printf("[TradingGraph] %s: %s (confidence %.2f)", symbol, decision.Action, decision.Confidence)
	return state, decision, nil
}

// ReflectAndRemember feeds a realized position return back into every
// memorizing role's latest pending memory, closing the learning loop
// for the next run.
func (g *TradingAgentsGraph) ReflectAndRemember(positionReturn float64) error {
	for _, role := range memorizingRoles {
		if err := g.store.Collection(role).AmendLatestPending(positionReturn); err != nil {
			return fmt.Errorf("reflect for %s: %w", role, err)
		}
	}
	return nil
}

func (g *TradingAgentsGraph) Close() error {
	return g.store.Close()
}

// RecordOutcome amends memories without constructing a full graph, the
// path used when outcome feedback arrives in a later process than the
// analysis run.
func RecordOutcome(cfg *config.Config, positionReturn float64) error {
	store, err := memory.Open(cfg.MemoryDBPath)
	if err != nil {
		return fmt.Errorf("open memory store: %w", err)
	}
	defer store.Close()

	for _, role := range memorizingRoles {
		if err := store.Collection(role).AmendLatestPending(positionReturn); err != nil {
			return fmt.Errorf("record outcome for %s: %w", role, err)
		}
	}
	return nil
}

package graph

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/quantarena/quantarena/consts"
	"github.com/quantarena/quantarena/internal/agents"
	"github.com/quantarena/quantarena/internal/models"
)

// fakeStep runs an arbitrary function under a step name.
type fakeStep struct {
	name string
	run  func(ctx context.Context, state *models.TradingState) error
}

func (f *fakeStep) Name() string { return f.name }
func (f *fakeStep) Run(ctx context.Context, state *models.TradingState) error {
	return f.run(ctx, state)
}

func reportingAnalyst(role string) agents.Step {
	return &fakeStep{name: role, run: func(ctx context.Context, state *models.TradingState) error {
		state.SetReport(role, "report from "+role)
		return nil
	}}
}

func speakingStep(role, speaker string, debate func(*models.TradingState) *models.DebateState) agents.Step {
	return &fakeStep{name: role, run: func(ctx context.Context, state *models.TradingState) error {
		return debate(state).AddUtterance(speaker, speaker+" argument")
	}}
}

func pipelineSteps() []agents.Step {
	invest := func(s *models.TradingState) *models.DebateState { return s.InvestDebateState }
	risk := func(s *models.TradingState) *models.DebateState { return s.RiskDebateState }

	return []agents.Step{
		speakingStep(consts.BullResearcher, consts.Agent_BullResearcher, invest),
		speakingStep(consts.BearResearcher, consts.Agent_BearResearcher, invest),
		&fakeStep{name: consts.ResearchManager, run: func(ctx context.Context, s *models.TradingState) error {
			return s.InvestDebateState.SetJudgeDecision("lean long")
		}},
		&fakeStep{name: consts.Trader, run: func(ctx context.Context, s *models.TradingState) error {
			s.SetTraderPlan("scale in gradually")
			return nil
		}},
		speakingStep(consts.RiskyAnalyst, consts.Agent_RiskyAnalyst, risk),
		speakingStep(consts.SafeAnalyst, consts.Agent_SafeAnalyst, risk),
		speakingStep(consts.NeutralAnalyst, consts.Agent_NeutralAnalyst, risk),
		&fakeStep{name: consts.RiskJudge, run: func(ctx context.Context, s *models.TradingState) error {
			return s.RiskDebateState.SetJudgeDecision("approved at half size")
		}},
		&fakeStep{name: consts.PortfolioManager, run: func(ctx context.Context, s *models.TradingState) error {
			s.SetFinalTradeDecision("after weighing the debate, the call is BUY")
			return nil
		}},
	}
}

func pipelineAnalysts() []agents.Step {
	return []agents.Step{
		reportingAnalyst(consts.MarketAnalyst),
		reportingAnalyst(consts.SocialMediaAnalyst),
		reportingAnalyst(consts.NewsAnalyst),
		reportingAnalyst(consts.FundamentalsAnalyst),
	}
}

func TestOrchestratorRunsFullPipeline(t *testing.T) {
	cfg := testConfig()
	o := NewOrchestrator(NewRouter(cfg), pipelineSteps(), pipelineAnalysts(), cfg.AnalystWorkers, cfg.MaxRecurLimit)
	state := testState(cfg)

	if err := o.Run(context.Background(), state); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, role := range cfg.SelectedAnalysts {
		if _, ok := state.Report(role); !ok {
			t.Fatalf("missing report for %s", role)
		}
	}
	if state.InvestDebateState.Count != 2 {
		t.Fatalf("investment debate utterances = %d, want 2", state.InvestDebateState.Count)
	}
	if state.RiskDebateState.Count != 3 {
		t.Fatalf("risk debate utterances = %d, want 3", state.RiskDebateState.Count)
	}
	if !state.InvestDebateState.Closed() || !state.RiskDebateState.Closed() {
		t.Fatal("a debate ended without a verdict")
	}
	if state.TraderInvestmentPlan == "" || state.FinalTradeDecision == "" {
		t.Fatal("pipeline ended without plan or final decision")
	}
}

func TestOrchestratorDebateBudgetScalesWithRounds(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDebateRounds = 2
	o := NewOrchestrator(NewRouter(cfg), pipelineSteps(), pipelineAnalysts(), cfg.AnalystWorkers, cfg.MaxRecurLimit)
	state := testState(cfg)

	if err := o.Run(context.Background(), state); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.InvestDebateState.Count != 4 {
		t.Fatalf("investment debate utterances = %d, want 4 with two rounds", state.InvestDebateState.Count)
	}
}

func TestOrchestratorRecursionLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRecurLimit = 3
	o := NewOrchestrator(NewRouter(cfg), pipelineSteps(), pipelineAnalysts(), cfg.AnalystWorkers, cfg.MaxRecurLimit)
	state := testState(cfg)

	err := o.Run(context.Background(), state)
	var limitErr *models.RecursionLimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("err = %v, want RecursionLimitError", err)
	}
	if limitErr.Limit != 3 {
		t.Fatalf("limit = %d, want 3", limitErr.Limit)
	}
	if state.FinalTradeDecision != "" {
		t.Fatal("final decision written despite aborted run")
	}
}

func TestOrchestratorSurfacesGenerationFailure(t *testing.T) {
	cfg := testConfig()
	genErr := &models.GenerationError{Role: consts.BearResearcher, Attempts: 4, Err: errors.New("backend down")}

	steps := pipelineSteps()
	for i, s := range steps {
		if s.Name() == consts.BearResearcher {
			steps[i] = &fakeStep{name: consts.BearResearcher, run: func(ctx context.Context, state *models.TradingState) error {
				return genErr
			}}
		}
	}
	o := NewOrchestrator(NewRouter(cfg), steps, pipelineAnalysts(), cfg.AnalystWorkers, cfg.MaxRecurLimit)
	state := testState(cfg)

	err := o.Run(context.Background(), state)
	var ge *models.GenerationError
	if !errors.As(err, &ge) {
		t.Fatalf("err = %v, want GenerationError", err)
	}

	// The run stopped mid-debate: the bull's turn survives, nothing
	// downstream was produced.
	if state.InvestDebateState.Count != 1 {
		t.Fatalf("debate utterances = %d, want 1", state.InvestDebateState.Count)
	}
	if state.TraderInvestmentPlan != "" || state.FinalTradeDecision != "" {
		t.Fatal("downstream artifacts written after generation failure")
	}
	if state.Completed() {
		t.Fatal("state claims completion after failure")
	}
}

func TestOrchestratorHonorsCancellation(t *testing.T) {
	cfg := testConfig()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	steps := pipelineSteps()
	for i, s := range steps {
		if s.Name() == consts.Trader {
			steps[i] = &fakeStep{name: consts.Trader, run: func(ctx context.Context, state *models.TradingState) error {
				state.SetTraderPlan("plan written just before shutdown")
				cancel()
				return nil
			}}
		}
	}
	o := NewOrchestrator(NewRouter(cfg), steps, pipelineAnalysts(), cfg.AnalystWorkers, cfg.MaxRecurLimit)
	state := testState(cfg)

	err := o.Run(ctx, state)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if state.RiskDebateState.Count != 0 {
		t.Fatal("risk debate started after cancellation")
	}
}

func TestOrchestratorCancelledBeforeStart(t *testing.T) {
	cfg := testConfig()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := NewOrchestrator(NewRouter(cfg), pipelineSteps(), pipelineAnalysts(), cfg.AnalystWorkers, cfg.MaxRecurLimit)
	state := testState(cfg)

	if err := o.Run(ctx, state); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(state.Reports) != 0 {
		t.Fatal("work ran under a cancelled context")
	}
}

func TestOrchestratorFanOutJoinsBeforeDebate(t *testing.T) {
	cfg := testConfig()

	// Stagger the analysts so a premature debate start would observe a
	// missing report.
	var wg sync.WaitGroup
	wg.Add(4)
	staggeredAnalyst := func(role string, delay time.Duration) agents.Step {
		return &fakeStep{name: role, run: func(ctx context.Context, state *models.TradingState) error {
			defer wg.Done()
			time.Sleep(delay)
			state.SetReport(role, "report from "+role)
			return nil
		}}
	}

	analysts := []agents.Step{
		staggeredAnalyst(consts.MarketAnalyst, 0),
		staggeredAnalyst(consts.SocialMediaAnalyst, 5*time.Millisecond),
		staggeredAnalyst(consts.NewsAnalyst, 10*time.Millisecond),
		staggeredAnalyst(consts.FundamentalsAnalyst, 20*time.Millisecond),
	}

	steps := append([]agents.Step{}, pipelineSteps()...)
	bullIdx := 0
	for i, s := range steps {
		if s.Name() == consts.BullResearcher {
			bullIdx = i
		}
	}
	orig := steps[bullIdx]
	steps[bullIdx] = &fakeStep{name: consts.BullResearcher, run: func(ctx context.Context, state *models.TradingState) error {
		// Every analyst must have joined before the debate begins.
		for _, role := range []string{
			consts.MarketAnalyst, consts.SocialMediaAnalyst,
			consts.NewsAnalyst, consts.FundamentalsAnalyst,
		} {
			if _, ok := state.Report(role); !ok {
				t.Errorf("debate started before %s reported", role)
			}
		}
		return orig.Run(ctx, state)
	}}

	o := NewOrchestrator(NewRouter(cfg), steps, analysts, cfg.AnalystWorkers, cfg.MaxRecurLimit)
	state := testState(cfg)

	if err := o.Run(context.Background(), state); err != nil {
		t.Fatalf("Run: %v", err)
	}
	wg.Wait()
}

func TestOrchestratorAnalystFailurePropagates(t *testing.T) {
	cfg := testConfig()
	cfg.MandatoryAnalysts = []string{consts.MarketAnalyst}

	fetchErr := &models.DataUnavailableError{Source: "yahoo_finance", Err: errors.New("connection refused")}
	analysts := []agents.Step{
		&fakeStep{name: consts.MarketAnalyst, run: func(ctx context.Context, state *models.TradingState) error {
			return fetchErr
		}},
		reportingAnalyst(consts.SocialMediaAnalyst),
		reportingAnalyst(consts.NewsAnalyst),
		reportingAnalyst(consts.FundamentalsAnalyst),
	}

	o := NewOrchestrator(NewRouter(cfg), pipelineSteps(), analysts, cfg.AnalystWorkers, cfg.MaxRecurLimit)
	state := testState(cfg)

	err := o.Run(context.Background(), state)
	var unavailable *models.DataUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("err = %v, want DataUnavailableError", err)
	}
	if state.FinalTradeDecision != "" {
		t.Fatal("pipeline produced a decision despite mandatory analyst failure")
	}
}

package agents

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quantarena/quantarena/consts"
	"github.com/quantarena/quantarena/internal/memory"
	"github.com/quantarena/quantarena/internal/models"
)

func openTestCollection(t *testing.T, role string) *memory.Collection {
	t.Helper()
	store, err := memory.Open(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store.Collection(role)
}

func TestBullResearcherSpeaksAndRemembers(t *testing.T) {
	mem := openTestCollection(t, consts.BullResearcher)
	gen := &scriptedGen{text: "the growth story is intact"}
	bull := NewBullResearcher(gen, mem)

	state := analystTestState()
	state.SetReport(consts.MarketAnalyst, "uptrend confirmed")

	if err := bull.Run(context.Background(), state); err != nil {
		t.Fatalf("Run: %v", err)
	}

	debate := state.InvestDebateState
	if debate.Count != 1 {
		t.Fatalf("debate count = %d, want 1", debate.Count)
	}
	if debate.Transcript[0].Speaker != consts.Agent_BullResearcher {
		t.Fatalf("speaker = %q", debate.Transcript[0].Speaker)
	}
	if debate.CurrentResponse != "the growth story is intact" {
		t.Fatalf("current response = %q", debate.CurrentResponse)
	}

	records, err := mem.Retrieve("uptrend confirmed", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d memory records, want 1", len(records))
	}
	if !records[0].OutcomePending {
		t.Fatal("fresh memory record not pending")
	}
	if !strings.Contains(records[0].Rationale, "ACME") {
		t.Fatalf("rationale %q does not name the company", records[0].Rationale)
	}
}

func TestResearcherOutOfTurnSurfacesError(t *testing.T) {
	// The bear must not open the debate; the transcript enforces order.
	bear := NewBearResearcher(&scriptedGen{text: "the downside dominates"}, nil)

	state := analystTestState()
	if err := bear.Run(context.Background(), state); err == nil {
		t.Fatal("expected out-of-turn error")
	}
	if state.InvestDebateState.Count != 0 {
		t.Fatal("transcript advanced despite rejected utterance")
	}
}

func TestResearchManagerClosesDebate(t *testing.T) {
	state := analystTestState()
	mustUtter(t, state.InvestDebateState, consts.Agent_BullResearcher, "bull case")
	mustUtter(t, state.InvestDebateState, consts.Agent_BearResearcher, "bear case")

	manager := NewResearchManager(&scriptedGen{text: "side with the bull, buy gradually"}, nil)
	if err := manager.Run(context.Background(), state); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !state.InvestDebateState.Closed() {
		t.Fatal("debate not closed by manager")
	}
	if state.InvestDebateState.JudgeDecision == "" {
		t.Fatal("empty judge decision")
	}
}

func TestRiskDebaterSpeaksWithoutMemory(t *testing.T) {
	state := analystTestState()
	state.SetTraderPlan("buy a starter position")

	risky := NewRiskyAnalyst(&scriptedGen{text: "double the size"})
	if err := risky.Run(context.Background(), state); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.RiskDebateState.Count != 1 {
		t.Fatalf("risk debate count = %d, want 1", state.RiskDebateState.Count)
	}
	if state.RiskDebateState.Transcript[0].Speaker != consts.Agent_RiskyAnalyst {
		t.Fatalf("speaker = %q", state.RiskDebateState.Transcript[0].Speaker)
	}
}

func TestTraderWritesPlanOnce(t *testing.T) {
	state := analystTestState()
	if err := state.InvestDebateState.SetJudgeDecision("go long"); err != nil {
		t.Fatal(err)
	}

	trader := NewTrader(&scriptedGen{text: "enter in thirds over a week"}, nil)
	if err := trader.Run(context.Background(), state); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.TraderInvestmentPlan != "enter in thirds over a week" {
		t.Fatalf("plan = %q", state.TraderInvestmentPlan)
	}
}

func TestPortfolioManagerWritesFinalDecision(t *testing.T) {
	state := analystTestState()
	state.SetTraderPlan("enter in thirds")
	if err := state.RiskDebateState.SetJudgeDecision("approved"); err != nil {
		t.Fatal(err)
	}

	pm := NewPortfolioManager(&scriptedGen{text: "final recommendation: BUY"}, nil)
	if err := pm.Run(context.Background(), state); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.FinalTradeDecision != "final recommendation: BUY" {
		t.Fatalf("final decision = %q", state.FinalTradeDecision)
	}
}

func mustUtter(t *testing.T, debate *models.DebateState, speaker, text string) {
	t.Helper()
	if err := debate.AddUtterance(speaker, text); err != nil {
		t.Fatalf("AddUtterance(%s): %v", speaker, err)
	}
}

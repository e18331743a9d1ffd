package processing

import (
	"errors"
	"testing"
	"time"

	"github.com/quantarena/quantarena/internal/models"
)

func TestExtractActionFindsTokenInProse(t *testing.T) {
	text := "Given the strong fundamentals and improving sentiment, my recommendation is to buy a half position now."
	action, err := ExtractAction(text)
	if err != nil {
		t.Fatalf("ExtractAction: %v", err)
	}
	if action != models.ActionBuy {
		t.Fatalf("action = %q, want BUY", action)
	}
}

func TestExtractActionLastOccurrenceWins(t *testing.T) {
	text := "The bull case argued BUY and the bear case argued HOLD, but weighing both I conclude: SELL."
	action, err := ExtractAction(text)
	if err != nil {
		t.Fatal(err)
	}
	if action != models.ActionSell {
		t.Fatalf("action = %q, want SELL", action)
	}
}

func TestExtractActionIsCaseInsensitive(t *testing.T) {
	for _, text := range []string{"Final call: Sell.", "final call: sell", "FINAL CALL: SELL"} {
		action, err := ExtractAction(text)
		if err != nil {
			t.Fatalf("%q: %v", text, err)
		}
		if action != models.ActionSell {
			t.Fatalf("%q: action = %q, want SELL", text, action)
		}
	}
}

func TestExtractActionRespectsWordBoundaries(t *testing.T) {
	// "rebuy", "household" and "sells" must not count as tokens.
	if _, err := ExtractAction("households rebuy after sellsides capitulate"); err == nil {
		t.Fatal("embedded tokens were matched")
	}

	action, err := ExtractAction("households rebuy, so the call is HOLD")
	if err != nil {
		t.Fatal(err)
	}
	if action != models.ActionHold {
		t.Fatalf("action = %q, want HOLD", action)
	}
}

func TestExtractActionUnclassifiable(t *testing.T) {
	_, err := ExtractAction("the analysis is inconclusive and no action is named")
	var unclassifiable *models.UnclassifiableDecisionError
	if !errors.As(err, &unclassifiable) {
		t.Fatalf("err = %v, want UnclassifiableDecisionError", err)
	}
}

func TestExtractActionIsIdempotent(t *testing.T) {
	text := "buy early, hold through volatility, and in the end: BUY"
	first, err := ExtractAction(text)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := ExtractAction(text)
		if err != nil {
			t.Fatal(err)
		}
		if again != first {
			t.Fatalf("run %d: action %q != first run %q", i, again, first)
		}
	}
}

func completedState(finalDecision string) *models.TradingState {
	date, _ := time.Parse("2006-01-02", "2024-01-15")
	state := models.NewTradingState("ACME", date,
		models.NewDebateState([]string{"Bull Researcher", "Bear Researcher"}, 1),
		models.NewDebateState([]string{"Risky Analyst", "Safe Analyst", "Neutral Analyst"}, 1),
	)
	_ = state.InvestDebateState.SetJudgeDecision("the bullish growth case is stronger")
	state.SetTraderPlan("accumulate on weakness with a stop below support")
	_ = state.RiskDebateState.SetJudgeDecision("sizing is acceptable")
	state.SetFinalTradeDecision(finalDecision)
	return state
}

func TestProcessBuildsDecision(t *testing.T) {
	sp := NewSignalProcessor()
	state := completedState("The upside outweighs the risks. Final recommendation: BUY.")

	decision, err := sp.Process(state)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if decision.Symbol != "ACME" || decision.TradeDate != "2024-01-15" {
		t.Fatalf("decision identity = %s/%s", decision.Symbol, decision.TradeDate)
	}
	if decision.Action != models.ActionBuy {
		t.Fatalf("action = %q, want BUY", decision.Action)
	}
	if decision.Confidence < 0.1 || decision.Confidence > 1.0 {
		t.Fatalf("confidence %f outside [0.1, 1.0]", decision.Confidence)
	}
	if decision.Rationale == "" {
		t.Fatal("empty rationale")
	}
}

func TestProcessSurfacesUnclassifiableSynthesis(t *testing.T) {
	sp := NewSignalProcessor()
	state := completedState("after weighing everything the committee remains undecided")

	_, err := sp.Process(state)
	var unclassifiable *models.UnclassifiableDecisionError
	if !errors.As(err, &unclassifiable) {
		t.Fatalf("err = %v, want UnclassifiableDecisionError", err)
	}
}

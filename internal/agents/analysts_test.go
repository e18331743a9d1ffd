package agents

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/quantarena/quantarena/consts"
	"github.com/quantarena/quantarena/internal/models"
)

// scriptedGen returns a fixed response (or error) and counts calls.
type scriptedGen struct {
	text  string
	err   error
	calls int
}

func (g *scriptedGen) Generate(ctx context.Context, role string, messages []*schema.Message) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

func analystTestState() *models.TradingState {
	date, _ := time.Parse("2006-01-02", "2024-01-15")
	return models.NewTradingState("ACME", date,
		models.NewDebateState([]string{consts.Agent_BullResearcher, consts.Agent_BearResearcher}, 1),
		models.NewDebateState([]string{consts.Agent_RiskyAnalyst, consts.Agent_SafeAnalyst, consts.Agent_NeutralAnalyst}, 1),
	)
}

func TestAnalystWritesReport(t *testing.T) {
	gen := &scriptedGen{text: "momentum is constructive"}
	step := &AnalystStep{
		role:      consts.MarketAnalyst,
		specialty: "market technical analyst",
		gen:       gen,
		fetch: func(symbol string, asOf time.Time) (string, error) {
			if symbol != "ACME" {
				t.Fatalf("fetch symbol = %q", symbol)
			}
			return "price table", nil
		},
	}

	state := analystTestState()
	if err := step.Run(context.Background(), state); err != nil {
		t.Fatalf("Run: %v", err)
	}

	report, ok := state.Report(consts.MarketAnalyst)
	if !ok || report != "momentum is constructive" {
		t.Fatalf("report = (%q, %v)", report, ok)
	}
	if gen.calls != 1 {
		t.Fatalf("generator called %d times, want 1", gen.calls)
	}
}

func TestAnalystDegradesToPlaceholderOnDataFailure(t *testing.T) {
	gen := &scriptedGen{text: "should not be used"}
	fetchErr := &models.DataUnavailableError{Source: "yahoo_finance", Err: errors.New("connection refused")}
	step := &AnalystStep{
		role:      consts.MarketAnalyst,
		specialty: "market technical analyst",
		gen:       gen,
		fetch: func(symbol string, asOf time.Time) (string, error) {
			return "", fetchErr
		},
	}

	state := analystTestState()
	if err := step.Run(context.Background(), state); err != nil {
		t.Fatalf("non-mandatory analyst failed the run: %v", err)
	}

	report, ok := state.Report(consts.MarketAnalyst)
	if !ok {
		t.Fatal("no report written on degrade")
	}
	if !strings.Contains(report, PlaceholderMarker) {
		t.Fatalf("degraded report %q missing placeholder marker", report)
	}
	if !strings.Contains(report, "ACME") {
		t.Fatalf("degraded report %q does not name the company", report)
	}
	if gen.calls != 0 {
		t.Fatal("generator invoked for a degraded report")
	}
}

func TestMandatoryAnalystFailsTheRun(t *testing.T) {
	fetchErr := &models.DataUnavailableError{Source: "finnhub", Err: errors.New("rate limited")}
	step := &AnalystStep{
		role:      consts.NewsAnalyst,
		specialty: "financial news analyst",
		gen:       &scriptedGen{text: "unused"},
		fetch: func(symbol string, asOf time.Time) (string, error) {
			return "", fetchErr
		},
		mandatory: true,
	}

	state := analystTestState()
	err := step.Run(context.Background(), state)
	var unavailable *models.DataUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("err = %v, want DataUnavailableError", err)
	}
	if _, ok := state.Report(consts.NewsAnalyst); ok {
		t.Fatal("report written despite mandatory failure")
	}
}

func TestAnalystPropagatesGenerationError(t *testing.T) {
	genErr := &models.GenerationError{Role: consts.MarketAnalyst, Attempts: 4, Err: errors.New("backend down")}
	step := &AnalystStep{
		role:      consts.MarketAnalyst,
		specialty: "market technical analyst",
		gen:       &scriptedGen{err: genErr},
		fetch: func(symbol string, asOf time.Time) (string, error) {
			return "data", nil
		},
	}

	state := analystTestState()
	err := step.Run(context.Background(), state)
	var ge *models.GenerationError
	if !errors.As(err, &ge) {
		t.Fatalf("err = %v, want GenerationError", err)
	}
}

func TestAnalystRejectsMalformedTradeDate(t *testing.T) {
	step := &AnalystStep{
		role:      consts.MarketAnalyst,
		specialty: "market technical analyst",
		gen:       &scriptedGen{text: "unused"},
		fetch: func(symbol string, asOf time.Time) (string, error) {
			return "data", nil
		},
	}

	state := analystTestState()
	state.TradeDate = "01/15/2024"
	if err := step.Run(context.Background(), state); err == nil {
		t.Fatal("expected error for malformed trade date")
	}
}

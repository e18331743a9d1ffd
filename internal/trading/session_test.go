package trading

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/quantarena/quantarena/consts"
	"github.com/quantarena/quantarena/internal/config"
	"github.com/quantarena/quantarena/internal/models"
)

func completedTestState() *models.TradingState {
	date, _ := time.Parse("2006-01-02", "2024-01-15")
	state := models.NewTradingState("ACME", date,
		models.NewDebateState([]string{consts.Agent_BullResearcher, consts.Agent_BearResearcher}, 1),
		models.NewDebateState([]string{consts.Agent_RiskyAnalyst, consts.Agent_SafeAnalyst, consts.Agent_NeutralAnalyst}, 1),
	)
	state.SetReport(consts.MarketAnalyst, "market view")
	state.SetReport(consts.NewsAnalyst, "news view")
	_ = state.InvestDebateState.SetJudgeDecision("lean long")
	state.SetTraderPlan("scale in")
	_ = state.RiskDebateState.SetJudgeDecision("approved")
	state.SetFinalTradeDecision("final call: BUY")
	return state
}

func TestSaveResultsWritesArtifacts(t *testing.T) {
	cfg := &config.Config{ResultsDir: t.TempDir()}
	session := NewSession(cfg, "ACME", "2024-01-15")
	state := completedTestState()
	decision := &models.TradeDecision{
		Symbol: "ACME", Action: models.ActionBuy,
		Confidence: 0.4, TradeDate: "2024-01-15",
	}

	if err := session.saveResults(state, decision); err != nil {
		t.Fatalf("saveResults: %v", err)
	}

	dir := filepath.Join(cfg.ResultsDir, "ACME", "2024-01-15")
	for _, name := range []string{
		"market_report.md", "news_report.md", "investment_plan.md",
		"trader_plan.md", "risk_ruling.md", "final_decision.md",
		"state.json", "decision.json",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing artifact %s: %v", name, err)
		}
	}

	// Reports from analysts that never ran are not written.
	if _, err := os.Stat(filepath.Join(dir, "sentiment_report.md")); !os.IsNotExist(err) {
		t.Fatal("sentiment report written without a sentiment analyst run")
	}

	content, err := os.ReadFile(filepath.Join(dir, "final_decision.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(content), "final call: BUY") {
		t.Fatalf("final decision artifact missing synthesis text: %q", content)
	}

	var savedDecision models.TradeDecision
	data, err := os.ReadFile(filepath.Join(dir, "decision.json"))
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &savedDecision); err != nil {
		t.Fatalf("decision.json malformed: %v", err)
	}
	if savedDecision.Action != models.ActionBuy {
		t.Fatalf("saved action = %q", savedDecision.Action)
	}
}

func TestSaveResultsWithoutDecision(t *testing.T) {
	// An aborted run still persists whatever the pipeline produced.
	cfg := &config.Config{ResultsDir: t.TempDir()}
	session := NewSession(cfg, "ACME", "2024-01-15")

	date, _ := time.Parse("2006-01-02", "2024-01-15")
	state := models.NewTradingState("ACME", date,
		models.NewDebateState([]string{consts.Agent_BullResearcher, consts.Agent_BearResearcher}, 1),
		models.NewDebateState([]string{consts.Agent_RiskyAnalyst, consts.Agent_SafeAnalyst, consts.Agent_NeutralAnalyst}, 1),
	)
	state.SetReport(consts.MarketAnalyst, "the only artifact")

	if err := session.saveResults(state, nil); err != nil {
		t.Fatalf("saveResults: %v", err)
	}

	dir := filepath.Join(cfg.ResultsDir, "ACME", "2024-01-15")
	if _, err := os.Stat(filepath.Join(dir, "market_report.md")); err != nil {
		t.Fatalf("partial run artifact missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "decision.json")); !os.IsNotExist(err) {
		t.Fatal("decision.json written for a run with no decision")
	}
}

func TestValidateConfigRequiresProviderKey(t *testing.T) {
	session := NewSession(&config.Config{LLMProvider: "deepseek"}, "ACME", "2024-01-15")
	if err := session.validateConfig(); err == nil {
		t.Fatal("missing deepseek key accepted")
	}

	session = NewSession(&config.Config{LLMProvider: "deepseek", DeepSeekAPIKey: "sk-test"}, "ACME", "2024-01-15")
	if err := session.validateConfig(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	session = NewSession(&config.Config{LLMProvider: "quantum"}, "ACME", "2024-01-15")
	if err := session.validateConfig(); err == nil {
		t.Fatal("unknown provider accepted")
	}
}

package trading

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quantarena/quantarena/consts"
	"github.com/quantarena/quantarena/internal/config"
	"github.com/quantarena/quantarena/internal/display"
	"github.com/quantarena/quantarena/internal/graph"
	"github.com/quantarena/quantarena/internal/models"
)

// Session runs one analysis end to end: propagate the pipeline, persist
// the artifacts under the results directory, render the outcome.
type Session struct {
	config *config.Config
	symbol string
	date   string
	graph  *graph.TradingAgentsGraph
}

func NewSession(cfg *config.Config, symbol, date string) *Session {
	return &Session{config: cfg, symbol: symbol, date: date}
}

// Execute runs the analysis. Pipeline failures are reported after the
// partial results have been saved, so an aborted run still leaves its
// trail on disk.
func (s *Session) Execute(ctx context.Context) error {
	if err := s.validateConfig(); err != nil {
		return fmt.Errorf("configuration: %w", err)
	}
	if err := s.config.EnsureDirectories(); err != nil {
		return err
	}

	g, err := graph.NewTradingAgentsGraph(s.config)
	if err != nil {
		return fmt.Errorf("initialize pipeline: %w", err)
	}
	defer g.Close()
	s.graph = g

	state, decision, runErr := g.Propagate(ctx, s.symbol, s.date)
	if state != nil {
		if saveErr := s.saveResults(state, decision); saveErr != nil {
			fmt.Fprintf(os.Stderr, "warning: could not save results: %v\n", saveErr)
		}
		display.NewResultsDisplay(state.CompanyOfInterest, state.TradeDate).ShowResults(state, decision)
	}
	if runErr != nil {
		return fmt.Errorf("analysis for %s: %w", s.symbol, runErr)
	}
	return nil
}

func (s *Session) validateConfig() error {
	switch s.config.LLMProvider {
	case "openai":
		if s.config.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	case "deepseek":
		if s.config.DeepSeekAPIKey == "" {
			return fmt.Errorf("DEEPSEEK_API_KEY is required for the deepseek provider")
		}
	default:
		return fmt.Errorf("unknown LLM provider %q", s.config.LLMProvider)
	}
	return nil
}

// saveResults writes one directory per run: a markdown file per
// artifact plus the full state as JSON.
func (s *Session) saveResults(state *models.TradingState, decision *models.TradeDecision) error {
	dir := filepath.Join(s.config.ResultsDir, state.CompanyOfInterest, state.TradeDate)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}

	sections := []struct {
		name  string
		title string
		body  string
	}{
		{"market_report", "Market Analysis", reportOrEmpty(state, consts.MarketAnalyst)},
		{"sentiment_report", "Social Sentiment", reportOrEmpty(state, consts.SocialMediaAnalyst)},
		{"news_report", "News Analysis", reportOrEmpty(state, consts.NewsAnalyst)},
		{"fundamentals_report", "Fundamentals", reportOrEmpty(state, consts.FundamentalsAnalyst)},
		{"investment_plan", "Investment Plan", state.InvestDebateState.JudgeDecision},
		{"trader_plan", "Trading Plan", state.TraderInvestmentPlan},
		{"risk_ruling", "Risk Ruling", state.RiskDebateState.JudgeDecision},
		{"final_decision", "Final Decision", state.FinalTradeDecision},
	}

	for _, sec := range sections {
		if strings.TrimSpace(sec.body) == "" {
			continue
		}
		content := fmt.Sprintf("# %s: %s (%s)\n\n%s\n", sec.title, state.CompanyOfInterest, state.TradeDate, sec.body)
		path := filepath.Join(dir, sec.name+".md")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "state.json"), data, 0o644); err != nil {
		return fmt.Errorf("write state.json: %w", err)
	}

	if decision != nil {
		data, err := json.MarshalIndent(decision, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal decision: %w", err)
		}
		if err := os.WriteFile(filepath.Join(dir, "decision.json"), data, 0o644); err != nil {
			return fmt.Errorf("write decision.json: %w", err)
		}
	}
	return nil
}

// RecordOutcome propagates a realized position return into the
// memorizing roles of an already-constructed graph.
func (s *Session) RecordOutcome(positionReturn float64) error {
	if s.graph == nil {
		return fmt.Errorf("no completed analysis to record an outcome for")
	}
	return s.graph.ReflectAndRemember(positionReturn)
}

func reportOrEmpty(state *models.TradingState, role string) string {
	text, _ := state.Report(role)
	return text
}

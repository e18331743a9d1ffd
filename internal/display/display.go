package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/quantarena/quantarena/consts"
	"github.com/quantarena/quantarena/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	sectionStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1)

	buyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#10B981"))

	sellStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#EF4444"))

	holdStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F59E0B"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

// reportSections fixes the render order of analyst reports.
var reportSections = []struct {
	role  string
	title string
}{
	{consts.MarketAnalyst, "Market Analysis"},
	{consts.SocialMediaAnalyst, "Social Sentiment"},
	{consts.NewsAnalyst, "News Analysis"},
	{consts.FundamentalsAnalyst, "Fundamentals"},
}

// ResultsDisplay renders a completed (or partially completed) analysis
// run to the terminal.
type ResultsDisplay struct {
	symbol string
	date   string
}

func NewResultsDisplay(symbol, date string) *ResultsDisplay {
	return &ResultsDisplay{symbol: symbol, date: date}
}

func (d *ResultsDisplay) ShowResults(state *models.TradingState, decision *models.TradeDecision) {
	fmt.Println(titleStyle.Render(fmt.Sprintf("Analysis results for %s (%s)", d.symbol, d.date)))
	fmt.Println()

	d.showReports(state)
	d.showDebate("Research Debate", state.InvestDebateState)
	d.showSection("Trading Plan", state.TraderInvestmentPlan)
	d.showDebate("Risk Review", state.RiskDebateState)
	d.showSection("Final Synthesis", state.FinalTradeDecision)
	d.showDecision(decision)
}

func (d *ResultsDisplay) showReports(state *models.TradingState) {
	for _, s := range reportSections {
		report, ok := state.Report(s.role)
		if !ok {
			continue
		}
		d.showSection(s.title, report)
	}
}

func (d *ResultsDisplay) showDebate(title string, debate *models.DebateState) {
	if debate == nil || debate.Count == 0 {
		return
	}
	fmt.Println(headerStyle.Render(title))
	for _, u := range debate.Transcript {
		fmt.Printf("  %s %s\n", headerStyle.Render(u.Speaker+":"), truncate(u.Text, 400))
	}
	if debate.JudgeDecision != "" {
		fmt.Printf("  %s %s\n", headerStyle.Render("Verdict:"), truncate(debate.JudgeDecision, 400))
	} else {
		fmt.Println(mutedStyle.Render("  (verdict pending)"))
	}
	fmt.Println()
}

func (d *ResultsDisplay) showSection(title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	fmt.Println(headerStyle.Render(title))
	fmt.Println(sectionStyle.Render(truncate(body, 1200)))
	fmt.Println()
}

func (d *ResultsDisplay) showDecision(decision *models.TradeDecision) {
	if decision == nil {
		fmt.Println(mutedStyle.Render("No final decision was produced."))
		return
	}

	var style lipgloss.Style
	switch decision.Action {
	case models.ActionBuy:
		style = buyStyle
	case models.ActionSell:
		style = sellStyle
	default:
		style = holdStyle
	}

	fmt.Println(headerStyle.Render("Recommendation"))
	fmt.Printf("  %s  (confidence %.2f)\n", style.Render(string(decision.Action)), decision.Confidence)
	if decision.Rationale != "" {
		fmt.Println(mutedStyle.Render("  " + truncate(decision.Rationale, 600)))
	}
}

func truncate(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	return text[:limit] + "..."
}

package consts

// Node IDs used by the router and the step registry.
const (
	// Analyst team
	MarketAnalyst       = "market_analyst"
	SocialMediaAnalyst  = "social_media_analyst"
	NewsAnalyst         = "news_analyst"
	FundamentalsAnalyst = "fundamentals_analyst"

	// Research team
	BullResearcher  = "bull_researcher"
	BearResearcher  = "bear_researcher"
	ResearchManager = "research_manager"

	// Trading team
	Trader = "trader"

	// Risk management team
	RiskyAnalyst   = "risky_analyst"
	SafeAnalyst    = "safe_analyst"
	NeutralAnalyst = "neutral_analyst"
	RiskJudge      = "risk_judge"

	// Portfolio management team
	PortfolioManager = "portfolio_manager"

	// AnalystTeam is the pseudo node the router emits while any selected
	// analyst report is still missing; the orchestrator fans the missing
	// analysts out concurrently and joins before routing again.
	AnalystTeam = "analyst_team"

	// End terminates the pipeline.
	End = "__end__"
)

// Display names for reports and terminal output.
const (
	Agent_MarketAnalyst       = "Market Analyst"
	Agent_SocialAnalyst       = "Social Analyst"
	Agent_NewsAnalyst         = "News Analyst"
	Agent_FundamentalsAnalyst = "Fundamentals Analyst"
	Agent_BullResearcher      = "Bull Researcher"
	Agent_BearResearcher      = "Bear Researcher"
	Agent_ResearchManager     = "Research Manager"
	Agent_Trader              = "Trader"
	Agent_RiskyAnalyst        = "Risky Analyst"
	Agent_SafeAnalyst         = "Safe Analyst"
	Agent_NeutralAnalyst      = "Neutral Analyst"
	Agent_RiskJudge           = "Risk Judge"
	Agent_PortfolioManager    = "Portfolio Manager"
)

package models

// Action is the closed set of recommendation tokens a run can produce.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionHold Action = "HOLD"
	ActionSell Action = "SELL"
)

// TradeDecision is the terminal output of a run: the categorical action
// plus the full free-text rationale that produced it. This system never
// emits an order anywhere; the decision is a recommendation only.
type TradeDecision struct {
	Symbol     string  `json:"symbol"`
	Action     Action  `json:"action"`
	Confidence float64 `json:"confidence"`
	Rationale  string  `json:"rationale"`
	TradeDate  string  `json:"trade_date"`
}

package processing

import (
	"regexp"
	"strings"

	"github.com/quantarena/quantarena/internal/models"
)

// decisionToken matches a standalone BUY, HOLD or SELL regardless of
// case. Word boundaries keep "rebuy" and "household" from matching.
var decisionToken = regexp.MustCompile(`(?i)\b(buy|hold|sell)\b`)

// ExtractAction pulls the actionable decision out of free-form
// synthesis text. When the text mentions several decision tokens the
// last one wins, since the recommendation conventionally closes the
// text. Text with no token at all is surfaced as unclassifiable rather
// than silently defaulted.
func ExtractAction(text string) (models.Action, error) {
	matches := decisionToken.FindAllString(text, -1)
	if len(matches) == 0 {
		return "", &models.UnclassifiableDecisionError{Text: text}
	}
	return models.Action(strings.ToUpper(matches[len(matches)-1])), nil
}

// SignalProcessor turns a completed pipeline state into a structured
// trading decision with a rough confidence score.
type SignalProcessor struct {
	buyPatterns  []*regexp.Regexp
	sellPatterns []*regexp.Regexp
	holdPatterns []*regexp.Regexp
}

func NewSignalProcessor() *SignalProcessor {
	return &SignalProcessor{
		buyPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(buy|long|bullish|upside|accumulate)\b`),
			regexp.MustCompile(`(?i)\b(undervalued|oversold|growth potential|opportunity)\b`),
		},
		sellPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(sell|short|bearish|downside|divest)\b`),
			regexp.MustCompile(`(?i)\b(overvalued|overbought|deteriorating|decline)\b`),
		},
		holdPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b(hold|maintain|neutral|wait|sideways)\b`),
			regexp.MustCompile(`(?i)\b(no action|stay put|keep position)\b`),
		},
	}
}

// Process extracts the decision from the final synthesis and scores it
// against the full run transcript. It fails with an
// UnclassifiableDecisionError when the synthesis names no decision.
func (sp *SignalProcessor) Process(state *models.TradingState) (*models.TradeDecision, error) {
	action, err := ExtractAction(state.FinalTradeDecision)
	if err != nil {
		return nil, err
	}

	combined := sp.combinedText(state)

	return &models.TradeDecision{
		Symbol:     state.CompanyOfInterest,
		Action:     action,
		Confidence: sp.confidence(combined, action),
		Rationale:  sp.rationale(state.FinalTradeDecision, action),
		TradeDate:  state.TradeDate,
	}, nil
}

func (sp *SignalProcessor) combinedText(state *models.TradingState) string {
	parts := []string{
		state.InvestDebateState.JudgeDecision,
		state.TraderInvestmentPlan,
		state.RiskDebateState.JudgeDecision,
		state.FinalTradeDecision,
	}
	return strings.Join(parts, " ")
}

// confidence scores how consistently the run's text leans toward the
// extracted action, as the density of aligned signal words. The score is
// clamped to [0.1, 1.0] so a decision never reads as certain or as
// baseless.
func (sp *SignalProcessor) confidence(text string, action models.Action) float64 {
	text = strings.ToLower(text)
	totalWords := len(strings.Fields(text))
	if totalWords == 0 {
		return 0.5
	}

	var patterns []*regexp.Regexp
	switch action {
	case models.ActionBuy:
		patterns = sp.buyPatterns
	case models.ActionSell:
		patterns = sp.sellPatterns
	case models.ActionHold:
		patterns = sp.holdPatterns
	}

	matches := 0
	for _, pattern := range patterns {
		matches += len(pattern.FindAllString(text, -1))
	}

	confidence := float64(matches) / float64(totalWords) * 10
	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < 0.1 {
		confidence = 0.1
	}
	return confidence
}

// rationale picks up to three sentences from the synthesis that mention
// words aligned with the action.
func (sp *SignalProcessor) rationale(text string, action models.Action) string {
	actionWords := map[models.Action][]string{
		models.ActionBuy:  {"buy", "bullish", "growth", "opportunity", "undervalued", "upside"},
		models.ActionSell: {"sell", "bearish", "risk", "decline", "overvalued", "downside"},
		models.ActionHold: {"hold", "neutral", "wait", "maintain", "uncertain"},
	}

	words := actionWords[action]
	var relevant []string
	for _, sentence := range strings.Split(text, ".") {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) < 10 {
			continue
		}
		lower := strings.ToLower(sentence)
		for _, word := range words {
			if strings.Contains(lower, word) {
				relevant = append(relevant, sentence)
				break
			}
		}
		if len(relevant) >= 3 {
			break
		}
	}

	if len(relevant) == 0 {
		return "Decision based on the full debate and risk review."
	}
	return strings.Join(relevant, ". ")
}

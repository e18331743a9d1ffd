package models

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrDebateClosed is returned when an utterance or judge decision is
// submitted to a debate that already has a judge decision.
var ErrDebateClosed = errors.New("debate already closed by judge decision")

// Utterance is one turn of a debate: who spoke, the turn index at which
// they spoke (1-based, strictly increasing), and what they said.
type Utterance struct {
	Speaker string `json:"speaker"`
	Round   int    `json:"round"`
	Text    string `json:"text"`
}

// DebateState is the shared record of one bounded adversarial exchange.
// Participants speak in fixed round-robin order; the order is set at
// construction and never changes for the lifetime of the debate.
type DebateState struct {
	Participants    []string    `json:"participants"`
	MaxRounds       int         `json:"max_rounds"`
	Transcript      []Utterance `json:"transcript"`
	CurrentResponse string      `json:"current_response"`
	JudgeDecision   string      `json:"judge_decision"`
	Count           int         `json:"count"`
}

func NewDebateState(participants []string, maxRounds int) *DebateState {
	if len(participants) == 0 {
		panic("models: debate needs at least one participant")
	}
	if maxRounds < 1 {
		maxRounds = 1
	}
	return &DebateState{
		Participants: participants,
		MaxRounds:    maxRounds,
	}
}

// Limit is the total number of utterances allowed before the debate must
// be synthesized: max rounds times adversarial participant count.
func (d *DebateState) Limit() int { return d.MaxRounds * len(d.Participants) }

// Exhausted reports whether the utterance budget has been spent.
func (d *DebateState) Exhausted() bool { return d.Count >= d.Limit() }

// Closed reports whether a judge decision has been recorded. A closed
// debate accepts no further utterances.
func (d *DebateState) Closed() bool { return d.JudgeDecision != "" }

// NextSpeaker returns the participant whose turn it is.
func (d *DebateState) NextSpeaker() string {
	return d.Participants[d.Count%len(d.Participants)]
}

// AddUtterance appends one turn. The speaker must match NextSpeaker and
// the debate must still be open; both violations are routing bugs that
// surface as errors rather than corrupting the transcript.
func (d *DebateState) AddUtterance(speaker, text string) error {
	if d.Closed() {
		return ErrDebateClosed
	}
	if expected := d.NextSpeaker(); speaker != expected {
		return fmt.Errorf("out-of-turn utterance: expected %s, got %s", expected, speaker)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("empty utterance from %s", speaker)
	}
	d.Count++
	d.Transcript = append(d.Transcript, Utterance{
		Speaker: speaker,
		Round:   d.Count,
		Text:    text,
	})
	d.CurrentResponse = text
	return nil
}

// SetJudgeDecision closes the debate with the synthesizer's verdict.
func (d *DebateState) SetJudgeDecision(text string) error {
	if d.Closed() {
		return ErrDebateClosed
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.New("empty judge decision")
	}
	d.JudgeDecision = text
	return nil
}

// History renders the interleaved transcript with speaker labels, the
// form the debate prompts consume.
func (d *DebateState) History() string {
	var b strings.Builder
	for _, u := range d.Transcript {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(u.Speaker)
		b.WriteString(": ")
		b.WriteString(u.Text)
	}
	return b.String()
}

// SpeakerHistory renders only the given participant's turns.
func (d *DebateState) SpeakerHistory(speaker string) string {
	var b strings.Builder
	for _, u := range d.Transcript {
		if u.Speaker != speaker {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(u.Speaker)
		b.WriteString(": ")
		b.WriteString(u.Text)
	}
	return b.String()
}

// TradingState is the single per-request record threaded through every
// step. Analyst reports and the downstream plan/decision fields are
// write-once; overwriting one means the router dispatched a step twice,
// which is a contract violation and panics.
type TradingState struct {
	CompanyOfInterest string            `json:"company_of_interest"`
	TradeDate         string            `json:"trade_date"`
	Reports           map[string]string `json:"reports"`

	InvestDebateState *DebateState `json:"investment_debate_state"`
	RiskDebateState   *DebateState `json:"risk_debate_state"`

	TraderInvestmentPlan string `json:"trader_investment_plan"`
	FinalTradeDecision   string `json:"final_trade_decision"`

	Decision *TradeDecision `json:"decision,omitempty"`

	StartedAt time.Time `json:"started_at"`

	// mu guards Reports: analysts run concurrently during the fan-out
	// phase; every later phase is single-threaded.
	mu sync.Mutex
}

func NewTradingState(symbol string, date time.Time, investDebate, riskDebate *DebateState) *TradingState {
	return &TradingState{
		CompanyOfInterest: symbol,
		TradeDate:         date.Format("2006-01-02"),
		Reports:           make(map[string]string),
		InvestDebateState: investDebate,
		RiskDebateState:   riskDebate,
		StartedAt:         time.Now(),
	}
}

// Report returns the artifact written by the given role, and whether the
// role has run at all. A role that ran always has non-empty content, so
// the second return value distinguishes "not yet run" from "ran".
func (s *TradingState) Report(role string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.Reports[role]
	return text, ok
}

// SetReport writes a role's artifact exactly once.
func (s *TradingState) SetReport(role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Reports[role]; ok {
		panic(fmt.Sprintf("models: report for %s written twice", role))
	}
	if strings.TrimSpace(text) == "" {
		panic(fmt.Sprintf("models: empty report for %s", role))
	}
	s.Reports[role] = text
}

// SetTraderPlan records the trader's plan, once.
func (s *TradingState) SetTraderPlan(text string) {
	s.setOnce(&s.TraderInvestmentPlan, "trader_investment_plan", text)
}

// SetFinalTradeDecision records the portfolio manager's synthesis, once.
func (s *TradingState) SetFinalTradeDecision(text string) {
	s.setOnce(&s.FinalTradeDecision, "final_trade_decision", text)
}

func (s *TradingState) setOnce(field *string, name, value string) {
	if *field != "" {
		panic(fmt.Sprintf("models: %s written twice", name))
	}
	if strings.TrimSpace(value) == "" {
		panic(fmt.Sprintf("models: empty %s", name))
	}
	*field = value
}

// Situation joins the given roles' reports into the text used for memory
// retrieval queries.
func (s *TradingState) Situation(roles []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	parts := make([]string, 0, len(roles))
	for _, role := range roles {
		if text, ok := s.Reports[role]; ok {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Completed reports whether a final decision has been synthesized; once
// true the state is read-only by convention.
func (s *TradingState) Completed() bool { return s.Decision != nil }

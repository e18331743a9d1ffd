package graph

import (
	"github.com/quantarena/quantarena/internal/models"
)

// DebatePhase is the controller's view of where a debate stands.
type DebatePhase int

const (
	PhaseNotStarted DebatePhase = iota
	PhaseInProgress
	PhaseRoundLimitReached
	PhaseConverged
)

func (p DebatePhase) String() string {
	switch p {
	case PhaseNotStarted:
		return "not_started"
	case PhaseInProgress:
		return "in_progress"
	case PhaseRoundLimitReached:
		return "round_limit_reached"
	case PhaseConverged:
		return "converged"
	}
	return "unknown"
}

// DebateController interprets a debate sub-state as a state machine:
// NotStarted -> InProgress -> RoundLimitReached, with Converged entered
// from any non-initial phase once a judge decision lands. The controller
// only reads; deciding when to invoke the judge is the router's job.
type DebateController struct {
	state *models.DebateState
}

func NewDebateController(state *models.DebateState) *DebateController {
	return &DebateController{state: state}
}

func (c *DebateController) Phase() DebatePhase {
	switch {
	case c.state.Closed():
		return PhaseConverged
	case c.state.Exhausted():
		return PhaseRoundLimitReached
	case c.state.Count == 0:
		return PhaseNotStarted
	default:
		return PhaseInProgress
	}
}

// ShouldContinue reports whether another adversarial utterance fits in
// the round budget.
func (c *DebateController) ShouldContinue() bool {
	return !c.state.Closed() && !c.state.Exhausted()
}

// NextSpeaker returns the participant whose turn it is.
func (c *DebateController) NextSpeaker() string { return c.state.NextSpeaker() }

// Round returns the number of utterances made so far.
func (c *DebateController) Round() int { return c.state.Count }

// FullRoundDone reports whether every participant has spoken at least
// once, the precondition for early judge invocation.
func (c *DebateController) FullRoundDone() bool {
	return c.state.Count >= len(c.state.Participants)
}

package graph

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quantarena/quantarena/consts"
	"github.com/quantarena/quantarena/internal/agents"
	"github.com/quantarena/quantarena/internal/models"
)

// Orchestrator drives one request through the pipeline: consult the
// router, dispatch the chosen step, repeat. It is the only component
// that invokes steps, so the router stays free of side effects.
type Orchestrator struct {
	router   *Router
	steps    map[string]agents.Step
	analysts []agents.Step
	workers  int
	maxRecur int
}

func NewOrchestrator(router *Router, steps []agents.Step, analysts []agents.Step, workers, maxRecur int) *Orchestrator {
	byName := make(map[string]agents.Step, len(steps))
	for _, s := range steps {
		byName[s.Name()] = s
	}
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		router:   router,
		steps:    byName,
		analysts: analysts,
		workers:  workers,
		maxRecur: maxRecur,
	}
}

// Run executes steps until the router reaches the end node. Every
// dispatch counts against the recursion limit; exceeding it aborts the
// request with a RecursionLimitError rather than looping forever on a
// routing bug.
func (o *Orchestrator) Run(ctx context.Context, state *models.TradingState) error {
	for dispatched := 0; ; dispatched++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		node := o.router.Route(state)
		if node == consts.End {
			return nil
		}
		if dispatched >= o.maxRecur {
			return &models.RecursionLimitError{Limit: o.maxRecur}
		}

		start := time.Now()
		var err error
		if node == consts.AnalystTeam {
			err = o.runAnalysts(ctx, state)
		} else {
			step, ok := o.steps[node]
			if !ok {
				return fmt.Errorf("graph: router chose unknown node %q", node)
			}
			err = step.Run(ctx, state)
		}
		if err != nil {
			return err
		}
		log.Printf("[Orchestrator] %s done in %s", node, time.Since(start).Round(time.Millisecond))
	}
}

// runAnalysts fans out every analyst that has not yet reported and joins
// before returning. The first failure cancels the group; already-written
// reports stay in the state.
func (o *Orchestrator) runAnalysts(ctx context.Context, state *models.TradingState) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for _, a := range o.analysts {
		if _, done := state.Report(a.Name()); done {
			continue
		}
		g.Go(func() error {
			return a.Run(gctx, state)
		})
	}
	return g.Wait()
}

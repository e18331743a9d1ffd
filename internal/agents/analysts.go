package agents

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/quantarena/quantarena/consts"
	"github.com/quantarena/quantarena/internal/dataflows"
	"github.com/quantarena/quantarena/internal/llm"
	"github.com/quantarena/quantarena/internal/models"
)

// PlaceholderMarker prefixes the report of an analyst that degraded
// because its data source was unavailable.
const PlaceholderMarker = "[DATA UNAVAILABLE]"

// AnalystStep is a report-producing role: fetch a data snippet, have the
// model analyze it, write the report. All four analysts share this shape
// and differ only in specialty and data source.
type AnalystStep struct {
	role      string
	specialty string
	gen       llm.Generator
	fetch     func(symbol string, asOf time.Time) (string, error)
	mandatory bool
}

func (a *AnalystStep) Name() string { return a.role }

func (a *AnalystStep) Run(ctx context.Context, state *models.TradingState) error {
	asOf, err := time.Parse("2006-01-02", state.TradeDate)
	if err != nil {
		return fmt.Errorf("parse trade date %q: %w", state.TradeDate, err)
	}

	data, err := a.fetch(state.CompanyOfInterest, asOf)
	if err != nil {
		if a.mandatory {
			return err
		}
		// Degrade: the role reports that its source was missing instead
		// of failing the whole request.
		log.Printf("[%s] degrading to placeholder: %v", a.role, err)
		state.SetReport(a.role, fmt.Sprintf("%s %s had no source data for %s: %v",
			PlaceholderMarker, a.specialty, state.CompanyOfInterest, err))
		return nil
	}

	msgs, err := formatMessages(ctx, analystSystemPrompt, analystUserPrompt, map[string]any{
		"specialty":  a.specialty,
		"company":    state.CompanyOfInterest,
		"trade_date": state.TradeDate,
		"data":       data,
	})
	if err != nil {
		return err
	}

	report, err := a.gen.Generate(ctx, a.role, msgs)
	if err != nil {
		return err
	}

	state.SetReport(a.role, report)
	return nil
}

func NewMarketAnalyst(gen llm.Generator, toolkit *dataflows.Toolkit, mandatory bool) *AnalystStep {
	return &AnalystStep{
		role:      consts.MarketAnalyst,
		specialty: "market technical analyst",
		gen:       gen,
		fetch: func(symbol string, asOf time.Time) (string, error) {
			return toolkit.MarketSnapshot(symbol, asOf)
		},
		mandatory: mandatory,
	}
}

func NewSocialMediaAnalyst(gen llm.Generator, toolkit *dataflows.Toolkit, mandatory bool) *AnalystStep {
	return &AnalystStep{
		role:      consts.SocialMediaAnalyst,
		specialty: "market sentiment analyst",
		gen:       gen,
		fetch: func(symbol string, asOf time.Time) (string, error) {
			return toolkit.SocialSentiment(symbol, asOf)
		},
		mandatory: mandatory,
	}
}

func NewNewsAnalyst(gen llm.Generator, toolkit *dataflows.Toolkit, mandatory bool) *AnalystStep {
	return &AnalystStep{
		role:      consts.NewsAnalyst,
		specialty: "financial news analyst",
		gen:       gen,
		fetch: func(symbol string, asOf time.Time) (string, error) {
			return toolkit.NewsDigest(symbol, asOf)
		},
		mandatory: mandatory,
	}
}

func NewFundamentalsAnalyst(gen llm.Generator, toolkit *dataflows.Toolkit, mandatory bool) *AnalystStep {
	return &AnalystStep{
		role:      consts.FundamentalsAnalyst,
		specialty: "fundamentals analyst",
		gen:       gen,
		fetch: func(symbol string, asOf time.Time) (string, error) {
			return toolkit.Fundamentals(symbol)
		},
		mandatory: mandatory,
	}
}

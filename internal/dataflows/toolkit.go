package dataflows

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantarena/quantarena/internal/config"
	"github.com/quantarena/quantarena/internal/models"
)

// Toolkit is the single data-source surface the analyst steps consume.
// Every method returns a pre-formatted text snippet; the orchestration
// core treats these as opaque strings. Failures come back as
// DataUnavailableError so the caller can apply its degrade policy.
type Toolkit struct {
	yahoo   *YahooFinanceClient
	finnhub *FinnhubClient
	scraper *NewsScraperClient
	online  bool
}

func NewToolkit(cfg *config.Config) *Toolkit {
	return &Toolkit{
		yahoo:   NewYahooFinanceClient(cfg.DataCacheDir, cfg.CacheEnabled),
		finnhub: NewFinnhubClient(cfg.FinnhubAPIKey, cfg.DataCacheDir, cfg.CacheEnabled),
		scraper: NewNewsScraperClient(cfg.DataCacheDir, cfg.CacheEnabled),
		online:  cfg.OnlineTools,
	}
}

// MarketSnapshot renders a trailing 30-day price/volume view with simple
// moving averages.
func (t *Toolkit) MarketSnapshot(symbol string, asOf time.Time) (string, error) {
	if !t.online {
		return "", &models.DataUnavailableError{Source: "yahoo_finance", Err: fmt.Errorf("online tools disabled")}
	}

	bars, err := t.yahoo.GetHistoricalWindow(symbol, asOf, 30)
	if err != nil {
		return "", &models.DataUnavailableError{Source: "yahoo_finance", Err: err}
	}
	if len(bars) == 0 {
		return "", &models.DataUnavailableError{Source: "yahoo_finance", Err: fmt.Errorf("no bars for %s", symbol)}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Price history for %s (30 trading days ending %s):\n", symbol, asOf.Format("2006-01-02"))
	fmt.Fprintf(&b, "date | open | high | low | close | volume\n")
	start := 0
	if len(bars) > 10 {
		start = len(bars) - 10
	}
	for _, bar := range bars[start:] {
		fmt.Fprintf(&b, "%s | %s | %s | %s | %s | %d\n",
			bar.Date.Format("2006-01-02"),
			bar.Open.StringFixed(2), bar.High.StringFixed(2),
			bar.Low.StringFixed(2), bar.Close.StringFixed(2), bar.Volume)
	}

	last := bars[len(bars)-1]
	fmt.Fprintf(&b, "\nLatest close: %s\n", last.Close.StringFixed(2))
	fmt.Fprintf(&b, "SMA(10): %s\n", sma(bars, 10).StringFixed(2))
	fmt.Fprintf(&b, "SMA(30): %s\n", sma(bars, 30).StringFixed(2))
	return b.String(), nil
}

func sma(bars []*MarketData, window int) decimal.Decimal {
	if window > len(bars) {
		window = len(bars)
	}
	if window == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, bar := range bars[len(bars)-window:] {
		sum = sum.Add(bar.Close)
	}
	return sum.Div(decimal.NewFromInt(int64(window)))
}

// NewsDigest renders recent company news, preferring Finnhub and falling
// back to the Google News scraper.
func (t *Toolkit) NewsDigest(symbol string, asOf time.Time) (string, error) {
	if !t.online {
		return "", &models.DataUnavailableError{Source: "news", Err: fmt.Errorf("online tools disabled")}
	}

	from := asOf.AddDate(0, 0, -7)
	articles, err := t.finnhub.GetCompanyNews(symbol, from, asOf)
	if err != nil {
		articles, err = t.scraper.GetGoogleNews(GoogleNewsParams{
			Query:      symbol + " stock",
			StartDate:  from,
			EndDate:    asOf,
			MaxResults: 15,
		})
		if err != nil {
			return "", &models.DataUnavailableError{Source: "news", Err: err}
		}
	}
	if len(articles) == 0 {
		return "", &models.DataUnavailableError{Source: "news", Err: fmt.Errorf("no articles for %s", symbol)}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "News for %s, %s to %s:\n", symbol, from.Format("2006-01-02"), asOf.Format("2006-01-02"))
	for i, a := range articles {
		if i >= 15 {
			break
		}
		fmt.Fprintf(&b, "- [%s] %s", a.Source, a.Title)
		if a.Content != "" {
			fmt.Fprintf(&b, ": %s", a.Content)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// SocialSentiment renders the insider-sentiment trail as the pipeline's
// sentiment signal.
func (t *Toolkit) SocialSentiment(symbol string, asOf time.Time) (string, error) {
	if !t.online {
		return "", &models.DataUnavailableError{Source: "finnhub", Err: fmt.Errorf("online tools disabled")}
	}

	entries, err := t.finnhub.GetInsiderSentiment(symbol, asOf.AddDate(0, -3, 0), asOf)
	if err != nil {
		return "", &models.DataUnavailableError{Source: "finnhub", Err: err}
	}
	if len(entries) == 0 {
		return "", &models.DataUnavailableError{Source: "finnhub", Err: fmt.Errorf("no sentiment data for %s", symbol)}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Insider sentiment for %s (last 3 months):\n", symbol)
	for _, e := range entries {
		fmt.Fprintf(&b, "- %04d-%02d: net share change %.0f, MSPR %.2f\n", e.Year, e.Month, e.Change, e.MSPR)
	}
	return b.String(), nil
}

// Fundamentals renders headline fundamental metrics.
func (t *Toolkit) Fundamentals(symbol string) (string, error) {
	if !t.online {
		return "", &models.DataUnavailableError{Source: "finnhub", Err: fmt.Errorf("online tools disabled")}
	}

	fin, err := t.finnhub.GetBasicFinancials(symbol)
	if err != nil {
		return "", &models.DataUnavailableError{Source: "finnhub", Err: err}
	}

	headline := []string{
		"peBasicExclExtraTTM", "pb", "psTTM", "epsGrowth5Y", "revenueGrowth5Y",
		"roeTTM", "roaTTM", "grossMarginTTM", "netProfitMarginTTM",
		"totalDebt/totalEquityQuarterly", "currentRatioQuarterly",
		"52WeekHigh", "52WeekLow", "marketCapitalization",
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Fundamental metrics for %s:\n", symbol)
	found := 0
	for _, name := range headline {
		if v, ok := fin.Metrics[name]; ok {
			fmt.Fprintf(&b, "- %s: %.2f\n", name, v)
			found++
		}
	}
	if found == 0 {
		return "", &models.DataUnavailableError{Source: "finnhub", Err: fmt.Errorf("no fundamentals for %s", symbol)}
	}
	return b.String(), nil
}

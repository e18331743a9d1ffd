package dataflows

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketData is one daily OHLCV bar.
type MarketData struct {
	Symbol   string          `json:"symbol"`
	Date     time.Time       `json:"date"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	AdjClose decimal.Decimal `json:"adj_close"`
	Volume   int64           `json:"volume"`
}

// NewsArticle is a normalized news item from any news source.
type NewsArticle struct {
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	URL         string            `json:"url"`
	Source      string            `json:"source"`
	PublishedAt time.Time         `json:"published_at"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// InsiderSentiment is Finnhub's monthly insider-sentiment aggregate,
// used as the social/sentiment signal.
type InsiderSentiment struct {
	Symbol   string  `json:"symbol"`
	Year     int     `json:"year"`
	Month    int     `json:"month"`
	Change   float64 `json:"change"`
	MSPR     float64 `json:"mspr"`
}

// FundamentalMetrics is a flat view of Finnhub's basic-financials
// response; only a handful of headline metrics are surfaced.
type FundamentalMetrics struct {
	Symbol  string             `json:"symbol"`
	Metrics map[string]float64 `json:"metrics"`
}

package cli

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"

	"github.com/quantarena/quantarena/consts"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.-]+$`)

// analystOptions pairs selectable display labels with role names.
var analystOptions = []struct {
	label string
	role  string
}{
	{"Market Analyst", consts.MarketAnalyst},
	{"Social Media Analyst", consts.SocialMediaAnalyst},
	{"News Analyst", consts.NewsAnalyst},
	{"Fundamentals Analyst", consts.FundamentalsAnalyst},
}

// PromptForTicker asks for a stock ticker symbol.
func PromptForTicker() (string, error) {
	var ticker string
	prompt := &survey.Input{
		Message: "Enter the stock ticker symbol (e.g., AAPL, MSFT, GOOGL):",
		Help:    "The symbol the analyst team will research",
	}

	err := survey.AskOne(prompt, &ticker, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(strings.ToUpper(val.(string)))
		if len(str) == 0 {
			return fmt.Errorf("ticker symbol cannot be empty")
		}
		if len(str) > 10 {
			return fmt.Errorf("ticker symbol too long (max 10 characters)")
		}
		if !tickerPattern.MatchString(str) {
			return fmt.Errorf("invalid ticker format (letters, numbers, dots and hyphens only)")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.ToUpper(ticker)), nil
}

// PromptForAnalysisDate asks for the trading date, defaulting to today.
func PromptForAnalysisDate() (string, error) {
	var dateStr string
	prompt := &survey.Input{
		Message: "Enter the analysis date (YYYY-MM-DD) or press Enter for today:",
		Default: time.Now().Format("2006-01-02"),
	}

	err := survey.AskOne(prompt, &dateStr, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(val.(string))
		if str == "" {
			return nil
		}
		parsed, err := time.Parse("2006-01-02", str)
		if err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD")
		}
		if parsed.After(time.Now().AddDate(0, 0, 1)) {
			return fmt.Errorf("analysis date cannot be in the future")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(dateStr) == "" {
		return time.Now().Format("2006-01-02"), nil
	}
	return strings.TrimSpace(dateStr), nil
}

// PromptForAnalysts asks which analyst roles to consult.
func PromptForAnalysts() ([]string, error) {
	options := make([]string, len(analystOptions))
	for i, opt := range analystOptions {
		options[i] = opt.label
	}

	var selected []string
	prompt := &survey.MultiSelect{
		Message: "Select analyst team members:",
		Options: options,
		Default: options,
		Help:    "Use space to toggle, enter to confirm",
	}

	err := survey.AskOne(prompt, &selected, survey.WithValidator(func(val interface{}) error {
		answers, ok := val.([]survey.OptionAnswer)
		if !ok {
			return fmt.Errorf("invalid selection type")
		}
		if len(answers) == 0 {
			return fmt.Errorf("select at least one analyst")
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}

	var roles []string
	for _, label := range selected {
		for _, opt := range analystOptions {
			if opt.label == label {
				roles = append(roles, opt.role)
			}
		}
	}
	return roles, nil
}

// PromptForDebateRounds asks how many rounds each debate should run.
func PromptForDebateRounds() (int, error) {
	options := []string{
		"Shallow (1 round) - Quick analysis",
		"Medium (2 rounds) - Balanced analysis",
		"Deep (3 rounds) - Comprehensive analysis",
	}

	var selected string
	prompt := &survey.Select{
		Message: "Select research depth:",
		Options: options,
		Default: options[0],
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return 0, err
	}

	switch {
	case strings.HasPrefix(selected, "Medium"):
		return 2, nil
	case strings.HasPrefix(selected, "Deep"):
		return 3, nil
	default:
		return 1, nil
	}
}

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantarena/quantarena/internal/config"
	"github.com/quantarena/quantarena/internal/graph"
	"github.com/quantarena/quantarena/internal/trading"
)

const version = "1.0.0"

// NewRootCmd builds the command tree. Running the binary with no
// subcommand starts the interactive flow.
func NewRootCmd() *cobra.Command {
	cfg := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "quantarena",
		Short: "QuantArena - multi-agent trading analysis",
		Long: `QuantArena runs a team of specialized model-backed agents through a
structured pipeline: parallel analyst research, an adversarial bull/bear
debate, a trading plan, a three-way risk review, and a final synthesized
BUY/HOLD/SELL recommendation.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				cfg.Debug = true
			}
			return cfg.EnsureDirectories()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(cfg)
		},
	}

	rootCmd.AddCommand(newAnalyzeCmd(cfg))
	rootCmd.AddCommand(newOutcomeCmd(cfg))
	rootCmd.AddCommand(newConfigCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	return rootCmd
}

func newAnalyzeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Run a trading analysis for a stock symbol",
		Long: `Run the full analysis pipeline for one ticker symbol.
Example: quantarena analyze AAPL --date=2024-03-15`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")
			if date == "" {
				date = time.Now().Format("2006-01-02")
			}
			if _, err := time.Parse("2006-01-02", date); err != nil {
				return fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
			}
			return runAnalysis(cfg, args[0], date)
		},
	}

	cmd.Flags().String("date", "", "Analysis date in YYYY-MM-DD format (defaults to today)")
	return cmd
}

func newOutcomeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "outcome RETURN",
		Short: "Record the realized return of the latest recommendation",
		Long: `Feed a realized position return (e.g. 0.05 for +5%) back into agent
memory, so the next analysis can learn from how the last one turned out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			positionReturn, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid return %q: %w", args[0], err)
			}
			if err := graph.RecordOutcome(cfg, positionReturn); err != nil {
				return err
			}
			fmt.Printf("Recorded position return %.4f\n", positionReturn)
			return nil
		},
	}
}

func newConfigCmd(cfg *config.Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			shown := *cfg
			shown.OpenAIAPIKey = mask(shown.OpenAIAPIKey)
			shown.DeepSeekAPIKey = mask(shown.DeepSeekAPIKey)
			shown.FinnhubAPIKey = mask(shown.FinnhubAPIKey)

			data, err := json.MarshalIndent(shown, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	})

	return configCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("QuantArena v%s\n", version)
		},
	}
}

// runInteractive collects the run parameters through prompts and then
// executes the analysis.
func runInteractive(cfg *config.Config) error {
	symbol, err := PromptForTicker()
	if err != nil {
		return err
	}
	date, err := PromptForAnalysisDate()
	if err != nil {
		return err
	}
	analysts, err := PromptForAnalysts()
	if err != nil {
		return err
	}
	rounds, err := PromptForDebateRounds()
	if err != nil {
		return err
	}

	cfg.SelectedAnalysts = analysts
	cfg.MaxDebateRounds = rounds
	cfg.MaxRiskDiscussRounds = rounds

	return runAnalysis(cfg, symbol, date)
}

// runAnalysis executes one session under a signal-aware context so an
// interrupt cancels in-flight generation instead of killing mid-write.
func runAnalysis(cfg *config.Config, symbol, date string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := trading.NewSession(cfg, symbol, date)
	return session.Execute(ctx)
}

func mask(key string) string {
	if len(key) <= 4 {
		if key == "" {
			return ""
		}
		return "****"
	}
	return "****" + key[len(key)-4:]
}

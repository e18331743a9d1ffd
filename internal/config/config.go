package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries every run parameter explicitly. It is threaded through
// the graph at construction time, never read from globals, so concurrent
// runs with different settings cannot interfere.
type Config struct {
	ProjectDir   string `json:"project_dir"`
	ResultsDir   string `json:"results_dir"`
	DataDir      string `json:"data_dir"`
	DataCacheDir string `json:"data_cache_dir"`
	MemoryDBPath string `json:"memory_db_path"`

	LLMProvider   string `json:"llm_provider"`
	DeepThinkLLM  string `json:"deep_think_llm"`
	QuickThinkLLM string `json:"quick_think_llm"`
	BackendURL    string `json:"backend_url"`

	MaxDebateRounds      int `json:"max_debate_rounds"`
	MaxRiskDiscussRounds int `json:"max_risk_rounds"`
	MaxRecurLimit        int `json:"max_recursion_limit"`

	// SelectedAnalysts is the subset of registered analyst roles this run
	// consults; MandatoryAnalysts names the ones whose data failures abort
	// the request instead of degrading to a placeholder report.
	SelectedAnalysts  []string `json:"selected_analysts"`
	MandatoryAnalysts []string `json:"mandatory_analysts"`
	AnalystWorkers    int      `json:"analyst_workers"`

	// EarlyConvergence lets the router hand the risk debate to its judge
	// before the round budget is spent. Off by default.
	EarlyConvergence bool `json:"early_convergence"`

	GenerationTimeout  time.Duration `json:"generation_timeout"`
	GenerationRetries  int           `json:"generation_retries"`
	GenerationBaseWait time.Duration `json:"generation_base_wait"`

	OnlineTools  bool `json:"online_tools"`
	CacheEnabled bool `json:"cache_enabled"`
	Debug        bool `json:"debug"`

	OpenAIAPIKey   string `json:"openai_api_key"`
	DeepSeekAPIKey string `json:"deepseek_api_key"`
	FinnhubAPIKey  string `json:"finnhub_api_key"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	cfg := &Config{
		ProjectDir:   currentDir,
		ResultsDir:   filepath.Join(currentDir, "results"),
		DataDir:      filepath.Join(currentDir, "data"),
		DataCacheDir: filepath.Join(currentDir, "data", "cache"),
		MemoryDBPath: filepath.Join(currentDir, "data", "memory.db"),

		LLMProvider:   "deepseek",
		DeepThinkLLM:  "deepseek-chat",
		QuickThinkLLM: "deepseek-chat",
		BackendURL:    "",

		MaxDebateRounds:      1,
		MaxRiskDiscussRounds: 1,
		MaxRecurLimit:        128,

		SelectedAnalysts: []string{
			"market_analyst", "social_media_analyst", "news_analyst", "fundamentals_analyst",
		},
		MandatoryAnalysts: nil,
		AnalystWorkers:    4,

		EarlyConvergence: false,

		GenerationTimeout:  120 * time.Second,
		GenerationRetries:  3,
		GenerationBaseWait: time.Second,

		OnlineTools:  true,
		CacheEnabled: true,
		Debug:        false,
	}

	// Values from a .env file are visible to the overrides below.
	_ = godotenv.Load()
	cfg.loadFromEnv()

	return cfg
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("PROJECT_DIR"); val != "" {
		c.ProjectDir = val
	}
	if val := os.Getenv("RESULTS_DIR"); val != "" {
		c.ResultsDir = val
	}
	if val := os.Getenv("DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("DATA_CACHE_DIR"); val != "" {
		c.DataCacheDir = val
	}
	if val := os.Getenv("MEMORY_DB_PATH"); val != "" {
		c.MemoryDBPath = val
	}

	if val := os.Getenv("LLM_PROVIDER"); val != "" {
		c.LLMProvider = val
	}
	if val := os.Getenv("DEEP_THINK_LLM"); val != "" {
		c.DeepThinkLLM = val
	}
	if val := os.Getenv("QUICK_THINK_LLM"); val != "" {
		c.QuickThinkLLM = val
	}
	if val := os.Getenv("BACKEND_URL"); val != "" {
		c.BackendURL = val
	}

	if val := os.Getenv("MAX_DEBATE_ROUNDS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.MaxDebateRounds = v
		}
	}
	if val := os.Getenv("MAX_RISK_ROUNDS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.MaxRiskDiscussRounds = v
		}
	}
	if val := os.Getenv("MAX_RECURSION_LIMIT"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.MaxRecurLimit = v
		}
	}
	if val := os.Getenv("ANALYST_WORKERS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.AnalystWorkers = v
		}
	}
	if val := os.Getenv("SELECTED_ANALYSTS"); val != "" {
		c.SelectedAnalysts = splitList(val)
	}
	if val := os.Getenv("MANDATORY_ANALYSTS"); val != "" {
		c.MandatoryAnalysts = splitList(val)
	}
	if val := os.Getenv("EARLY_CONVERGENCE"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.EarlyConvergence = enabled
		}
	}

	if val := os.Getenv("GENERATION_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.GenerationTimeout = d
		}
	}
	if val := os.Getenv("GENERATION_RETRIES"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.GenerationRetries = v
		}
	}

	if val := os.Getenv("ONLINE_TOOLS"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.OnlineTools = enabled
		}
	}
	if val := os.Getenv("CACHE_ENABLED"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.CacheEnabled = enabled
		}
	}
	if val := os.Getenv("QUANTARENA_DEBUG"); val != "" {
		if enabled, err := strconv.ParseBool(val); err == nil {
			c.Debug = enabled
		}
	}

	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.OpenAIAPIKey = val
	}
	if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" {
		c.DeepSeekAPIKey = val
	}
	if val := os.Getenv("FINNHUB_API_KEY"); val != "" {
		c.FinnhubAPIKey = val
	}
}

// MandatoryAnalyst reports whether the given analyst role must succeed.
func (c *Config) MandatoryAnalyst(role string) bool {
	for _, m := range c.MandatoryAnalysts {
		if m == role {
			return true
		}
	}
	return false
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ProjectDir, c.ResultsDir, c.DataDir, c.DataCacheDir}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}

func splitList(val string) []string {
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

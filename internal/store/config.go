package store

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/temaptz/trade-agent/internal/types"
)

type Config struct {
	Mode            string  `yaml:"mode"`
	Pair            string  `yaml:"pair"`
	CycleSeconds    int     `yaml:"cycle_seconds"`
	StartingBalance float64 `yaml:"starting_balance"`
	MinConfidence   float64 `yaml:"min_confidence"`
	Weights         struct {
		Technical float64 `yaml:"technical"`
		Sentiment float64 `yaml:"sentiment"`
		News      float64 `yaml:"news"`
	} `yaml:"weights"`
	Risk       types.RiskLimits `yaml:"risk"`
	Indicators struct {
		SMAWindows     []int   `yaml:"sma_windows"`
		RSIPeriod      int     `yaml:"rsi_period"`
		BBWindow       int     `yaml:"bb_window"`
		BBStdDev       float64 `yaml:"bb_stddev"`
		ATRPeriod      int     `yaml:"atr_period"`
		MACDFast       int     `yaml:"macd_fast"`
		MACDSlow       int     `yaml:"macd_slow"`
		MACDSignal     int     `yaml:"macd_signal"`
		VolumeWindow   int     `yaml:"volume_window"`
		CandleInterval string  `yaml:"candle_interval"`
		CandleCount    int     `yaml:"candle_count"`
	} `yaml:"indicators"`
	LLM struct {
		Provider       string  `yaml:"provider"`
		Model          string  `yaml:"model"`
		BaseURL        string  `yaml:"base_url"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float32 `yaml:"temperature"`
	} `yaml:"llm"`
	News struct {
		UpdateIntervalSeconds int      `yaml:"update_interval_seconds"`
		MaxArticles           int      `yaml:"max_articles"`
		MinRelevance          float64  `yaml:"min_relevance"`
		Sources               []string `yaml:"sources"`
	} `yaml:"news"`
	Exchange struct {
		Name         string `yaml:"name"`
		Testnet      bool   `yaml:"testnet"`
		APIKeyEnv    string `yaml:"api_key_env"`
		APISecretEnv string `yaml:"api_secret_env"`
	} `yaml:"exchange"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Journal struct {
		Path       string `yaml:"path"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"journal"`
	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`
}

// SignalWeights returns the fusion weights keyed by source
func (c *Config) SignalWeights() types.Weights {
	return types.Weights{
		types.SourceTechnical: c.Weights.Technical,
		types.SourceSentiment: c.Weights.Sentiment,
		types.SourceNews:      c.Weights.News,
	}
}

func (c *Config) Validate() error {
	if c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.Pair == "" {
		return fmt.Errorf("pair cannot be empty")
	}
	if c.CycleSeconds < 1 {
		return fmt.Errorf("cycle_seconds must be >= 1, got %d", c.CycleSeconds)
	}
	if c.StartingBalance <= 0 {
		return fmt.Errorf("starting_balance must be > 0, got %v", c.StartingBalance)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0,1], got %v", c.MinConfidence)
	}
	if c.Weights.Technical < 0 || c.Weights.Sentiment < 0 || c.Weights.News < 0 {
		return fmt.Errorf("weights must be >= 0")
	}
	if c.Weights.Technical+c.Weights.Sentiment+c.Weights.News <= 0 {
		return fmt.Errorf("weights must not all be zero")
	}
	if err := c.Risk.Validate(); err != nil {
		return err
	}
	if c.Indicators.MACDFast >= c.Indicators.MACDSlow {
		return fmt.Errorf("indicators.macd_fast must be < macd_slow, got %d >= %d", c.Indicators.MACDFast, c.Indicators.MACDSlow)
	}
	if c.Indicators.CandleCount < 1 {
		return fmt.Errorf("indicators.candle_count must be >= 1, got %d", c.Indicators.CandleCount)
	}
	switch c.LLM.Provider {
	case "OLLAMA", "OPENAI", "CLAUDE", "NOOP":
	default:
		return fmt.Errorf("llm.provider must be 'OLLAMA', 'OPENAI', 'CLAUDE', or 'NOOP', got '%s'", c.LLM.Provider)
	}
	switch c.Exchange.Name {
	case "PAPER", "BYBIT", "BINANCE":
	default:
		return fmt.Errorf("exchange.name must be 'PAPER', 'BYBIT', or 'BINANCE', got '%s'", c.Exchange.Name)
	}
	if c.Mode == "LIVE" && c.Exchange.Name == "PAPER" {
		return fmt.Errorf("mode LIVE requires a real exchange, got '%s'", c.Exchange.Name)
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.Pair == "" {
		c.Pair = "BTCUSDT"
	}
	if c.CycleSeconds == 0 {
		c.CycleSeconds = 300
	}
	if c.StartingBalance == 0 {
		c.StartingBalance = 10000
	}
	if c.MinConfidence == 0 {
		c.MinConfidence = 0.6
	}
	if c.Weights.Technical == 0 && c.Weights.Sentiment == 0 && c.Weights.News == 0 {
		c.Weights.Technical = 0.4
		c.Weights.Sentiment = 0.3
		c.Weights.News = 0.3
	}

	if c.Risk.MaxPositionSizeFraction == 0 {
		c.Risk.MaxPositionSizeFraction = 0.1
	}
	if c.Risk.MaxRiskPerTradePercent == 0 {
		c.Risk.MaxRiskPerTradePercent = 0.02
	}
	if c.Risk.StopLossPercent == 0 {
		c.Risk.StopLossPercent = 0.03
	}
	if c.Risk.TakeProfitPercent == 0 {
		c.Risk.TakeProfitPercent = 0.06
	}
	if c.Risk.MaxDailyLossPercent == 0 {
		c.Risk.MaxDailyLossPercent = 0.02
	}
	if c.Risk.MaxTradesPerDay == 0 {
		c.Risk.MaxTradesPerDay = 10
	}
	if c.Risk.MinOrderSize == 0 {
		c.Risk.MinOrderSize = 0.0001
	}

	if len(c.Indicators.SMAWindows) == 0 {
		c.Indicators.SMAWindows = []int{20, 50}
	}
	if c.Indicators.RSIPeriod == 0 {
		c.Indicators.RSIPeriod = 14
	}
	if c.Indicators.BBWindow == 0 {
		c.Indicators.BBWindow = 20
	}
	if c.Indicators.BBStdDev == 0 {
		c.Indicators.BBStdDev = 2.0
	}
	if c.Indicators.ATRPeriod == 0 {
		c.Indicators.ATRPeriod = 14
	}
	if c.Indicators.MACDFast == 0 {
		c.Indicators.MACDFast = 12
	}
	if c.Indicators.MACDSlow == 0 {
		c.Indicators.MACDSlow = 26
	}
	if c.Indicators.MACDSignal == 0 {
		c.Indicators.MACDSignal = 9
	}
	if c.Indicators.VolumeWindow == 0 {
		c.Indicators.VolumeWindow = 20
	}
	if c.Indicators.CandleInterval == "" {
		c.Indicators.CandleInterval = "5"
	}
	if c.Indicators.CandleCount == 0 {
		c.Indicators.CandleCount = 200
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = "OLLAMA"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "llama3.1:8b"
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "http://localhost:11434"
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 120
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 500
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.3
	}

	if c.News.UpdateIntervalSeconds == 0 {
		c.News.UpdateIntervalSeconds = 300
	}
	if c.News.MaxArticles == 0 {
		c.News.MaxArticles = 10
	}
	if c.News.MinRelevance == 0 {
		c.News.MinRelevance = 0.3
	}
	if len(c.News.Sources) == 0 {
		c.News.Sources = []string{
			"https://www.coindesk.com",
			"https://cointelegraph.com",
			"https://decrypt.co",
		}
	}

	if c.Exchange.Name == "" {
		c.Exchange.Name = "PAPER"
	}
	if c.Exchange.APIKeyEnv == "" {
		c.Exchange.APIKeyEnv = "BYBIT_API_KEY"
	}
	if c.Exchange.APISecretEnv == "" {
		c.Exchange.APISecretEnv = "BYBIT_API_SECRET"
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8089"
	}

	if c.Journal.Path == "" {
		c.Journal.Path = "data/journal.jsonl"
	}
	if c.Journal.MaxSizeMB == 0 {
		c.Journal.MaxSizeMB = 50
	}
	if c.Journal.MaxBackups == 0 {
		c.Journal.MaxBackups = 5
	}
	if c.Journal.MaxAgeDays == 0 {
		c.Journal.MaxAgeDays = 30
	}
	if c.Store.Path == "" {
		c.Store.Path = "data/trades.db"
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}

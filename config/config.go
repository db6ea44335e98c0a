// Package config loads and validates the bot configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"futbot/indicators"
	"futbot/risk"
)

// Config is the complete bot configuration, read once at startup.
type Config struct {
	Binance    BinanceConfig   `yaml:"binance"`
	Trading    TradingConfig   `yaml:"trading"`
	Risk       RiskConfig      `yaml:"risk"`
	Indicators IndicatorConfig `yaml:"indicators"`
	Journal    JournalConfig   `yaml:"journal"`
	Telegram   TelegramConfig  `yaml:"telegram"`
}

// BinanceConfig holds exchange credentials.
type BinanceConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Testnet   bool   `yaml:"testnet"`
}

// TradingConfig selects the instrument and cadence. Symbol and
// interval are opaque to the engine; they are passed straight to the
// exchange.
type TradingConfig struct {
	Symbol      string `yaml:"symbol"`
	Interval    string `yaml:"interval"`
	PollSeconds int    `yaml:"poll_seconds"`
	// WindowSize is how many candles each cycle fetches. Must cover
	// every indicator lookback.
	WindowSize int `yaml:"window_size"`
}

// RiskConfig maps onto risk.Policy.
type RiskConfig struct {
	Leverage      int     `yaml:"leverage"`
	RiskPerTrade  float64 `yaml:"risk_per_trade"`
	MaxLotSize    float64 `yaml:"max_lot_size"`
	DailyRiskCap  float64 `yaml:"daily_risk_cap"`
	MinRiskReward float64 `yaml:"min_risk_reward"`
}

// IndicatorConfig sets the lookback periods.
type IndicatorConfig struct {
	EMAShort  int `yaml:"ema_short"`
	EMALong   int `yaml:"ema_long"`
	RSIPeriod int `yaml:"rsi_period"`
	ATRPeriod int `yaml:"atr_period"`
}

// JournalConfig selects trade persistence.
type JournalConfig struct {
	DBPath string `yaml:"db_path"`
}

// TelegramConfig configures trade notifications.
type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// Load reads a YAML config file and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration, including the risk invariant
// 0 < risk_per_trade <= daily_risk_cap <= 1.
func (c *Config) Validate() error {
	if c.Trading.Symbol == "" {
		return fmt.Errorf("trading.symbol is required")
	}
	if c.Trading.Interval == "" {
		return fmt.Errorf("trading.interval is required")
	}
	if c.Trading.PollSeconds <= 0 {
		return fmt.Errorf("trading.poll_seconds must be positive")
	}

	ind := c.IndicatorSettings()
	if err := ind.Validate(); err != nil {
		return err
	}
	if c.Trading.WindowSize < ind.MinWindow() {
		return fmt.Errorf("trading.window_size %d below minimum %d for the configured indicators",
			c.Trading.WindowSize, ind.MinWindow())
	}

	if err := c.RiskPolicy().Validate(); err != nil {
		return err
	}

	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id required when telegram is enabled")
	}
	return nil
}

// RiskPolicy converts the risk section into the engine's policy struct.
func (c *Config) RiskPolicy() risk.Policy {
	return risk.Policy{
		Leverage:          c.Risk.Leverage,
		RiskPerTrade:      c.Risk.RiskPerTrade,
		MaxLotSize:        c.Risk.MaxLotSize,
		DailyRiskCap:      c.Risk.DailyRiskCap,
		MinRiskRewardBase: c.Risk.MinRiskReward,
	}
}

// IndicatorSettings converts the indicator section.
func (c *Config) IndicatorSettings() indicators.Config {
	return indicators.Config{
		EMAShort:  c.Indicators.EMAShort,
		EMALong:   c.Indicators.EMALong,
		RSIPeriod: c.Indicators.RSIPeriod,
		ATRPeriod: c.Indicators.ATRPeriod,
	}
}

// Default returns a configuration with sensible defaults. Credentials
// are intentionally empty.
func Default() *Config {
	ind := indicators.DefaultConfig()
	return &Config{
		Trading: TradingConfig{
			Symbol:      "BTCUSDT",
			Interval:    "15m",
			PollSeconds: 60,
			WindowSize:  50,
		},
		Risk: RiskConfig{
			Leverage:      5,
			RiskPerTrade:  0.01,
			MaxLotSize:    1.0,
			DailyRiskCap:  0.05,
			MinRiskReward: risk.BaseMinRiskReward,
		},
		Indicators: IndicatorConfig{
			EMAShort:  ind.EMAShort,
			EMALong:   ind.EMALong,
			RSIPeriod: ind.RSIPeriod,
			ATRPeriod: ind.ATRPeriod,
		},
		Journal: JournalConfig{
			DBPath: "./futbot.db",
		},
	}
}

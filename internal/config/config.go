package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Log       LoggingConfig   `yaml:"log"`
	State     StateConfig     `yaml:"state"`
	Quoting   QuotingConfig   `yaml:"quoting"`
	Reference ReferenceConfig `yaml:"reference"`
	Strategy  StrategyConfig  `yaml:"strategy"`
	Risk      RiskConfig      `yaml:"risk"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Timescale TimescaleConfig `yaml:"timescale"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type StateConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// QuotingConfig points at the venue where maker orders rest. API credentials
// come from BINANCE_API_KEY and BINANCE_API_SECRET, never from the file.
type QuotingConfig struct {
	BaseURL        string        `yaml:"base_url"`
	WSURL          string        `yaml:"ws_url"`
	Timeout        time.Duration `yaml:"timeout"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	PingInterval   time.Duration `yaml:"ping_interval"`
}

// ReferenceConfig points at the venue whose book is ground truth and where
// hedges execute. The signing key comes from LIGHTER_PRIVATE_KEY.
type ReferenceConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	ChainID int64         `yaml:"chain_id"`
}

type StrategyConfig struct {
	QuotingSymbol   string        `yaml:"quoting_symbol"`
	ReferenceSymbol string        `yaml:"reference_symbol"`
	OrderQuantity   float64       `yaml:"order_quantity"`
	MakerFee        float64       `yaml:"maker_fee"`
	TakerFee        float64       `yaml:"taker_fee"`
	MinProfit       float64       `yaml:"min_profit"`
	DriftThreshold  float64       `yaml:"drift_threshold"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	HedgeTimeout    time.Duration `yaml:"hedge_timeout"`
	HedgeSlippage   float64       `yaml:"hedge_slippage"`
}

type RiskConfig struct {
	MaxOrderNotionalUSD float64       `yaml:"max_order_notional_usd"`
	MaxMarketAge        time.Duration `yaml:"max_market_age"`
}

type TelegramConfig struct {
	Enabled                bool          `yaml:"enabled"`
	Token                  string        `yaml:"token"`
	ChatID                 string        `yaml:"chat_id"`
	OperatorEnabled        bool          `yaml:"operator_enabled"`
	OperatorPollInterval   time.Duration `yaml:"operator_poll_interval"`
	OperatorAllowedUserIDs []int64       `yaml:"operator_allowed_user_ids"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

type TimescaleConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
	Schema  string `yaml:"schema"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, validate(&cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.State.SQLitePath == "" {
		cfg.State.SQLitePath = "data/maker-arb-bot.db"
	}
	if cfg.Quoting.BaseURL == "" {
		cfg.Quoting.BaseURL = "https://api.binance.com"
	}
	if cfg.Quoting.WSURL == "" {
		cfg.Quoting.WSURL = "wss://stream.binance.com:9443/ws"
	}
	if cfg.Quoting.Timeout == 0 {
		cfg.Quoting.Timeout = 10 * time.Second
	}
	if cfg.Quoting.ReconnectDelay == 0 {
		cfg.Quoting.ReconnectDelay = 3 * time.Second
	}
	if cfg.Quoting.PingInterval == 0 {
		cfg.Quoting.PingInterval = 30 * time.Second
	}
	if cfg.Reference.BaseURL == "" {
		cfg.Reference.BaseURL = "https://mainnet.zklighter.elliot.ai"
	}
	if cfg.Reference.Timeout == 0 {
		cfg.Reference.Timeout = 10 * time.Second
	}
	if cfg.Strategy.RefreshInterval == 0 {
		cfg.Strategy.RefreshInterval = time.Second
	}
	if cfg.Strategy.DriftThreshold == 0 {
		cfg.Strategy.DriftThreshold = 0.0005
	}
	if cfg.Strategy.HedgeTimeout == 0 {
		cfg.Strategy.HedgeTimeout = 5 * time.Second
	}
	if cfg.Strategy.HedgeSlippage == 0 {
		cfg.Strategy.HedgeSlippage = 0.002
	}
	if cfg.Telegram.OperatorPollInterval == 0 {
		cfg.Telegram.OperatorPollInterval = 3 * time.Second
	}
	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9090"
	}
}

func validate(cfg *Config) error {
	if cfg.Strategy.QuotingSymbol == "" {
		return errors.New("strategy.quoting_symbol is required")
	}
	if cfg.Strategy.ReferenceSymbol == "" {
		return errors.New("strategy.reference_symbol is required")
	}
	if cfg.Strategy.OrderQuantity <= 0 {
		return errors.New("strategy.order_quantity must be > 0")
	}
	if cfg.Strategy.MakerFee < 0 || cfg.Strategy.MakerFee >= 1 {
		return errors.New("strategy.maker_fee must be in [0,1)")
	}
	if cfg.Strategy.TakerFee < 0 || cfg.Strategy.TakerFee >= 1 {
		return errors.New("strategy.taker_fee must be in [0,1)")
	}
	if cfg.Strategy.MinProfit < 0 || cfg.Strategy.MinProfit >= 1 {
		return errors.New("strategy.min_profit must be in [0,1)")
	}
	if cfg.Strategy.DriftThreshold <= 0 {
		return errors.New("strategy.drift_threshold must be > 0")
	}
	if cfg.Strategy.HedgeSlippage < 0 {
		return errors.New("strategy.hedge_slippage must be >= 0")
	}
	if cfg.Timescale.Enabled && cfg.Timescale.DSN == "" {
		return errors.New("timescale.dsn is required when timescale is enabled")
	}
	return nil
}

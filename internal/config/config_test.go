package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
strategy:
  quoting_symbol: BTCUSDT
  reference_symbol: BTC-USD
  order_quantity: 0.01
  maker_fee: 0.001
  taker_fee: 0.001
  min_profit: 0.001
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.Log.Level)
	}
	if cfg.Strategy.RefreshInterval != time.Second {
		t.Fatalf("expected default refresh interval 1s, got %s", cfg.Strategy.RefreshInterval)
	}
	if cfg.Strategy.DriftThreshold != 0.0005 {
		t.Fatalf("expected default drift 0.0005, got %f", cfg.Strategy.DriftThreshold)
	}
	if cfg.Strategy.HedgeTimeout != 5*time.Second {
		t.Fatalf("expected default hedge timeout 5s, got %s", cfg.Strategy.HedgeTimeout)
	}
	if cfg.Quoting.BaseURL == "" || cfg.Reference.BaseURL == "" {
		t.Fatal("expected default venue URLs")
	}
	if cfg.Metrics.Listen != ":9090" {
		t.Fatalf("expected default metrics listen :9090, got %q", cfg.Metrics.Listen)
	}
}

func TestLoadFullConfig(t *testing.T) {
	content := `
log:
  level: debug
state:
  sqlite_path: /tmp/bot.db
quoting:
  base_url: https://testnet.binance.vision
  ws_url: wss://stream.testnet.binance.vision/ws
  timeout: 5s
reference:
  base_url: https://testnet.zklighter.elliot.ai
  chain_id: 300
strategy:
  quoting_symbol: ETHUSDT
  reference_symbol: ETH-USD
  order_quantity: 0.1
  maker_fee: 0.0005
  taker_fee: 0.0002
  min_profit: 0.0008
  drift_threshold: 0.0003
  refresh_interval: 500ms
  hedge_timeout: 3s
  hedge_slippage: 0.001
risk:
  max_order_notional_usd: 5000
  max_market_age: 2s
telegram:
  enabled: true
  chat_id: "123"
metrics:
  enabled: true
  listen: ":9100"
timescale:
  enabled: true
  dsn: postgres://localhost/arb
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Strategy.RefreshInterval != 500*time.Millisecond {
		t.Fatalf("expected 500ms, got %s", cfg.Strategy.RefreshInterval)
	}
	if cfg.Reference.ChainID != 300 {
		t.Fatalf("expected chain id 300, got %d", cfg.Reference.ChainID)
	}
	if cfg.Risk.MaxOrderNotionalUSD != 5000 {
		t.Fatalf("expected max notional 5000, got %f", cfg.Risk.MaxOrderNotionalUSD)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"missing quoting symbol", `
strategy:
  reference_symbol: BTC-USD
  order_quantity: 0.01
`, "quoting_symbol"},
		{"missing reference symbol", `
strategy:
  quoting_symbol: BTCUSDT
  order_quantity: 0.01
`, "reference_symbol"},
		{"zero quantity", `
strategy:
  quoting_symbol: BTCUSDT
  reference_symbol: BTC-USD
`, "order_quantity"},
		{"maker fee out of range", `
strategy:
  quoting_symbol: BTCUSDT
  reference_symbol: BTC-USD
  order_quantity: 0.01
  maker_fee: 1.5
`, "maker_fee"},
		{"timescale without dsn", minimalConfig + `
timescale:
  enabled: true
`, "timescale.dsn"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

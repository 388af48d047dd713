package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.yaml")
	yaml := `
server:
  port: 9090
market:
  tax_rate: 0.1
  sweep_interval: 30s
  disposal_policy: drop
  history:
    max_entries: 50
  categories:
    ruby: Materials
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Server.Port != 9090 || cfg.Gateway.Port != 8081 {
		t.Fatalf("ports = %d/%d", cfg.Server.Port, cfg.Gateway.Port)
	}
	m := cfg.Market
	if m.TaxRate != 0.1 || m.SweepInterval != 30*time.Second || m.DisposalPolicy != DisposalDrop {
		t.Fatalf("market = %+v", m)
	}
	if m.MaxListingsPerSeller != 5 || m.DefaultDuration != 48*time.Hour || m.CustodySlots != 36 {
		t.Fatalf("defaults lost: %+v", m)
	}
	if m.History.MaxEntries != 50 || m.History.MaxAge != 24*time.Hour {
		t.Fatalf("history = %+v", m.History)
	}
	if m.Categories["ruby"] != "Materials" {
		t.Fatalf("categories = %v", m.Categories)
	}
}

func TestLoadFromFileRejectsInvalidMarket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.yaml")
	if err := os.WriteFile(path, []byte("market:\n  tax_rate: 1.5\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := LoadFromFile(path); err == nil {
		t.Fatalf("tax_rate 1.5 accepted")
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("MARKET_DISPOSAL_POLICY", "drop")
	t.Setenv("MARKET_MAX_LISTINGS_PER_SELLER", "7")
	t.Setenv("SERVER_PORT", "9999")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Market.DisposalPolicy != DisposalDrop || cfg.Market.MaxListingsPerSeller != 7 || cfg.Server.Port != 9999 {
		t.Fatalf("env not applied: %+v", cfg)
	}
}

func TestMarketConfigValidate(t *testing.T) {
	valid := MarketConfig{
		MaxListingsPerSeller: 5,
		TaxRate:              0.05,
		DefaultDuration:      time.Hour,
		SweepInterval:        time.Minute,
		DisposalPolicy:       DisposalQueue,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*MarketConfig)
	}{
		{"zero cap", func(m *MarketConfig) { m.MaxListingsPerSeller = 0 }},
		{"negative tax", func(m *MarketConfig) { m.TaxRate = -0.1 }},
		{"full tax", func(m *MarketConfig) { m.TaxRate = 1 }},
		{"zero sweep", func(m *MarketConfig) { m.SweepInterval = 0 }},
		{"zero duration", func(m *MarketConfig) { m.DefaultDuration = 0 }},
		{"unknown policy", func(m *MarketConfig) { m.DisposalPolicy = "burn" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid
			tt.mutate(&m)
			if err := m.Validate(); err == nil {
				t.Fatalf("%s accepted", tt.name)
			}
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	tests := []struct {
		network  NetworkType
		prefix   uint16
		symbol   string
		decimals int
	}{
		{Polkadot, 0, "DOT", 10},
		{Kusama, 2, "KSM", 12},
		{Substrate, 42, "UNIT", 12},
	}

	for _, tc := range tests {
		cfg := Default(tc.network)
		if cfg.Network != tc.network {
			t.Errorf("%s: network = %q", tc.network, cfg.Network)
		}
		if cfg.Chain.SS58Prefix != tc.prefix {
			t.Errorf("%s: prefix = %d, want %d", tc.network, cfg.Chain.SS58Prefix, tc.prefix)
		}
		if cfg.Chain.TokenSymbol != tc.symbol {
			t.Errorf("%s: symbol = %q, want %q", tc.network, cfg.Chain.TokenSymbol, tc.symbol)
		}
		if cfg.Chain.TokenDecimals != tc.decimals {
			t.Errorf("%s: decimals = %d, want %d", tc.network, cfg.Chain.TokenDecimals, tc.decimals)
		}
		if err := Validate(cfg); err != nil {
			t.Errorf("%s: default config invalid: %v", tc.network, err)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meridian.conf")
	content := `
# client settings
network = kusama
rpc.endpoint = "https://node.example.com"
rpc.timeout = 30s
chain.decimals = 12
log.json = true
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	values, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}

	cfg := DefaultPolkadot()
	if err := ApplyFileConfig(cfg, values); err != nil {
		t.Fatalf("ApplyFileConfig() error: %v", err)
	}

	if cfg.Network != Kusama {
		t.Errorf("network = %q, want kusama", cfg.Network)
	}
	if cfg.RPC.Endpoint != "https://node.example.com" {
		t.Errorf("endpoint = %q", cfg.RPC.Endpoint)
	}
	if cfg.RPC.Timeout != 30*time.Second {
		t.Errorf("timeout = %v, want 30s", cfg.RPC.Timeout)
	}
	if !cfg.Log.JSON {
		t.Error("log.json not applied")
	}
}

func TestLoadFileMissing(t *testing.T) {
	values, err := LoadFile(filepath.Join(t.TempDir(), "absent.conf"))
	if err != nil {
		t.Fatalf("LoadFile() on missing file: %v", err)
	}
	if len(values) != 0 {
		t.Errorf("got %d values from missing file", len(values))
	}
}

func TestApplyFileConfigRejectsUnknownKey(t *testing.T) {
	cfg := DefaultPolkadot()
	err := ApplyFileConfig(cfg, map[string]string{"bogus.key": "1"})
	if err == nil {
		t.Error("unknown key accepted")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"default", func(*Config) {}, true},
		{"bad network", func(c *Config) { c.Network = "solana" }, false},
		{"empty endpoint", func(c *Config) { c.RPC.Endpoint = "" }, false},
		{"bad scheme", func(c *Config) { c.RPC.Endpoint = "ws://node" }, false},
		{"zero timeout", func(c *Config) { c.RPC.Timeout = 0 }, false},
		{"bad decimals", func(c *Config) { c.Chain.TokenDecimals = 99 }, false},
		{"zero blocktime", func(c *Config) { c.Chain.BlockTime = 0 }, false},
		{"empty datadir", func(c *Config) { c.DataDir = "" }, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultPolkadot()
			tc.mutate(cfg)
			err := Validate(cfg)
			if tc.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("invalid config accepted")
			}
		})
	}
}

func TestKeystoreDir(t *testing.T) {
	cfg := DefaultPolkadot()
	cfg.DataDir = "/data"
	if got := cfg.KeystoreDir(); got != filepath.Join("/data", "keystore") {
		t.Errorf("KeystoreDir() = %q", got)
	}
	cfg.Wallet.Dir = "/custom"
	if got := cfg.KeystoreDir(); got != "/custom" {
		t.Errorf("KeystoreDir() override = %q", got)
	}
}

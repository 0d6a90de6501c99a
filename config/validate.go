package config

import (
	"fmt"
	"net/url"
)

// Validate checks a configuration for obvious operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	switch cfg.Network {
	case Polkadot, Kusama, Substrate:
	default:
		return fmt.Errorf("network must be %q, %q or %q", Polkadot, Kusama, Substrate)
	}

	if cfg.RPC.Endpoint == "" {
		return fmt.Errorf("rpc.endpoint is required")
	}
	u, err := url.Parse(cfg.RPC.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("rpc.endpoint must be an http(s) URL")
	}
	if cfg.RPC.Timeout <= 0 {
		return fmt.Errorf("rpc.timeout must be positive")
	}

	if cfg.Chain.TokenDecimals < 0 || cfg.Chain.TokenDecimals > 38 {
		return fmt.Errorf("chain.decimals must be in range [0, 38]")
	}
	if cfg.Chain.BlockTime <= 0 {
		return fmt.Errorf("chain.blocktime must be positive")
	}

	if cfg.DataDir == "" {
		return fmt.Errorf("datadir is required")
	}
	return nil
}

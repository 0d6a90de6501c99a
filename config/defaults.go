package config

import "time"

// DefaultPolkadot returns the default configuration for Polkadot.
func DefaultPolkadot() *Config {
	return &Config{
		Network: Polkadot,
		DataDir: DefaultDataDir(),
		RPC: RPCConfig{
			Endpoint: "https://rpc.polkadot.io",
			Timeout:  10 * time.Second,
		},
		Chain: ChainConfig{
			SS58Prefix:    0,
			TokenSymbol:   "DOT",
			TokenDecimals: 10,
			BlockTime:     6 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultKusama returns the default configuration for Kusama.
func DefaultKusama() *Config {
	cfg := DefaultPolkadot()
	cfg.Network = Kusama
	cfg.RPC.Endpoint = "https://kusama-rpc.polkadot.io"
	cfg.Chain = ChainConfig{
		SS58Prefix:    2,
		TokenSymbol:   "KSM",
		TokenDecimals: 12,
		BlockTime:     6 * time.Second,
	}
	return cfg
}

// DefaultSubstrate returns the default configuration for a local
// development chain.
func DefaultSubstrate() *Config {
	cfg := DefaultPolkadot()
	cfg.Network = Substrate
	cfg.RPC.Endpoint = "http://127.0.0.1:9933"
	cfg.Chain = ChainConfig{
		SS58Prefix:    42,
		TokenSymbol:   "UNIT",
		TokenDecimals: 12,
		BlockTime:     6 * time.Second,
	}
	return cfg
}

// Default returns the default configuration for the given network.
func Default(network NetworkType) *Config {
	switch network {
	case Kusama:
		return DefaultKusama()
	case Substrate:
		return DefaultSubstrate()
	default:
		return DefaultPolkadot()
	}
}

// Package config handles client configuration: which chain to talk to,
// how to reach it, and where local state lives.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// NetworkType identifies a supported chain.
type NetworkType string

const (
	Polkadot  NetworkType = "polkadot"
	Kusama    NetworkType = "kusama"
	Substrate NetworkType = "substrate" // generic development chain
)

// Config holds the client's runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Node endpoint
	RPC RPCConfig

	// Chain presentation parameters
	Chain ChainConfig

	// Keystore
	Wallet WalletConfig

	// Logging
	Log LogConfig
}

// RPCConfig holds node endpoint settings.
type RPCConfig struct {
	Endpoint string        `conf:"rpc.endpoint"`
	Timeout  time.Duration `conf:"rpc.timeout"`
}

// ChainConfig holds per-network presentation and timing parameters.
// BlockTime is only a fallback; the live value is read from the chain's
// runtime constants.
type ChainConfig struct {
	SS58Prefix    uint16        `conf:"chain.ss58prefix"`
	TokenSymbol   string        `conf:"chain.token"`
	TokenDecimals int           `conf:"chain.decimals"`
	BlockTime     time.Duration `conf:"chain.blocktime"`
}

// WalletConfig holds keystore settings.
type WalletConfig struct {
	Dir string `conf:"wallet.dir"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.meridian
//	macOS:   ~/Library/Application Support/Meridian
//	Windows: %APPDATA%\Meridian
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".meridian"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Meridian")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Meridian")
		}
		return filepath.Join(home, "AppData", "Roaming", "Meridian")
	default:
		return filepath.Join(home, ".meridian")
	}
}

// KeystoreDir returns the wallet directory, defaulting under the data dir.
func (c *Config) KeystoreDir() string {
	if c.Wallet.Dir != "" {
		return c.Wallet.Dir
	}
	return filepath.Join(c.DataDir, "keystore")
}

// MetadataCacheDir returns where fetched chain metadata is cached on disk.
func (c *Config) MetadataCacheDir() string {
	return filepath.Join(c.DataDir, string(c.Network), "metadata")
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the validator node configuration.
type Config struct {
	// Subnet identity
	Netuid      int    `json:"netuid"`
	Testnet     bool   `json:"testnet"`
	BindAddress string `json:"bind_address"`
	KeyFile     string `json:"key_file"`
	LogLevel    string `json:"log_level"`

	Network  NetworkConfig  `json:"network"`
	Status   StatusConfig   `json:"status"`
	Mempool  MempoolConfig  `json:"mempool"`
}

// NetworkConfig contains connection pool and liveness tuning.
type NetworkConfig struct {
	MaxConnections     int `json:"max_connections"`
	PingIntervalS      int `json:"ping_interval_s"`
	InactivityTimeoutS int `json:"inactivity_timeout_s"`
	ReconcileIntervalS int `json:"reconcile_interval_s"`
	IdentifierTimeoutS int `json:"identifier_timeout_s"`
	ConnectTimeoutS    int `json:"connect_timeout_s"`
}

// StatusConfig contains the operator-facing introspection HTTP server settings.
type StatusConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// MempoolConfig contains mempool sizing.
type MempoolConfig struct {
	Capacity int `json:"capacity"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Netuid:      0,
		Testnet:     false,
		BindAddress: "0.0.0.0",
		KeyFile:     "./validator.key",
		LogLevel:    "info",
		Network: NetworkConfig{
			MaxConnections:     256,
			PingIntervalS:      5,
			InactivityTimeoutS: 10,
			ReconcileIntervalS: 10,
			IdentifierTimeoutS: 5,
			ConnectTimeoutS:    5,
		},
		Status: StatusConfig{
			Enabled: true,
			Addr:    "127.0.0.1:9101",
		},
		Mempool: MempoolConfig{
			Capacity: 10000,
		},
	}
}

// LoadConfig loads configuration from a file, overlaying it on the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveConfig saves configuration to a file.
func (c *Config) SaveConfig(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the configuration: inactivity_timeout_s must exceed
// ping_interval_s, and every interval and capacity must be positive.
// Invalid configuration is fatal at startup.
func (c *Config) Validate() error {
	if c.Netuid < 0 {
		return fmt.Errorf("netuid must be non-negative")
	}
	if c.BindAddress == "" {
		return fmt.Errorf("bind_address must not be empty")
	}
	if c.Network.MaxConnections <= 0 {
		return fmt.Errorf("max_connections must be positive")
	}
	if c.Network.PingIntervalS <= 0 {
		return fmt.Errorf("ping_interval_s must be positive")
	}
	if c.Network.InactivityTimeoutS <= c.Network.PingIntervalS {
		return fmt.Errorf("inactivity_timeout_s must be greater than ping_interval_s")
	}
	if c.Network.ReconcileIntervalS <= 0 {
		return fmt.Errorf("reconcile_interval_s must be positive")
	}
	if c.Network.IdentifierTimeoutS <= 0 {
		return fmt.Errorf("identifier_timeout_s must be positive")
	}
	if c.Network.ConnectTimeoutS <= 0 {
		return fmt.Errorf("connect_timeout_s must be positive")
	}
	if c.Mempool.Capacity <= 0 {
		return fmt.Errorf("mempool capacity must be positive")
	}
	return nil
}

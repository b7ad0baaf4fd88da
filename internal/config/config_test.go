package config

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected default config to be valid, got: %v", err)
	}
}

func TestValidateRejectsInactivityTimeoutNotExceedingPingInterval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Network.PingIntervalS = 10
	cfg.Network.InactivityTimeoutS = 10

	if err := cfg.Validate(); err == nil {
		t.Error("expected inactivity_timeout_s == ping_interval_s to be rejected")
	}
}

func TestValidateRejectsNonPositiveMaxConnections(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Network.MaxConnections = 0

	if err := cfg.Validate(); err == nil {
		t.Error("expected max_connections <= 0 to be rejected")
	}
}

func TestValidateRejectsEmptyBindAddress(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BindAddress = ""

	if err := cfg.Validate(); err == nil {
		t.Error("expected empty bind_address to be rejected")
	}
}

func TestApplyToConfigOverlaysOnlySetFlags(t *testing.T) {
	cfg := DefaultConfig()
	originalBind := cfg.BindAddress

	flags := &Flags{Netuid: -1, MaxPeers: 0, StatusEnabled: true}
	flags.ApplyToConfig(cfg)

	if cfg.BindAddress != originalBind {
		t.Errorf("expected unset bind flag to leave config unchanged, got %s", cfg.BindAddress)
	}
	if cfg.Netuid != 0 {
		t.Errorf("expected unset (-1) netuid flag to leave default netuid, got %d", cfg.Netuid)
	}
}

func TestApplyToConfigOverridesExplicitFlags(t *testing.T) {
	cfg := DefaultConfig()
	flags := &Flags{Netuid: 7, BindAddress: "10.0.0.1", MaxPeers: 64, StatusEnabled: true}
	flags.ApplyToConfig(cfg)

	if cfg.Netuid != 7 {
		t.Errorf("expected netuid 7, got %d", cfg.Netuid)
	}
	if cfg.BindAddress != "10.0.0.1" {
		t.Errorf("expected bind address 10.0.0.1, got %s", cfg.BindAddress)
	}
	if cfg.Network.MaxConnections != 64 {
		t.Errorf("expected max connections 64, got %d", cfg.Network.MaxConnections)
	}
}

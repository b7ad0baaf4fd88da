package config

import (
	"flag"
	"fmt"
	"os"
)

// Flags represents command-line flags for the validator binary.
type Flags struct {
	ConfigFile string
	KeyFile    string
	LogLevel   string
	Version    bool
	Help       bool

	Netuid      int
	Testnet     bool
	BindAddress string
	MaxPeers    int

	StatusEnabled bool
	StatusAddr    string
}

// ParseFlags parses command-line flags.
func ParseFlags() *Flags {
	f := &Flags{}

	flag.StringVar(&f.ConfigFile, "config", "", "Path to configuration file")
	flag.StringVar(&f.KeyFile, "keyfile", "", "Path to the validator's Ed25519 key file")
	flag.StringVar(&f.LogLevel, "loglevel", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&f.Version, "version", false, "Print version and exit")
	flag.BoolVar(&f.Help, "help", false, "Print help and exit")

	flag.IntVar(&f.Netuid, "netuid", -1, "Subnet netuid")
	flag.BoolVar(&f.Testnet, "testnet", false, "Connect to the testnet chain endpoint")
	flag.StringVar(&f.BindAddress, "bind", "", "P2P bind address")
	flag.IntVar(&f.MaxPeers, "maxpeers", 0, "Maximum number of pooled connections")

	flag.BoolVar(&f.StatusEnabled, "status", true, "Enable the status introspection HTTP server")
	flag.StringVar(&f.StatusAddr, "statusaddr", "", "Status server listen address")

	flag.Parse()

	return f
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Println("Subnet Validator")
	fmt.Println("Version: 0.1.0")
	fmt.Println("Protocol: subnetcore/1")
}

// PrintUsage prints usage information.
func PrintUsage() {
	fmt.Println("Usage: validator [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  validator --netuid 7 --keyfile ./validator.key")
	fmt.Println("  validator --config ./validator.json --testnet")
}

// ApplyToConfig overlays flags on top of a loaded or default configuration.
func (f *Flags) ApplyToConfig(c *Config) {
	if f.KeyFile != "" {
		c.KeyFile = f.KeyFile
	}
	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
	if f.Netuid >= 0 {
		c.Netuid = f.Netuid
	}
	if f.Testnet {
		c.Testnet = true
	}
	if f.BindAddress != "" {
		c.BindAddress = f.BindAddress
	}
	if f.MaxPeers > 0 {
		c.Network.MaxConnections = f.MaxPeers
	}

	c.Status.Enabled = f.StatusEnabled
	if f.StatusAddr != "" {
		c.Status.Addr = f.StatusAddr
	}
}

// HandleExit handles version and help flags.
func (f *Flags) HandleExit() {
	if f.Version {
		PrintVersion()
		os.Exit(0)
	}
	if f.Help {
		PrintUsage()
		os.Exit(0)
	}
}

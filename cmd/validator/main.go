// Command validator runs the subnet validator's peer-to-peer networking
// core: the connection pool, the inbound handshake server, the outbound
// reconciliation connector, liveness, the shared mempool, and the
// operator-facing status endpoint.
package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/subnetcore/validator/internal/config"
	"github.com/subnetcore/validator/internal/crypto"
	"github.com/subnetcore/validator/internal/mempool"
	"github.com/subnetcore/validator/internal/p2p"
	"github.com/subnetcore/validator/internal/registry"
	"github.com/subnetcore/validator/internal/status"
)

func main() {
	flags := config.ParseFlags()
	flags.HandleExit()

	cfg := config.DefaultConfig()
	if flags.ConfigFile != "" {
		loaded, err := config.LoadConfig(flags.ConfigFile)
		if err != nil {
			log.Fatalf("loading config %s: %v", flags.ConfigFile, err)
		}
		cfg = loaded
	}
	flags.ApplyToConfig(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	keys, err := crypto.LoadKeyPair(cfg.KeyFile)
	if err != nil {
		log.Printf("no key file at %s, generating a new identity", cfg.KeyFile)
		keys, err = crypto.NewKeyPair()
		if err != nil {
			log.Fatalf("generating identity key pair: %v", err)
		}
		if err := crypto.SaveKeyPair(keys, cfg.KeyFile); err != nil {
			log.Fatalf("saving identity key pair to %s: %v", cfg.KeyFile, err)
		}
	}
	log.Printf("validator identity: %s", keys.Address())

	// The on-chain registry transport is an external collaborator outside
	// this module's scope; a static snapshot stands in until it is wired
	// to a real chain client.
	chain := registry.NewCachingClient(registry.NewStaticChain(nil))

	mp := mempool.New(cfg.Mempool.Capacity)

	node := p2p.NewNode(p2p.NodeConfig{
		Netuid:             cfg.Netuid,
		BindAddress:        cfg.BindAddress,
		MaxConnections:     cfg.Network.MaxConnections,
		PingIntervalS:      uint64(cfg.Network.PingIntervalS),
		InactivityTimeoutS: uint64(cfg.Network.InactivityTimeoutS),
		ReconcileIntervalS: uint64(cfg.Network.ReconcileIntervalS),
		IdentifierTimeoutS: uint64(cfg.Network.IdentifierTimeoutS),
		ConnectTimeoutS:    uint64(cfg.Network.ConnectTimeoutS),
	}, keys, chain, mp)

	if err := node.Start(); err != nil {
		log.Fatalf("starting p2p node: %v", err)
	}

	var statusSrv *status.Server
	if cfg.Status.Enabled {
		statusSrv = status.NewServer(cfg.Status.Addr, node)
		if err := statusSrv.Start(); err != nil {
			log.Fatalf("starting status server: %v", err)
		}
		log.Printf("status endpoint listening on %s", cfg.Status.Addr)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Printf("shutting down")
	if statusSrv != nil {
		statusSrv.Stop()
	}
	node.Stop()
}

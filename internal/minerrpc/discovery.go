package minerrpc

import (
	"net"
	"strconv"
	"sync"

	"github.com/subnetcore/validator/internal/crypto"
	"github.com/subnetcore/validator/internal/registry"
)

// DiscoverActiveMiners composes the registry client with the ping action:
// it lists every registered miner, pings each concurrently with ping's 5s
// timeout, and returns only those that replied type == "miner" within the
// deadline.
func DiscoverActiveMiners(keys *crypto.KeyPair, chain registry.Chain, netuid int) ([]registry.ModuleInfo, error) {
	return discoverActive(keys, chain, netuid, registry.ListMiners, "miner")
}

// DiscoverActiveValidators is the symmetric operation over the validator
// subset.
func DiscoverActiveValidators(keys *crypto.KeyPair, chain registry.Chain, netuid int) ([]registry.ModuleInfo, error) {
	return discoverActive(keys, chain, netuid, registry.ListValidators, "validator")
}

func discoverActive(
	keys *crypto.KeyPair,
	chain registry.Chain,
	netuid int,
	list func(registry.Chain, int) ([]registry.ModuleInfo, error),
	wantType string,
) ([]registry.ModuleInfo, error) {
	candidates, err := list(chain, netuid)
	if err != nil {
		return nil, err
	}

	var (
		mu     sync.Mutex
		active []registry.ModuleInfo
		wg     sync.WaitGroup
	)

	for _, m := range candidates {
		m := m
		wg.Add(1)
		go func() {
			defer wg.Done()

			addr := net.JoinHostPort(m.Connection.IP, strconv.Itoa(int(m.Connection.Port)))
			moduleType, _, err := Ping(keys, addr, m.SS58Address)
			if err != nil || moduleType != wantType {
				return
			}

			mu.Lock()
			active = append(active, m)
			mu.Unlock()
		}()
	}
	wg.Wait()

	return active, nil
}

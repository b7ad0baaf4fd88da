package registry

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/subnetcore/validator/internal/util"
)

// Chain is the single operation the networking core requires of the
// on-chain registry: the current module set for a subnet.
type Chain interface {
	ListModules(netuid int) ([]ModuleInfo, error)
}

// addressPattern tolerantly extracts an IPv4:port pair from an arbitrary
// on-chain address string; modules whose address does not match are
// dropped by the caller rather than treated as fatal.
var addressPattern = regexp.MustCompile(`(\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}):(\d{1,5})`)

// ParseConnectionInfo extracts a ConnectionInfo from a free-form address
// string, returning ok=false when no IPv4:port pair is found.
func ParseConnectionInfo(address string) (ConnectionInfo, bool) {
	m := addressPattern.FindStringSubmatch(address)
	if m == nil {
		return ConnectionInfo{}, false
	}
	port, err := strconv.ParseUint(m[2], 10, 16)
	if err != nil {
		return ConnectionInfo{}, false
	}
	return ConnectionInfo{IP: m[1], Port: uint16(port)}, true
}

// ListValidators returns the validator subset of ListModules(netuid).
func ListValidators(chain Chain, netuid int) ([]ModuleInfo, error) {
	modules, err := chain.ListModules(netuid)
	if err != nil {
		return nil, err
	}
	return filterByRole(modules, RoleValidator), nil
}

// ListMiners returns the miner subset of ListModules(netuid).
func ListMiners(chain Chain, netuid int) ([]ModuleInfo, error) {
	modules, err := chain.ListModules(netuid)
	if err != nil {
		return nil, err
	}
	return filterByRole(modules, RoleMiner), nil
}

func filterByRole(modules []ModuleInfo, role Role) []ModuleInfo {
	out := make([]ModuleInfo, 0, len(modules))
	for _, m := range modules {
		if m.Role() == role {
			out = append(out, m)
		}
	}
	return out
}

// maxSnapshotAgeSeconds is the staleness threshold: a last-good snapshot
// older than this is degraded to empty rather than served.
const maxSnapshotAgeSeconds = 60

// CachingClient wraps a Chain, tolerating transient query failures by
// reusing the last successful snapshot until it exceeds
// maxSnapshotAgeSeconds old, at which point it degrades to empty rather
// than serving stale validator/miner sets indefinitely. ListModules is
// called concurrently by the reconciliation loop and by every inbound
// handshake goroutine (via lookupValidator), so the cache fields are
// guarded by a mutex rather than left to race like the underlying chain
// query itself may.
type CachingClient struct {
	mu       sync.Mutex
	inner    Chain
	lastGood []ModuleInfo
	lastAt   uint64
}

// NewCachingClient wraps inner with snapshot caching.
func NewCachingClient(inner Chain) *CachingClient {
	return &CachingClient{inner: inner}
}

// ListModules implements Chain, falling back to the last-good snapshot on
// query failure and degrading to empty once that snapshot is stale.
func (c *CachingClient) ListModules(netuid int) ([]ModuleInfo, error) {
	modules, err := c.inner.ListModules(netuid)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err == nil {
		c.lastGood = modules
		c.lastAt = util.Now()
		return modules, nil
	}

	if c.lastGood == nil {
		return nil, err
	}
	if util.Since(c.lastAt).Seconds() > maxSnapshotAgeSeconds {
		return []ModuleInfo{}, nil
	}
	return c.lastGood, nil
}

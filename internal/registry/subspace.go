package registry

import (
	"sort"
	"strconv"

	"github.com/subnetcore/validator/internal/util"
)

// Storage map names queried per netuid. Keys yields each UID's ss58
// address, Address its advertised endpoint string, Incentive and
// Dividends the role-classification weights.
const (
	storageKeys      = "Keys"
	storageAddress   = "Address"
	storageIncentive = "Incentive"
	storageDividends = "Dividends"
)

// Querier is the raw chain transport: one batched read over several
// storage maps of SubspaceModule for a netuid. Each returned map is
// keyed by UID with the raw string value the chain stores. The exact
// encoding of the query itself belongs to the chain client, not here.
type Querier interface {
	QueryBatch(netuid int, names []string) (map[string]map[uint64]string, error)
}

// SubspaceClient implements Chain over a raw Querier: it issues one
// batched query, joins the four storage maps by UID, parses each address
// string, and drops entries whose address is unparseable.
type SubspaceClient struct {
	querier Querier
}

// NewSubspaceClient wraps querier.
func NewSubspaceClient(querier Querier) *SubspaceClient {
	return &SubspaceClient{querier: querier}
}

// ListModules implements Chain.
func (c *SubspaceClient) ListModules(netuid int) ([]ModuleInfo, error) {
	batch, err := c.querier.QueryBatch(netuid, []string{
		storageKeys, storageAddress, storageIncentive, storageDividends,
	})
	if err != nil {
		return nil, util.WrapWithOp("registry.ListModules", util.ErrRegistryUnavailable)
	}

	keys := batch[storageKeys]
	addresses := batch[storageAddress]
	incentives := batch[storageIncentive]
	dividends := batch[storageDividends]

	modules := make([]ModuleInfo, 0, len(keys))
	for uid, ss58 := range keys {
		conn, ok := ParseConnectionInfo(addresses[uid])
		if !ok {
			continue
		}
		modules = append(modules, ModuleInfo{
			UID:         uid,
			SS58Address: ss58,
			Connection:  conn,
			Incentive:   parseWeight(incentives[uid]),
			Dividends:   parseWeight(dividends[uid]),
		})
	}

	// Map iteration order is random; callers diffing successive snapshots
	// want a stable one.
	sort.Slice(modules, func(i, j int) bool { return modules[i].UID < modules[j].UID })
	return modules, nil
}

// parseWeight parses a chain-encoded weight. A missing or malformed value
// reads as zero; a module with both weights zero classifies as a miner.
func parseWeight(s string) uint64 {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

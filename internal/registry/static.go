package registry

import (
	"sync"

	"github.com/subnetcore/validator/internal/util"
)

// StaticChain is a test double implementing Chain over an in-memory module
// list, set by the caller. Production chain-query transport is outside
// this module's scope; this exists purely to exercise the connector,
// inbound server, and caching client in tests.
type StaticChain struct {
	mu      sync.Mutex
	modules []ModuleInfo
	fail    bool
}

// NewStaticChain creates a StaticChain seeded with modules.
func NewStaticChain(modules []ModuleInfo) *StaticChain {
	return &StaticChain{modules: modules}
}

// SetModules replaces the current module snapshot.
func (s *StaticChain) SetModules(modules []ModuleInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules = modules
}

// SetFailing toggles whether ListModules returns an error, simulating a
// transient chain-query failure.
func (s *StaticChain) SetFailing(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

// ListModules implements Chain.
func (s *StaticChain) ListModules(netuid int) ([]ModuleInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail {
		return nil, util.ErrRegistryUnavailable
	}

	out := make([]ModuleInfo, len(s.modules))
	copy(out, s.modules)
	return out, nil
}

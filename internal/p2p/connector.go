package p2p

import (
	"log"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/subnetcore/validator/internal/registry"
)

// reconcileLoop is the outbound connector: a periodic loop that aligns the
// pool's membership with the current chain-derived validator set,
// dropping departed peers and dialing missing ones.
func (n *Node) reconcileLoop() {
	defer n.wg.Done()

	ticker := time.NewTicker(time.Duration(n.cfg.ReconcileIntervalS) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-n.stopCh:
			return
		case <-ticker.C:
			n.reconcileOnce()
		}
	}
}

func (n *Node) reconcileOnce() {
	validators, err := registry.ListValidators(n.chain, n.cfg.Netuid)
	if err != nil {
		log.Printf("p2p: reconciliation tick skipped, registry unavailable: %v", err)
		return
	}

	active := make(map[string]registry.ModuleInfo, len(validators))
	for _, v := range validators {
		if v.SS58Address == n.self {
			continue
		}
		active[v.SS58Address] = v
	}

	var stale []string
	for _, id := range n.pool.Identifiers() {
		if _, ok := active[id]; !ok {
			stale = append(stale, id)
		}
	}
	for _, conn := range n.pool.RemoveMany(stale) {
		conn.Close()
	}

	pooled := make(map[string]struct{})
	for _, id := range n.pool.Identifiers() {
		pooled[id] = struct{}{}
	}

	var missing []registry.ModuleInfo
	for id, m := range active {
		if _, ok := pooled[id]; !ok {
			missing = append(missing, m)
		}
	}

	n.connectMissing(missing)
}

// connectMissing dials every missing validator concurrently; each attempt
// shares the same connect-timeout deadline.
func (n *Node) connectMissing(missing []registry.ModuleInfo) {
	if len(missing) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, m := range missing {
		m := m
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.dialOutbound(m)
		}()
	}
	wg.Wait()
}

func (n *Node) dialOutbound(m registry.ModuleInfo) {
	addr := net.JoinHostPort(m.Connection.IP, strconv.Itoa(int(m.Connection.Port)))
	timeout := time.Duration(n.cfg.ConnectTimeoutS) * time.Second
	deadline := time.Now().Add(timeout)

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		log.Printf("p2p: connect to %s (%s) failed: %v", m.SS58Address, addr, err)
		return
	}

	env, err := BuildEnvelope(n.keys, CodeIdentifier, identifierData{SS58Address: n.self})
	if err != nil {
		conn.Close()
		log.Printf("p2p: building outbound IDENTIFIER failed: %v", err)
		return
	}

	conn.SetWriteDeadline(deadline)
	if err := WriteFrame(conn, env); err != nil {
		conn.Close()
		log.Printf("p2p: sending outbound IDENTIFIER to %s failed: %v", m.SS58Address, err)
		return
	}
	conn.SetWriteDeadline(time.Time{})

	// Wrap before pooling: pool.All() (the pinger) and this peer's own
	// receiver (PONG/DB-sync replies) both write to this socket, and must
	// share the same write lock to avoid interleaving frames.
	synced := newSyncConn(conn)
	previous, err := n.pool.Upsert(m.SS58Address, m, synced)
	if err != nil {
		conn.Close()
		log.Printf("p2p: pool rejected outbound connection to %s: %v", m.SS58Address, err)
		return
	}
	if previous != nil {
		previous.Close()
	}

	n.wg.Add(1)
	go n.runReceiver(m.SS58Address, synced)
}

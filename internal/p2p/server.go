package p2p

import (
	"encoding/json"
	"log"
	"net"
	"time"

	"github.com/subnetcore/validator/internal/registry"
	"github.com/subnetcore/validator/internal/util"
)

// identifierData is the data payload of an IDENTIFIER envelope.
type identifierData struct {
	SS58Address string `json:"ss58_address"`
}

// acceptLoop accepts inbound TCP connections and hands each to its own
// handshake worker so a slow handshake never stalls the listener.
func (n *Node) acceptLoop() {
	defer n.wg.Done()

	for {
		conn, err := n.listener.Accept()
		if err != nil {
			if n.stopped() {
				return
			}
			log.Printf("p2p: accept error: %v", err)
			continue
		}
		go n.handleInbound(conn)
	}
}

// handleInbound runs the signed handshake on a freshly accepted socket,
// admitting the peer into the pool and starting its receiver on success.
// Any violation closes the socket without a reply.
func (n *Node) handleInbound(conn net.Conn) {
	deadline := time.Duration(n.cfg.IdentifierTimeoutS) * time.Second
	conn.SetReadDeadline(time.Now().Add(deadline))

	// Step 1: wait for the first frame within IDENTIFIER_TIMEOUT.
	env, err := ReadFrame(conn)
	if err != nil {
		conn.Close()
		return
	}

	// Step 2: require code == IDENTIFIER with data.ss58_address present.
	if env.Body.Code != CodeIdentifier {
		conn.Close()
		return
	}
	var data identifierData
	if err := json.Unmarshal(env.Body.Data, &data); err != nil || data.SS58Address == "" {
		conn.Close()
		return
	}

	// Step 3: recompute ss58_address from public_key_hex and verify the
	// signature over body.
	derived, valid, err := env.Verify()
	if err != nil || !valid {
		conn.Close()
		return
	}

	// Step 4: claimed identity must match the derived identity.
	if data.SS58Address != derived {
		conn.Close()
		return
	}

	// Step 5: cross-check membership in the current validator snapshot.
	module, ok := n.lookupValidator(derived)
	if !ok {
		conn.Close()
		return
	}

	// Step 6: duplicate identity. When both sides dial each other at
	// once, the peer with the smaller address keeps its outbound socket:
	// an inbound duplicate from a smaller address replaces our entry, one
	// from a larger address closes. Without the ordering, each side kills
	// the other's outbound connection every tick and the mesh never
	// settles.
	if _, exists := n.pool.Get(derived); exists && derived >= n.self {
		conn.Close()
		return
	}

	conn.SetReadDeadline(time.Time{})

	// Step 7: admit, letting Upsert enforce pool capacity (PoolFull).
	// Wrap before pooling: pool.All() (the pinger) and this peer's own
	// receiver (PONG/DB-sync replies) both write to this socket, and must
	// share the same write lock to avoid interleaving frames.
	synced := newSyncConn(conn)
	previous, err := n.pool.Upsert(derived, module, synced)
	if err != nil {
		if util.IsPolicyRejection(err) {
			log.Printf("p2p: rejecting inbound peer %s: %v", derived, err)
		}
		conn.Close()
		return
	}
	if previous != nil {
		previous.Close()
	}

	// Step 8: start the receiver.
	n.wg.Add(1)
	go n.runReceiver(derived, synced)
}

// lookupValidator reports whether ss58Address currently appears in the
// validator snapshot, excluding the node's own identity.
func (n *Node) lookupValidator(ss58Address string) (registry.ModuleInfo, bool) {
	if ss58Address == n.self {
		return registry.ModuleInfo{}, false
	}

	validators, err := registry.ListValidators(n.chain, n.cfg.Netuid)
	if err != nil {
		return registry.ModuleInfo{}, false
	}

	for _, v := range validators {
		if v.SS58Address == ss58Address {
			return v, true
		}
	}
	return registry.ModuleInfo{}, false
}

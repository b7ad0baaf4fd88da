package p2p

import (
	"log"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/subnetcore/validator/internal/crypto"
	"github.com/subnetcore/validator/internal/mempool"
	"github.com/subnetcore/validator/internal/registry"
	"github.com/subnetcore/validator/internal/util"
)

// NodeConfig carries the tunables a Node needs that don't belong to any
// one subsystem.
type NodeConfig struct {
	Netuid             int
	BindAddress        string
	Port               int // defaults to TCPPort when zero
	MaxConnections     int
	PingIntervalS      uint64
	InactivityTimeoutS uint64
	ReconcileIntervalS uint64
	IdentifierTimeoutS uint64
	ConnectTimeoutS    uint64
}

// TCPPort is the default validator peer-to-peer listener port. Self-dial
// is prevented by identity, not by a port offset: the local ss58 address
// is excluded from both the outbound target set and inbound admission.
const TCPPort = 9001

// Node is the validator's networking core: it owns the connection pool,
// the shared mempool, and the identity keypair, and drives the accept
// loop, the reconciliation connector, and the liveness tickers.
type Node struct {
	cfg   NodeConfig
	keys  *crypto.KeyPair
	self  string
	chain registry.Chain
	pool  *Pool
	mp    *mempool.Mempool
	db    Database

	mu       sync.Mutex
	running  bool
	listener net.Listener
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewNode constructs a Node. chain is the registry client the connector
// and inbound server validate peer membership against.
func NewNode(cfg NodeConfig, keys *crypto.KeyPair, chain registry.Chain, mp *mempool.Mempool) *Node {
	return &Node{
		cfg:   cfg,
		keys:  keys,
		self:  keys.Address(),
		chain: chain,
		pool:  NewPool(cfg.MaxConnections, cfg.InactivityTimeoutS),
		mp:    mp,
	}
}

// Pool exposes the connection pool for the status endpoint.
func (n *Node) Pool() *Pool { return n.pool }

// Mempool exposes the shared mempool for the status endpoint.
func (n *Node) Mempool() *mempool.Mempool { return n.mp }

// SelfAddress returns this validator's own ss58 address.
func (n *Node) SelfAddress() string { return n.self }

// AttachDatabase wires the local persistence collaborator consulted by the
// DB-sync handlers. A node without one reports sync as unavailable. Must
// be called before Start.
func (n *Node) AttachDatabase(db Database) { n.db = db }

// Start binds the inbound listener and launches the accept loop, the
// reconciliation connector, and the liveness tickers as independent
// workers.
func (n *Node) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.running {
		return util.WrapWithOp("p2p.Start", util.ErrInvalidConfig)
	}

	port := n.cfg.Port
	if port == 0 {
		port = TCPPort
	}
	addr := net.JoinHostPort(n.cfg.BindAddress, strconv.Itoa(port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return util.WrapWithOp("p2p.Start", err)
	}

	n.listener = listener
	n.stopCh = make(chan struct{})
	n.running = true

	n.wg.Add(4)
	go n.acceptLoop()
	go n.reconcileLoop()
	go n.pingLoop()
	go n.reapLoop()

	log.Printf("p2p: listening on %s (netuid=%d)", addr, n.cfg.Netuid)
	return nil
}

// Stop signals every worker to exit, closes the listener, and joins with
// a hard 2s deadline before force-closing whatever sockets remain pooled.
func (n *Node) Stop() {
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		return
	}
	n.running = false
	close(n.stopCh)
	if n.listener != nil {
		n.listener.Close()
	}
	n.mu.Unlock()

	// Closing the pooled sockets unblocks every receiver parked in a read.
	for _, conn := range n.pool.RemoveMany(n.pool.Identifiers()) {
		conn.Close()
	}

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		log.Printf("p2p: shutdown deadline exceeded, forcing exit")
	}

	// Anything admitted while shutdown raced the accept loop.
	for _, conn := range n.pool.RemoveMany(n.pool.Identifiers()) {
		conn.Close()
	}
}

func (n *Node) stopped() bool {
	select {
	case <-n.stopCh:
		return true
	default:
		return false
	}
}

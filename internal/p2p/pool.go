package p2p

import (
	"net"
	"sync"
	"time"

	"github.com/subnetcore/validator/internal/registry"
	"github.com/subnetcore/validator/internal/util"
)

// Connection is one pool entry: a module's metadata, its socket, and the
// last time a frame or successful ping was observed from it. LastSeen is
// stamped from time.Now() rather than a Unix-second conversion, so the
// inactivity check runs off the monotonic clock reading time.Time carries
// and stays correct across wall-clock steps.
type Connection struct {
	Module   registry.ModuleInfo
	Conn     net.Conn
	LastSeen time.Time
}

// syncConn wraps a net.Conn so the goroutines that can all send to one
// peer's socket (the peer's own receiver replying PONG or DB-sync, the
// liveness pinger, the broadcaster) can never interleave two frames on
// the wire. WriteFrame issues the length header and body as a single
// Write call, so serializing at the Write level serializes a whole frame
// at a time.
type syncConn struct {
	net.Conn
	mu sync.Mutex
}

func newSyncConn(c net.Conn) *syncConn {
	return &syncConn{Conn: c}
}

func (c *syncConn) Write(b []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.Write(b)
}

// Pool is the shared connection pool: ss58_address -> Connection, bounded
// to a configured capacity, mutated exclusively under one coarse lock.
// Sockets are never closed while the lock is held; mutating operations
// that evict a connection return its socket to the caller to close after
// releasing the lock.
type Pool struct {
	mu                sync.Mutex
	capacity          int
	inactivityTimeout time.Duration
	conns             map[string]*Connection
}

// NewPool creates a Pool with the given capacity and inactivity timeout.
func NewPool(capacity int, inactivityTimeoutS uint64) *Pool {
	return &Pool{
		capacity:          capacity,
		inactivityTimeout: time.Duration(inactivityTimeoutS) * time.Second,
		conns:             make(map[string]*Connection),
	}
}

// Get returns a snapshot of the connection for id, if present.
func (p *Pool) Get(id string) (Connection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.conns[id]
	if !ok {
		return Connection{}, false
	}
	return *c, true
}

// GetActive returns the connection for id only if it is within the
// inactivity timeout.
func (p *Pool) GetActive(id string) (Connection, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.conns[id]
	if !ok || !p.isActiveLocked(c) {
		return Connection{}, false
	}
	return *c, true
}

func (p *Pool) isActiveLocked(c *Connection) bool {
	return time.Since(c.LastSeen) <= p.inactivityTimeout
}

// Identifiers returns every pooled ss58 address.
func (p *Pool) Identifiers() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.conns))
	for id := range p.conns {
		ids = append(ids, id)
	}
	return ids
}

// Modules returns the module metadata for every pooled connection.
func (p *Pool) Modules() []registry.ModuleInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	mods := make([]registry.ModuleInfo, 0, len(p.conns))
	for _, c := range p.conns {
		mods = append(mods, c.Module)
	}
	return mods
}

// All returns a snapshot of every pooled connection.
func (p *Pool) All() []Connection {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Connection, 0, len(p.conns))
	for _, c := range p.conns {
		out = append(out, *c)
	}
	return out
}

// Len returns the current pool size.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// Upsert inserts or replaces the connection for id. On replace, the
// previous socket is returned for the caller to close after the lock is
// released; it is never closed here. On insertion of a new identity when
// the pool is already at capacity, it returns ErrPoolFull and leaves the
// pool unchanged.
func (p *Pool) Upsert(id string, module registry.ModuleInfo, conn net.Conn) (previous net.Conn, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	existing, exists := p.conns[id]
	if !exists && p.capacity > 0 && len(p.conns) >= p.capacity {
		return nil, util.ErrPoolFull
	}

	p.conns[id] = &Connection{Module: module, Conn: conn, LastSeen: time.Now()}

	if exists {
		return existing.Conn, nil
	}
	return nil, nil
}

// Touch refreshes last_seen for id if present.
func (p *Pool) Touch(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.conns[id]; ok {
		c.LastSeen = time.Now()
	}
}

// Remove deletes id from the pool and returns its socket for the caller to
// close, if present.
func (p *Pool) Remove(id string) (net.Conn, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.conns[id]
	if !ok {
		return nil, false
	}
	delete(p.conns, id)
	return c.Conn, true
}

// RemoveConn deletes id only while it still maps to conn. A receiver whose
// socket was replaced by a newer connection for the same identity must not
// evict its replacement on the way out.
func (p *Pool) RemoveConn(id string, conn net.Conn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.conns[id]
	if !ok || c.Conn != conn {
		return false
	}
	delete(p.conns, id)
	return true
}

// RemoveMany deletes every id in ids, returning the sockets of those that
// were present for the caller to close.
func (p *Pool) RemoveMany(ids []string) []net.Conn {
	p.mu.Lock()
	defer p.mu.Unlock()
	socks := make([]net.Conn, 0, len(ids))
	for _, id := range ids {
		if c, ok := p.conns[id]; ok {
			socks = append(socks, c.Conn)
			delete(p.conns, id)
		}
	}
	return socks
}

// ReapInactive removes every connection whose last_seen exceeds the
// inactivity timeout, returning their sockets for the caller to close.
func (p *Pool) ReapInactive() []net.Conn {
	p.mu.Lock()
	defer p.mu.Unlock()

	var socks []net.Conn
	for id, c := range p.conns {
		if !p.isActiveLocked(c) {
			socks = append(socks, c.Conn)
			delete(p.conns, id)
		}
	}
	return socks
}

package p2p

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"time"
)

// pingLoop pings every pooled identifier on each tick. Sends are
// best-effort: a failed ping is not fatal in isolation, since only the
// inactivity sweep run by reapLoop actually evicts a peer. The two loops
// tick independently so transient send latency never triggers eviction
// on its own.
func (n *Node) pingLoop() {
	defer n.wg.Done()

	ticker := time.NewTicker(time.Duration(n.cfg.PingIntervalS) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-n.stopCh:
			return
		case <-ticker.C:
			n.pingAll()
		}
	}
}

func (n *Node) pingAll() {
	for _, conn := range n.pool.All() {
		env, err := BuildEnvelope(n.keys, CodePing, pingData{Nonce: randomNonce()})
		if err != nil {
			continue
		}
		conn.Conn.SetWriteDeadline(time.Now().Add(time.Duration(n.cfg.PingIntervalS) * time.Second))
		if err := WriteFrame(conn.Conn, env); err != nil {
			log.Printf("p2p: ping to %s failed: %v", conn.Module.SS58Address, err)
		}
		conn.Conn.SetWriteDeadline(time.Time{})
	}
}

func randomNonce() string {
	buf := make([]byte, 8)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}

// reapLoop runs reap_inactive every PING_INTERVAL, closing the sockets of
// every connection that exceeded the inactivity timeout.
func (n *Node) reapLoop() {
	defer n.wg.Done()

	ticker := time.NewTicker(time.Duration(n.cfg.PingIntervalS) * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-n.stopCh:
			return
		case <-ticker.C:
			for _, conn := range n.pool.ReapInactive() {
				conn.Close()
			}
		}
	}
}

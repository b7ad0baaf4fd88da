package p2p

import (
	"log"
	"time"

	"github.com/subnetcore/validator/internal/event"
)

// PublishEvent inserts a locally created, already-signed event into this
// node's mempool and sends it to every pooled peer. Returns false if the
// event was a duplicate; a duplicate is not re-broadcast.
func (n *Node) PublishEvent(evt *event.Event) bool {
	if !n.mp.Insert(evt) {
		return false
	}
	n.broadcast(CodeEvent, evt)
	return true
}

// PublishEventBatch inserts a batch of signed events and sends the newly
// admitted ones to every pooled peer in a single EVENT_BATCH frame.
func (n *Node) PublishEventBatch(events []*event.Event) int {
	fresh := make([]*event.Event, 0, len(events))
	for _, evt := range events {
		if n.mp.Insert(evt) {
			fresh = append(fresh, evt)
		}
	}
	if len(fresh) > 0 {
		n.broadcast(CodeEventBatch, fresh)
	}
	return len(fresh)
}

// RequestDBSync asks every pooled peer for its database export handle.
// Replies arrive asynchronously through each peer's receiver.
func (n *Node) RequestDBSync() {
	n.broadcast(CodeDBSyncRequest, struct{}{})
}

// broadcast sends one signed envelope to every pooled peer. Sends are
// best-effort: a failed write is logged and left for the inactivity
// sweep to act on, like a failed ping.
func (n *Node) broadcast(code MessageCode, data interface{}) {
	env, err := BuildEnvelope(n.keys, code, data)
	if err != nil {
		log.Printf("p2p: building %s broadcast failed: %v", code, err)
		return
	}

	writeTimeout := time.Duration(n.cfg.ConnectTimeoutS) * time.Second
	for _, conn := range n.pool.All() {
		conn.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := WriteFrame(conn.Conn, env); err != nil {
			log.Printf("p2p: %s to %s failed: %v", code, conn.Module.SS58Address, err)
		}
		conn.Conn.SetWriteDeadline(time.Time{})
	}
}

package p2p

import (
	"encoding/json"
	"log"
	"net"

	"github.com/subnetcore/validator/internal/crypto"
	"github.com/subnetcore/validator/internal/event"
	"github.com/subnetcore/validator/internal/util"
)

// pingData is the payload carried by PING/PONG envelopes.
type pingData struct {
	Nonce string `json:"nonce"`
}

// runReceiver is the per-peer read loop: it decodes framed messages and
// dispatches them by code until the socket errors or is evicted. A peer
// reaching this point has already completed the handshake and is therefore
// authenticated; every subsequent frame is still signature-checked and
// must come from the same identity.
func (n *Node) runReceiver(peerID string, conn net.Conn) {
	defer n.wg.Done()
	defer n.closePeer(peerID, conn)

	for {
		if n.stopped() {
			return
		}

		env, err := ReadFrame(conn)
		if err != nil {
			return
		}

		derived, valid, err := env.Verify()
		if err != nil || !valid || derived != peerID {
			return
		}

		n.pool.Touch(peerID)
		n.dispatch(peerID, conn, env)
	}
}

// closePeer removes peerID from the pool and closes its socket, the
// terminal action every receiver exit path must perform. The removal is
// conditional on the socket: if this identity was re-admitted on a newer
// connection, the newer entry stays.
func (n *Node) closePeer(peerID string, conn net.Conn) {
	n.pool.RemoveConn(peerID, conn)
	conn.Close()
}

func (n *Node) dispatch(peerID string, conn net.Conn, env *Envelope) {
	switch env.Body.Code {
	case CodeIdentifier:
		// A repeated IDENTIFIER from an authenticated peer is idempotent:
		// the signature and identity were just re-verified, and the
		// pool.Touch above refreshed last_seen. Nothing else to do.
	case CodePing:
		n.handlePing(conn, env)
	case CodePong:
		// RTT is observability-only; no state to update beyond the
		// pool.Touch already performed by the caller.
	case CodeEvent:
		n.handleEvent(peerID, env.Body.Data)
	case CodeEventBatch:
		n.handleEventBatch(peerID, env.Body.Data)
	case CodeDBSyncRequest:
		n.handleDBSyncRequest(conn)
	case CodeDBSyncResp:
		n.handleDBSyncResponse(peerID, env.Body.Data)
	default:
		log.Printf("p2p: dropping unknown message code %q from %s", env.Body.Code, peerID)
	}
}

func (n *Node) handlePing(conn net.Conn, env *Envelope) {
	var data pingData
	if err := json.Unmarshal(env.Body.Data, &data); err != nil {
		return
	}

	reply, err := BuildEnvelope(n.keys, CodePong, pingData{Nonce: data.Nonce})
	if err != nil {
		return
	}
	WriteFrame(conn, reply)
}

func (n *Node) handleEvent(peerID string, data json.RawMessage) {
	var evt event.Event
	if err := json.Unmarshal(data, &evt); err != nil {
		log.Printf("p2p: malformed EVENT from %s: %v", peerID, err)
		return
	}
	n.admitEvent(peerID, &evt)
}

func (n *Node) handleEventBatch(peerID string, data json.RawMessage) {
	var events []event.Event
	if err := json.Unmarshal(data, &events); err != nil {
		log.Printf("p2p: malformed EVENT_BATCH from %s: %v", peerID, err)
		return
	}
	for i := range events {
		n.admitEvent(peerID, &events[i])
	}
}

// admitEvent validates an event's inner signature against its claimed
// validator before inserting it into the mempool. Invalid signatures are
// logged and dropped; duplicates (by UUID) are silently dropped by the
// mempool itself.
func (n *Node) admitEvent(peerID string, evt *event.Event) {
	sigBytes, err := util.DecodeHex(evt.EventSignedParams)
	if err != nil {
		log.Printf("p2p: event %s from %s has malformed signature hex", evt.UUID, peerID)
		return
	}

	pubKey, err := crypto.DecodeAddress(evt.ValidatorSS58Address)
	if err != nil {
		log.Printf("p2p: event %s from %s has unresolvable validator address", evt.UUID, peerID)
		return
	}

	ok, err := crypto.VerifyCanonical(pubKey, sigBytes, evt.EventParams)
	if err != nil || !ok {
		log.Printf("p2p: event %s from %s failed signature verification", evt.UUID, peerID)
		return
	}

	n.mp.Insert(evt)
}

// dbSyncData is the payload of a DB_SYNC_RESPONSE envelope: a handle to
// the responder's current database export artifact.
type dbSyncData struct {
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Version   int    `json:"version,omitempty"`
}

// handleDBSyncRequest answers with the current database export artifact
// handle. The export itself is produced by the database collaborator and
// can be slow to build, so the reply is sent asynchronously rather than
// stalling this peer's read loop.
func (n *Node) handleDBSyncRequest(conn net.Conn) {
	db := n.db
	go func() {
		data := dbSyncData{}
		if db != nil {
			path, err := db.Export()
			if err != nil {
				log.Printf("p2p: database export failed: %v", err)
			} else {
				data = dbSyncData{Available: true, Path: path, Version: db.Version()}
			}
		}

		reply, err := BuildEnvelope(n.keys, CodeDBSyncResp, data)
		if err != nil {
			return
		}
		WriteFrame(conn, reply)
	}()
}

// handleDBSyncResponse decodes the peer's export handle and logs it. It
// does not import the export: the node has no import collaborator, and
// Database has no import method.
func (n *Node) handleDBSyncResponse(peerID string, data json.RawMessage) {
	var sync dbSyncData
	if err := json.Unmarshal(data, &sync); err != nil {
		log.Printf("p2p: malformed DB_SYNC_RESPONSE from %s: %v", peerID, err)
		return
	}
	if !sync.Available {
		log.Printf("p2p: peer %s has no database export available", peerID)
		return
	}
	log.Printf("p2p: peer %s offers database export %s (version %d)", peerID, sync.Path, sync.Version)
}

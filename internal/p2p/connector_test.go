package p2p

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/subnetcore/validator/internal/crypto"
	"github.com/subnetcore/validator/internal/mempool"
	"github.com/subnetcore/validator/internal/registry"
)

// A validator present in the chain snapshot but absent from the pool is
// dialed and, once the IDENTIFIER handshake is sent, admitted.
func TestReconcileOnceConnectsToMissingValidator(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listening: %v", err)
	}
	defer ln.Close()

	received := make(chan *Envelope, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		env, err := ReadFrame(conn)
		if err != nil {
			return
		}
		received <- env
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("splitting listener address: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parsing port: %v", err)
	}

	keys, err := crypto.NewKeyPair()
	if err != nil {
		t.Fatalf("generating key pair: %v", err)
	}
	chain := registry.NewStaticChain(nil)
	mp := mempool.New(10)
	n := NewNode(NodeConfig{
		MaxConnections:     5,
		PingIntervalS:      5,
		InactivityTimeoutS: 10,
		ReconcileIntervalS: 10,
		IdentifierTimeoutS: 5,
		ConnectTimeoutS:    5,
	}, keys, chain, mp)

	peerAddress := "peer-validator-ss58"
	chain.SetModules([]registry.ModuleInfo{
		{
			SS58Address: peerAddress,
			Connection:  registry.ConnectionInfo{IP: host, Port: uint16(port)},
			Incentive:   0,
			Dividends:   1, // dividend-dominant: classifies as validator
		},
	})

	n.reconcileOnce()

	select {
	case env := <-received:
		if env.Body.Code != CodeIdentifier {
			t.Errorf("expected IDENTIFIER code, got %s", env.Body.Code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for outbound IDENTIFIER frame")
	}

	if _, ok := n.pool.Get(peerAddress); !ok {
		t.Error("expected missing validator to be admitted into the pool after reconciliation")
	}
}

// stale = pool.identifiers() - active; reconciliation must remove and
// close connections for validators no longer in the snapshot.
func TestReconcileOnceRemovesStaleValidators(t *testing.T) {
	keys, _ := crypto.NewKeyPair()
	chain := registry.NewStaticChain(nil) // empty snapshot: nothing is active
	mp := mempool.New(10)
	n := NewNode(NodeConfig{
		MaxConnections:     5,
		PingIntervalS:      5,
		InactivityTimeoutS: 10,
		ReconcileIntervalS: 10,
		IdentifierTimeoutS: 5,
		ConnectTimeoutS:    5,
	}, keys, chain, mp)

	stale := "departed-validator"
	if _, err := n.pool.Upsert(stale, registry.ModuleInfo{SS58Address: stale}, &fakeConn{}); err != nil {
		t.Fatalf("seeding pool: %v", err)
	}

	n.reconcileOnce()

	if _, ok := n.pool.Get(stale); ok {
		t.Error("expected stale validator to be removed from the pool")
	}
}

// The local identity never appears in the missing set, even if the chain
// snapshot lists it.
func TestReconcileOnceExcludesSelf(t *testing.T) {
	keys, _ := crypto.NewKeyPair()
	chain := registry.NewStaticChain([]registry.ModuleInfo{
		{SS58Address: keys.Address(), Dividends: 1},
	})
	mp := mempool.New(10)
	n := NewNode(NodeConfig{
		MaxConnections:     5,
		PingIntervalS:      5,
		InactivityTimeoutS: 10,
		ReconcileIntervalS: 10,
		IdentifierTimeoutS: 5,
		ConnectTimeoutS:    5,
	}, keys, chain, mp)

	n.reconcileOnce()

	if n.pool.Len() != 0 {
		t.Errorf("expected self identity to never be dialed, pool len=%d", n.pool.Len())
	}
}

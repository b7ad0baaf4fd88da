package p2p

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/subnetcore/validator/internal/registry"
)

func TestPingAllSendsSignedPingToEveryPeer(t *testing.T) {
	n, _ := newTestNode(t)

	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	if _, err := n.pool.Upsert("peer-1", registry.ModuleInfo{SS58Address: "peer-1"}, server); err != nil {
		t.Fatalf("seeding pool: %v", err)
	}

	done := make(chan struct{})
	go func() {
		n.pingAll()
		close(done)
	}()

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	env, err := ReadFrame(client)
	if err != nil {
		t.Fatalf("reading ping: %v", err)
	}
	<-done

	if env.Body.Code != CodePing {
		t.Fatalf("expected PING, got %s", env.Body.Code)
	}
	var data pingData
	if err := json.Unmarshal(env.Body.Data, &data); err != nil {
		t.Fatalf("decoding ping data: %v", err)
	}
	if data.Nonce == "" {
		t.Error("expected a non-empty nonce")
	}
	if _, valid, err := env.Verify(); err != nil || !valid {
		t.Error("expected ping to carry a valid signature")
	}
}

func TestPingFailureDoesNotEvictPeer(t *testing.T) {
	n, _ := newTestNode(t)

	server, client := net.Pipe()
	client.Close()
	server.Close() // writes will fail immediately

	if _, err := n.pool.Upsert("peer-1", registry.ModuleInfo{SS58Address: "peer-1"}, server); err != nil {
		t.Fatalf("seeding pool: %v", err)
	}

	n.pingAll()

	if _, ok := n.pool.Get("peer-1"); !ok {
		t.Error("expected a failed ping to leave the peer pooled; only the reaper evicts")
	}
}

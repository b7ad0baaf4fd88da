package p2p

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/subnetcore/validator/internal/event"
	"github.com/subnetcore/validator/internal/registry"
)

func TestPublishEventInsertsLocallyAndBroadcasts(t *testing.T) {
	n, keys := newTestNode(t)

	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	if _, err := n.pool.Upsert("peer-1", registry.ModuleInfo{SS58Address: "peer-1"}, server); err != nil {
		t.Fatalf("seeding pool: %v", err)
	}

	evt := signedEvent(t, keys, "U-pub")

	done := make(chan bool, 1)
	go func() {
		done <- n.PublishEvent(evt)
	}()

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	env, err := ReadFrame(client)
	if err != nil {
		t.Fatalf("reading broadcast frame: %v", err)
	}
	if !<-done {
		t.Fatal("expected first publish to report success")
	}

	if env.Body.Code != CodeEvent {
		t.Fatalf("expected EVENT, got %s", env.Body.Code)
	}
	var sent event.Event
	if err := json.Unmarshal(env.Body.Data, &sent); err != nil {
		t.Fatalf("decoding broadcast event: %v", err)
	}
	if sent.UUID != "U-pub" {
		t.Errorf("expected event U-pub on the wire, got %s", sent.UUID)
	}
	if !n.mp.Contains("U-pub") {
		t.Error("expected the event in the local mempool")
	}
}

func TestPublishEventSkipsDuplicates(t *testing.T) {
	n, keys := newTestNode(t)
	evt := signedEvent(t, keys, "U-dup")

	if !n.PublishEvent(evt) {
		t.Fatal("expected first publish to succeed")
	}
	if n.PublishEvent(evt) {
		t.Error("expected duplicate publish to be dropped")
	}
	if n.mp.Len() != 1 {
		t.Errorf("expected exactly 1 event, got %d", n.mp.Len())
	}
}

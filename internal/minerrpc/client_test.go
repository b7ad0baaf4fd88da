package minerrpc

import (
	"encoding/json"
	"net"
	"testing"

	"github.com/subnetcore/validator/internal/crypto"
	"github.com/subnetcore/validator/internal/p2p"
)

// minerStub accepts a single connection, decodes the request envelope, and
// replies with a signed RPC_RESPONSE built from respond. It stands in for
// the miner storage engine, which lives outside this module.
func minerStub(t *testing.T, respond func(req requestData) responseData) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listening: %v", err)
	}

	serverKeys, err := crypto.NewKeyPair()
	if err != nil {
		t.Fatalf("generating miner stub key pair: %v", err)
	}

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		defer ln.Close()

		env, err := p2p.ReadFrame(conn)
		if err != nil {
			return
		}
		var req requestData
		if err := json.Unmarshal(env.Body.Data, &req); err != nil {
			return
		}

		resp := respond(req)
		reply, err := p2p.BuildEnvelope(serverKeys, codeRPCResponse, resp)
		if err != nil {
			return
		}
		p2p.WriteFrame(conn, reply)
	}()

	return ln.Addr().String()
}

func TestPingSuccessReportsModuleType(t *testing.T) {
	addr := minerStub(t, func(req requestData) responseData {
		if req.Action != ActionPing {
			t.Errorf("expected ping action, got %s", req.Action)
		}
		data, _ := json.Marshal(pingResponse{Type: "miner"})
		return responseData{Action: ActionPing, Data: data}
	})

	keys, _ := crypto.NewKeyPair()
	moduleType, elapsed, err := Ping(keys, addr, "target-ss58")
	if err != nil {
		t.Fatalf("ping failed: %v", err)
	}
	if moduleType != "miner" {
		t.Errorf("expected module type miner, got %s", moduleType)
	}
	if elapsed <= 0 {
		t.Error("expected non-zero elapsed time to be recorded")
	}
}

func TestStoreSuccessReturnsChunkUUID(t *testing.T) {
	addr := minerStub(t, func(req requestData) responseData {
		if req.Action != ActionStore {
			t.Errorf("expected store action, got %s", req.Action)
		}
		data, _ := json.Marshal(storeResponse{ChunkUUID: "chunk-123"})
		return responseData{Action: ActionStore, Data: data}
	})

	keys, _ := crypto.NewKeyPair()
	res, chunkUUID := Store(keys, addr, "target-ss58", "user-folder", "YmFzZTY0")
	if res.Err != nil {
		t.Fatalf("store failed: %v", res.Err)
	}
	if chunkUUID != "chunk-123" {
		t.Errorf("expected chunk-123, got %s", chunkUUID)
	}
}

// A miner-reported error surfaces as a failed result with elapsed time
// recorded, never as a panic or a hang.
func TestCallSurfacesPeerError(t *testing.T) {
	addr := minerStub(t, func(req requestData) responseData {
		return responseData{
			Action: req.Action,
			Error:  &RPCError{Code: "not_found", Message: "chunk missing"},
		}
	})

	keys, _ := crypto.NewKeyPair()
	res, _ := Retrieve(keys, addr, "target-ss58", "user-folder", "missing-chunk")
	if res.Err == nil {
		t.Fatal("expected peer error to be returned")
	}
	if res.Elapsed <= 0 {
		t.Error("expected elapsed time to be recorded even on failure")
	}
}

// Call must fail (not hang) against an address nothing listens on, and
// still report elapsed time so MinerProcess.processing_time is populated.
func TestCallFailsAgainstUnreachablePeer(t *testing.T) {
	keys, _ := crypto.NewKeyPair()
	res := Remove(keys, "127.0.0.1:1", "target-ss58", "user-folder", "chunk-1")
	if res.Err == nil {
		t.Fatal("expected unreachable peer to fail")
	}
	if res.Elapsed < 0 {
		t.Error("expected non-negative elapsed time")
	}

	proc := Process("chunk-1", "target-ss58", res)
	if proc.Succeed {
		t.Error("expected a failed call to record succeed=false")
	}
	if proc.ChunkUUID != "chunk-1" || proc.MinerSS58 != "target-ss58" {
		t.Errorf("expected chunk/miner identifiers to carry through, got %+v", proc)
	}
}

func TestValidateSuccessReturnsHash(t *testing.T) {
	addr := minerStub(t, func(req requestData) responseData {
		if req.Action != ActionValidate {
			t.Errorf("expected validate action, got %s", req.Action)
		}
		data, _ := json.Marshal(validateResponse{Hash: "deadbeef"})
		return responseData{Action: ActionValidate, Data: data}
	})

	keys, _ := crypto.NewKeyPair()
	res, hash := Validate(keys, addr, "target-ss58", "user-folder", "chunk-1", "nonce-1")
	if res.Err != nil {
		t.Fatalf("validate failed: %v", res.Err)
	}
	if hash != "deadbeef" {
		t.Errorf("expected hash deadbeef, got %s", hash)
	}
}

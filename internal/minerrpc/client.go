// Package minerrpc implements the authenticated, stateless one-shot RPC
// client validators use to call miners: ping, store, retrieve, validate,
// and remove. Each call is dial, send one signed request envelope, read
// one signed response frame, close.
package minerrpc

import (
	"encoding/json"
	"net"
	"time"

	"github.com/subnetcore/validator/internal/crypto"
	"github.com/subnetcore/validator/internal/event"
	"github.com/subnetcore/validator/internal/p2p"
	"github.com/subnetcore/validator/internal/util"
)

// Action is the closed set of operations a miner RPC call may request.
type Action string

const (
	ActionPing     Action = "ping"
	ActionStore    Action = "store"
	ActionRetrieve Action = "retrieve"
	ActionValidate Action = "validate"
	ActionRemove   Action = "remove"
)

// codeRPCRequest and codeRPCResponse are the message codes used on the
// miner RPC channel. This channel is a separate wire contract from the
// validator mesh (a distinct TCP port, one request/response pair per
// socket), so it is not bound by the mesh's closed MessageCode enum; it
// reuses the same envelope and length-prefixed framing primitives.
const (
	codeRPCRequest  p2p.MessageCode = "RPC_REQUEST"
	codeRPCResponse p2p.MessageCode = "RPC_RESPONSE"
)

// defaultTimeouts maps each action to its per-call deadline. Ping is
// short so active-peer discovery converges quickly; the chunk-carrying
// actions get a minute.
var defaultTimeouts = map[Action]time.Duration{
	ActionPing:     5 * time.Second,
	ActionStore:    60 * time.Second,
	ActionRetrieve: 60 * time.Second,
	ActionValidate: 60 * time.Second,
	ActionRemove:   60 * time.Second,
}

// requestData is the signed body.data of an RPC_REQUEST envelope.
type requestData struct {
	Action           Action          `json:"action"`
	TargetSS58       string          `json:"target_ss58_address"`
	Params           json.RawMessage `json:"params,omitempty"`
}

// RPCError carries a miner-reported failure.
type RPCError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// responseData is the body.data of an RPC_RESPONSE envelope.
type responseData struct {
	Action Action          `json:"action"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
}

// Result is the outcome of a Call: either Data is populated (success) or
// Err is non-nil. Elapsed is always recorded, even on failure, because
// MinerProcess.processing_time must be populated regardless of outcome.
type Result struct {
	Data    json.RawMessage
	Err     error
	Elapsed time.Duration
}

// Process converts a call outcome into the MinerProcess record events
// carry. ProcessingTime is populated from Elapsed whether or not the call
// succeeded.
func Process(chunkUUID, minerSS58 string, res Result) event.MinerProcess {
	return event.MinerProcess{
		ChunkUUID:      chunkUUID,
		MinerSS58:      minerSS58,
		Succeed:        res.Err == nil,
		ProcessingTime: res.Elapsed.Seconds(),
	}
}

// Call performs one stateless RPC: dial, send a signed request envelope,
// read a single response frame, close. addr is the miner's
// chain-advertised ip:port. params is marshaled as the request's params
// field. The call never returns a bare transport error to the caller;
// failures are classified into the util.ErrRpc* family so callers can
// surface succeed=false in a MinerProcess without special-casing.
func Call(keys *crypto.KeyPair, addr string, action Action, targetSS58 string, params interface{}) Result {
	start := time.Now()
	timeout, ok := defaultTimeouts[action]
	if !ok {
		timeout = 60 * time.Second
	}

	data, err := call(keys, addr, action, targetSS58, params, timeout)
	return Result{Data: data, Err: err, Elapsed: time.Since(start)}
}

func call(keys *crypto.KeyPair, addr string, action Action, targetSS58 string, params interface{}, timeout time.Duration) (json.RawMessage, error) {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return nil, util.WrapWithOp("minerrpc.Call", util.ErrRpcTransport)
	}

	deadline := time.Now().Add(timeout)
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, util.WrapWithOp("minerrpc.Call", util.ErrRpcTransport)
	}
	defer conn.Close()

	conn.SetDeadline(deadline)

	req, err := p2p.BuildEnvelope(keys, codeRPCRequest, requestData{
		Action:     action,
		TargetSS58: targetSS58,
		Params:     rawParams,
	})
	if err != nil {
		return nil, util.WrapWithOp("minerrpc.Call", util.ErrRpcTransport)
	}

	if err := p2p.WriteFrame(conn, req); err != nil {
		return nil, util.WrapWithOp("minerrpc.Call", util.ErrRpcTimeout)
	}

	env, err := p2p.ReadFrame(conn)
	if err != nil {
		return nil, util.WrapWithOp("minerrpc.Call", util.ErrRpcTimeout)
	}

	if _, valid, verr := env.Verify(); verr != nil || !valid {
		return nil, util.WrapWithOp("minerrpc.Call", util.ErrRpcSignatureInvalid)
	}

	var resp responseData
	if err := json.Unmarshal(env.Body.Data, &resp); err != nil {
		return nil, util.WrapWithOp("minerrpc.Call", util.ErrRpcTransport)
	}

	if resp.Error != nil {
		return nil, (&util.OpError{Op: "minerrpc.Call", Err: util.ErrRpcPeerError}).
			WithContext("code", resp.Error.Code).
			WithContext("message", resp.Error.Message)
	}

	return resp.Data, nil
}

// pingResponse is the data shape of a successful ping response.
type pingResponse struct {
	Type string `json:"type"`
}

// Ping calls the ping action and reports whether the responder identifies
// as a miner, a validator, or neither.
func Ping(keys *crypto.KeyPair, addr, targetSS58 string) (moduleType string, elapsed time.Duration, err error) {
	res := Call(keys, addr, ActionPing, targetSS58, struct{}{})
	if res.Err != nil {
		return "", res.Elapsed, res.Err
	}

	var pr pingResponse
	if err := json.Unmarshal(res.Data, &pr); err != nil {
		return "", res.Elapsed, util.WrapWithOp("minerrpc.Ping", util.ErrRpcTransport)
	}
	return pr.Type, res.Elapsed, nil
}

// storeResponse is the data shape of a successful store response.
type storeResponse struct {
	ChunkUUID string `json:"chunk_uuid"`
}

// Store calls the store action, uploading chunk (already base64-encoded)
// into folder, and returns the miner-assigned chunk UUID.
func Store(keys *crypto.KeyPair, addr, targetSS58, folder, chunkBase64 string) (Result, string) {
	res := Call(keys, addr, ActionStore, targetSS58, map[string]string{
		"folder": folder,
		"chunk":  chunkBase64,
	})
	if res.Err != nil {
		return res, ""
	}

	var sr storeResponse
	if err := json.Unmarshal(res.Data, &sr); err != nil {
		res.Err = util.WrapWithOp("minerrpc.Store", util.ErrRpcTransport)
		return res, ""
	}
	return res, sr.ChunkUUID
}

// retrieveResponse is the data shape of a successful retrieve response.
type retrieveResponse struct {
	Chunk string `json:"chunk"`
}

// Retrieve calls the retrieve action and returns the base64-encoded chunk.
func Retrieve(keys *crypto.KeyPair, addr, targetSS58, folder, chunkUUID string) (Result, string) {
	res := Call(keys, addr, ActionRetrieve, targetSS58, map[string]string{
		"folder":     folder,
		"chunk_uuid": chunkUUID,
	})
	if res.Err != nil {
		return res, ""
	}

	var rr retrieveResponse
	if err := json.Unmarshal(res.Data, &rr); err != nil {
		res.Err = util.WrapWithOp("minerrpc.Retrieve", util.ErrRpcTransport)
		return res, ""
	}
	return res, rr.Chunk
}

// validateResponse is the data shape of a successful validate response.
type validateResponse struct {
	Hash string `json:"hash"`
}

// Validate calls the validate action with a freshness nonce and returns
// the miner's attested hash of the chunk.
func Validate(keys *crypto.KeyPair, addr, targetSS58, folder, chunkUUID, nonce string) (Result, string) {
	res := Call(keys, addr, ActionValidate, targetSS58, map[string]string{
		"folder":     folder,
		"chunk_uuid": chunkUUID,
		"nonce":      nonce,
	})
	if res.Err != nil {
		return res, ""
	}

	var vr validateResponse
	if err := json.Unmarshal(res.Data, &vr); err != nil {
		res.Err = util.WrapWithOp("minerrpc.Validate", util.ErrRpcTransport)
		return res, ""
	}
	return res, vr.Hash
}

// Remove calls the remove action.
func Remove(keys *crypto.KeyPair, addr, targetSS58, folder, chunkUUID string) Result {
	return Call(keys, addr, ActionRemove, targetSS58, map[string]string{
		"folder":     folder,
		"chunk_uuid": chunkUUID,
	})
}

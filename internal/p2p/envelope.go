// Package p2p implements the validator-side peer-to-peer networking core:
// signed-message framing, the connection pool, the inbound server, the
// outbound reconciliation connector, the per-peer receiver, and liveness
// probing. Every frame on the wire is a length-prefixed JSON envelope whose
// body is signed over its canonical encoding.
package p2p

import (
	"encoding/json"

	"github.com/subnetcore/validator/internal/crypto"
	"github.com/subnetcore/validator/internal/util"
)

// MessageCode is the closed enum every envelope's body.code is drawn from.
// Unknown codes are logged and dropped by the receiver rather than
// rejected as malformed; only framing, signature and identity violations
// close the peer.
type MessageCode string

const (
	CodeIdentifier    MessageCode = "IDENTIFIER"
	CodePing          MessageCode = "PING"
	CodePong          MessageCode = "PONG"
	CodeEvent         MessageCode = "EVENT"
	CodeEventBatch    MessageCode = "EVENT_BATCH"
	CodeDBSyncRequest MessageCode = "DB_SYNC_REQUEST"
	CodeDBSyncResp    MessageCode = "DB_SYNC_RESPONSE"
)

// Body is the signed portion of an envelope.
type Body struct {
	Code MessageCode     `json:"code"`
	Data json.RawMessage `json:"data"`
}

// Envelope is the signed wire message: a body plus a detached signature
// and the signer's public key, from which the peer's ss58_address is
// derivable.
type Envelope struct {
	Body         Body   `json:"body"`
	SignatureHex string `json:"signature_hex"`
	PublicKeyHex string `json:"public_key_hex"`
}

// BuildEnvelope constructs and signs an envelope carrying code/data with kp.
func BuildEnvelope(kp *crypto.KeyPair, code MessageCode, data interface{}) (*Envelope, error) {
	rawData, err := json.Marshal(data)
	if err != nil {
		return nil, util.WrapWithOp("p2p.BuildEnvelope", err)
	}

	body := Body{Code: code, Data: rawData}
	sig, _, err := crypto.SignCanonical(kp, body)
	if err != nil {
		return nil, util.WrapWithOp("p2p.BuildEnvelope", err)
	}

	return &Envelope{
		Body:         body,
		SignatureHex: util.EncodeHex(sig),
		PublicKeyHex: kp.PublicKeyHex(),
	}, nil
}

// Verify checks that SignatureHex is a valid signature over the canonical
// encoding of Body by the key in PublicKeyHex, and returns the derived
// ss58 address for convenience.
func (e *Envelope) Verify() (ss58Address string, ok bool, err error) {
	pubKey, err := crypto.ParsePublicKeyHex(e.PublicKeyHex)
	if err != nil {
		return "", false, util.WrapWithOp("p2p.Verify", err)
	}

	sig, err := util.DecodeHex(e.SignatureHex)
	if err != nil {
		return "", false, util.WrapWithOp("p2p.Verify", err)
	}

	valid, err := crypto.VerifyCanonical(pubKey, sig, e.Body)
	if err != nil {
		return "", false, util.WrapWithOp("p2p.Verify", err)
	}

	return crypto.DeriveAddress(pubKey), valid, nil
}

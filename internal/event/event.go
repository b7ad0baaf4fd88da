// Package event defines the mempool's unit of work: a signed, validator
// co-signed record of a miner operation requested by a user.
package event

import (
	"github.com/google/uuid"
	"github.com/subnetcore/validator/internal/util"
)

// Kind is the closed set of operations an Event can record.
type Kind string

const (
	KindStore    Kind = "Store"
	KindRetrieve Kind = "Retrieve"
	KindValidate Kind = "Validate"
	KindRemove   Kind = "Remove"
)

// MinerProcess records the outcome of one miner RPC call performed while
// servicing an Event.
type MinerProcess struct {
	ChunkUUID      string  `json:"chunk_uuid"`
	MinerSS58      string  `json:"miner_ss58_address"`
	Succeed        bool    `json:"succeed"`
	ProcessingTime float64 `json:"processing_time"`
}

// Event is the mempool's unit of work: a validator-signed record of a
// user-initiated miner operation. Once admitted into a mempool it is
// immutable; dedup is by UUID alone.
type Event struct {
	UUID                 string                 `json:"uuid"`
	ValidatorSS58Address string                 `json:"validator_ss58_address"`
	EventParams          EventParams            `json:"event_params"`
	EventSignedParams    string                 `json:"event_signed_params"`
	UserSS58Address      string                 `json:"user_ss58_address"`
	InputParams          map[string]interface{} `json:"input_params"`
	InputSignedParams    string                 `json:"input_signed_params"`
	Kind                 Kind                   `json:"kind"`
}

// EventParams is the validator-attested payload signed by
// EventSignedParams; it is what verify(event_signed_params, event_params,
// validator_ss58_address) checks.
type EventParams struct {
	MinerProcesses []MinerProcess `json:"miner_processes"`
	CreatedAt      uint64         `json:"created_at"`
}

// NewEvent builds an Event stamped with the current time and a freshly
// generated UUID, ready for signing by the caller before it is inserted
// into a mempool or sent on the wire.
func NewEvent(validatorAddr, userAddr string, kind Kind, inputParams map[string]interface{}) *Event {
	return &Event{
		UUID:                 uuid.NewString(),
		ValidatorSS58Address: validatorAddr,
		UserSS58Address:      userAddr,
		Kind:                 kind,
		InputParams:          inputParams,
		EventParams: EventParams{
			MinerProcesses: nil,
			CreatedAt:      util.Now(),
		},
	}
}

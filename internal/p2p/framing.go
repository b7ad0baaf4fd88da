package p2p

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"unicode/utf8"

	"github.com/subnetcore/validator/internal/util"
)

// MaxFrameSize is the 16 MiB cap on a single frame's JSON body. A length
// prefix above it fails the read before any allocation happens.
const MaxFrameSize = 16 * 1024 * 1024

// WriteFrame writes env to w as a 4-byte big-endian length prefix followed
// by its UTF-8 JSON encoding, issued as a single Write call so a lock held
// around one WriteFrame call (see the p2p.syncConn wrapper) serializes a
// whole frame rather than just its header or body half.
func WriteFrame(w io.Writer, env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return util.WrapWithOp("p2p.WriteFrame", err)
	}
	if len(data) > MaxFrameSize {
		return util.WrapWithOp("p2p.WriteFrame", util.ErrFrameTooLarge)
	}

	framed := make([]byte, 4+len(data))
	binary.BigEndian.PutUint32(framed[:4], uint32(len(data)))
	copy(framed[4:], data)

	if _, err := w.Write(framed); err != nil {
		return util.WrapWithOp("p2p.WriteFrame", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed JSON envelope from r. It fails with
// ErrMalformedFrame on length overflow, a truncated body, invalid UTF-8, or
// a JSON parse error.
func ReadFrame(r io.Reader) (*Envelope, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, util.WrapWithOp("p2p.ReadFrame", err)
	}

	length := binary.BigEndian.Uint32(header[:])
	if length > MaxFrameSize {
		return nil, (&util.OpError{Op: "p2p.ReadFrame", Err: util.ErrMalformedFrame}).WithContext("cause", util.ErrFrameTooLarge.Error())
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, (&util.OpError{Op: "p2p.ReadFrame", Err: util.ErrMalformedFrame}).WithContext("cause", err.Error())
	}

	if !utf8.Valid(body) {
		return nil, (&util.OpError{Op: "p2p.ReadFrame", Err: util.ErrMalformedFrame}).WithContext("cause", "invalid utf8")
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, (&util.OpError{Op: "p2p.ReadFrame", Err: util.ErrMalformedFrame}).WithContext("cause", err.Error())
	}

	return &env, nil
}

package crypto

import (
	"bytes"
	"encoding/json"
	"sort"
)

// CanonicalJSON re-encodes v as sorted-key, whitespace-free JSON. Signing
// always goes through this path rather than directly marshaling a struct,
// so the canonicalization guarantee does not depend on map key sort order
// being an implementation detail of one Go type.
func CanonicalJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := encodeCanonical(&buf, generic); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeCanonical(buf *bytes.Buffer, v interface{}) error {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			keyBytes, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(keyBytes)
			buf.WriteByte(':')
			if err := encodeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil

	case []interface{}:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(encoded)
		return nil
	}
}

// SignCanonical signs the canonical JSON encoding of body.
func SignCanonical(kp *KeyPair, body interface{}) (signature []byte, canonical []byte, err error) {
	canonical, err = CanonicalJSON(body)
	if err != nil {
		return nil, nil, err
	}
	return kp.Sign(canonical), canonical, nil
}

// VerifyCanonical verifies a signature against the canonical JSON encoding
// of body.
func VerifyCanonical(publicKey, signature []byte, body interface{}) (bool, error) {
	canonical, err := CanonicalJSON(body)
	if err != nil {
		return false, err
	}
	return VerifySignature(publicKey, canonical, signature), nil
}

package crypto

import (
	"crypto/ed25519"
	"errors"

	"github.com/mr-tron/base58"
)

// AddressVersion is the single version byte prefixed to every encoded
// address payload, distinguishing this subnet's addresses from other
// base58check schemes sharing the same alphabet.
const AddressVersion byte = 0x2a

// DeriveAddress derives the SS58-style address for an Ed25519 public key:
// base58 over (version || pubkey || checksum), where the checksum is the
// leading two bytes of BLAKE2b-512("SS58PRE" || version || pubkey).
func DeriveAddress(publicKey []byte) string {
	payload := make([]byte, 0, 1+len(publicKey))
	payload = append(payload, AddressVersion)
	payload = append(payload, publicKey...)

	checksum := Checksum(payload)
	full := append(payload, checksum...)

	return base58.Encode(full)
}

// DecodeAddress decodes an SS58-style address back to its raw Ed25519
// public key, verifying the version byte and checksum.
func DecodeAddress(address string) ([]byte, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, errors.New("invalid base58 address")
	}

	if len(raw) != 1+ed25519.PublicKeySize+2 {
		return nil, errors.New("invalid address length")
	}

	payload := raw[:len(raw)-2]
	checksum := raw[len(raw)-2:]

	if !VerifyChecksum(payload, checksum) {
		return nil, errors.New("invalid address checksum")
	}

	if payload[0] != AddressVersion {
		return nil, errors.New("unrecognized address version")
	}

	pubKey := make([]byte, ed25519.PublicKeySize)
	copy(pubKey, payload[1:])
	return pubKey, nil
}

// ValidateAddress checks that an address decodes cleanly.
func ValidateAddress(address string) error {
	_, err := DecodeAddress(address)
	return err
}

// IsValidAddress reports whether address is a well-formed SS58-style address.
func IsValidAddress(address string) bool {
	return ValidateAddress(address) == nil
}

// ShortAddress returns a shortened address for log lines.
func ShortAddress(address string) string {
	if len(address) <= 16 {
		return address
	}
	return address[:10] + "..." + address[len(address)-6:]
}

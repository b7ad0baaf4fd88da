package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// ss58ChecksumPrefix is mixed into the checksum preimage so an address
// checksum can never collide with a hash of the bare payload.
var ss58ChecksumPrefix = []byte("SS58PRE")

// Hash256 returns the SHA-256 hash of data.
func Hash256(data []byte) []byte {
	hash := sha256.Sum256(data)
	return hash[:]
}

// Hash256Hex returns the hex-encoded SHA-256 hash of data.
func Hash256Hex(data []byte) string {
	return hex.EncodeToString(Hash256(data))
}

// DoubleHash256 returns SHA256(SHA256(data)).
func DoubleHash256(data []byte) []byte {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return second[:]
}

// Checksum returns the 2-byte address checksum: the leading bytes of
// BLAKE2b-512("SS58PRE" || payload).
func Checksum(payload []byte) []byte {
	preimage := make([]byte, 0, len(ss58ChecksumPrefix)+len(payload))
	preimage = append(preimage, ss58ChecksumPrefix...)
	preimage = append(preimage, payload...)
	full := blake2b.Sum512(preimage)
	return full[:2]
}

// VerifyChecksum reports whether checksum matches Checksum(payload).
func VerifyChecksum(payload, checksum []byte) bool {
	if len(checksum) != 2 {
		return false
	}
	calculated := Checksum(payload)
	return calculated[0] == checksum[0] && calculated[1] == checksum[1]
}

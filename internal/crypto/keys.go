package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"os"
)

// KeyPair is an Ed25519 identity key pair. This is the only key type the
// networking core signs with; the subnet's signing primitive is otherwise
// an external collaborator.
type KeyPair struct {
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
}

// NewKeyPair generates a new Ed25519 key pair.
func NewKeyPair() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}

	return &KeyPair{PublicKey: pub, PrivateKey: priv}, nil
}

// NewKeyPairFromSeed reconstructs a key pair from its 32-byte seed.
func NewKeyPairFromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, errors.New("invalid seed size")
	}

	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	return &KeyPair{PublicKey: pub, PrivateKey: priv}, nil
}

// LoadKeyPair reads a hex-encoded seed from path and reconstructs the key
// pair. This is the validator identity loaded at startup from
// Config.KeyFile.
func LoadKeyPair(path string) (*KeyPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	seed, err := hex.DecodeString(trimNewline(string(data)))
	if err != nil {
		return nil, errors.New("key file does not contain valid hex")
	}

	return NewKeyPairFromSeed(seed)
}

// SaveKeyPair writes the key pair's seed, hex-encoded, to path.
func SaveKeyPair(kp *KeyPair, path string) error {
	seed := kp.PrivateKey.Seed()
	return os.WriteFile(path, []byte(hex.EncodeToString(seed)+"\n"), 0600)
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r' || s[len(s)-1] == ' ') {
		s = s[:len(s)-1]
	}
	return s
}

// Sign signs a message with the private key.
func (kp *KeyPair) Sign(message []byte) []byte {
	return ed25519.Sign(kp.PrivateKey, message)
}

// Verify verifies a signature against the pair's own public key.
func (kp *KeyPair) Verify(message, signature []byte) bool {
	return ed25519.Verify(kp.PublicKey, message, signature)
}

// PublicKeyHex returns the hex-encoded public key.
func (kp *KeyPair) PublicKeyHex() string {
	return hex.EncodeToString(kp.PublicKey)
}

// Address returns the SS58-style address derived from the public key.
func (kp *KeyPair) Address() string {
	return DeriveAddress(kp.PublicKey)
}

// VerifySignature verifies a detached signature given a raw public key.
func VerifySignature(publicKey, message, signature []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	if len(signature) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(publicKey, message, signature)
}

// ParsePublicKeyHex parses a hex-encoded public key.
func ParsePublicKeyHex(hexKey string) (ed25519.PublicKey, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, err
	}
	if len(key) != ed25519.PublicKeySize {
		return nil, errors.New("invalid public key length")
	}
	return ed25519.PublicKey(key), nil
}

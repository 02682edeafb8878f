package integrity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

var ErrInvalidSignature = errors.New("signature does not verify")

// Signer produces detached Ed25519 signatures encoded as base64.
type Signer struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
}

// NewSigner builds a signer from a hex encoded 32-byte seed. An empty seed
// generates an ephemeral key, which is only useful for single-process runs.
func NewSigner(seedHex string) (*Signer, error) {
	var privateKey ed25519.PrivateKey
	if seedHex == "" {
		_, generated, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
		privateKey = generated
	} else {
		seed, err := hex.DecodeString(seedHex)
		if err != nil {
			return nil, fmt.Errorf("decode signing seed: %w", err)
		}
		if len(seed) != ed25519.SeedSize {
			return nil, fmt.Errorf("signing seed has %d bytes, want %d", len(seed), ed25519.SeedSize)
		}
		privateKey = ed25519.NewKeyFromSeed(seed)
	}
	return &Signer{
		privateKey: privateKey,
		publicKey:  privateKey.Public().(ed25519.PublicKey),
	}, nil
}

func (s *Signer) Sign(payload []byte) (string, error) {
	return base64.StdEncoding.EncodeToString(ed25519.Sign(s.privateKey, payload)), nil
}

func (s *Signer) PublicKeyHex() string {
	return hex.EncodeToString(s.publicKey)
}

// Verify checks signature against payload with publicKeyHex.
func Verify(publicKeyHex string, payload []byte, signature string) error {
	publicKey, err := hex.DecodeString(publicKeyHex)
	if err != nil || len(publicKey) != ed25519.PublicKeySize {
		return fmt.Errorf("invalid public key: %w", ErrInvalidSignature)
	}
	raw, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return fmt.Errorf("decode signature: %w", ErrInvalidSignature)
	}
	if !ed25519.Verify(ed25519.PublicKey(publicKey), payload, raw) {
		return ErrInvalidSignature
	}
	return nil
}

package integrity

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 digest.
type Hash [32]byte

// Key is a 32-byte BLAKE3 key. Distinct keys separate hash domains so the
// same bytes never hash alike in two roles.
type Key [32]byte

// DomainKey derives a fixed domain key from a context string.
func DomainKey(context string) Key {
	var key Key
	blake3.DeriveKey(context, nil, key[:])
	return key
}

// SecretKey derives a domain key bound to secret material.
func SecretKey(context string, secret []byte) Key {
	var key Key
	blake3.DeriveKey(context, secret, key[:])
	return key
}

// Sum computes the keyed BLAKE3 hash of data under key.
func Sum(key Key, data []byte) Hash {
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("integrity: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	_, _ = hasher.Write(data)
	var out Hash
	copy(out[:], hasher.Sum(nil))
	return out
}

// SumValue hashes the deterministic CBOR encoding of v under key.
func SumValue(key Key, v any) (Hash, error) {
	encoded, err := Marshal(v)
	if err != nil {
		return Hash{}, fmt.Errorf("encode for hashing: %w", err)
	}
	return Sum(key, encoded), nil
}

// MerkleRoot folds hashes pairwise bottom-up under key. An odd trailing node
// is promoted unchanged. The root of an empty list is the zero hash.
func MerkleRoot(key Key, hashes []Hash) Hash {
	if len(hashes) == 0 {
		return Hash{}
	}
	level := make([]Hash, len(hashes))
	copy(level, hashes)

	var combined [64]byte
	for len(level) > 1 {
		next := make([]Hash, (len(level)+1)/2)
		for i := 0; i < len(level)-1; i += 2 {
			copy(combined[:32], level[i][:])
			copy(combined[32:], level[i+1][:])
			next[i/2] = Sum(key, combined[:])
		}
		if len(level)%2 == 1 {
			next[len(next)-1] = level[len(level)-1]
		}
		level = next
	}
	return level[0]
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// ParseHash decodes the hex form produced by Hash.String.
func ParseHash(value string) (Hash, error) {
	var out Hash
	decoded, err := hex.DecodeString(value)
	if err != nil {
		return Hash{}, fmt.Errorf("parse hash %q: %w", value, err)
	}
	if len(decoded) != len(out) {
		return Hash{}, fmt.Errorf("parse hash %q: got %d bytes, want %d", value, len(decoded), len(out))
	}
	copy(out[:], decoded)
	return out, nil
}

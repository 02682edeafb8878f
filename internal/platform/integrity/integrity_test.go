package integrity

import (
	"errors"
	"strings"
	"testing"
)

func TestMarshalIsDeterministicAcrossMapOrder(t *testing.T) {
	first, err := Marshal(map[string]int{"b": 2, "a": 1, "c": 3})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := Marshal(map[string]int{"c": 3, "a": 1, "b": 2})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(first) != string(second) {
		t.Fatal("equal maps must encode to equal bytes")
	}
}

func TestDomainKeysSeparateHashes(t *testing.T) {
	data := []byte("ballot")
	ballotKey := DomainKey("cau-eleitoral ballot v1")
	tallyKey := DomainKey("cau-eleitoral tally v1")
	if Sum(ballotKey, data) == Sum(tallyKey, data) {
		t.Fatal("different domains must not collide")
	}
	if SecretKey("voter", []byte("s1")) == SecretKey("voter", []byte("s2")) {
		t.Fatal("different secrets must derive different keys")
	}
}

func TestMerkleRoot(t *testing.T) {
	key := DomainKey("merkle test")
	leaves := []Hash{Sum(key, []byte("a")), Sum(key, []byte("b")), Sum(key, []byte("c"))}

	if (MerkleRoot(key, nil) != Hash{}) {
		t.Fatal("empty list must fold to the zero hash")
	}
	if MerkleRoot(key, leaves[:1]) != leaves[0] {
		t.Fatal("single leaf is its own root")
	}
	root := MerkleRoot(key, leaves)
	if root != MerkleRoot(key, leaves) {
		t.Fatal("root must be stable")
	}
	swapped := []Hash{leaves[1], leaves[0], leaves[2]}
	if root == MerkleRoot(key, swapped) {
		t.Fatal("leaf order must affect the root")
	}
	if leaves[0] != Sum(key, []byte("a")) {
		t.Fatal("input slice must not be modified")
	}
}

func TestParseHashRoundTripAndRejects(t *testing.T) {
	hash := Sum(DomainKey("parse"), []byte("x"))
	parsed, err := ParseHash(hash.String())
	if err != nil || parsed != hash {
		t.Fatalf("round trip failed: %v", err)
	}
	if _, err := ParseHash("zz"); err == nil {
		t.Fatal("expected hex error")
	}
	if _, err := ParseHash(strings.Repeat("ab", 16)); err == nil {
		t.Fatal("expected length error")
	}
}

func TestSignerSignAndVerify(t *testing.T) {
	signer, err := NewSigner(strings.Repeat("01", 32))
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	payload := []byte("tally-1:result-hash")
	signature, err := signer.Sign(payload)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := Verify(signer.PublicKeyHex(), payload, signature); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := Verify(signer.PublicKeyHex(), []byte("tampered"), signature); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected invalid signature, got %v", err)
	}

	again, err := NewSigner(strings.Repeat("01", 32))
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	if again.PublicKeyHex() != signer.PublicKeyHex() {
		t.Fatal("same seed must yield the same key")
	}
	if _, err := NewSigner("abcd"); err == nil {
		t.Fatal("expected short seed to be rejected")
	}
}

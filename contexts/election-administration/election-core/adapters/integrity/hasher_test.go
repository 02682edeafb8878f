package integrity_test

import (
	"errors"
	"testing"
	"time"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/adapters/integrity"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
)

func newHasher(t *testing.T, secret string) *integrity.Hasher {
	t.Helper()
	hasher, err := integrity.NewHasher(secret)
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	return hasher
}

func TestNewHasherRequiresSecret(t *testing.T) {
	if _, err := integrity.NewHasher("  "); !errors.Is(err, integrity.ErrVoterHashSecretRequired) {
		t.Fatalf("expected secret required, got %v", err)
	}
}

func TestVoterHashIsElectionScopedAndKeyed(t *testing.T) {
	hasher := newHasher(t, "secret-a")
	first, err := hasher.VoterHash("election-1", "voter-1")
	if err != nil {
		t.Fatalf("voter hash: %v", err)
	}
	again, _ := hasher.VoterHash("election-1", "voter-1")
	otherElection, _ := hasher.VoterHash("election-2", "voter-1")
	otherSecret, _ := newHasher(t, "secret-b").VoterHash("election-1", "voter-1")

	if first != again {
		t.Fatal("voter hash must be deterministic")
	}
	if first == otherElection {
		t.Fatal("voter hash must differ across elections")
	}
	if first == otherSecret {
		t.Fatal("voter hash must depend on the secret")
	}
	if _, err := hasher.VoterHash("", "voter-1"); err == nil {
		t.Fatal("expected error without election")
	}
}

func TestBallotHashCoversEveryContentField(t *testing.T) {
	hasher := newHasher(t, "secret")
	base := entities.BallotContent{
		ElectionID: "election-1",
		SlateID:    "slate-a",
		Kind:       entities.VoteKindValid,
		Nonce:      "nonce-1",
		CastAt:     time.Date(2024, 10, 1, 12, 0, 0, 123456000, time.UTC),
	}
	reference, err := hasher.BallotHash(base)
	if err != nil {
		t.Fatalf("ballot hash: %v", err)
	}
	if len(reference) != 64 {
		t.Fatalf("expected 32-byte hex hash, got %q", reference)
	}

	// The same instant in another location hashes identically.
	local := base
	local.CastAt = base.CastAt.In(time.FixedZone("BRT", -3*3600))
	if got, _ := hasher.BallotHash(local); got != reference {
		t.Fatal("ballot hash must not depend on the time zone")
	}

	mutations := map[string]func(*entities.BallotContent){
		"election": func(c *entities.BallotContent) { c.ElectionID = "election-2" },
		"slate":    func(c *entities.BallotContent) { c.SlateID = "slate-b" },
		"kind":     func(c *entities.BallotContent) { c.Kind = entities.VoteKindBlank },
		"nonce":    func(c *entities.BallotContent) { c.Nonce = "nonce-2" },
		"cast_at":  func(c *entities.BallotContent) { c.CastAt = c.CastAt.Add(time.Microsecond) },
	}
	for name, mutate := range mutations {
		content := base
		mutate(&content)
		got, err := hasher.BallotHash(content)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got == reference {
			t.Fatalf("changing %s must change the ballot hash", name)
		}
	}
}

func TestTallyInputHashCommitsToBallotSet(t *testing.T) {
	hasher := newHasher(t, "secret")
	input := entities.TallyInput{
		ElectionID:    "election-1",
		Mode:          entities.TallyModeFinal,
		EligibleCount: 10,
		BallotHashes:  []string{"aa", "bb", "cc"},
	}
	reference, err := hasher.TallyInputHash(input)
	if err != nil {
		t.Fatalf("input hash: %v", err)
	}

	withNil := input
	withNil.ExcludedSlates = []string{}
	if got, _ := hasher.TallyInputHash(withNil); got != reference {
		t.Fatal("nil and empty excluded slates must hash the same")
	}

	missing := input
	missing.BallotHashes = []string{"aa", "bb"}
	if got, _ := hasher.TallyInputHash(missing); got == reference {
		t.Fatal("dropping a ballot must change the input hash")
	}

	nullified := input
	nullified.NullifiedBallotHashes = []string{"bb"}
	if got, _ := hasher.TallyInputHash(nullified); got == reference {
		t.Fatal("a nullification must change the input hash")
	}
}

func TestDrawKeyIsStablePerSeed(t *testing.T) {
	hasher := newHasher(t, "secret")
	seed, err := hasher.NewDrawSeed()
	if err != nil {
		t.Fatalf("new seed: %v", err)
	}
	if hasher.DrawKey(seed, "slate-a") != hasher.DrawKey(seed, "slate-a") {
		t.Fatal("draw key must be deterministic")
	}
	if hasher.DrawKey(seed, "slate-a") == hasher.DrawKey(seed, "slate-b") {
		t.Fatal("draw keys must differ per slate")
	}
	other, _ := hasher.NewDrawSeed()
	if other == seed {
		t.Fatal("draw seeds must be random")
	}
}

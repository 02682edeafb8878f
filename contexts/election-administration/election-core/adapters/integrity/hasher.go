package integrity

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/internal/platform/integrity"
)

var ErrVoterHashSecretRequired = errors.New("voter hash secret is required")

// Hash domains. Changing any context string invalidates every stored hash of
// that kind.
var (
	ballotDomain      = integrity.DomainKey("cau-eleitoral 2024 ballot content v1")
	tallyInputDomain  = integrity.DomainKey("cau-eleitoral 2024 tally input v1")
	ballotSetDomain   = integrity.DomainKey("cau-eleitoral 2024 tally ballot set v1")
	tallyResultDomain = integrity.DomainKey("cau-eleitoral 2024 tally result v1")
	drawDomain        = integrity.DomainKey("cau-eleitoral 2024 tie-break draw v1")
)

// Hasher implements the election-core hashing port with deterministic CBOR
// and keyed BLAKE3.
type Hasher struct {
	voterKey integrity.Key
}

func NewHasher(voterHashSecret string) (*Hasher, error) {
	if strings.TrimSpace(voterHashSecret) == "" {
		return nil, ErrVoterHashSecretRequired
	}
	return &Hasher{
		voterKey: integrity.SecretKey("cau-eleitoral 2024 voter identity v1", []byte(voterHashSecret)),
	}, nil
}

// VoterHash is keyed per election: the election key is derived from the
// secret key and the election ID, so one identity hashes differently in
// every election and the hash cannot be reversed without the secret.
func (h *Hasher) VoterHash(electionID string, identityID string) (string, error) {
	if strings.TrimSpace(electionID) == "" || strings.TrimSpace(identityID) == "" {
		return "", errors.New("voter hash needs election and identity")
	}
	electionKey := integrity.Key(integrity.Sum(h.voterKey, []byte(electionID)))
	return integrity.Sum(electionKey, []byte(identityID)).String(), nil
}

type ballotRecord struct {
	_          struct{} `cbor:",toarray"`
	ElectionID string
	SlateID    string
	Kind       string
	Nonce      string
	CastAtUS   int64
}

func (h *Hasher) BallotHash(content entities.BallotContent) (string, error) {
	sum, err := integrity.SumValue(ballotDomain, ballotRecord{
		ElectionID: content.ElectionID,
		SlateID:    content.SlateID,
		Kind:       string(content.Kind),
		Nonce:      content.Nonce,
		CastAtUS:   content.CastAt.UTC().UnixMicro(),
	})
	if err != nil {
		return "", err
	}
	return sum.String(), nil
}

type tallyInputRecord struct {
	_              struct{} `cbor:",toarray"`
	ElectionID     string
	Mode           string
	EligibleCount  int
	BallotCount    int
	BallotRoot     []byte
	NullifiedCount int
	NullifiedRoot  []byte
	ExcludedSlates []string
	DrawSeed       string
}

// TallyInputHash commits to the ballot and nullification sets through Merkle
// roots, so the stored hash stays small while covering every ballot.
func (h *Hasher) TallyInputHash(input entities.TallyInput) (string, error) {
	ballotRoot := integrity.MerkleRoot(ballotSetDomain, leaves(input.BallotHashes))
	nullifiedRoot := integrity.MerkleRoot(ballotSetDomain, leaves(input.NullifiedBallotHashes))
	excluded := input.ExcludedSlates
	if excluded == nil {
		excluded = []string{}
	}
	sum, err := integrity.SumValue(tallyInputDomain, tallyInputRecord{
		ElectionID:     input.ElectionID,
		Mode:           string(input.Mode),
		EligibleCount:  input.EligibleCount,
		BallotCount:    len(input.BallotHashes),
		BallotRoot:     ballotRoot[:],
		NullifiedCount: len(input.NullifiedBallotHashes),
		NullifiedRoot:  nullifiedRoot[:],
		ExcludedSlates: excluded,
		DrawSeed:       input.DrawSeed,
	})
	if err != nil {
		return "", err
	}
	return sum.String(), nil
}

type slateRowRecord struct {
	_                 struct{} `cbor:",toarray"`
	SlateID           string
	Votes             int
	PercentValid      float64
	Rank              int
	Elected           bool
	TieBreakCriterion string
}

type tallyOutcomeRecord struct {
	_              struct{} `cbor:",toarray"`
	ElectionID     string
	Mode           string
	PercentCounted float64
	EligibleCount  int
	VotedCount     int
	AbstainedCount int
	ValidCount     int
	BlankCount     int
	NullCount      int
	VoidedCount    int
	InputHash      string
	Slates         []slateRowRecord
}

func (h *Hasher) TallyResultHash(outcome entities.TallyOutcome) (string, error) {
	rows := make([]slateRowRecord, 0, len(outcome.Slates))
	for _, row := range outcome.Slates {
		rows = append(rows, slateRowRecord{
			SlateID:           row.SlateID,
			Votes:             row.Votes,
			PercentValid:      row.PercentValid,
			Rank:              row.Rank,
			Elected:           row.Elected,
			TieBreakCriterion: string(row.TieBreakCriterion),
		})
	}
	sum, err := integrity.SumValue(tallyResultDomain, tallyOutcomeRecord{
		ElectionID:     outcome.ElectionID,
		Mode:           string(outcome.Mode),
		PercentCounted: outcome.PercentCounted,
		EligibleCount:  outcome.EligibleCount,
		VotedCount:     outcome.VotedCount,
		AbstainedCount: outcome.AbstainedCount,
		ValidCount:     outcome.ValidCount,
		BlankCount:     outcome.BlankCount,
		NullCount:      outcome.NullCount,
		VoidedCount:    outcome.VoidedCount,
		InputHash:      outcome.InputHash,
		Slates:         rows,
	})
	if err != nil {
		return "", err
	}
	return sum.String(), nil
}

func (h *Hasher) DrawKey(seed string, slateID string) string {
	return integrity.Sum(drawDomain, []byte(seed+"\x00"+slateID)).String()
}

func (h *Hasher) NewDrawSeed() (string, error) {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(seed[:]), nil
}

// leaves turns hex ballot hashes into Merkle leaves. Values that are not
// 32-byte hex are hashed so that arbitrary strings still commit.
func leaves(values []string) []integrity.Hash {
	out := make([]integrity.Hash, 0, len(values))
	for _, value := range values {
		hash, err := integrity.ParseHash(value)
		if err != nil {
			hash = integrity.Sum(ballotSetDomain, []byte(value))
		}
		out = append(out, hash)
	}
	return out
}

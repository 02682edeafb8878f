package integrity

import (
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/entities"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/internal/platform/integrity"
)

var verdictDomain = integrity.DomainKey("cau-eleitoral 2024 judgment verdict v1")

// Stamper computes the content stamp of a verdict. The stamp covers every
// field except VerdictID and the stamp itself, so an identical decision
// stamps alike wherever it is stored.
type Stamper struct{}

type voteRecord struct {
	_        struct{} `cbor:",toarray"`
	MemberID string
	Choice   string
	CastAtUS int64
}

type verdictRecord struct {
	_                   struct{} `cbor:",toarray"`
	CaseID              string
	SessionID           string
	ElectionID          string
	AppealOf            string
	Votes               []voteRecord
	Grants              int
	Denials             int
	Abstentions         int
	DeadlineAbstentions []string
	Resolution          string
	DecisionKind        string
	TieBreakerID        string
	TieBreakChoice      string
	Rationale           string
	RemedyAction        string
	RemedySlateID       string
	RemedyBallotHash    string
	DecidedBy           string
	DecidedAtUS         int64
}

func (Stamper) Stamp(verdict entities.Verdict) (string, error) {
	votes := make([]voteRecord, 0, len(verdict.Votes))
	for _, vote := range verdict.Votes {
		votes = append(votes, voteRecord{
			MemberID: vote.MemberID,
			Choice:   string(vote.Choice),
			CastAtUS: vote.CastAt.UTC().UnixMicro(),
		})
	}
	abstentions := verdict.DeadlineAbstentions
	if abstentions == nil {
		abstentions = []string{}
	}
	sum, err := integrity.SumValue(verdictDomain, verdictRecord{
		CaseID:              verdict.CaseID,
		SessionID:           verdict.SessionID,
		ElectionID:          verdict.ElectionID,
		AppealOf:            verdict.AppealOf,
		Votes:               votes,
		Grants:              verdict.Grants,
		Denials:             verdict.Denials,
		Abstentions:         verdict.Abstentions,
		DeadlineAbstentions: abstentions,
		Resolution:          string(verdict.Resolution),
		DecisionKind:        string(verdict.DecisionKind),
		TieBreakerID:        verdict.TieBreakerID,
		TieBreakChoice:      string(verdict.TieBreakChoice),
		Rationale:           verdict.Rationale,
		RemedyAction:        string(verdict.Remedy.Action),
		RemedySlateID:       verdict.Remedy.SlateID,
		RemedyBallotHash:    verdict.Remedy.BallotHash,
		DecidedBy:           verdict.DecidedBy,
		DecidedAtUS:         verdict.DecidedAt.UTC().UnixMicro(),
	})
	if err != nil {
		return "", err
	}
	return sum.String(), nil
}

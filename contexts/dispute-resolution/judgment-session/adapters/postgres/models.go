package postgresadapter

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/entities"
)

type commissionModel struct {
	CommissionID string `gorm:"column:commission_id;primaryKey"`
	Name         string `gorm:"column:name"`
}

func (commissionModel) TableName() string {
	return "judgment_commissions"
}

type memberModel struct {
	CommissionID string `gorm:"column:commission_id;primaryKey"`
	MemberID     string `gorm:"column:member_id;primaryKey"`
	Name         string `gorm:"column:name"`
	Role         string `gorm:"column:role"`
	Active       bool   `gorm:"column:active"`
	Position     int    `gorm:"column:position"`
}

func (memberModel) TableName() string {
	return "judgment_commission_members"
}

type caseModel struct {
	CaseID           string     `gorm:"column:case_id;primaryKey"`
	Kind             string     `gorm:"column:kind"`
	Subject          string     `gorm:"column:subject"`
	ElectionID       string     `gorm:"column:election_id;index"`
	AppealOf         string     `gorm:"column:appeal_of;index"`
	RemedyAction     string     `gorm:"column:remedy_action"`
	RemedySlateID    string     `gorm:"column:remedy_slate_id"`
	RemedyBallotHash string     `gorm:"column:remedy_ballot_hash"`
	State            string     `gorm:"column:state;index"`
	SessionID        string     `gorm:"column:session_id"`
	VotingOpenedAt   *time.Time `gorm:"column:voting_opened_at"`
	VotingDeadline   *time.Time `gorm:"column:voting_deadline"`
	CreatedBy        string     `gorm:"column:created_by"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`
}

func (caseModel) TableName() string {
	return "judgment_cases"
}

func caseModelFromEntity(c entities.Case) caseModel {
	return caseModel{
		CaseID:           strings.TrimSpace(c.CaseID),
		Kind:             string(c.Kind),
		Subject:          c.Subject,
		ElectionID:       c.ElectionID,
		AppealOf:         c.AppealOf,
		RemedyAction:     string(c.Remedy.Action),
		RemedySlateID:    c.Remedy.SlateID,
		RemedyBallotHash: c.Remedy.BallotHash,
		State:            string(c.State),
		SessionID:        c.SessionID,
		VotingOpenedAt:   normalizeOptionalTime(c.VotingOpenedAt),
		VotingDeadline:   normalizeOptionalTime(c.VotingDeadline),
		CreatedBy:        c.CreatedBy,
		CreatedAt:        c.CreatedAt.UTC(),
		UpdatedAt:        c.UpdatedAt.UTC(),
	}
}

func caseUpdatesFromModel(row caseModel) map[string]any {
	return map[string]any{
		"state":            row.State,
		"session_id":       row.SessionID,
		"voting_opened_at": row.VotingOpenedAt,
		"voting_deadline":  row.VotingDeadline,
		"updated_at":       row.UpdatedAt,
	}
}

func (m caseModel) toEntity() entities.Case {
	return entities.Case{
		CaseID:     m.CaseID,
		Kind:       entities.CaseKind(m.Kind),
		Subject:    m.Subject,
		ElectionID: m.ElectionID,
		AppealOf:   m.AppealOf,
		Remedy: entities.Remedy{
			Action:     entities.RemedyAction(m.RemedyAction),
			SlateID:    m.RemedySlateID,
			BallotHash: m.RemedyBallotHash,
		},
		State:          entities.CaseState(m.State),
		SessionID:      m.SessionID,
		VotingOpenedAt: normalizeOptionalTime(m.VotingOpenedAt),
		VotingDeadline: normalizeOptionalTime(m.VotingDeadline),
		CreatedBy:      m.CreatedBy,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}

type sessionModel struct {
	SessionID      string     `gorm:"column:session_id;primaryKey"`
	CommissionID   string     `gorm:"column:commission_id;index"`
	ScheduledFor   time.Time  `gorm:"column:scheduled_for"`
	Status         string     `gorm:"column:status"`
	Agenda         []byte     `gorm:"column:agenda"`
	Present        []byte     `gorm:"column:present"`
	TieBreakerID   string     `gorm:"column:tie_breaker_id"`
	VotingWindowMS int64      `gorm:"column:voting_window_ms"`
	OpenedAt       *time.Time `gorm:"column:opened_at"`
	ClosedAt       *time.Time `gorm:"column:closed_at"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (sessionModel) TableName() string {
	return "judgment_sessions"
}

func sessionModelFromEntity(session entities.Session) (sessionModel, error) {
	agenda, err := json.Marshal(nonNil(session.Agenda))
	if err != nil {
		return sessionModel{}, err
	}
	present, err := json.Marshal(nonNil(session.Present))
	if err != nil {
		return sessionModel{}, err
	}
	return sessionModel{
		SessionID:      strings.TrimSpace(session.SessionID),
		CommissionID:   session.CommissionID,
		ScheduledFor:   session.ScheduledFor.UTC(),
		Status:         string(session.Status),
		Agenda:         agenda,
		Present:        present,
		TieBreakerID:   session.TieBreakerID,
		VotingWindowMS: session.VotingWindow.Milliseconds(),
		OpenedAt:       normalizeOptionalTime(session.OpenedAt),
		ClosedAt:       normalizeOptionalTime(session.ClosedAt),
		CreatedAt:      session.CreatedAt.UTC(),
		UpdatedAt:      session.UpdatedAt.UTC(),
	}, nil
}

func (m sessionModel) toEntity() (entities.Session, error) {
	var agenda, present []string
	if len(m.Agenda) > 0 {
		if err := json.Unmarshal(m.Agenda, &agenda); err != nil {
			return entities.Session{}, err
		}
	}
	if len(m.Present) > 0 {
		if err := json.Unmarshal(m.Present, &present); err != nil {
			return entities.Session{}, err
		}
	}
	return entities.Session{
		SessionID:    m.SessionID,
		CommissionID: m.CommissionID,
		ScheduledFor: m.ScheduledFor.UTC(),
		Status:       entities.SessionStatus(m.Status),
		Agenda:       agenda,
		Present:      present,
		TieBreakerID: m.TieBreakerID,
		VotingWindow: time.Duration(m.VotingWindowMS) * time.Millisecond,
		OpenedAt:     normalizeOptionalTime(m.OpenedAt),
		ClosedAt:     normalizeOptionalTime(m.ClosedAt),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}, nil
}

type voteModel struct {
	CaseID    string    `gorm:"column:case_id;primaryKey"`
	SessionID string    `gorm:"column:session_id;primaryKey"`
	MemberID  string    `gorm:"column:member_id;primaryKey"`
	Choice    string    `gorm:"column:choice"`
	CastAt    time.Time `gorm:"column:cast_at"`
}

func (voteModel) TableName() string {
	return "judgment_votes"
}

func (m voteModel) toEntity() entities.MemberVote {
	return entities.MemberVote{
		CaseID:    m.CaseID,
		SessionID: m.SessionID,
		MemberID:  m.MemberID,
		Choice:    entities.VoteChoice(m.Choice),
		CastAt:    m.CastAt.UTC(),
	}
}

type tieBreakModel struct {
	CaseID    string    `gorm:"column:case_id;primaryKey"`
	SessionID string    `gorm:"column:session_id;primaryKey"`
	MemberID  string    `gorm:"column:member_id"`
	Choice    string    `gorm:"column:choice"`
	CastAt    time.Time `gorm:"column:cast_at"`
}

func (tieBreakModel) TableName() string {
	return "judgment_tie_break_votes"
}

type verdictVoteRecord struct {
	MemberID string    `json:"member_id"`
	Choice   string    `json:"choice"`
	CastAt   time.Time `json:"cast_at"`
}

type verdictModel struct {
	VerdictID           string    `gorm:"column:verdict_id;primaryKey"`
	CaseID              string    `gorm:"column:case_id;uniqueIndex"`
	SessionID           string    `gorm:"column:session_id"`
	ElectionID          string    `gorm:"column:election_id;index"`
	AppealOf            string    `gorm:"column:appeal_of"`
	Votes               []byte    `gorm:"column:votes"`
	Grants              int       `gorm:"column:grants"`
	Denials             int       `gorm:"column:denials"`
	Abstentions         int       `gorm:"column:abstentions"`
	DeadlineAbstentions []byte    `gorm:"column:deadline_abstentions"`
	Resolution          string    `gorm:"column:resolution"`
	DecisionKind        string    `gorm:"column:decision_kind"`
	TieBreakerID        string    `gorm:"column:tie_breaker_id"`
	TieBreakChoice      string    `gorm:"column:tie_break_choice"`
	Rationale           string    `gorm:"column:rationale"`
	RemedyAction        string    `gorm:"column:remedy_action"`
	RemedySlateID       string    `gorm:"column:remedy_slate_id"`
	RemedyBallotHash    string    `gorm:"column:remedy_ballot_hash"`
	DecidedBy           string    `gorm:"column:decided_by"`
	DecidedAt           time.Time `gorm:"column:decided_at"`
	Stamp               string    `gorm:"column:stamp"`
}

func (verdictModel) TableName() string {
	return "judgment_verdicts"
}

func verdictModelFromEntity(verdict entities.Verdict) (verdictModel, error) {
	records := make([]verdictVoteRecord, 0, len(verdict.Votes))
	for _, vote := range verdict.Votes {
		records = append(records, verdictVoteRecord{
			MemberID: vote.MemberID,
			Choice:   string(vote.Choice),
			CastAt:   vote.CastAt.UTC(),
		})
	}
	votes, err := json.Marshal(records)
	if err != nil {
		return verdictModel{}, err
	}
	abstentions, err := json.Marshal(nonNil(verdict.DeadlineAbstentions))
	if err != nil {
		return verdictModel{}, err
	}
	return verdictModel{
		VerdictID:           strings.TrimSpace(verdict.VerdictID),
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
		DecidedAt:           verdict.DecidedAt.UTC(),
		Stamp:               verdict.Stamp,
	}, nil
}

func (m verdictModel) toEntity() (entities.Verdict, error) {
	var records []verdictVoteRecord
	if len(m.Votes) > 0 {
		if err := json.Unmarshal(m.Votes, &records); err != nil {
			return entities.Verdict{}, err
		}
	}
	votes := make([]entities.MemberVote, 0, len(records))
	for _, record := range records {
		votes = append(votes, entities.MemberVote{
			CaseID:    m.CaseID,
			SessionID: m.SessionID,
			MemberID:  record.MemberID,
			Choice:    entities.VoteChoice(record.Choice),
			CastAt:    record.CastAt.UTC(),
		})
	}
	var abstentions []string
	if len(m.DeadlineAbstentions) > 0 {
		if err := json.Unmarshal(m.DeadlineAbstentions, &abstentions); err != nil {
			return entities.Verdict{}, err
		}
	}
	if len(abstentions) == 0 {
		abstentions = nil
	}
	return entities.Verdict{
		VerdictID:           m.VerdictID,
		CaseID:              m.CaseID,
		SessionID:           m.SessionID,
		ElectionID:          m.ElectionID,
		AppealOf:            m.AppealOf,
		Votes:               votes,
		Grants:              m.Grants,
		Denials:             m.Denials,
		Abstentions:         m.Abstentions,
		DeadlineAbstentions: abstentions,
		Resolution:          entities.Resolution(m.Resolution),
		DecisionKind:        entities.DecisionKind(m.DecisionKind),
		TieBreakerID:        m.TieBreakerID,
		TieBreakChoice:      entities.VoteChoice(m.TieBreakChoice),
		Rationale:           m.Rationale,
		Remedy: entities.Remedy{
			Action:     entities.RemedyAction(m.RemedyAction),
			SlateID:    m.RemedySlateID,
			BallotHash: m.RemedyBallotHash,
		},
		DecidedBy: m.DecidedBy,
		DecidedAt: m.DecidedAt.UTC(),
		Stamp:     m.Stamp,
	}, nil
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "judgment_outbox"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

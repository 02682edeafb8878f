package postgresadapter

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
)

type electionModel struct {
	ElectionID             string    `gorm:"column:election_id;primaryKey"`
	Name                   string    `gorm:"column:name"`
	Status                 string    `gorm:"column:status"`
	Phase                  string    `gorm:"column:phase;index"`
	VotingMode             string    `gorm:"column:voting_mode"`
	SeatCount              int       `gorm:"column:seat_count"`
	VotingStartsAt         time.Time `gorm:"column:voting_starts_at"`
	VotingEndsAt           time.Time `gorm:"column:voting_ends_at"`
	StatusBeforeSuspension string    `gorm:"column:status_before_suspension"`
	EarlyClosure           bool      `gorm:"column:early_closure"`
	EarlyClosureReason     string    `gorm:"column:early_closure_reason"`
	Retired                bool      `gorm:"column:retired"`
	Version                int64     `gorm:"column:version"`
	CreatedBy              string    `gorm:"column:created_by"`
	CreatedAt              time.Time `gorm:"column:created_at"`
	UpdatedAt              time.Time `gorm:"column:updated_at"`
}

func (electionModel) TableName() string {
	return "elections"
}

func electionModelFromEntity(election entities.Election) electionModel {
	return electionModel{
		ElectionID:             strings.TrimSpace(election.ElectionID),
		Name:                   strings.TrimSpace(election.Name),
		Status:                 string(election.Status),
		Phase:                  string(election.Phase),
		VotingMode:             string(election.VotingMode),
		SeatCount:              election.SeatCount,
		VotingStartsAt:         election.VotingStartsAt.UTC(),
		VotingEndsAt:           election.VotingEndsAt.UTC(),
		StatusBeforeSuspension: string(election.StatusBeforeSuspension),
		EarlyClosure:           election.EarlyClosure,
		EarlyClosureReason:     election.EarlyClosureReason,
		Retired:                election.Retired,
		Version:                election.Version,
		CreatedBy:              election.CreatedBy,
		CreatedAt:              election.CreatedAt.UTC(),
		UpdatedAt:              election.UpdatedAt.UTC(),
	}
}

func electionUpdatesFromModel(row electionModel) map[string]any {
	return map[string]any{
		"name":                     row.Name,
		"status":                   row.Status,
		"phase":                    row.Phase,
		"voting_mode":              row.VotingMode,
		"seat_count":               row.SeatCount,
		"voting_starts_at":         row.VotingStartsAt,
		"voting_ends_at":           row.VotingEndsAt,
		"status_before_suspension": row.StatusBeforeSuspension,
		"early_closure":            row.EarlyClosure,
		"early_closure_reason":     row.EarlyClosureReason,
		"retired":                  row.Retired,
		"version":                  row.Version,
		"updated_at":               row.UpdatedAt,
	}
}

func (m electionModel) toEntity() entities.Election {
	return entities.Election{
		ElectionID:             m.ElectionID,
		Name:                   m.Name,
		Status:                 entities.Status(m.Status),
		Phase:                  entities.Phase(m.Phase),
		VotingMode:             entities.VotingMode(m.VotingMode),
		SeatCount:              m.SeatCount,
		VotingStartsAt:         m.VotingStartsAt.UTC(),
		VotingEndsAt:           m.VotingEndsAt.UTC(),
		StatusBeforeSuspension: entities.Status(m.StatusBeforeSuspension),
		EarlyClosure:           m.EarlyClosure,
		EarlyClosureReason:     m.EarlyClosureReason,
		Retired:                m.Retired,
		Version:                m.Version,
		CreatedBy:              m.CreatedBy,
		CreatedAt:              m.CreatedAt.UTC(),
		UpdatedAt:              m.UpdatedAt.UTC(),
	}
}

type transitionModel struct {
	TransitionID string    `gorm:"column:transition_id;primaryKey"`
	ElectionID   string    `gorm:"column:election_id;uniqueIndex:idx_election_transition_seq,priority:1"`
	Sequence     int       `gorm:"column:sequence;uniqueIndex:idx_election_transition_seq,priority:2"`
	FromPhase    string    `gorm:"column:from_phase"`
	ToPhase      string    `gorm:"column:to_phase"`
	FromStatus   string    `gorm:"column:from_status"`
	ToStatus     string    `gorm:"column:to_status"`
	Actor        string    `gorm:"column:actor"`
	Reason       string    `gorm:"column:reason"`
	Automatic    bool      `gorm:"column:automatic"`
	OccurredAt   time.Time `gorm:"column:occurred_at"`
}

func (transitionModel) TableName() string {
	return "election_phase_transitions"
}

func transitionModelFromEntity(transition entities.PhaseTransition) transitionModel {
	return transitionModel{
		TransitionID: strings.TrimSpace(transition.TransitionID),
		ElectionID:   strings.TrimSpace(transition.ElectionID),
		Sequence:     transition.Sequence,
		FromPhase:    string(transition.FromPhase),
		ToPhase:      string(transition.ToPhase),
		FromStatus:   string(transition.FromStatus),
		ToStatus:     string(transition.ToStatus),
		Actor:        transition.Actor,
		Reason:       transition.Reason,
		Automatic:    transition.Automatic,
		OccurredAt:   transition.OccurredAt.UTC(),
	}
}

func (m transitionModel) toEntity() entities.PhaseTransition {
	return entities.PhaseTransition{
		TransitionID: m.TransitionID,
		ElectionID:   m.ElectionID,
		Sequence:     m.Sequence,
		FromPhase:    entities.Phase(m.FromPhase),
		ToPhase:      entities.Phase(m.ToPhase),
		FromStatus:   entities.Status(m.FromStatus),
		ToStatus:     entities.Status(m.ToStatus),
		Actor:        m.Actor,
		Reason:       m.Reason,
		Automatic:    m.Automatic,
		OccurredAt:   m.OccurredAt.UTC(),
	}
}

type slateModel struct {
	SlateID           string    `gorm:"column:slate_id;primaryKey"`
	ElectionID        string    `gorm:"column:election_id;index"`
	Name              string    `gorm:"column:name"`
	Number            int       `gorm:"column:number"`
	Status            string    `gorm:"column:status"`
	Incumbent         bool      `gorm:"column:incumbent"`
	RegistrationOrder int       `gorm:"column:registration_order"`
	Active            bool      `gorm:"column:active"`
	CreatedAt         time.Time `gorm:"column:created_at"`
	UpdatedAt         time.Time `gorm:"column:updated_at"`
}

func (slateModel) TableName() string {
	return "election_slates"
}

func slateModelFromEntity(slate entities.Slate) slateModel {
	row := slateModel{
		SlateID:           strings.TrimSpace(slate.SlateID),
		ElectionID:        strings.TrimSpace(slate.ElectionID),
		Name:              strings.TrimSpace(slate.Name),
		Number:            slate.Number,
		Status:            string(slate.Status),
		Incumbent:         slate.Incumbent,
		RegistrationOrder: slate.RegistrationOrder,
		Active:            slate.Active,
		CreatedAt:         slate.CreatedAt.UTC(),
		UpdatedAt:         slate.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m slateModel) toEntity() entities.Slate {
	return entities.Slate{
		SlateID:           m.SlateID,
		ElectionID:        m.ElectionID,
		Name:              m.Name,
		Number:            m.Number,
		Status:            entities.SlateStatus(m.Status),
		Incumbent:         m.Incumbent,
		RegistrationOrder: m.RegistrationOrder,
		Active:            m.Active,
		CreatedAt:         m.CreatedAt.UTC(),
		UpdatedAt:         m.UpdatedAt.UTC(),
	}
}

type voterModel struct {
	ElectionID          string     `gorm:"column:election_id;primaryKey"`
	IdentityID          string     `gorm:"column:identity_id;primaryKey"`
	Eligible            bool       `gorm:"column:eligible"`
	IneligibilityReason string     `gorm:"column:ineligibility_reason"`
	HasVoted            bool       `gorm:"column:has_voted"`
	VotedAt             *time.Time `gorm:"column:voted_at"`
	SectionRef          string     `gorm:"column:section_ref"`
	Active              bool       `gorm:"column:active"`
}

func (voterModel) TableName() string {
	return "election_voters"
}

func voterModelFromEntity(voter entities.EligibleVoter) voterModel {
	return voterModel{
		ElectionID:          strings.TrimSpace(voter.ElectionID),
		IdentityID:          strings.TrimSpace(voter.IdentityID),
		Eligible:            voter.Eligible,
		IneligibilityReason: strings.TrimSpace(voter.IneligibilityReason),
		SectionRef:          strings.TrimSpace(voter.SectionRef),
		Active:              voter.Active,
	}
}

func (m voterModel) toEntity() entities.EligibleVoter {
	return entities.EligibleVoter{
		ElectionID:          m.ElectionID,
		IdentityID:          m.IdentityID,
		Eligible:            m.Eligible,
		IneligibilityReason: m.IneligibilityReason,
		HasVoted:            m.HasVoted,
		VotedAt:             normalizeOptionalTime(m.VotedAt),
		SectionRef:          m.SectionRef,
		Active:              m.Active,
	}
}

type credentialModel struct {
	ElectionID string `gorm:"column:election_id;primaryKey"`
	Credential string `gorm:"column:credential;primaryKey"`
	IdentityID string `gorm:"column:identity_id"`
}

func (credentialModel) TableName() string {
	return "election_voter_credentials"
}

type ballotModel struct {
	BallotID   string    `gorm:"column:ballot_id;primaryKey"`
	ElectionID string    `gorm:"column:election_id;uniqueIndex:idx_ballot_voter_hash,priority:1;uniqueIndex:idx_ballot_hash,priority:1"`
	VoterHash  string    `gorm:"column:voter_hash;uniqueIndex:idx_ballot_voter_hash,priority:2"`
	BallotHash string    `gorm:"column:ballot_hash;uniqueIndex:idx_ballot_hash,priority:2"`
	SlateID    string    `gorm:"column:slate_id"`
	Kind       string    `gorm:"column:kind"`
	Nonce      string    `gorm:"column:nonce"`
	CastAt     time.Time `gorm:"column:cast_at"`
	TerminalID string    `gorm:"column:terminal_id"`
	IPAddress  string    `gorm:"column:ip_address"`
	UserAgent  string    `gorm:"column:user_agent"`
}

func (ballotModel) TableName() string {
	return "election_ballots"
}

func ballotModelFromEntity(ballot entities.Ballot) ballotModel {
	return ballotModel{
		BallotID:   strings.TrimSpace(ballot.BallotID),
		ElectionID: strings.TrimSpace(ballot.ElectionID),
		VoterHash:  strings.TrimSpace(ballot.VoterHash),
		BallotHash: strings.TrimSpace(ballot.BallotHash),
		SlateID:    strings.TrimSpace(ballot.SlateID),
		Kind:       string(ballot.Kind),
		Nonce:      ballot.Nonce,
		CastAt:     ballot.CastAt.UTC(),
		TerminalID: ballot.Channel.TerminalID,
		IPAddress:  ballot.Channel.IPAddress,
		UserAgent:  ballot.Channel.UserAgent,
	}
}

// toEntity truncates CastAt to microseconds, the precision the ballot hash
// commits to and the precision Postgres stores.
func (m ballotModel) toEntity() entities.Ballot {
	return entities.Ballot{
		BallotID:   m.BallotID,
		ElectionID: m.ElectionID,
		SlateID:    m.SlateID,
		Kind:       entities.VoteKind(m.Kind),
		VoterHash:  m.VoterHash,
		BallotHash: m.BallotHash,
		Nonce:      m.Nonce,
		CastAt:     m.CastAt.UTC().Truncate(time.Microsecond),
		Channel: entities.Channel{
			TerminalID: m.TerminalID,
			IPAddress:  m.IPAddress,
			UserAgent:  m.UserAgent,
		},
	}
}

type nullificationModel struct {
	NullificationID string    `gorm:"column:nullification_id;primaryKey"`
	ElectionID      string    `gorm:"column:election_id;uniqueIndex:idx_nullified_ballot,priority:1"`
	BallotHash      string    `gorm:"column:ballot_hash;uniqueIndex:idx_nullified_ballot,priority:2"`
	VerdictID       string    `gorm:"column:verdict_id"`
	Reason          string    `gorm:"column:reason"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (nullificationModel) TableName() string {
	return "election_ballot_nullifications"
}

func (m nullificationModel) toEntity() entities.BallotNullification {
	return entities.BallotNullification{
		NullificationID: m.NullificationID,
		ElectionID:      m.ElectionID,
		BallotHash:      m.BallotHash,
		VerdictID:       m.VerdictID,
		Reason:          m.Reason,
		CreatedAt:       m.CreatedAt.UTC(),
	}
}

type tallyModel struct {
	TallyID         string     `gorm:"column:tally_id;primaryKey"`
	ElectionID      string     `gorm:"column:election_id;uniqueIndex:idx_tally_version,priority:1;uniqueIndex:idx_tally_homologated,where:homologated = true"`
	Version         int        `gorm:"column:version;uniqueIndex:idx_tally_version,priority:2"`
	Mode            string     `gorm:"column:mode"`
	Partial         bool       `gorm:"column:partial"`
	PercentCounted  float64    `gorm:"column:percent_counted"`
	EligibleCount   int        `gorm:"column:eligible_count"`
	VotedCount      int        `gorm:"column:voted_count"`
	AbstainedCount  int        `gorm:"column:abstained_count"`
	ValidCount      int        `gorm:"column:valid_count"`
	BlankCount      int        `gorm:"column:blank_count"`
	NullCount       int        `gorm:"column:null_count"`
	VoidedCount     int        `gorm:"column:voided_count"`
	SeatCount       int        `gorm:"column:seat_count"`
	InputHash       string     `gorm:"column:input_hash"`
	ResultHash      string     `gorm:"column:result_hash"`
	DrawSeed        string     `gorm:"column:draw_seed"`
	TieBreakApplied bool       `gorm:"column:tie_break_applied"`
	ExcludedSlates  []byte     `gorm:"column:excluded_slates"`
	Rows            []byte     `gorm:"column:slate_rows"`
	Homologated     bool       `gorm:"column:homologated"`
	HomologatedAt   *time.Time `gorm:"column:homologated_at"`
	HomologatedBy   string     `gorm:"column:homologated_by"`
	Signature       string     `gorm:"column:signature"`
	ComputedBy      string     `gorm:"column:computed_by"`
	ComputedAt      time.Time  `gorm:"column:computed_at"`
}

func (tallyModel) TableName() string {
	return "election_tallies"
}

type tallyRowRecord struct {
	SlateID           string  `json:"slate_id"`
	SlateName         string  `json:"slate_name"`
	Votes             int     `json:"votes"`
	PercentValid      float64 `json:"percent_valid"`
	Rank              int     `json:"rank"`
	Elected           bool    `json:"elected"`
	TieBreakCriterion string  `json:"tie_break_criterion,omitempty"`
}

func tallyModelFromEntity(tally entities.TallyResult) (tallyModel, error) {
	excluded := tally.ExcludedSlates
	if excluded == nil {
		excluded = []string{}
	}
	excludedJSON, err := json.Marshal(excluded)
	if err != nil {
		return tallyModel{}, err
	}
	records := make([]tallyRowRecord, 0, len(tally.Slates))
	for _, row := range tally.Slates {
		records = append(records, tallyRowRecord{
			SlateID:           row.SlateID,
			SlateName:         row.SlateName,
			Votes:             row.Votes,
			PercentValid:      row.PercentValid,
			Rank:              row.Rank,
			Elected:           row.Elected,
			TieBreakCriterion: string(row.TieBreakCriterion),
		})
	}
	rowsJSON, err := json.Marshal(records)
	if err != nil {
		return tallyModel{}, err
	}
	return tallyModel{
		TallyID:         strings.TrimSpace(tally.TallyID),
		ElectionID:      strings.TrimSpace(tally.ElectionID),
		Version:         tally.Version,
		Mode:            string(tally.Mode),
		Partial:         tally.Partial,
		PercentCounted:  tally.PercentCounted,
		EligibleCount:   tally.EligibleCount,
		VotedCount:      tally.VotedCount,
		AbstainedCount:  tally.AbstainedCount,
		ValidCount:      tally.ValidCount,
		BlankCount:      tally.BlankCount,
		NullCount:       tally.NullCount,
		VoidedCount:     tally.VoidedCount,
		SeatCount:       tally.SeatCount,
		InputHash:       tally.InputHash,
		ResultHash:      tally.ResultHash,
		DrawSeed:        tally.DrawSeed,
		TieBreakApplied: tally.TieBreakApplied,
		ExcludedSlates:  excludedJSON,
		Rows:            rowsJSON,
		Homologated:     tally.Homologated,
		HomologatedAt:   normalizeOptionalTime(tally.HomologatedAt),
		HomologatedBy:   tally.HomologatedBy,
		Signature:       tally.Signature,
		ComputedBy:      tally.ComputedBy,
		ComputedAt:      tally.ComputedAt.UTC(),
	}, nil
}

func (m tallyModel) toEntity() (entities.TallyResult, error) {
	var excluded []string
	if len(m.ExcludedSlates) > 0 {
		if err := json.Unmarshal(m.ExcludedSlates, &excluded); err != nil {
			return entities.TallyResult{}, err
		}
	}
	var records []tallyRowRecord
	if len(m.Rows) > 0 {
		if err := json.Unmarshal(m.Rows, &records); err != nil {
			return entities.TallyResult{}, err
		}
	}
	rows := make([]entities.TallyResultBySlate, 0, len(records))
	for _, record := range records {
		rows = append(rows, entities.TallyResultBySlate{
			SlateID:           record.SlateID,
			SlateName:         record.SlateName,
			Votes:             record.Votes,
			PercentValid:      record.PercentValid,
			Rank:              record.Rank,
			Elected:           record.Elected,
			TieBreakCriterion: entities.TieBreakCriterion(record.TieBreakCriterion),
		})
	}
	return entities.TallyResult{
		TallyID:         m.TallyID,
		ElectionID:      m.ElectionID,
		Version:         m.Version,
		Mode:            entities.TallyMode(m.Mode),
		Partial:         m.Partial,
		PercentCounted:  m.PercentCounted,
		EligibleCount:   m.EligibleCount,
		VotedCount:      m.VotedCount,
		AbstainedCount:  m.AbstainedCount,
		ValidCount:      m.ValidCount,
		BlankCount:      m.BlankCount,
		NullCount:       m.NullCount,
		VoidedCount:     m.VoidedCount,
		SeatCount:       m.SeatCount,
		InputHash:       m.InputHash,
		ResultHash:      m.ResultHash,
		DrawSeed:        m.DrawSeed,
		TieBreakApplied: m.TieBreakApplied,
		ExcludedSlates:  excluded,
		Homologated:     m.Homologated,
		HomologatedAt:   normalizeOptionalTime(m.HomologatedAt),
		HomologatedBy:   m.HomologatedBy,
		Signature:       m.Signature,
		ComputedBy:      m.ComputedBy,
		ComputedAt:      m.ComputedAt.UTC(),
		Slates:          rows,
	}, nil
}

type drawModel struct {
	ElectionID string    `gorm:"column:election_id;primaryKey"`
	Seed       string    `gorm:"column:seed"`
	DrawnBy    string    `gorm:"column:drawn_by"`
	DrawnAt    time.Time `gorm:"column:drawn_at"`
}

func (drawModel) TableName() string {
	return "election_tie_break_draws"
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
	return "election_outbox"
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "election_event_dedup"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

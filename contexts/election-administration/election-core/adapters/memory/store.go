package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/errors"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/ports"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/internal/shared/outbox"

	"github.com/google/uuid"
)

type outboxRecord struct {
	record    outbox.Record
	published bool
}

type dedupRecord struct {
	payloadHash string
	expiresAt   time.Time
}

type voterKey struct {
	electionID string
	identityID string
}

type ballotKey struct {
	electionID string
	hash       string
}

// Store is the single-process implementation of every election-core port.
// One mutex covers all maps, which makes CommitCast and MarkHomologated
// atomic by construction.
type Store struct {
	mu sync.RWMutex

	elections   map[string]entities.Election
	transitions map[string][]entities.PhaseTransition
	slates      map[string]entities.Slate
	voters      map[voterKey]entities.EligibleVoter
	credentials map[voterKey]string

	ballots        map[string][]entities.Ballot
	ballotByHash   map[ballotKey]entities.Ballot
	ballotByVoter  map[ballotKey]string
	nullifications map[ballotKey]entities.BallotNullification

	tallies map[string]entities.TallyResult
	draws   map[string]entities.TieBreakDraw

	audit      []ports.AuditEntry
	outbox     map[string]outboxRecord
	eventDedup map[string]dedupRecord
}

func NewStore() *Store {
	return &Store{
		elections:      make(map[string]entities.Election),
		transitions:    make(map[string][]entities.PhaseTransition),
		slates:         make(map[string]entities.Slate),
		voters:         make(map[voterKey]entities.EligibleVoter),
		credentials:    make(map[voterKey]string),
		ballots:        make(map[string][]entities.Ballot),
		ballotByHash:   make(map[ballotKey]entities.Ballot),
		ballotByVoter:  make(map[ballotKey]string),
		nullifications: make(map[ballotKey]entities.BallotNullification),
		tallies:        make(map[string]entities.TallyResult),
		draws:          make(map[string]entities.TieBreakDraw),
		outbox:         make(map[string]outboxRecord),
		eventDedup:     make(map[string]dedupRecord),
	}
}

func (s *Store) CreateElection(_ context.Context, election entities.Election, transition entities.PhaseTransition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	electionID := strings.TrimSpace(election.ElectionID)
	if _, exists := s.elections[electionID]; exists {
		return domainerrors.ErrConflict
	}
	s.elections[electionID] = election
	s.transitions[electionID] = []entities.PhaseTransition{transition}
	return nil
}

func (s *Store) GetElection(_ context.Context, electionID string) (entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	election, ok := s.elections[strings.TrimSpace(electionID)]
	if !ok {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	return election, nil
}

func (s *Store) ListElections(_ context.Context, phase entities.Phase) ([]entities.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Election, 0, len(s.elections))
	for _, election := range s.elections {
		if election.Retired {
			continue
		}
		if phase != "" && election.Phase != phase {
			continue
		}
		items = append(items, election)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ElectionID < items[j].ElectionID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) UpdateElection(
	_ context.Context,
	election entities.Election,
	expectedVersion int64,
	transition entities.PhaseTransition,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	electionID := strings.TrimSpace(election.ElectionID)
	stored, ok := s.elections[electionID]
	if !ok {
		return domainerrors.ErrElectionNotFound
	}
	if stored.Version != expectedVersion {
		return domainerrors.ErrConcurrentModification
	}
	s.elections[electionID] = election
	s.transitions[electionID] = append(s.transitions[electionID], transition)
	return nil
}

func (s *Store) ListTransitions(_ context.Context, electionID string) ([]entities.PhaseTransition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := append([]entities.PhaseTransition(nil), s.transitions[strings.TrimSpace(electionID)]...)
	return items, nil
}

func (s *Store) SaveSlate(_ context.Context, slate entities.Slate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slates[strings.TrimSpace(slate.SlateID)] = slate
	return nil
}

func (s *Store) GetSlate(_ context.Context, electionID string, slateID string) (entities.Slate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slate, ok := s.slates[strings.TrimSpace(slateID)]
	if !ok || slate.ElectionID != strings.TrimSpace(electionID) {
		return entities.Slate{}, domainerrors.ErrSlateNotFound
	}
	return slate, nil
}

func (s *Store) ListSlates(_ context.Context, electionID string) ([]entities.Slate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listSlatesLocked(strings.TrimSpace(electionID)), nil
}

func (s *Store) listSlatesLocked(electionID string) []entities.Slate {
	items := make([]entities.Slate, 0)
	for _, slate := range s.slates {
		if slate.ElectionID == electionID && slate.Active {
			items = append(items, slate)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].RegistrationOrder < items[j].RegistrationOrder
	})
	return items
}

func (s *Store) NextRegistrationOrder(_ context.Context, electionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	next := 1
	for _, slate := range s.slates {
		if slate.ElectionID == strings.TrimSpace(electionID) && slate.RegistrationOrder >= next {
			next = slate.RegistrationOrder + 1
		}
	}
	return next, nil
}

// UpsertVoters keeps HasVoted and VotedAt of rows that already exist.
func (s *Store) UpsertVoters(_ context.Context, voters []entities.EligibleVoter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, voter := range voters {
		key := voterKey{electionID: strings.TrimSpace(voter.ElectionID), identityID: strings.TrimSpace(voter.IdentityID)}
		if existing, ok := s.voters[key]; ok {
			voter.HasVoted = existing.HasVoted
			voter.VotedAt = existing.VotedAt
			if existing.HasVoted {
				voter.Eligible = existing.Eligible
				voter.IneligibilityReason = existing.IneligibilityReason
			}
		} else {
			voter.HasVoted = false
			voter.VotedAt = nil
		}
		s.voters[key] = voter
	}
	return len(voters), nil
}

func (s *Store) GetVoter(_ context.Context, electionID string, identityID string) (entities.EligibleVoter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	voter, ok := s.voters[voterKey{electionID: strings.TrimSpace(electionID), identityID: strings.TrimSpace(identityID)}]
	if !ok || !voter.Active {
		return entities.EligibleVoter{}, domainerrors.ErrVoterNotFound
	}
	return voter, nil
}

func (s *Store) SetIneligible(_ context.Context, electionID string, identityID string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := voterKey{electionID: strings.TrimSpace(electionID), identityID: strings.TrimSpace(identityID)}
	voter, ok := s.voters[key]
	if !ok || !voter.Active {
		return domainerrors.ErrVoterNotFound
	}
	if voter.HasVoted {
		return domainerrors.ErrAlreadyVoted
	}
	voter.Eligible = false
	voter.IneligibilityReason = strings.TrimSpace(reason)
	s.voters[key] = voter
	return nil
}

func (s *Store) CountEligible(_ context.Context, electionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countEligibleLocked(strings.TrimSpace(electionID)), nil
}

func (s *Store) countEligibleLocked(electionID string) int {
	count := 0
	for key, voter := range s.voters {
		if key.electionID == electionID && voter.Active && voter.Eligible {
			count++
		}
	}
	return count
}

// SetCredential maps an opaque credential onto an identity for ResolveVoter.
func (s *Store) SetCredential(electionID string, credential string, identityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials[voterKey{electionID: strings.TrimSpace(electionID), identityID: strings.TrimSpace(credential)}] = strings.TrimSpace(identityID)
}

// ResolveVoter honours explicit credential mappings and otherwise treats the
// credential as the identity when a roll row exists for it.
func (s *Store) ResolveVoter(_ context.Context, electionID string, credential string) (ports.VoterIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	electionID = strings.TrimSpace(electionID)
	credential = strings.TrimSpace(credential)
	if identityID, ok := s.credentials[voterKey{electionID: electionID, identityID: credential}]; ok {
		return ports.VoterIdentity{IdentityID: identityID}, nil
	}
	if _, ok := s.voters[voterKey{electionID: electionID, identityID: credential}]; ok {
		return ports.VoterIdentity{IdentityID: credential}, nil
	}
	return ports.VoterIdentity{}, domainerrors.ErrUnknownCredential
}

func (s *Store) CommitCast(_ context.Context, identityID string, ballot entities.Ballot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	electionID := strings.TrimSpace(ballot.ElectionID)
	election, ok := s.elections[electionID]
	if !ok {
		return domainerrors.ErrElectionNotFound
	}
	if !election.OpenForVoting(ballot.CastAt) {
		return domainerrors.ErrElectionNotOpenForVoting
	}
	key := voterKey{electionID: electionID, identityID: strings.TrimSpace(identityID)}
	voter, ok := s.voters[key]
	if !ok || !voter.Active || !voter.Eligible {
		return domainerrors.ErrNotEligible
	}
	if voter.HasVoted {
		return domainerrors.ErrAlreadyVoted
	}
	if _, exists := s.ballotByVoter[ballotKey{electionID: electionID, hash: ballot.VoterHash}]; exists {
		return domainerrors.ErrDuplicateBallot
	}
	if _, exists := s.ballotByHash[ballotKey{electionID: electionID, hash: ballot.BallotHash}]; exists {
		return domainerrors.ErrDuplicateBallot
	}

	votedAt := ballot.CastAt
	voter.HasVoted = true
	voter.VotedAt = &votedAt
	s.voters[key] = voter
	s.insertBallotLocked(ballot)
	return nil
}

// SeedBallot stores a ballot without any eligibility bookkeeping. It exists
// for imports of historical data and for exercising integrity checks.
func (s *Store) SeedBallot(ballot entities.Ballot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertBallotLocked(ballot)
}

// ReplaceBallot overwrites a stored ballot in place, simulating storage-level
// tampering.
func (s *Store) ReplaceBallot(ballotHash string, mutate func(*entities.Ballot)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for electionID, items := range s.ballots {
		for i := range items {
			if items[i].BallotHash != ballotHash {
				continue
			}
			mutate(&items[i])
			s.ballots[electionID] = items
			return true
		}
	}
	return false
}

func (s *Store) insertBallotLocked(ballot entities.Ballot) {
	electionID := strings.TrimSpace(ballot.ElectionID)
	s.ballots[electionID] = append(s.ballots[electionID], ballot)
	s.ballotByHash[ballotKey{electionID: electionID, hash: ballot.BallotHash}] = ballot
	s.ballotByVoter[ballotKey{electionID: electionID, hash: ballot.VoterHash}] = ballot.BallotHash
}

func (s *Store) GetBallotByHash(_ context.Context, electionID string, ballotHash string) (entities.Ballot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ballot, ok := s.ballotByHash[ballotKey{electionID: strings.TrimSpace(electionID), hash: strings.TrimSpace(ballotHash)}]
	if !ok {
		return entities.Ballot{}, domainerrors.ErrBallotNotFound
	}
	return ballot, nil
}

func (s *Store) SaveNullification(_ context.Context, nullification entities.BallotNullification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ballotKey{electionID: strings.TrimSpace(nullification.ElectionID), hash: strings.TrimSpace(nullification.BallotHash)}
	if _, exists := s.nullifications[key]; exists {
		return domainerrors.ErrAlreadyNullified
	}
	s.nullifications[key] = nullification
	return nil
}

func (s *Store) IsNullified(_ context.Context, electionID string, ballotHash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.nullifications[ballotKey{electionID: strings.TrimSpace(electionID), hash: strings.TrimSpace(ballotHash)}]
	return ok, nil
}

func (s *Store) Snapshot(_ context.Context, electionID string) (entities.BallotSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(strings.TrimSpace(electionID)), nil
}

func (s *Store) snapshotLocked(electionID string) entities.BallotSnapshot {
	snapshot := entities.BallotSnapshot{
		Ballots:       append([]entities.Ballot(nil), s.ballots[electionID]...),
		Slates:        s.listSlatesLocked(electionID),
		EligibleCount: s.countEligibleLocked(electionID),
	}
	for key, nullification := range s.nullifications {
		if key.electionID == electionID {
			snapshot.Nullifications = append(snapshot.Nullifications, nullification)
		}
	}
	sort.Slice(snapshot.Nullifications, func(i, j int) bool {
		return snapshot.Nullifications[i].BallotHash < snapshot.Nullifications[j].BallotHash
	})
	return snapshot
}

func (s *Store) SaveTally(_ context.Context, tally entities.TallyResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tallies[tally.TallyID]; exists {
		return domainerrors.ErrConflict
	}
	for _, existing := range s.tallies {
		if existing.ElectionID == tally.ElectionID && existing.Version == tally.Version {
			return domainerrors.ErrConflict
		}
	}
	s.tallies[tally.TallyID] = tally
	return nil
}

func (s *Store) GetTally(_ context.Context, tallyID string) (entities.TallyResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tally, ok := s.tallies[strings.TrimSpace(tallyID)]
	if !ok {
		return entities.TallyResult{}, domainerrors.ErrTallyNotFound
	}
	return tally, nil
}

func (s *Store) ListTallies(_ context.Context, electionID string) ([]entities.TallyResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.TallyResult, 0)
	for _, tally := range s.tallies {
		if tally.ElectionID == strings.TrimSpace(electionID) {
			items = append(items, tally)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].Version < items[j].Version
	})
	return items, nil
}

func (s *Store) NextTallyVersion(_ context.Context, electionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	next := 1
	for _, tally := range s.tallies {
		if tally.ElectionID == strings.TrimSpace(electionID) && tally.Version >= next {
			next = tally.Version + 1
		}
	}
	return next, nil
}

func (s *Store) MarkHomologated(
	_ context.Context,
	tallyID string,
	expected entities.TallyInputGuard,
	actor string,
	at time.Time,
) (entities.TallyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tally, ok := s.tallies[strings.TrimSpace(tallyID)]
	if !ok {
		return entities.TallyResult{}, domainerrors.ErrTallyNotFound
	}
	for _, existing := range s.tallies {
		if existing.ElectionID == tally.ElectionID && existing.Homologated {
			return entities.TallyResult{}, domainerrors.ErrAlreadyHomologated
		}
	}
	if !entities.InputGuardOf(s.snapshotLocked(tally.ElectionID)).Equal(expected) {
		return entities.TallyResult{}, domainerrors.ErrStaleTally
	}
	homologatedAt := at.UTC()
	tally.Homologated = true
	tally.HomologatedAt = &homologatedAt
	tally.HomologatedBy = strings.TrimSpace(actor)
	s.tallies[tally.TallyID] = tally
	return tally, nil
}

func (s *Store) HasHomologated(_ context.Context, electionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, tally := range s.tallies {
		if tally.ElectionID == strings.TrimSpace(electionID) && tally.Homologated {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) SaveDrawIfAbsent(_ context.Context, draw entities.TieBreakDraw) (entities.TieBreakDraw, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	electionID := strings.TrimSpace(draw.ElectionID)
	if existing, ok := s.draws[electionID]; ok {
		return existing, nil
	}
	s.draws[electionID] = draw
	return draw, nil
}

func (s *Store) GetDraw(_ context.Context, electionID string) (entities.TieBreakDraw, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	draw, ok := s.draws[strings.TrimSpace(electionID)]
	return draw, ok, nil
}

func (s *Store) Record(_ context.Context, entry ports.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, entry)
	return nil
}

// AuditEntries returns a copy of every entry recorded so far, in order.
func (s *Store) AuditEntries() []ports.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.AuditEntry(nil), s.audit...)
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.record.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		record: outbox.Record{
			OutboxID:  outboxID,
			EventType: strings.TrimSpace(envelope.EventType),
			Payload:   payload,
			CreatedAt: createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]outbox.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]outbox.Record, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.record)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].OutboxID < items[j].OutboxID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	at := publishedAt.UTC()
	row.published = true
	row.record.PublishedAt = &at
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) ReserveEvent(
	_ context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(eventID)
	existing, ok := s.eventDedup[key]
	if ok {
		if !existing.expiresAt.IsZero() && time.Now().UTC().After(existing.expiresAt.UTC()) {
			delete(s.eventDedup, key)
		} else {
			if existing.payloadHash != strings.TrimSpace(payloadHash) {
				return false, domainerrors.ErrConflict
			}
			return true, nil
		}
	}

	s.eventDedup[key] = dedupRecord{
		payloadHash: strings.TrimSpace(payloadHash),
		expiresAt:   expiresAt.UTC(),
	}
	return false, nil
}

func (s *Store) ReleaseEvent(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.eventDedup, strings.TrimSpace(eventID))
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

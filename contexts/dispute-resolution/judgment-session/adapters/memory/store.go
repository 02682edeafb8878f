package memory

import (
	"context"
	"encoding/json"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/errors"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/ports"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/internal/shared/outbox"

	"github.com/google/uuid"
)

type outboxRecord struct {
	record    outbox.Record
	published bool
}

type voteKey struct {
	caseID    string
	sessionID string
	memberID  string
}

type caseSessionKey struct {
	caseID    string
	sessionID string
}

// Store implements every judgment-session port behind one mutex, so vote
// inserts and FinalizeVerdict are atomic.
type Store struct {
	mu sync.RWMutex

	commissions map[string]entities.Commission
	cases       map[string]entities.Case
	sessions    map[string]entities.Session
	votes       map[voteKey]entities.MemberVote
	voteOrder   map[caseSessionKey][]string
	tieBreaks   map[caseSessionKey]entities.TieBreakVote
	verdicts    map[string]entities.Verdict
	verdictCase map[string]string

	audit  []ports.AuditEntry
	outbox map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		commissions: make(map[string]entities.Commission),
		cases:       make(map[string]entities.Case),
		sessions:    make(map[string]entities.Session),
		votes:       make(map[voteKey]entities.MemberVote),
		voteOrder:   make(map[caseSessionKey][]string),
		tieBreaks:   make(map[caseSessionKey]entities.TieBreakVote),
		verdicts:    make(map[string]entities.Verdict),
		verdictCase: make(map[string]string),
		outbox:      make(map[string]outboxRecord),
	}
}

func (s *Store) CreateCommission(_ context.Context, commission entities.Commission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.commissions[commission.CommissionID]; exists {
		return domainerrors.ErrConflict
	}
	commission.Members = slices.Clone(commission.Members)
	s.commissions[commission.CommissionID] = commission
	return nil
}

func (s *Store) GetCommission(_ context.Context, commissionID string) (entities.Commission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	commission, ok := s.commissions[strings.TrimSpace(commissionID)]
	if !ok {
		return entities.Commission{}, domainerrors.ErrCommissionNotFound
	}
	commission.Members = slices.Clone(commission.Members)
	return commission, nil
}

func (s *Store) CreateCase(_ context.Context, c entities.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cases[c.CaseID]; exists {
		return domainerrors.ErrConflict
	}
	s.cases[c.CaseID] = c
	return nil
}

func (s *Store) GetCase(_ context.Context, caseID string) (entities.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[strings.TrimSpace(caseID)]
	if !ok {
		return entities.Case{}, domainerrors.ErrCaseNotFound
	}
	return c, nil
}

func (s *Store) UpdateCase(_ context.Context, c entities.Case, expectedState entities.CaseState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateCaseLocked(c, expectedState)
}

func (s *Store) updateCaseLocked(c entities.Case, expectedState entities.CaseState) error {
	current, ok := s.cases[c.CaseID]
	if !ok {
		return domainerrors.ErrCaseNotFound
	}
	if current.State != expectedState {
		return domainerrors.ErrConcurrentModification
	}
	s.cases[c.CaseID] = c
	return nil
}

func (s *Store) ListCasesByState(_ context.Context, state entities.CaseState) ([]entities.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Case, 0)
	for _, c := range s.cases {
		if state != "" && c.State != state {
			continue
		}
		items = append(items, c)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CaseID < items[j].CaseID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) CreateSession(_ context.Context, session entities.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[session.SessionID]; exists {
		return domainerrors.ErrConflict
	}
	s.sessions[session.SessionID] = cloneSession(session)
	return nil
}

func (s *Store) GetSession(_ context.Context, sessionID string) (entities.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[strings.TrimSpace(sessionID)]
	if !ok {
		return entities.Session{}, domainerrors.ErrSessionNotFound
	}
	return cloneSession(session), nil
}

func (s *Store) UpdateSession(_ context.Context, session entities.Session, expectedStatus entities.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions[session.SessionID]
	if !ok {
		return domainerrors.ErrSessionNotFound
	}
	if current.Status != expectedStatus {
		return domainerrors.ErrConcurrentModification
	}
	s.sessions[session.SessionID] = cloneSession(session)
	return nil
}

func (s *Store) InsertVote(_ context.Context, vote entities.MemberVote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := voteKey{caseID: vote.CaseID, sessionID: vote.SessionID, memberID: vote.MemberID}
	if _, exists := s.votes[key]; exists {
		return domainerrors.ErrAlreadyVoted
	}
	s.votes[key] = vote
	order := caseSessionKey{caseID: vote.CaseID, sessionID: vote.SessionID}
	s.voteOrder[order] = append(s.voteOrder[order], vote.MemberID)
	return nil
}

func (s *Store) ListVotes(_ context.Context, caseID string, sessionID string) ([]entities.MemberVote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order := s.voteOrder[caseSessionKey{caseID: caseID, sessionID: sessionID}]
	items := make([]entities.MemberVote, 0, len(order))
	for _, memberID := range order {
		items = append(items, s.votes[voteKey{caseID: caseID, sessionID: sessionID, memberID: memberID}])
	}
	return items, nil
}

func (s *Store) InsertTieBreak(_ context.Context, vote entities.TieBreakVote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := caseSessionKey{caseID: vote.CaseID, sessionID: vote.SessionID}
	if _, exists := s.tieBreaks[key]; exists {
		return domainerrors.ErrAlreadyVoted
	}
	s.tieBreaks[key] = vote
	return nil
}

func (s *Store) GetTieBreak(_ context.Context, caseID string, sessionID string) (entities.TieBreakVote, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.tieBreaks[caseSessionKey{caseID: caseID, sessionID: sessionID}]
	return vote, ok, nil
}

func (s *Store) FinalizeVerdict(
	_ context.Context,
	verdict entities.Verdict,
	decided entities.Case,
	expectedState entities.CaseState,
	envelope ports.EventEnvelope,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.verdictCase[verdict.CaseID]; exists {
		return domainerrors.ErrAlreadyDecided
	}
	if _, exists := s.verdicts[verdict.VerdictID]; exists {
		return domainerrors.ErrConflict
	}
	previous, ok := s.cases[decided.CaseID]
	if !ok {
		return domainerrors.ErrCaseNotFound
	}
	if err := s.updateCaseLocked(decided, expectedState); err != nil {
		return err
	}
	if err := s.appendOutboxLocked(envelope); err != nil {
		s.cases[decided.CaseID] = previous
		return err
	}
	verdict.Votes = slices.Clone(verdict.Votes)
	verdict.DeadlineAbstentions = slices.Clone(verdict.DeadlineAbstentions)
	s.verdicts[verdict.VerdictID] = verdict
	s.verdictCase[verdict.CaseID] = verdict.VerdictID
	return nil
}

func (s *Store) GetVerdict(_ context.Context, verdictID string) (entities.Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	verdict, ok := s.verdicts[strings.TrimSpace(verdictID)]
	if !ok {
		return entities.Verdict{}, domainerrors.ErrVerdictNotFound
	}
	return verdict, nil
}

func (s *Store) GetVerdictByCase(_ context.Context, caseID string) (entities.Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	verdictID, ok := s.verdictCase[strings.TrimSpace(caseID)]
	if !ok {
		return entities.Verdict{}, domainerrors.ErrVerdictNotFound
	}
	return s.verdicts[verdictID], nil
}

func (s *Store) Record(_ context.Context, entry ports.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit = append(s.audit, entry)
	return nil
}

func (s *Store) AuditEntries() []ports.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ports.AuditEntry(nil), s.audit...)
}

func (s *Store) appendOutboxLocked(envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if _, ok := s.outbox[outboxID]; ok {
		return domainerrors.ErrConflict
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
	key := strings.TrimSpace(outboxID)
	row, ok := s.outbox[key]
	if !ok {
		return domainerrors.ErrConflict
	}
	at := publishedAt.UTC()
	row.published = true
	row.record.PublishedAt = &at
	s.outbox[key] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func cloneSession(session entities.Session) entities.Session {
	session.Agenda = slices.Clone(session.Agenda)
	session.Present = slices.Clone(session.Present)
	return session
}

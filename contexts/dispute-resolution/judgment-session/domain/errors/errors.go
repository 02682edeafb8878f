package errors

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrCommissionNotFound  = errors.New("commission not found")
	ErrMemberNotFound      = errors.New("commission member not found")
	ErrCaseNotFound        = errors.New("case not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrVerdictNotFound     = errors.New("verdict not found")
	ErrInvalidTransition   = errors.New("invalid case state transition")
	ErrSessionNotScheduled = errors.New("session is not scheduled")
	ErrSessionNotOpen      = errors.New("session is not open")
	ErrSessionBusy         = errors.New("session still has cases under deliberation or voting")
	ErrCaseNotOnAgenda     = errors.New("case is not on the session agenda")
	ErrCaseNotDecided      = errors.New("case has not been decided")

	ErrNoQuorum          = errors.New("quorum not reached")
	ErrCaseNotVoting     = errors.New("case is not open for voting in this session")
	ErrMemberNotPresent  = errors.New("member is not present in the session")
	ErrAlreadyVoted      = errors.New("member has already voted on this case")
	ErrVotingClosed      = errors.New("voting deadline has elapsed")
	ErrVotesPending      = errors.New("present members have not all voted")
	ErrTiedNoBreaker     = errors.New("tied vote and no tie-breaker is present")
	ErrTieBreakPending   = errors.New("tied vote awaits the tie-breaker")
	ErrNotTieBreaker     = errors.New("member is not the designated tie-breaker")
	ErrTieBreakNotNeeded = errors.New("tie-break vote is not needed")

	ErrAlreadyDecided         = errors.New("case already has a verdict")
	ErrConcurrentModification = errors.New("record was modified concurrently")
	ErrConflict               = errors.New("judgment session conflict")
)

package errors

import "errors"

var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrElectionNotFound       = errors.New("election not found")
	ErrSlateNotFound          = errors.New("slate not found")
	ErrVoterNotFound          = errors.New("voter not found")
	ErrBallotNotFound         = errors.New("ballot not found")
	ErrTallyNotFound          = errors.New("tally not found")
	ErrInvalidTransition      = errors.New("invalid phase transition")
	ErrPreconditionFailed     = errors.New("phase entry precondition not met")
	ErrElectionTerminal       = errors.New("election is in a terminal state")
	ErrElectionNotSuspended   = errors.New("election is not suspended")
	ErrConcurrentModification = errors.New("election was modified concurrently")
	ErrOperationNotAllowed    = errors.New("operation not allowed in current phase")

	ErrNotEligible              = errors.New("voter is not eligible")
	ErrAlreadyVoted             = errors.New("voter has already voted")
	ErrElectionNotOpenForVoting = errors.New("election is not open for voting")
	ErrInvalidChoice            = errors.New("invalid ballot choice")
	ErrUnknownCredential        = errors.New("voter credential not recognised")

	ErrTallyNotPermitted  = errors.New("tally mode not permitted in current phase")
	ErrAlreadyHomologated = errors.New("election already has a homologated tally")
	ErrNotFinalTally      = errors.New("only final tallies can be homologated")
	ErrStaleTally         = errors.New("tally no longer matches the stored ballot set")
	ErrAlreadyNullified   = errors.New("ballot is already nullified")

	// Integrity violations halt the current operation and are always audited.
	ErrIntegrityViolation = errors.New("integrity violation")
	ErrDuplicateBallot    = errors.New("duplicate ballot detected")

	ErrConflict = errors.New("election core conflict")
)

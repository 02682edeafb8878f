package services

import (
	"sort"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/errors"
)

// Ballot is everything the resolution needs about one case in one session.
type Ballot struct {
	Present         []string
	Votes           []entities.MemberVote
	TieBreakerID    string
	TieBreak        *entities.TieBreakVote
	DeadlineElapsed bool
}

type Outcome struct {
	Grants              int
	Denials             int
	Abstentions         int
	DeadlineAbstentions []string
	Resolution          entities.Resolution
	DecisionKind        entities.DecisionKind
	TieBreakChoice      entities.VoteChoice
}

// Count tallies the regular votes of present members. Missing votes become
// deadline abstentions only once the deadline elapsed.
func Count(ballot Ballot) (Outcome, int) {
	voted := make(map[string]entities.VoteChoice, len(ballot.Votes))
	for _, vote := range ballot.Votes {
		voted[vote.MemberID] = vote.Choice
	}
	outcome := Outcome{}
	pending := 0
	for _, memberID := range ballot.Present {
		choice, ok := voted[memberID]
		if !ok {
			if ballot.DeadlineElapsed {
				outcome.DeadlineAbstentions = append(outcome.DeadlineAbstentions, memberID)
				outcome.Abstentions++
			} else {
				pending++
			}
			continue
		}
		switch choice {
		case entities.ChoiceGrant:
			outcome.Grants++
		case entities.ChoiceDeny:
			outcome.Denials++
		default:
			outcome.Abstentions++
		}
	}
	sort.Strings(outcome.DeadlineAbstentions)
	return outcome, pending
}

// Resolve applies the decision rule. With G != D the majority side wins. On a
// tie the designated tie-breaker decides: a grant or deny already cast in the
// regular tally is used as is, otherwise the separate tie-break vote.
func Resolve(ballot Ballot) (Outcome, error) {
	outcome, pending := Count(ballot)
	margin := outcome.Grants - outcome.Denials
	if margin < 0 {
		margin = -margin
	}
	// Concluding early is allowed only when the remaining votes cannot change
	// the outcome.
	if pending > 0 && margin <= pending {
		return outcome, domainerrors.ErrVotesPending
	}

	switch {
	case outcome.Grants > outcome.Denials:
		outcome.Resolution = entities.ResolutionGranted
		outcome.DecisionKind = entities.DecisionMajority
		if outcome.Denials == 0 {
			outcome.DecisionKind = entities.DecisionUnanimous
		}
		return outcome, nil
	case outcome.Denials > outcome.Grants:
		outcome.Resolution = entities.ResolutionDenied
		outcome.DecisionKind = entities.DecisionMajority
		if outcome.Grants == 0 {
			outcome.DecisionKind = entities.DecisionUnanimous
		}
		return outcome, nil
	}

	if ballot.TieBreakerID == "" {
		return outcome, domainerrors.ErrTiedNoBreaker
	}
	choice := TieBreakerRegularChoice(ballot)
	if !choice.Decisive() {
		if ballot.TieBreak == nil || !ballot.TieBreak.Choice.Decisive() {
			return outcome, domainerrors.ErrTieBreakPending
		}
		choice = ballot.TieBreak.Choice
	}
	outcome.TieBreakChoice = choice
	outcome.DecisionKind = entities.DecisionTieBreak
	outcome.Resolution = entities.ResolutionDenied
	if choice == entities.ChoiceGrant {
		outcome.Resolution = entities.ResolutionGranted
	}
	return outcome, nil
}

// TieBreakerRegularChoice returns the tie-breaker's own regular vote, if any.
func TieBreakerRegularChoice(ballot Ballot) entities.VoteChoice {
	for _, vote := range ballot.Votes {
		if vote.MemberID == ballot.TieBreakerID {
			return vote.Choice
		}
	}
	return ""
}

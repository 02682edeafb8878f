package services

import (
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/errors"
)

// caseTransitions lists every legal edge of the case state machine. Archived
// is reachable from every state before Decided.
var caseTransitions = map[entities.CaseState]map[entities.CaseState]bool{
	entities.CaseScheduled: {
		entities.CaseUnderDeliberation: true,
		entities.CaseArchived:          true,
	},
	entities.CaseUnderDeliberation: {
		entities.CaseVoting:   true,
		entities.CaseArchived: true,
	},
	entities.CaseVoting: {
		entities.CaseDecided:  true,
		entities.CaseArchived: true,
	},
}

func CheckCaseTransition(from entities.CaseState, to entities.CaseState) error {
	if caseTransitions[from][to] {
		return nil
	}
	return domainerrors.ErrInvalidTransition
}

package httpserver

import (
	"errors"
	"net/http"

	electionerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/errors"
	electionhttp "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/transport/http"
)

const electionModule = "election-administration/election-core"

func (s *Server) registerElectionRoutes() {
	s.mux.HandleFunc("POST /v1/elections", s.handleCreateElection)
	s.mux.HandleFunc("GET /v1/elections", s.handleListElections)
	s.mux.HandleFunc("GET /v1/elections/{election_id}", s.handleGetElection)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/history", s.handleElectionHistory)
	s.mux.HandleFunc("POST /v1/elections/{election_id}/advance", s.handleAdvanceElection)
	s.mux.HandleFunc("POST /v1/elections/{election_id}/{action}", s.handleChangeElection)

	s.mux.HandleFunc("POST /v1/elections/{election_id}/voters", s.handleImportVoterRoll)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/voters/count", s.handleEligibleCount)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/voters/{identity_id}", s.handleLookupVoter)
	s.mux.HandleFunc("POST /v1/elections/{election_id}/voters/{identity_id}/ineligible", s.handleMarkIneligible)

	s.mux.HandleFunc("POST /v1/elections/{election_id}/slates", s.handleRegisterSlate)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/slates", s.handleListSlates)
	s.mux.HandleFunc("POST /v1/elections/{election_id}/slates/{slate_id}/{action}", s.handleSlateAction)

	s.mux.HandleFunc("POST /v1/elections/{election_id}/ballots", s.handleCastBallot)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/receipts/{ballot_hash}", s.handleVerifyReceipt)
	s.mux.HandleFunc("POST /v1/elections/{election_id}/nullifications", s.handleNullifyBallot)

	s.mux.HandleFunc("POST /v1/elections/{election_id}/tallies", s.handleComputeTally)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/tallies", s.handleListTallies)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/tallies/latest", s.handleLatestTally)
	s.mux.HandleFunc("GET /v1/elections/{election_id}/tallies/official", s.handleOfficialTally)
	s.mux.HandleFunc("GET /v1/tallies/{tally_id}", s.handleGetTally)
	s.mux.HandleFunc("GET /v1/tallies/{tally_id}/verify", s.handleVerifyTally)
	s.mux.HandleFunc("POST /v1/tallies/{tally_id}/homologate", s.handleHomologateTally)
}

func (s *Server) handleCreateElection(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req electionhttp.CreateElectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.election.Handler.CreateElectionHandler(r.Context(), actor, req)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListElections(w http.ResponseWriter, r *http.Request) {
	resp, err := s.election.Handler.ListElectionsHandler(r.Context(), r.URL.Query().Get("phase"))
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetElection(w http.ResponseWriter, r *http.Request) {
	resp, err := s.election.Handler.GetElectionHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleElectionHistory(w http.ResponseWriter, r *http.Request) {
	resp, err := s.election.Handler.ElectionHistoryHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAdvanceElection(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req electionhttp.AdvanceElectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.election.Handler.AdvanceElectionHandler(r.Context(), r.PathValue("election_id"), actor, req)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChangeElection(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req electionhttp.PhaseChangeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	electionID := r.PathValue("election_id")
	handler := s.election.Handler

	var (
		resp electionhttp.ElectionResponse
		err  error
	)
	switch r.PathValue("action") {
	case "suspend":
		resp, err = handler.SuspendElectionHandler(r.Context(), electionID, actor, req)
	case "resume":
		resp, err = handler.ResumeElectionHandler(r.Context(), electionID, actor, req)
	case "cancel":
		resp, err = handler.CancelElectionHandler(r.Context(), electionID, actor, req)
	case "retire":
		resp, err = handler.RetireElectionHandler(r.Context(), electionID, actor, req)
	default:
		writeError(w, http.StatusNotFound, "not_found", "unknown election action")
		return
	}
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleImportVoterRoll(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req electionhttp.ImportVoterRollRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.election.Handler.ImportVoterRollHandler(r.Context(), r.PathValue("election_id"), actor, req)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEligibleCount(w http.ResponseWriter, r *http.Request) {
	resp, err := s.election.Handler.EligibleCountHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLookupVoter(w http.ResponseWriter, r *http.Request) {
	resp, err := s.election.Handler.LookupVoterHandler(r.Context(), r.PathValue("election_id"), r.PathValue("identity_id"))
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMarkIneligible(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req electionhttp.MarkIneligibleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	err := s.election.Handler.MarkIneligibleHandler(
		r.Context(),
		r.PathValue("election_id"),
		r.PathValue("identity_id"),
		actor,
		req,
	)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRegisterSlate(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req electionhttp.RegisterSlateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.election.Handler.RegisterSlateHandler(r.Context(), r.PathValue("election_id"), actor, req)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListSlates(w http.ResponseWriter, r *http.Request) {
	resp, err := s.election.Handler.ListSlatesHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSlateAction(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req electionhttp.SlateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.election.Handler.SlateActionHandler(
		r.Context(),
		r.PathValue("election_id"),
		r.PathValue("slate_id"),
		r.PathValue("action"),
		actor,
		req,
	)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCastBallot takes no X-User-Id: the voter is identified only by the
// credential in the body.
func (s *Server) handleCastBallot(w http.ResponseWriter, r *http.Request) {
	var req electionhttp.CastBallotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.election.Handler.CastBallotHandler(
		r.Context(),
		r.PathValue("election_id"),
		resolveClientIP(r),
		r.UserAgent(),
		req,
	)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleVerifyReceipt(w http.ResponseWriter, r *http.Request) {
	resp, err := s.election.Handler.VerifyReceiptHandler(r.Context(), r.PathValue("election_id"), r.PathValue("ballot_hash"))
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNullifyBallot(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req electionhttp.NullifyBallotRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.election.Handler.NullifyBallotHandler(r.Context(), r.PathValue("election_id"), actor, req)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleComputeTally(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req electionhttp.ComputeTallyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.election.Handler.ComputeTallyHandler(r.Context(), r.PathValue("election_id"), actor, req)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListTallies(w http.ResponseWriter, r *http.Request) {
	resp, err := s.election.Handler.ListTalliesHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLatestTally(w http.ResponseWriter, r *http.Request) {
	resp, err := s.election.Handler.LatestTallyHandler(r.Context(), r.PathValue("election_id"), r.URL.Query().Get("mode"))
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOfficialTally(w http.ResponseWriter, r *http.Request) {
	resp, err := s.election.Handler.OfficialTallyHandler(r.Context(), r.PathValue("election_id"))
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTally(w http.ResponseWriter, r *http.Request) {
	resp, err := s.election.Handler.GetTallyHandler(r.Context(), r.PathValue("tally_id"))
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVerifyTally(w http.ResponseWriter, r *http.Request) {
	resp, err := s.election.Handler.VerifyTallyHandler(r.Context(), r.PathValue("tally_id"))
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHomologateTally(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.election.Handler.HomologateTallyHandler(r.Context(), r.PathValue("tally_id"), actor)
	if err != nil {
		s.writeElectionDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeElectionDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, electionerrors.ErrInvalidInput):
		writeElectionError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, electionerrors.ErrInvalidChoice):
		writeElectionError(w, http.StatusBadRequest, "invalid_choice", err.Error())
	case errors.Is(err, electionerrors.ErrElectionNotFound),
		errors.Is(err, electionerrors.ErrSlateNotFound),
		errors.Is(err, electionerrors.ErrVoterNotFound),
		errors.Is(err, electionerrors.ErrBallotNotFound),
		errors.Is(err, electionerrors.ErrTallyNotFound):
		writeElectionError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, electionerrors.ErrUnknownCredential):
		writeElectionError(w, http.StatusForbidden, "unknown_credential", err.Error())
	case errors.Is(err, electionerrors.ErrNotEligible):
		writeElectionError(w, http.StatusConflict, "not_eligible", err.Error())
	case errors.Is(err, electionerrors.ErrAlreadyVoted):
		writeElectionError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, electionerrors.ErrElectionNotOpenForVoting):
		writeElectionError(w, http.StatusConflict, "election_not_open_for_voting", err.Error())
	case errors.Is(err, electionerrors.ErrAlreadyHomologated):
		writeElectionError(w, http.StatusConflict, "already_homologated", err.Error())
	case errors.Is(err, electionerrors.ErrStaleTally):
		writeElectionError(w, http.StatusConflict, "stale_tally", err.Error())
	case errors.Is(err, electionerrors.ErrConcurrentModification):
		writeElectionError(w, http.StatusConflict, "concurrent_modification", err.Error())
	case errors.Is(err, electionerrors.ErrInvalidTransition),
		errors.Is(err, electionerrors.ErrPreconditionFailed),
		errors.Is(err, electionerrors.ErrElectionTerminal),
		errors.Is(err, electionerrors.ErrElectionNotSuspended),
		errors.Is(err, electionerrors.ErrOperationNotAllowed),
		errors.Is(err, electionerrors.ErrTallyNotPermitted),
		errors.Is(err, electionerrors.ErrNotFinalTally),
		errors.Is(err, electionerrors.ErrAlreadyNullified),
		errors.Is(err, electionerrors.ErrConflict):
		writeElectionError(w, http.StatusConflict, "precondition_failed", err.Error())
	case errors.Is(err, electionerrors.ErrIntegrityViolation),
		errors.Is(err, electionerrors.ErrDuplicateBallot):
		s.logInternal(r, electionModule, err)
		writeElectionError(w, http.StatusInternalServerError, "integrity_violation", err.Error())
	default:
		s.logInternal(r, electionModule, err)
		writeElectionError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeElectionError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, electionhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

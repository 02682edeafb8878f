package httpserver

import (
	"errors"
	"net/http"

	judgmenterrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/errors"
	judgmenthttp "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/transport/http"
)

const judgmentModule = "dispute-resolution/judgment-session"

func (s *Server) registerJudgmentRoutes() {
	s.mux.HandleFunc("POST /v1/judgment/commissions", s.handleCreateCommission)
	s.mux.HandleFunc("GET /v1/judgment/commissions/{commission_id}", s.handleGetCommission)

	s.mux.HandleFunc("POST /v1/judgment/cases", s.handleRegisterCase)
	s.mux.HandleFunc("GET /v1/judgment/cases", s.handleListCases)
	s.mux.HandleFunc("GET /v1/judgment/cases/{case_id}", s.handleGetCase)
	s.mux.HandleFunc("POST /v1/judgment/cases/{case_id}/appeals", s.handleFileAppeal)
	s.mux.HandleFunc("POST /v1/judgment/cases/{case_id}/archive", s.handleArchiveCase)
	s.mux.HandleFunc("GET /v1/judgment/cases/{case_id}/votes", s.handleListVotes)
	s.mux.HandleFunc("GET /v1/judgment/cases/{case_id}/verdict", s.handleCaseVerdict)

	s.mux.HandleFunc("POST /v1/judgment/sessions", s.handleScheduleSession)
	s.mux.HandleFunc("GET /v1/judgment/sessions/{session_id}", s.handleGetSession)
	s.mux.HandleFunc("POST /v1/judgment/sessions/{session_id}/open", s.handleOpenSession)
	s.mux.HandleFunc("POST /v1/judgment/sessions/{session_id}/close", s.handleCloseSession)
	s.mux.HandleFunc("POST /v1/judgment/sessions/{session_id}/cases/{case_id}/deliberate", s.handleCaseStep("deliberate"))
	s.mux.HandleFunc("POST /v1/judgment/sessions/{session_id}/cases/{case_id}/open-voting", s.handleCaseStep("open-voting"))
	s.mux.HandleFunc("POST /v1/judgment/sessions/{session_id}/cases/{case_id}/votes", s.handleRecordVote)
	s.mux.HandleFunc("POST /v1/judgment/sessions/{session_id}/cases/{case_id}/tie-break", s.handleTieBreak)
	s.mux.HandleFunc("POST /v1/judgment/sessions/{session_id}/cases/{case_id}/conclude", s.handleConclude)

	s.mux.HandleFunc("GET /v1/judgment/verdicts/{verdict_id}", s.handleGetVerdict)
	s.mux.HandleFunc("GET /v1/judgment/verdicts/{verdict_id}/verify", s.handleVerifyVerdict)
}

func (s *Server) handleCreateCommission(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req judgmenthttp.CreateCommissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.judgment.Handler.CreateCommissionHandler(r.Context(), actor, req)
	if err != nil {
		s.writeJudgmentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetCommission(w http.ResponseWriter, r *http.Request) {
	resp, err := s.judgment.Handler.GetCommissionHandler(r.Context(), r.PathValue("commission_id"))
	if err != nil {
		s.writeJudgmentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterCase(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req judgmenthttp.RegisterCaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.judgment.Handler.RegisterCaseHandler(r.Context(), actor, req)
	if err != nil {
		s.writeJudgmentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListCases(w http.ResponseWriter, r *http.Request) {
	resp, err := s.judgment.Handler.ListCasesHandler(r.Context(), r.URL.Query().Get("state"))
	if err != nil {
		s.writeJudgmentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCase(w http.ResponseWriter, r *http.Request) {
	resp, err := s.judgment.Handler.GetCaseHandler(r.Context(), r.PathValue("case_id"))
	if err != nil {
		s.writeJudgmentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFileAppeal(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req judgmenthttp.FileAppealRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.judgment.Handler.FileAppealHandler(r.Context(), r.PathValue("case_id"), actor, req)
	if err != nil {
		s.writeJudgmentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleArchiveCase(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req judgmenthttp.ConcludeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.judgment.Handler.ArchiveCaseHandler(r.Context(), r.PathValue("case_id"), actor, req)
	if err != nil {
		s.writeJudgmentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListVotes(w http.ResponseWriter, r *http.Request) {
	resp, err := s.judgment.Handler.ListVotesHandler(r.Context(), r.PathValue("case_id"))
	if err != nil {
		s.writeJudgmentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCaseVerdict(w http.ResponseWriter, r *http.Request) {
	resp, err := s.judgment.Handler.CaseVerdictHandler(r.Context(), r.PathValue("case_id"))
	if err != nil {
		s.writeJudgmentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleScheduleSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req judgmenthttp.ScheduleSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.judgment.Handler.ScheduleSessionHandler(r.Context(), actor, req)
	if err != nil {
		s.writeJudgmentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	resp, err := s.judgment.Handler.GetSessionHandler(r.Context(), r.PathValue("session_id"))
	if err != nil {
		s.writeJudgmentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req judgmenthttp.OpenSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.judgment.Handler.OpenSessionHandler(r.Context(), r.PathValue("session_id"), actor, req)
	if err != nil {
		s.writeJudgmentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	resp, err := s.judgment.Handler.CloseSessionHandler(r.Context(), r.PathValue("session_id"), actor)
	if err != nil {
		s.writeJudgmentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCaseStep(step string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}
		resp, err := s.judgment.Handler.CaseStepHandler(
			r.Context(),
			r.PathValue("session_id"),
			r.PathValue("case_id"),
			step,
			actor,
		)
		if err != nil {
			s.writeJudgmentDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) handleRecordVote(w http.ResponseWriter, r *http.Request) {
	var req judgmenthttp.RecordVoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.judgment.Handler.RecordVoteHandler(r.Context(), r.PathValue("session_id"), r.PathValue("case_id"), req)
	if err != nil {
		s.writeJudgmentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleTieBreak(w http.ResponseWriter, r *http.Request) {
	var req judgmenthttp.TieBreakRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.judgment.Handler.TieBreakHandler(r.Context(), r.PathValue("session_id"), r.PathValue("case_id"), req)
	if err != nil {
		s.writeJudgmentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleConclude(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	var req judgmenthttp.ConcludeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := s.judgment.Handler.ConcludeHandler(
		r.Context(),
		r.PathValue("session_id"),
		r.PathValue("case_id"),
		actor,
		req,
	)
	if err != nil {
		s.writeJudgmentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetVerdict(w http.ResponseWriter, r *http.Request) {
	resp, err := s.judgment.Handler.GetVerdictHandler(r.Context(), r.PathValue("verdict_id"))
	if err != nil {
		s.writeJudgmentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVerifyVerdict(w http.ResponseWriter, r *http.Request) {
	resp, err := s.judgment.Handler.VerifyVerdictHandler(r.Context(), r.PathValue("verdict_id"))
	if err != nil {
		s.writeJudgmentDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeJudgmentDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, judgmenterrors.ErrInvalidInput):
		writeJudgmentError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, judgmenterrors.ErrCommissionNotFound),
		errors.Is(err, judgmenterrors.ErrMemberNotFound),
		errors.Is(err, judgmenterrors.ErrCaseNotFound),
		errors.Is(err, judgmenterrors.ErrSessionNotFound),
		errors.Is(err, judgmenterrors.ErrVerdictNotFound):
		writeJudgmentError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, judgmenterrors.ErrNoQuorum):
		writeJudgmentError(w, http.StatusConflict, "no_quorum", err.Error())
	case errors.Is(err, judgmenterrors.ErrTiedNoBreaker):
		writeJudgmentError(w, http.StatusConflict, "tied_no_breaker", err.Error())
	case errors.Is(err, judgmenterrors.ErrTieBreakPending):
		writeJudgmentError(w, http.StatusConflict, "tie_break_pending", err.Error())
	case errors.Is(err, judgmenterrors.ErrVotesPending):
		writeJudgmentError(w, http.StatusConflict, "votes_pending", err.Error())
	case errors.Is(err, judgmenterrors.ErrAlreadyVoted):
		writeJudgmentError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, judgmenterrors.ErrAlreadyDecided):
		writeJudgmentError(w, http.StatusConflict, "already_decided", err.Error())
	case errors.Is(err, judgmenterrors.ErrNotTieBreaker):
		writeJudgmentError(w, http.StatusForbidden, "not_tie_breaker", err.Error())
	case errors.Is(err, judgmenterrors.ErrInvalidTransition),
		errors.Is(err, judgmenterrors.ErrSessionNotScheduled),
		errors.Is(err, judgmenterrors.ErrSessionNotOpen),
		errors.Is(err, judgmenterrors.ErrSessionBusy),
		errors.Is(err, judgmenterrors.ErrCaseNotOnAgenda),
		errors.Is(err, judgmenterrors.ErrCaseNotDecided),
		errors.Is(err, judgmenterrors.ErrCaseNotVoting),
		errors.Is(err, judgmenterrors.ErrMemberNotPresent),
		errors.Is(err, judgmenterrors.ErrVotingClosed),
		errors.Is(err, judgmenterrors.ErrTieBreakNotNeeded),
		errors.Is(err, judgmenterrors.ErrConcurrentModification),
		errors.Is(err, judgmenterrors.ErrConflict):
		writeJudgmentError(w, http.StatusConflict, "precondition_failed", err.Error())
	default:
		s.logInternal(r, judgmentModule, err)
		writeJudgmentError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeJudgmentError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, judgmenthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

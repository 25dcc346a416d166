package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jonathan/talent-reconciler/internal/logging"
	"github.com/jonathan/talent-reconciler/internal/schemas"
	"github.com/jonathan/talent-reconciler/internal/server/middleware"
	"github.com/jonathan/talent-reconciler/internal/types"
	schemafiles "github.com/jonathan/talent-reconciler/schemas"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies; extracted CVs are the largest payload
const maxBodyBytes = 1 << 20

// verifyBody is the wire form of a verify request; ids come from the path
type verifyBody struct {
	ExpertID        uuid.UUID              `json:"expert_id"`
	Result          types.AssessmentResult `json:"result"`
	Note            string                 `json:"note"`
	SnapshotEnabled bool                   `json:"snapshot_enabled"`
}

// invalidateBody is the wire form of an invalidate request
type invalidateBody struct {
	Reason string `json:"reason"`
}

// applyResponse carries the statistics and, for a partial apply, the failures
type applyResponse struct {
	Statistics *types.UpdateStatistics `json:"statistics"`
	Error      string                  `json:"error,omitempty"`
}

// assessmentsResponse wraps the assessment history
type assessmentsResponse struct {
	Assessments []types.SkillGroupAssessment `json:"assessments"`
}

// handleAnalyze runs reconciliation of an extracted CV against the talent profile
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	talentID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}

	var extracted types.ExtractedCVData
	if !s.decodeBody(w, r, schemafiles.ExtractedCV, &extracted) {
		return
	}

	analysis, err := s.service.Analyze(r.Context(), talentID, &extracted)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, analysis)
}

// handleGetAnalysis returns a persisted analysis run
func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	talentID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	analysisID, ok := s.pathID(w, r, "analysis_id")
	if !ok {
		return
	}

	analysis, err := s.service.GetAnalysis(r.Context(), talentID, analysisID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, analysis)
}

// handleApplyDecisions commits a reviewer decision for an analysis run
func (s *Server) handleApplyDecisions(w http.ResponseWriter, r *http.Request) {
	talentID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	analysisID, ok := s.pathID(w, r, "analysis_id")
	if !ok {
		return
	}

	var decision types.UpdateDecision
	if !s.decodeBody(w, r, schemafiles.UpdateDecision, &decision) {
		return
	}
	if decision.AnalysisID == uuid.Nil {
		decision.AnalysisID = analysisID
	} else if decision.AnalysisID != analysisID {
		s.errorResponse(w, http.StatusBadRequest, "analysis_id in body does not match the URL")
		return
	}

	stats, err := s.service.ApplyDecisions(r.Context(), talentID, &decision)
	var partial *types.PartialApplyError
	switch {
	case err == nil:
		s.jsonResponse(w, http.StatusOK, applyResponse{Statistics: stats})
	case errors.As(err, &partial):
		s.jsonResponse(w, http.StatusMultiStatus, applyResponse{Statistics: stats, Error: partial.Error()})
	default:
		s.serviceError(w, r, err)
	}
}

// handleVerify records an expert's pass or fail on a skill group
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	talentID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	groupID, ok := s.pathID(w, r, "group_id")
	if !ok {
		return
	}

	var body verifyBody
	if !s.decodeBody(w, r, schemafiles.VerifyRequest, &body) {
		return
	}

	verification, err := s.service.VerifySkillGroup(r.Context(), types.VerifyRequest{
		TalentID:        talentID,
		SkillGroupID:    groupID,
		ExpertID:        body.ExpertID,
		Result:          body.Result,
		Note:            body.Note,
		SnapshotEnabled: body.SnapshotEnabled,
	})
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, verification)
}

// handleInvalidate withdraws a skill group verification
func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	talentID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	groupID, ok := s.pathID(w, r, "group_id")
	if !ok {
		return
	}

	var body invalidateBody
	if !s.decodeBody(w, r, schemafiles.InvalidateRequest, &body) {
		return
	}

	verification, err := s.service.InvalidateSkillGroup(r.Context(), types.InvalidateRequest{
		TalentID:     talentID,
		SkillGroupID: groupID,
		Reason:       body.Reason,
	})
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, verification)
}

// handleGetVerification returns the verification with reverification derived
func (s *Server) handleGetVerification(w http.ResponseWriter, r *http.Request) {
	talentID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	groupID, ok := s.pathID(w, r, "group_id")
	if !ok {
		return
	}

	verification, err := s.service.GetVerificationStatus(r.Context(), talentID, groupID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, verification)
}

// handleListAssessments returns the assessment history, most recent first
func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	talentID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	groupID, ok := s.pathID(w, r, "group_id")
	if !ok {
		return
	}

	history, err := s.service.GetAssessmentHistory(r.Context(), talentID, groupID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	if history == nil {
		history = []types.SkillGroupAssessment{}
	}
	s.jsonResponse(w, http.StatusOK, assessmentsResponse{Assessments: history})
}

// pathID parses a UUID path value, writing a 400 when it is malformed
func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil || id == uuid.Nil {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

// decodeBody reads the body, checks it against the named schema and decodes it
// into dst. It writes the error response itself and reports whether to go on.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, schema string, dst any) bool {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.errorResponse(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		s.errorResponse(w, http.StatusBadRequest, "failed to read request body")
		return false
	}

	if err := s.schemas.Validate(schema, data); err != nil {
		var verr *schemas.ValidationError
		if errors.As(err, &verr) {
			s.errorResponse(w, http.StatusBadRequest, verr.Summary())
			return false
		}
		s.serviceError(w, r, err)
		return false
	}

	if err := json.Unmarshal(data, dst); err != nil {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// serviceError maps a service error to its response. Internal errors are logged
// and replaced with a generic message.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetRequestID(r.Context()).String()),
			zap.String("error", logging.TruncateForLog(err.Error(), 500)),
		)
		s.errorResponse(w, status, "internal server error")
		return
	}
	s.errorResponse(w, status, err.Error())
}

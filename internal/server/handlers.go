package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"

	"go.uber.org/zap"

	"github.com/jonathan/school-finder/internal/session"
	"github.com/jonathan/school-finder/internal/types"
)

// SessionResponse represents the response for session endpoints
type SessionResponse struct {
	SessionID string           `json:"session_id"`
	State     session.Snapshot `json:"state"`
}

// SchoolView is a visible school with its recommendation flag.
type SchoolView struct {
	types.School
	Recommended bool `json:"recommended"`
}

// SchoolsResponse represents the response for /sessions/{id}/schools
type SchoolsResponse struct {
	SessionID string           `json:"session_id"`
	Schools   []SchoolView     `json:"schools"`
	State     session.Snapshot `json:"state"`
}

// AdviceResponse represents the response for /sessions/{id}/advice
type AdviceResponse struct {
	SessionID            string           `json:"session_id"`
	Advice               string           `json:"advice"`
	RecommendedSchoolIDs []int            `json:"recommended_school_ids"`
	State                session.Snapshot `json:"state"`
}

// handleCreateSession creates a session and starts its dataset load
func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	id, c, err := s.sessions.create()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Debug("session created", zap.String("session_id", id))
	s.jsonResponse(w, http.StatusCreated, SessionResponse{SessionID: id, State: c.Snapshot()})
}

// handleGetSession returns the session state
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, err := s.sessions.get(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, SessionResponse{SessionID: id, State: c.Snapshot()})
}

// handleDeleteSession closes a session and cancels its pending advice
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.remove(r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReload retries the dataset load synchronously
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, err := s.sessions.get(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	ctx, cancel := s.sessions.loadContext(r.Context())
	defer cancel()
	if err := c.Load(ctx); err != nil {
		s.writeError(w, &ErrDatasetUnavailable{Message: err.Error()})
		return
	}
	s.jsonResponse(w, http.StatusOK, SessionResponse{SessionID: id, State: c.Snapshot()})
}

// handleListSchools returns the filtered, sorted schools for a session
func (s *Server) handleListSchools(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, err := s.sessions.get(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	schools, state := c.Visible()
	if state.LoadError != "" && state.TotalCount == 0 {
		s.writeError(w, &ErrDatasetUnavailable{Message: state.LoadError})
		return
	}

	views := make([]SchoolView, 0, len(schools))
	for _, school := range schools {
		views = append(views, SchoolView{
			School:      school,
			Recommended: slices.Contains(state.RecommendedSchoolIDs, school.ID),
		})
	}
	s.jsonResponse(w, http.StatusOK, SchoolsResponse{SessionID: id, Schools: views, State: state})
}

// handleSetFilters updates the toggle state. Omitted toggles keep their
// current value.
func (s *Server) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, err := s.sessions.get(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	filters := c.Snapshot().Filters
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&filters); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	c.SetFilters(filters)
	s.jsonResponse(w, http.StatusOK, SessionResponse{SessionID: id, State: c.Snapshot()})
}

// handleSetSort updates the sort mode
func (s *Server) handleSetSort(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, err := s.sessions.get(id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req types.SortRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, validationError(err))
		return
	}

	c.SetSort(req.Sort)
	s.jsonResponse(w, http.StatusOK, SessionResponse{SessionID: id, State: c.Snapshot()})
}

// decodeAdviceRequest resolves the session and validates the prompt.
func (s *Server) decodeAdviceRequest(r *http.Request) (*session.Controller, string, error) {
	c, err := s.sessions.get(r.PathValue("id"))
	if err != nil {
		return nil, "", err
	}

	var req types.AdviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, "", &ErrValidation{Field: "body", Message: err.Error()}
	}
	if err := req.Validate(); err != nil {
		return nil, "", validationError(err)
	}

	state := c.Snapshot()
	if state.TotalCount == 0 {
		switch {
		case state.IsLoading:
			return nil, "", &ErrDatasetLoading{}
		case state.LoadError != "":
			return nil, "", &ErrDatasetUnavailable{Message: state.LoadError}
		}
	}
	return c, req.Prompt, nil
}

// handleAdvice asks for advice on the visible schools and waits for the result
func (s *Server) handleAdvice(w http.ResponseWriter, r *http.Request) {
	c, prompt, err := s.decodeAdviceRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := c.SubmitAdvice(r.Context(), prompt)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, AdviceResponse{
		SessionID:            r.PathValue("id"),
		Advice:               result.Advice,
		RecommendedSchoolIDs: result.RecommendedSchoolIDs,
		State:                c.Snapshot(),
	})
}

// handleAdviceStream asks for advice and streams the lifecycle via SSE
func (s *Server) handleAdviceStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, prompt, err := s.decodeAdviceRequest(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	pending := c.StartAdvice(r.Context(), prompt)
	if err := sse.WriteEvent(EventLoading, SessionResponse{SessionID: id, State: pending.State}); err != nil {
		s.logger.Warn("error writing SSE event", zap.Error(err))
	}

	result, err := pending.Wait()
	status := "completed"
	if err != nil {
		status = "failed"
		if errors.Is(err, session.ErrSuperseded) {
			status = "superseded"
		}
		if err := sse.WriteError(err.Error()); err != nil {
			s.logger.Warn("error writing SSE event", zap.Error(err))
		}
	} else if err := sse.WriteEvent(EventAdvice, AdviceResponse{
		SessionID:            id,
		Advice:               result.Advice,
		RecommendedSchoolIDs: result.RecommendedSchoolIDs,
		State:                c.Snapshot(),
	}); err != nil {
		s.logger.Warn("error writing SSE event", zap.Error(err))
	}

	if err := sse.WriteComplete(id, status); err != nil {
		s.logger.Warn("error writing SSE event", zap.Error(err))
	}
}

// handleGetSchool returns a single school record from the dataset
func (s *Server) handleGetSchool(w http.ResponseWriter, r *http.Request) {
	schoolID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || schoolID <= 0 {
		s.writeError(w, &ErrValidation{Field: "id", Message: "must be a positive integer"})
		return
	}

	ctx, cancel := s.sessions.loadContext(r.Context())
	defer cancel()
	schools, err := s.loader.Load(ctx)
	if err != nil {
		s.writeError(w, &ErrDatasetUnavailable{Message: err.Error()})
		return
	}

	idx := slices.IndexFunc(schools, func(school types.School) bool { return school.ID == schoolID })
	if idx < 0 {
		s.writeError(w, &ErrSchoolNotFound{ID: schoolID})
		return
	}
	s.jsonResponse(w, http.StatusOK, schools[idx])
}

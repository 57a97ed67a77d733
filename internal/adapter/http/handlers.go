package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/couchcryptid/neighborhood-report-builder/internal/domain"
	"github.com/couchcryptid/neighborhood-report-builder/internal/report"
)

const maxBodyBytes = 1 << 16

type sessionHandler func(w http.ResponseWriter, r *http.Request, s *report.Session)

func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.sessions.Get(r.PathValue("id"))
		if !ok {
			writeError(w, http.StatusNotFound, errors.New("session not found"))
			return
		}
		h(w, r, sess)
	}
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, catalogView{RequestTypes: s.catalog.Types()})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess, err := s.sessions.Create()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	w.Header().Set("Location", "/api/v1/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, newSessionView(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, _ *http.Request, sess *report.Session) {
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type filterUpdate struct {
	Dimension domain.Dimension `json:"dimension"`
	Value     string           `json:"value"`
}

func (s *Server) handleUpdateFilter(w http.ResponseWriter, r *http.Request, sess *report.Session) {
	var body filterUpdate
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if _, err := sess.Update(body.Dimension, body.Value); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) handleToggleLayer(w http.ResponseWriter, r *http.Request, sess *report.Session) {
	if _, err := sess.Toggle(r.PathValue("type")); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) handleSelectAll(w http.ResponseWriter, _ *http.Request, sess *report.Session) {
	sess.SelectAll()
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) handleDeselectAll(w http.ResponseWriter, _ *http.Request, sess *report.Session) {
	sess.DeselectAll()
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) handleBuild(w http.ResponseWriter, _ *http.Request, sess *report.Session) {
	if err := sess.RequestBuild(); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusAccepted, newSessionView(sess))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownDimension),
		errors.Is(err, domain.ErrInvalidValue),
		errors.Is(err, domain.ErrUnknownRequestType):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrIncompleteRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, report.ErrClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"vca-advisor/internal/common/errors"
	"vca-advisor/internal/tekmetric"
	"vca-advisor/internal/vca/intelligence"
)

type vcaContext struct {
	RepairOrder tekmetric.Record `json:"repairOrder"`
}

type vcaResponse struct {
	Context      vcaContext                     `json:"context"`
	Intelligence *intelligence.AdvisoryDocument `json:"intelligence"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	roID := strings.TrimSpace(r.URL.Query().Get("roId"))
	var err error
	if roID == "" {
		err = s.renderer.RenderIndex(w)
	} else {
		err = s.renderer.RenderShell(w, roID)
	}
	if err != nil {
		s.requestLogger(r).WithError(err).Error("Failed to render page", nil)
	}
}

func (s *Server) handleVCA(w http.ResponseWriter, r *http.Request) {
	roID := strings.TrimSpace(r.URL.Query().Get("roId"))
	if roID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing roId"})
		return
	}

	resp, err := s.advise(r.Context(), roID)
	if err != nil {
		s.logFailure(r, roID, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSidebar(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	roID := strings.TrimSpace(r.URL.Query().Get("roId"))
	if roID == "" {
		if err := s.renderer.RenderIndex(w); err != nil {
			s.requestLogger(r).WithError(err).Error("Failed to render page", nil)
		}
		return
	}

	resp, err := s.advise(r.Context(), roID)
	if err != nil {
		s.logFailure(r, roID, err)
		w.WriteHeader(http.StatusInternalServerError)
		if rerr := s.renderer.RenderError(w, roID, err.Error()); rerr != nil {
			s.requestLogger(r).WithError(rerr).Error("Failed to render page", nil)
		}
		return
	}

	if err := s.renderer.RenderSidebar(w, roID, r.URL.Query().Get("tab"), resp.Intelligence); err != nil {
		s.requestLogger(r).WithError(err).Error("Failed to render page", nil)
	}
}

// advise builds the context and synthesizes the document for one repair
// order. Errors come back unmodified.
func (s *Server) advise(ctx context.Context, roID string) (*vcaResponse, error) {
	agg, err := s.builder.Build(ctx, roID)
	if err != nil {
		return nil, err
	}

	doc, err := s.synthesizer.Synthesize(ctx, agg)
	if err != nil {
		return nil, err
	}

	return &vcaResponse{
		Context:      vcaContext{RepairOrder: agg.RepairOrder},
		Intelligence: doc,
	}, nil
}

func (s *Server) logFailure(r *http.Request, roID string, err error) {
	code := errors.CodeOf(err)
	s.requestLogger(r).WithError(err).Error("VCA request failed", map[string]interface{}{
		"repairOrderId": roID,
		"code":          string(code),
		"category":      errors.GetErrorCategory(code),
		"retryable":     errors.IsRetryable(err),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	failures := map[string]string{}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}

	if len(failures) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not ready",
			"checks": failures,
			"time":   time.Now().Format(time.RFC3339),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

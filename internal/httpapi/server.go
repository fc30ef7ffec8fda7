// Package httpapi exposes the evaluation service over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"DealSentinel/internal/model"
	"DealSentinel/internal/recorder"
	"DealSentinel/internal/service"
)

const (
	maxBodyBytes = 1 << 20
	maxBatchSize = 100
)

// Server serves the evaluation API.
type Server struct {
	svc *service.Service
}

func New(svc *service.Service) *Server {
	return &Server{svc: svc}
}

// Routes returns a chi.Router with all API routes mounted.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.healthz)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/clearinghouse", s.evaluate(s.svc.Clearinghouse))
		r.Post("/valuation", s.evaluate(s.svc.Valuation))
		r.Post("/evaluations", s.evaluate(s.svc.Evaluate))
		r.Post("/evaluations/batch", s.batch)
		r.Get("/evaluations/{id}", s.getEvaluation)
		r.Get("/evaluations/{id}/report", s.report)
	})
	return r
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type evaluateFunc func(ctx context.Context, req service.Request) (*model.Evaluation, error)

func (s *Server) evaluate(fn evaluateFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req service.Request
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, err)
			return
		}
		ev, err := fn(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ev)
	}
}

type batchRequest struct {
	Items []service.Request `json:"items"`
}

type batchResponse struct {
	Results []*model.Evaluation `json:"results"`
}

func (s *Server) batch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	switch {
	case len(req.Items) == 0:
		writeError(w, badRequest("items must not be empty"))
		return
	case len(req.Items) > maxBatchSize:
		writeError(w, badRequest(fmt.Sprintf("at most %d items per batch", maxBatchSize)))
		return
	}
	results, err := s.svc.EvaluateBatch(r.Context(), req.Items)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{Results: results})
}

// recordResponse is a stored evaluation with its JSON columns inlined.
type recordResponse struct {
	ID                string               `json:"id"`
	Kind              model.EvaluationKind `json:"kind"`
	Status            string               `json:"status,omitempty"`
	ConfidencePercent int                  `json:"confidencePercent"`
	EstimatedFMV      float64              `json:"estimatedFmv,omitempty"`
	CreatedAt         time.Time            `json:"createdAt"`
	Deal              json.RawMessage      `json:"deal"`
	Profile           json.RawMessage      `json:"profile"`
	Result            json.RawMessage      `json:"result"`
}

func (s *Server) getEvaluation(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordResponse{
		ID:                rec.ID,
		Kind:              rec.Kind,
		Status:            rec.Status,
		ConfidencePercent: rec.ConfidencePercent,
		EstimatedFMV:      rec.EstimatedFMV,
		CreatedAt:         rec.CreatedAt,
		Deal:              json.RawMessage(rec.DealJSON),
		Profile:           json.RawMessage(rec.ProfileJSON),
		Result:            json.RawMessage(rec.ResultJSON),
	})
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	page, err := s.svc.Report(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(page)); err != nil {
		log.Printf("[WARN] write report: %v", err)
	}
}

type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error { return &requestError{msg: msg} }

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return badRequest(fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

func writeError(w http.ResponseWriter, err error) {
	var inv *model.InvalidInputError
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": reqErr.msg})
	case errors.As(err, &inv):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error(), "field": inv.Field})
	case errors.Is(err, recorder.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "evaluation not found"})
	default:
		log.Printf("[ERROR] request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[WARN] encode response: %v", err)
	}
}

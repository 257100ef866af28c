package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/healthscore/internal/model"
	"github.com/sells-group/healthscore/internal/store"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if eris.Is(err, store.ErrNotFound) {
		status = http.StatusNotFound
	}
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Metrics

func (s *Server) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	metrics, err := s.svc.Store().ListMetrics(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, metrics)
}

func (s *Server) handleAddMetric(w http.ResponseWriter, r *http.Request) {
	var m model.Metric
	if !decodeBody(w, r, &m) {
		return
	}
	created, err := s.svc.AddMetric(r.Context(), m)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateMetric(w http.ResponseWriter, r *http.Request) {
	var m model.Metric
	if !decodeBody(w, r, &m) {
		return
	}
	m.ID = chi.URLParam(r, "id")
	if err := s.svc.UpdateMetric(r.Context(), m); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (s *Server) handleDeleteMetric(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteMetric(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Score bands

func (s *Server) handleListBands(w http.ResponseWriter, r *http.Request) {
	bands, err := s.svc.Store().ListBands(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, bands)
}

func (s *Server) handleAddBand(w http.ResponseWriter, r *http.Request) {
	var b model.ScoreBand
	if !decodeBody(w, r, &b) {
		return
	}
	created, err := s.svc.AddBand(r.Context(), b)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateBand(w http.ResponseWriter, r *http.Request) {
	var b model.ScoreBand
	if !decodeBody(w, r, &b) {
		return
	}
	b.ID = chi.URLParam(r, "id")
	if err := s.svc.UpdateBand(r.Context(), b); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteBand(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteBand(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Custom fields

func (s *Server) handleListFields(w http.ResponseWriter, r *http.Request) {
	fields, err := s.svc.Store().ListFields(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, fields)
}

func (s *Server) handleAddField(w http.ResponseWriter, r *http.Request) {
	var f model.CustomField
	if !decodeBody(w, r, &f) {
		return
	}
	created, err := s.svc.AddField(r.Context(), f)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (s *Server) handleDeleteField(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteField(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Customers

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.svc.Store().ListCustomers(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, customers)
}

func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := s.svc.Store().GetCustomer(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleSaveCustomer(w http.ResponseWriter, r *http.Request) {
	var c model.Customer
	if !decodeBody(w, r, &c) {
		return
	}
	if id := chi.URLParam(r, "id"); id != "" {
		c.ID = id
	}
	saved, err := s.svc.SaveCustomer(r.Context(), c)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	status := http.StatusOK
	if r.Method == http.MethodPost {
		status = http.StatusCreated
	}
	respondJSON(w, status, saved)
}

func (s *Server) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Store().DeleteCustomer(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetValue(w http.ResponseWriter, r *http.Request) {
	var v model.MetricValue
	if !decodeBody(w, r, &v) {
		return
	}
	updated, err := s.svc.SetMetricValue(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "metricID"), v)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// Document operations

func (s *Server) handleRecompute(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.RecomputeAll(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	sum, err := s.svc.Summarize(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sum)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, err := s.svc.Store().Export(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var doc model.AppData
	if !decodeBody(w, r, &doc) {
		return
	}
	if err := s.svc.Store().Import(r.Context(), &doc); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{
		"metrics":   len(doc.Metrics),
		"bands":     len(doc.ScoreGroups),
		"customers": len(doc.Merchants),
	})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.svc.Summarize(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sum)
}

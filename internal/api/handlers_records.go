package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/fundgest/internal/errs"
	"github.com/dgallion1/fundgest/internal/recordstore"
)

const defaultListLimit = 200

// handleListRecords lists outputs pushed to the record store, optionally
// for one dataset.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "limit must be a positive number", http.StatusBadRequest)
			return
		}
		limit = n
	}
	ds := r.URL.Query().Get("dataset")

	refs, err := s.store.ListOutputs(r.Context(), ds, limit)
	if err != nil {
		s.storeError(w, "list records", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dataset": ds, "records": refs})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	out, err := s.store.GetOutput(r.Context(), chi.URLParam(r, "dataset"), chi.URLParam(r, "name"))
	if err != nil {
		s.storeError(w, "get record", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	ds, name := chi.URLParam(r, "dataset"), chi.URLParam(r, "name")
	if err := s.store.DeleteOutput(r.Context(), ds, name); err != nil {
		s.storeError(w, "delete record", err)
		return
	}
	s.log.Info("record deleted", "dataset", ds, "name", name)
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted": recordstore.OutputKey(ds, name),
	})
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		jsonError(w, "record store not configured", http.StatusServiceUnavailable)
		return false
	}
	return true
}

// storeError maps record store failures onto HTTP status codes.
func (s *Server) storeError(w http.ResponseWriter, op string, err error) {
	var retry *recordstore.RetryableError
	switch {
	case errs.IsNotFound(err):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &retry):
		s.log.Warn(op+" failed", "error", err)
		jsonError(w, op+": record store unavailable", http.StatusBadGateway)
	default:
		s.log.Error(op+" failed", "error", err)
		jsonError(w, op+": "+err.Error(), http.StatusInternalServerError)
	}
}

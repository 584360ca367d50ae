package api

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/fundgest/internal/dataset"
	"github.com/dgallion1/fundgest/internal/parser"
	"github.com/dgallion1/fundgest/internal/pipeline"
	"github.com/dgallion1/fundgest/internal/sink"
)

func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Name string       `json:"name"`
		Kind dataset.Kind `json:"kind"`
	}
	procs := s.orchestrator.Registry().Processors()
	out := make([]entry, len(procs))
	for i, p := range procs {
		out[i] = entry{Name: p.Name(), Kind: p.Kind()}
	}
	writeJSON(w, http.StatusOK, map[string]any{"datasets": out})
}

// handleProcess accepts one upload: a spreadsheet for tabular datasets, or
// a minutes file or pasted text for the agenda dataset.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	proc, ok := s.lookup(w, r.FormValue("dataset"))
	if !ok {
		return
	}
	text := r.FormValue("text")

	var (
		filename string
		data     []byte
	)
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		filename = sanitizeFilename(header.Filename)
		if err := s.checkExtension(proc.Kind(), filename); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, err = s.readUpload(file)
		if err != nil {
			jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
	case proc.Kind() == dataset.KindTable || text == "":
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	default:
		// Pasted minutes; the optional name still carries the meeting date.
		if name := r.FormValue("filename"); name != "" {
			filename = sanitizeFilename(name)
		}
	}

	job := pipeline.NewJob(proc.Name(), filename, r.FormValue("year"), text, data)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"dataset":  job.Dataset,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

// handleBatchProcess queues one job per uploaded file, all for the same
// dataset. Per-file problems are reported inline.
func (s *Server) handleBatchProcess(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	proc, ok := s.lookup(w, r.FormValue("dataset"))
	if !ok {
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}
	year, text := r.FormValue("year"), r.FormValue("text")

	var results []map[string]any
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)
		fail := func(msg string) {
			results = append(results, map[string]any{"filename": filename, "error": msg})
		}
		if err := s.checkExtension(proc.Kind(), filename); err != nil {
			fail(err.Error())
			continue
		}
		f, err := fh.Open()
		if err != nil {
			fail("failed to open file")
			continue
		}
		data, err := s.readUpload(f)
		f.Close()
		if err != nil {
			fail(err.Error())
			continue
		}

		job := pipeline.NewJob(proc.Name(), filename, year, text, data)
		if err := s.orchestrator.Submit(job); err != nil {
			fail(err.Error())
			continue
		}
		results = append(results, map[string]any{
			"filename": filename,
			"job_id":   job.ID,
			"status":   pipeline.StatusQueued,
			"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
		})
	}

	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// handleJobOutput returns one output of a job as JSON, or as a CSV
// download with ?format=csv.
func (s *Server) handleJobOutput(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		jsonError(w, "output index must be a number", http.StatusBadRequest)
		return
	}
	out, ok := job.Output(idx)
	if !ok {
		jsonError(w, fmt.Sprintf("job has no output %d", idx), http.StatusNotFound)
		return
	}

	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "json":
		writeJSON(w, http.StatusOK, sink.Stored(out, job.Filename, job.ID))
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sink.FileName(out.Name)))
		cw := csv.NewWriter(w)
		if err := cw.WriteAll(out.Table.Strings()); err != nil {
			s.log.Error("write csv", "job_id", job.ID, "error", err)
		}
	default:
		jsonError(w, "format must be json or csv", http.StatusBadRequest)
	}
}

func (s *Server) lookup(w http.ResponseWriter, name string) (dataset.Processor, bool) {
	if name == "" {
		jsonError(w, "dataset is required", http.StatusBadRequest)
		return nil, false
	}
	proc, ok := s.orchestrator.Registry().Lookup(name)
	if !ok {
		jsonError(w, fmt.Sprintf("unknown dataset: %s", name), http.StatusBadRequest)
		return nil, false
	}
	return proc, true
}

// checkExtension rejects files the dataset's parser cannot read.
func (s *Server) checkExtension(kind dataset.Kind, filename string) error {
	if kind == dataset.KindTable {
		if !parser.IsTable(filename) {
			return fmt.Errorf("unsupported spreadsheet type: %s", filepath.Ext(filename))
		}
		return nil
	}
	if !parser.IsSupportedExtension(filename) || parser.IsTable(filename) {
		return fmt.Errorf("unsupported document type: %s", filepath.Ext(filename))
	}
	return nil
}

func (s *Server) readUpload(f multipart.File) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
	}
	return data, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/coursegest/internal/report"
	"github.com/dgallion1/coursegest/internal/store"
)

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// handleJobReport renders the run report as HTML, or as Markdown with
// ?format=md.
func (s *Server) handleJobReport(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	run := job.Report()
	if r.URL.Query().Get("format") == "md" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(report.Markdown(run)))
		return
	}
	body, err := report.HTML(run)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(body)
}

func (s *Server) handleRunStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"queue_depth": s.orchestrator.QueueDepth(),
		"stats":       s.orchestrator.Stats().Snapshot(),
	})
}

// handleGetDocument reads one stored document, e.g.
// ?path=lab_schedule/2025/semesters/1. Stores that can list children also
// return the paths directly below it, so a path with children but no
// document of its own still answers.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	path := store.ParsePath(r.URL.Query().Get("path"))
	if err := path.Validate(); err != nil {
		jsonError(w, "path query parameter is required", http.StatusBadRequest)
		return
	}
	st := s.orchestrator.Store()
	fields, err := st.Get(r.Context(), path)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		jsonError(w, "failed to read document: "+err.Error(), http.StatusInternalServerError)
		return
	}
	found := err == nil

	resp := map[string]any{"path": path.String(), "fields": fields}
	if lister, ok := st.(store.Lister); ok {
		children, err := lister.Children(r.Context(), path)
		if err != nil {
			jsonError(w, "failed to list children: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if children == nil {
			children = []string{}
		}
		resp["children"] = children
		found = found || len(children) > 0
	}
	if !found {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

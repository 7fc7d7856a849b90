package api

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/coursegest/internal/labs"
	"github.com/dgallion1/coursegest/internal/parser"
	"github.com/dgallion1/coursegest/internal/pipeline"
	"github.com/dgallion1/coursegest/internal/yearbook"
)

func (s *Server) handleUploadLabs(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.readUpload(w, r, parser.WorkbookExtensions)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	semester, err := strconv.Atoi(strings.TrimSpace(r.FormValue("semester")))
	if err != nil {
		jsonError(w, "semester must be a number", http.StatusBadRequest)
		return
	}
	target := labs.Target{
		YearID:    strings.TrimSpace(r.FormValue("yearId")),
		YearLabel: strings.TrimSpace(r.FormValue("yearLabel")),
		Semester:  semester,
	}
	if err := target.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.submit(w, pipeline.NewLabsJob(filename, data, target))
}

func (s *Server) handleUploadYearbook(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.readUpload(w, r, parser.DocumentExtensions)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	target := yearbook.Target{
		YearbookID: strings.TrimSpace(r.FormValue("yearbookId")),
		Label:      strings.TrimSpace(r.FormValue("yearbookLabel")),
	}
	if err := target.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.submit(w, pipeline.NewYearbookJob(filename, data, target))
}

// readUpload parses the multipart form and returns the "file" part. On
// failure it has already written the response.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, allowed map[string]bool) (string, []byte, bool) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return "", nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		r.MultipartForm.RemoveAll()
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return "", nil, false
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !allowed[strings.ToLower(filepath.Ext(filename))] {
		r.MultipartForm.RemoveAll()
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return "", nil, false
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		r.MultipartForm.RemoveAll()
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return "", nil, false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		r.MultipartForm.RemoveAll()
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return "", nil, false
	}
	return filename, data, true
}

func (s *Server) submit(w http.ResponseWriter, job *pipeline.Job) {
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	s.log.Info("job queued", "job_id", job.ID, "kind", job.Kind, "filename", job.Filename, "target", job.Target())
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"kind":     job.Kind,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}

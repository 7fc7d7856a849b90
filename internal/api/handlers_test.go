package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/coursegest/internal/config"
	"github.com/dgallion1/coursegest/internal/pipeline"
	"github.com/dgallion1/coursegest/internal/store"
)

const testKey = "secret"

const labsCSV = "תרביות תאים - 41262,,,,,,\n" +
	"תאריך,יום,שעה,קבוצה,שם המרצה,מס' מע',שם המקצוע\n" +
	"01.02.25,א,09:00,1,כהן,1,תרביות\n"

func newTestServer(t *testing.T) (*Server, *store.Memory) {
	t.Helper()
	cfg := config.Config{
		APIKey:         testKey,
		StoreBackend:   config.BackendMemory,
		WorkerCount:    1,
		MaxQueueSize:   4,
		MaxUploadBytes: 1 << 20,
		JobTTL:         time.Hour,
	}
	mem := store.NewMemory()
	log := slog.New(slog.DiscardHandler)
	orch := pipeline.NewOrchestrator(cfg, mem, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, log, cfg), mem
}

func multipartRequest(t *testing.T, url, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func authed(method, url string) *http.Request {
	req := httptest.NewRequest(method, url, nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func waitForJob(t *testing.T, srv *Server, id string) map[string]any {
	t.Helper()
	var snap map[string]any
	require.Eventually(t, func() bool {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, authed(http.MethodGet, "/api/jobs/"+id))
		if rec.Code != http.StatusOK {
			return false
		}
		snap = decode(t, rec)
		return snap["status"] == "completed" || snap["status"] == "failed"
	}, 5*time.Second, 10*time.Millisecond)
	return snap
}

func TestHealth_NoAuth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestAuth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/runs", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/stats/runs", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(http.MethodGet, "/api/stats/runs"))
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/stats/runs", nil)
	req.Header.Set("X-API-Key", testKey)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_EmptyKeyRejectsAll(t *testing.T) {
	h := AuthMiddleware("", slog.New(slog.DiscardHandler))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/stats/runs", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadLabs_EndToEnd(t *testing.T) {
	srv, mem := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, multipartRequest(t, "/api/upload/labs", "labs.csv", labsCSV, map[string]string{
		"yearId": "2025", "yearLabel": "תשפ\"ה", "semester": "1",
	}))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	accepted := decode(t, rec)
	id, _ := accepted["job_id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "/api/jobs/"+id, accepted["poll_url"])

	snap := waitForJob(t, srv, id)
	assert.Equal(t, "completed", snap["status"])
	assert.Equal(t, "lab_schedule/2025/semesters/1", snap["target"])
	result := snap["result"].(map[string]any)
	assert.EqualValues(t, 1, result["labs"].(map[string]any)["courses"])

	_, err := mem.Get(context.Background(), store.NewPath("lab_schedule", "2025", "semesters", "1"))
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(http.MethodGet, "/api/documents?path=lab_schedule/2025"))
	require.Equal(t, http.StatusOK, rec.Code)
	doc := decode(t, rec)
	assert.Equal(t, "תשפ\"ה", doc["fields"].(map[string]any)["year"])

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(http.MethodGet, "/api/jobs/"+id+"/report"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "<h1>labs run "+id+"</h1>")

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(http.MethodGet, "/api/jobs/"+id+"/report?format=md"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "# labs run"))

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(http.MethodGet, "/api/stats/runs"))
	stats := decode(t, rec)["stats"].(map[string]any)
	assert.EqualValues(t, 1, stats["all"].(map[string]any)["count"])
}

func TestUploadLabs_Validation(t *testing.T) {
	srv, _ := newTestServer(t)
	tests := []struct {
		name     string
		filename string
		fields   map[string]string
	}{
		{"missing file", "", map[string]string{"yearId": "2025", "semester": "1"}},
		{"document instead of sheet", "book.docx", map[string]string{"yearId": "2025", "semester": "1"}},
		{"semester not a number", "labs.csv", map[string]string{"yearId": "2025", "semester": "first"}},
		{"missing year", "labs.csv", map[string]string{"semester": "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, multipartRequest(t, "/api/upload/labs", tt.filename, labsCSV, tt.fields))
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestUploadLabs_TooLarge(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.cfg.MaxUploadBytes = 10
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, multipartRequest(t, "/api/upload/labs", "labs.csv", labsCSV, map[string]string{"yearId": "y", "semester": "1"}))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadYearbook_MalformedFails(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, multipartRequest(t, "/api/upload/yearbook", "book.docx", "not a docx", map[string]string{
		"yearbookId": "yb2025", "yearbookLabel": "2025",
	}))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	snap := waitForJob(t, srv, decode(t, rec)["job_id"].(string))
	assert.Equal(t, "failed", snap["status"])
	errs := snap["result"].(map[string]any)["errors"].([]any)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "malformed input")
}

func TestUploadYearbook_RequiresID(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, multipartRequest(t, "/api/upload/yearbook", "book.docx", "x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobNotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	for _, url := range []string{"/api/jobs/nope", "/api/jobs/nope/report"} {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, authed(http.MethodGet, url))
		assert.Equal(t, http.StatusNotFound, rec.Code, url)
	}
}

func TestGetDocument(t *testing.T) {
	srv, mem := newTestServer(t)
	require.NoError(t, mem.Put(context.Background(), store.NewPath("yearbooks", "yb"), map[string]any{"displayName": "2025"}, false))

	require.NoError(t, mem.Put(context.Background(), store.NewPath("yearbooks", "yb", "requiredCourses", "semester_1"), map[string]any{"semesterNumber": 1}, true))

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(http.MethodGet, "/api/documents?path=/yearbooks/yb/"))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "yearbooks/yb", body["path"])
	assert.Equal(t, []any{}, body["children"])

	// No document of its own, but one child.
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(http.MethodGet, "/api/documents?path=yearbooks/yb/requiredCourses"))
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Nil(t, body["fields"])
	assert.Equal(t, []any{"yearbooks/yb/requiredCourses/semester_1"}, body["children"])

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(http.MethodGet, "/api/documents?path=yearbooks/missing"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, authed(http.MethodGet, "/api/documents"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"labs.xlsx":             "labs.xlsx",
		"../../etc/passwd.csv":  "passwd.csv",
		`C:\Users\me\book.docx`: "book.docx",
		"":                      "unnamed",
		"a..b.csv":              "a_b.csv",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), in)
	}
}

package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/dgallion1/coursegest/internal/labs"
	"github.com/dgallion1/coursegest/internal/report"
	"github.com/dgallion1/coursegest/internal/yearbook"
)

// Kind selects the extractor a job runs.
type Kind string

const (
	KindLabs     Kind = "labs"
	KindYearbook Kind = "yearbook"
)

// JobStatus represents the state of an ingestion job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusReading   JobStatus = "reading"
	StatusIngesting JobStatus = "ingesting"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job tracks the state of a single upload run.
type Job struct {
	mu sync.Mutex

	ID       string `json:"job_id"`
	Kind     Kind   `json:"kind"`
	Filename string `json:"filename"`

	// Exactly one target is set, matching Kind.
	Labs     *labs.Target     `json:"-"`
	Yearbook *yearbook.Target `json:"-"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Attempts int       `json:"attempts"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	StartedAt   time.Time `json:"-"`
	FinishedAt  time.Time `json:"-"`

	// Internal: not serialized.
	fileData       []byte
	labsResult     *labs.Stats
	yearbookResult *yearbook.Stats
	errors         []string
}

// NewLabsJob builds a queued lab-schedule job.
func NewLabsJob(filename string, data []byte, t labs.Target) *Job {
	j := newJob(KindLabs, filename, data)
	j.Labs = &t
	return j
}

// NewYearbookJob builds a queued yearbook job.
func NewYearbookJob(filename string, data []byte, t yearbook.Target) *Job {
	j := newJob(KindYearbook, filename, data)
	j.Yearbook = &t
	return j
}

func newJob(kind Kind, filename string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:          NewJobID(),
		Kind:        kind,
		Filename:    filename,
		Status:      StatusQueued,
		Phase:       "queued",
		ContentHash: ContentHashHex(data),
		CreatedAt:   now,
		UpdatedAt:   now,
		fileData:    data,
	}
}

// Target renders the destination path of the job.
func (j *Job) Target() string {
	switch {
	case j.Labs != nil:
		return labs.SemesterPath(j.Labs.YearID, j.Labs.Semester).String()
	case j.Yearbook != nil:
		return yearbook.RootPath(j.Yearbook.YearbookID).String()
	}
	return ""
}

// Result holds run counts; it is empty until the run finishes.
type Result struct {
	Labs     *labs.Stats     `json:"labs,omitempty"`
	Yearbook *yearbook.Stats `json:"yearbook,omitempty"`
	Errors   []string        `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len is the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := time.Now()
	switch {
	case status == StatusReading && j.StartedAt.IsZero():
		j.StartedAt = now
	case status == StatusCompleted || status == StatusFailed:
		j.FinishedAt = now
	}
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = now
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// NextAttempt counts one more ingest attempt.
func (j *Job) NextAttempt() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Attempts++
	j.UpdatedAt = time.Now()
	return j.Attempts
}

// SetLabsResult records the counts of a lab-schedule run.
func (j *Job) SetLabsResult(st labs.Stats) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.labsResult = &st
	j.UpdatedAt = time.Now()
}

// SetYearbookResult records the counts of a yearbook run.
func (j *Job) SetYearbookResult(st yearbook.Stats) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.yearbookResult = &st
	j.UpdatedAt = time.Now()
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// releaseFile drops the upload once it has been parsed.
func (j *Job) releaseFile() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	Kind      Kind      `json:"kind"`
	Filename  string    `json:"filename"`
	Target    string    `json:"target"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Result    Result    `json:"result"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.errors...)
	return JobSnapshot{
		ID:        j.ID,
		Kind:      j.Kind,
		Filename:  j.Filename,
		Target:    j.Target(),
		Status:    j.Status,
		Phase:     j.Phase,
		Attempts:  j.Attempts,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
		Result: Result{
			Labs:     j.labsResult,
			Yearbook: j.yearbookResult,
			Errors:   errs,
		},
	}
}

// Report returns the job as a report run.
func (j *Job) Report() report.Run {
	j.mu.Lock()
	defer j.mu.Unlock()
	return report.Run{
		JobID:      j.ID,
		Kind:       string(j.Kind),
		Filename:   j.Filename,
		Target:     j.Target(),
		Status:     string(j.Status),
		Attempts:   j.Attempts,
		StartedAt:  j.StartedAt,
		FinishedAt: j.FinishedAt,
		Labs:       j.labsResult,
		Yearbook:   j.yearbookResult,
		Errors:     append([]string(nil), j.errors...),
	}
}

// Finished reports whether the job reached a terminal status.
func (j *Job) Finished() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

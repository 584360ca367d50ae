package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/fundgest/internal/dataset"
)

// JobStatus represents the state of a processing job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusExtracting JobStatus = "extracting"
	StatusStoring    JobStatus = "storing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusPartial
}

// Job tracks one uploaded document through parsing, extraction and storage.
type Job struct {
	mu sync.Mutex

	ID      string `json:"job_id"`
	Dataset string `json:"dataset"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Year     string    `json:"year,omitempty"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	text     string
	outputs  []dataset.Output
	errors   []string
	warnings []string
}

// Progress tracks processing progress.
type Progress struct {
	Outputs  int      `json:"outputs"`
	Records  int      `json:"records"`
	Stored   int      `json:"stored"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// NewJob creates a queued job with a fresh id. text is the companion text
// sent with spreadsheet uploads, or minutes text pasted instead of a file.
func NewJob(ds, filename, year, text string, data []byte) *Job {
	now := time.Now()
	return &Job{
		ID:          uuid.NewString(),
		Dataset:     ds,
		Status:      StatusQueued,
		Phase:       "queued",
		Filename:    filename,
		Year:        year,
		ContentHash: ContentHashHex(data),
		CreatedAt:   now,
		UpdatedAt:   now,
		fileData:    data,
		text:        text,
	}
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

// Len returns the number of tracked jobs.
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
		expired := now.Sub(job.UpdatedAt) > s.ttl
		job.mu.Unlock()
		if expired {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// AddOutput records an extracted output and its warnings.
func (j *Job) AddOutput(out dataset.Output) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.outputs = append(j.outputs, out)
	j.warnings = append(j.warnings, out.Warnings...)
	j.Progress.Outputs = len(j.outputs)
	j.Progress.Records += out.Table.Len()
	j.Progress.Warnings = j.warnings
	j.UpdatedAt = time.Now()
}

// IncrStored counts one successful sink write.
func (j *Job) IncrStored() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.Stored++
	j.UpdatedAt = time.Now()
}

// Outputs returns the outputs produced so far.
func (j *Job) Outputs() []dataset.Output {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]dataset.Output(nil), j.outputs...)
}

// Output returns output i.
func (j *Job) Output(i int) (dataset.Output, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if i < 0 || i >= len(j.outputs) {
		return dataset.Output{}, false
	}
	return j.outputs[i], true
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

// Text returns the companion text sent with the upload.
func (j *Job) Text() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.text
}

// releaseInput drops the upload once it has been parsed.
func (j *Job) releaseInput() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = nil
}

// OutputSummary describes one output in a snapshot.
type OutputSummary struct {
	Index   int      `json:"index"`
	Dataset string   `json:"dataset"`
	Name    string   `json:"name"`
	Date    string   `json:"date,omitempty"`
	Rows    int      `json:"rows"`
	Skipped []string `json:"skipped,omitempty"`
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string          `json:"job_id"`
	Dataset     string          `json:"dataset"`
	Status      JobStatus       `json:"status"`
	Phase       string          `json:"phase"`
	Filename    string          `json:"filename"`
	Year        string          `json:"year,omitempty"`
	ContentHash string          `json:"content_hash,omitempty"`
	Progress    Progress        `json:"progress"`
	Outputs     []OutputSummary `json:"outputs"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	nonNil := func(s []string) []string {
		if s == nil {
			return []string{}
		}
		return append([]string(nil), s...)
	}
	outs := make([]OutputSummary, len(j.outputs))
	for i, o := range j.outputs {
		outs[i] = OutputSummary{
			Index:   i,
			Dataset: o.Dataset,
			Name:    o.Name,
			Date:    o.Date,
			Rows:    o.Table.Len(),
			Skipped: o.Skipped,
		}
	}
	return JobSnapshot{
		ID:          j.ID,
		Dataset:     j.Dataset,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Year:        j.Year,
		ContentHash: j.ContentHash,
		Progress: Progress{
			Outputs:  j.Progress.Outputs,
			Records:  j.Progress.Records,
			Stored:   j.Progress.Stored,
			Errors:   nonNil(j.Progress.Errors),
			Warnings: nonNil(j.Progress.Warnings),
		},
		Outputs:   outs,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// JobStatus represents the state of a pipeline job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusExtracting JobStatus = "extracting_rules"
	StatusGenerating JobStatus = "generating"
	StatusValidating JobStatus = "validating"
	StatusExporting  JobStatus = "exporting"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
)

// Job tracks the state of one document run through the question
// pipeline.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	DocID string `json:"doc_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	// Prefix restricts extraction to one section subtree, e.g. "5.5".
	Prefix string `json:"section_prefix,omitempty"`
	// IgnoreCache forces fresh LLM calls; results are still written
	// back to the cache.
	IgnoreCache bool `json:"ignore_cache,omitempty"`

	Progress Progress `json:"progress"`

	ContentHash  string    `json:"content_hash,omitempty"`
	ArtifactPath string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	errors   []string
}

// Progress tracks per-phase counts.
type Progress struct {
	TotalSections      int      `json:"total_sections"`
	SectionsProcessed  int      `json:"sections_processed"`
	RulesExtracted     int      `json:"rules_extracted"`
	QuestionsGenerated int      `json:"questions_generated"`
	QuestionsValidated int      `json:"questions_validated"`
	QuestionsPassed    int      `json:"questions_passed"`
	Errors             []string `json:"errors"`
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

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
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

// SetTotalSections records how many sections the parse produced.
func (j *Job) SetTotalSections(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.TotalSections = n
	j.UpdatedAt = time.Now()
}

// IncrSectionsProcessed atomically increments sections processed.
func (j *Job) IncrSectionsProcessed() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.SectionsProcessed++
	j.UpdatedAt = time.Now()
}

// AddRules records extracted rule counts.
func (j *Job) AddRules(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.RulesExtracted += n
	j.UpdatedAt = time.Now()
}

// AddQuestions records generation and validation counts.
func (j *Job) AddQuestions(generated, validated, passed int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.QuestionsGenerated += generated
	j.Progress.QuestionsValidated += validated
	j.Progress.QuestionsPassed += passed
	j.UpdatedAt = time.Now()
}

// SetArtifact records where the exported CSV landed.
func (j *Job) SetArtifact(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ArtifactPath = path
	j.UpdatedAt = time.Now()
}

// Artifact returns the exported CSV path, empty until export ran.
func (j *Job) Artifact() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.ArtifactPath
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

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	DocID    string    `json:"doc_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Prefix   string    `json:"section_prefix,omitempty"`
	Progress Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:       j.ID,
		DocID:    j.DocID,
		Status:   j.Status,
		Phase:    j.Phase,
		Filename: j.Filename,
		Prefix:   j.Prefix,
		Progress: Progress{
			TotalSections:      j.Progress.TotalSections,
			SectionsProcessed:  j.Progress.SectionsProcessed,
			RulesExtracted:     j.Progress.RulesExtracted,
			QuestionsGenerated: j.Progress.QuestionsGenerated,
			QuestionsValidated: j.Progress.QuestionsValidated,
			QuestionsPassed:    j.Progress.QuestionsPassed,
			Errors:             errs,
		},
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

// Package fakes provides in-memory collaborators for orchestrator and handler
// tests. The job store fake mirrors the SQL guards of the real store:
// monotonic progress and immutable terminal rows.
package fakes

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"catalog-generator-backend/internal/models"
	"catalog-generator-backend/internal/n8n"
	"catalog-generator-backend/internal/supabase"
)

type JobStore struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]*models.Job
	pages     map[uuid.UUID][]models.JobPage
	templates []models.Template

	// ProgressLog records every progress value observed per job, in order.
	progressLog map[uuid.UUID][]int

	CreateJobErr error
}

func NewJobStore() *JobStore {
	return &JobStore{
		jobs:        make(map[uuid.UUID]*models.Job),
		pages:       make(map[uuid.UUID][]models.JobPage),
		progressLog: make(map[uuid.UUID][]int),
	}
}

func (s *JobStore) AddTemplate(tpl models.Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates = append(s.templates, tpl)
}

func (s *JobStore) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

func (s *JobStore) ProgressLog(jobID uuid.UUID) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.progressLog[jobID]...)
}

func (s *JobStore) CreateJob(job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateJobErr != nil {
		return s.CreateJobErr
	}
	now := time.Now()
	job.CreatedAt = now
	job.UpdatedAt = now
	clone := *job
	s.jobs[job.ID] = &clone
	s.progressLog[job.ID] = append(s.progressLog[job.ID], job.Progress)
	return nil
}

func (s *JobStore) GetJob(jobID uuid.UUID) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, supabase.ErrJobNotFound
	}
	clone := *job
	return &clone, nil
}

func (s *JobStore) SetJobLogoURLs(jobID uuid.UUID, urls []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.mutable(jobID)
	if !ok {
		return supabase.ErrJobNotFound
	}
	job.LogoURLs = append([]string(nil), urls...)
	job.UpdatedAt = time.Now()
	return nil
}

func (s *JobStore) UpdateJobStatus(jobID uuid.UUID, status string, progress int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.mutable(jobID)
	if !ok {
		return supabase.ErrJobNotFound
	}
	job.Status = status
	if progress > job.Progress {
		job.Progress = progress
	}
	job.UpdatedAt = time.Now()
	s.progressLog[jobID] = append(s.progressLog[jobID], job.Progress)
	return nil
}

func (s *JobStore) CompleteJob(jobID uuid.UUID, pdfURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.mutable(jobID)
	if !ok {
		return supabase.ErrJobNotFound
	}
	job.Status = models.JobStatusCompleted
	job.Progress = 100
	job.PDFURL = sql.NullString{String: pdfURL, Valid: true}
	job.ErrorMessage = sql.NullString{}
	job.UpdatedAt = time.Now()
	s.progressLog[jobID] = append(s.progressLog[jobID], job.Progress)
	return nil
}

func (s *JobStore) FailJob(jobID uuid.UUID, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.mutable(jobID)
	if !ok {
		return supabase.ErrJobNotFound
	}
	job.Status = models.JobStatusFailed
	job.ErrorMessage = sql.NullString{String: errorMsg, Valid: true}
	job.PDFURL = sql.NullString{}
	job.UpdatedAt = time.Now()
	return nil
}

func (s *JobStore) CreateJobPage(page *models.JobPage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	page.CreatedAt = time.Now()
	s.pages[page.JobID] = append(s.pages[page.JobID], *page)
	return nil
}

func (s *JobStore) GetJobPages(jobID uuid.UUID) ([]models.JobPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.JobPage(nil), s.pages[jobID]...), nil
}

func (s *JobStore) GetTemplate(itemName, color string) (*models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.templates {
		if s.templates[i].ItemName == itemName && s.templates[i].Color == color {
			clone := s.templates[i]
			return &clone, nil
		}
	}
	return nil, supabase.ErrTemplateNotFound
}

func (s *JobStore) ListTemplates() ([]models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Template(nil), s.templates...), nil
}

func (s *JobStore) CreateTemplate(tpl *models.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tpl.CreatedAt = time.Now()
	tpl.UpdatedAt = tpl.CreatedAt
	s.templates = append(s.templates, *tpl)
	return nil
}

func (s *JobStore) ReapStaleJobs(olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var n int64
	for _, job := range s.jobs {
		if (job.Status == models.JobStatusPending || job.Status == models.JobStatusProcessing) &&
			job.UpdatedAt.Before(cutoff) {
			job.Status = models.JobStatusFailed
			job.ErrorMessage = sql.NullString{String: "job stalled: orchestrator was interrupted mid-pipeline, resubmit to retry", Valid: true}
			job.UpdatedAt = time.Now()
			n++
		}
	}
	return n, nil
}

// Backdate rewinds a job's updated_at so reaper tests can age it.
func (s *JobStore) Backdate(jobID uuid.UUID, by time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[jobID]; ok {
		job.UpdatedAt = job.UpdatedAt.Add(-by)
	}
}

func (s *JobStore) mutable(jobID uuid.UUID) (*models.Job, bool) {
	job, ok := s.jobs[jobID]
	if !ok || job.Status == models.JobStatusCompleted || job.Status == models.JobStatusFailed {
		return nil, false
	}
	return job, true
}

// Stager is an in-memory LogoStager.
type Stager struct {
	mu      sync.Mutex
	Err     error
	uploads []string
}

func (f *Stager) UploadLogo(jobID uuid.UUID, filename string, data []byte) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", "", f.Err
	}
	path := "logos/" + jobID.String() + "/" + filename
	f.uploads = append(f.uploads, path)
	return path, "https://storage.test/" + path, nil
}

func (f *Stager) Uploads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploads...)
}

// Stages is a scripted StageClient. Unset hooks succeed with canned URLs.
type Stages struct {
	mu sync.Mutex

	ProcessLogoFn  func(payload n8n.LogoProcessingPayload) (*n8n.LogoProcessingResponse, error)
	GeneratePageFn func(payload n8n.PageGeneratorPayload) (*n8n.PageGeneratorResponse, error)
	AssemblePDFFn  func(payload n8n.PDFAssemblyPayload) (*n8n.PDFAssemblyResponse, error)

	LogoCalls     int
	PageCalls     int
	AssemblyCalls int
}

func (f *Stages) ProcessLogo(_ context.Context, payload n8n.LogoProcessingPayload) (*n8n.LogoProcessingResponse, error) {
	f.mu.Lock()
	f.LogoCalls++
	fn := f.ProcessLogoFn
	f.mu.Unlock()
	if fn != nil {
		return fn(payload)
	}
	return &n8n.LogoProcessingResponse{
		JobID:        payload.JobID,
		LogoLargeURL: "https://storage.test/processed/" + payload.JobID + "/logo_large.png",
		LogoSmallURL: "https://storage.test/processed/" + payload.JobID + "/logo_small.png",
		Success:      true,
	}, nil
}

func (f *Stages) GeneratePage(_ context.Context, payload n8n.PageGeneratorPayload) (*n8n.PageGeneratorResponse, error) {
	f.mu.Lock()
	f.PageCalls++
	fn := f.GeneratePageFn
	f.mu.Unlock()
	if fn != nil {
		return fn(payload)
	}
	return &n8n.PageGeneratorResponse{
		JobID:   payload.JobID,
		PageURL: "https://storage.test/pages/" + payload.JobID + "/" + payload.Garment + "_" + payload.Color + ".png",
		Garment: payload.Garment,
		Color:   payload.Color,
		Success: true,
	}, nil
}

func (f *Stages) AssemblePDF(_ context.Context, payload n8n.PDFAssemblyPayload) (*n8n.PDFAssemblyResponse, error) {
	f.mu.Lock()
	f.AssemblyCalls++
	fn := f.AssemblePDFFn
	f.mu.Unlock()
	if fn != nil {
		return fn(payload)
	}
	return &n8n.PDFAssemblyResponse{
		JobID:   payload.JobID,
		PDFURL:  "https://storage.test/catalogs/" + payload.JobID + "/catalog.pdf",
		Success: true,
	}, nil
}

// Events is a no-op EventPublisher that remembers what it saw.
type Events struct {
	mu     sync.Mutex
	events []string
}

func (f *Events) PublishJobEvent(jobID uuid.UUID, event string, payload map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *Events) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

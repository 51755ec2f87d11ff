package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"catalog-generator-backend/internal/models"
	"catalog-generator-backend/internal/n8n"
	"catalog-generator-backend/internal/supabase"
)

// JobStore is the persistence boundary the orchestrator drives. Implemented
// by supabase.DatabaseClient.
type JobStore interface {
	CreateJob(job *models.Job) error
	GetJob(jobID uuid.UUID) (*models.Job, error)
	SetJobLogoURLs(jobID uuid.UUID, urls []string) error
	UpdateJobStatus(jobID uuid.UUID, status string, progress int) error
	CompleteJob(jobID uuid.UUID, pdfURL string) error
	FailJob(jobID uuid.UUID, errorMsg string) error
	CreateJobPage(page *models.JobPage) error
	GetJobPages(jobID uuid.UUID) ([]models.JobPage, error)
	GetTemplate(itemName, color string) (*models.Template, error)
	ListTemplates() ([]models.Template, error)
	ReapStaleJobs(olderThan time.Duration) (int64, error)
}

// LogoStager uploads a logo binary to durable storage and returns its path
// and public URL. Implemented by supabase.StorageClient.
type LogoStager interface {
	UploadLogo(jobID uuid.UUID, filename string, data []byte) (string, string, error)
}

// StageClient invokes the external workflow stages. Implemented by n8n.Client.
type StageClient interface {
	ProcessLogo(ctx context.Context, payload n8n.LogoProcessingPayload) (*n8n.LogoProcessingResponse, error)
	GeneratePage(ctx context.Context, payload n8n.PageGeneratorPayload) (*n8n.PageGeneratorResponse, error)
	AssemblePDF(ctx context.Context, payload n8n.PDFAssemblyPayload) (*n8n.PDFAssemblyResponse, error)
}

// EventPublisher pushes job lifecycle events. Implemented by
// supabase.RealtimeClient.
type EventPublisher interface {
	PublishJobEvent(jobID uuid.UUID, event string, payload map[string]interface{}) error
}

// Progress milestones recorded after each stage succeeds. Progress within a
// job only ever moves forward through these values.
const (
	ProgressLogoProcessed = 33
	ProgressPagesDone     = 66
	ProgressComplete      = 100
)

// ValidationError rejects a submit request before any job row is created.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

type LogoUpload struct {
	Filename string
	Data     []byte
}

type SubmitRequest struct {
	CustomerName string
	CatalogType  string
	Items        []models.SelectionPair
	Logos        []LogoUpload
}

type SubmitResult struct {
	JobID                uuid.UUID
	Status               string
	Message              string
	EstimatedTimeSeconds int
}

type CatalogService struct {
	store        JobStore
	stager       LogoStager
	stages       StageClient
	events       EventPublisher
	maxLogoBytes int64
	staleTimeout time.Duration
}

func NewCatalogService(
	store JobStore,
	stager LogoStager,
	stages StageClient,
	events EventPublisher,
	maxLogoBytes int64,
	staleTimeout time.Duration,
) *CatalogService {
	return &CatalogService{
		store:        store,
		stager:       stager,
		stages:       stages,
		events:       events,
		maxLogoBytes: maxLogoBytes,
		staleTimeout: staleTimeout,
	}
}

// Submit validates the request, persists a pending job, and starts its
// pipeline in the background. The caller gets the job id immediately and
// observes everything else by polling.
func (s *CatalogService) Submit(req SubmitRequest) (*SubmitResult, error) {
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	items := trimPairs(req.Items)

	if req.CustomerName == "" {
		return nil, &ValidationError{Reason: "customer_name must not be empty"}
	}
	if !models.ValidCatalogType(req.CatalogType) {
		return nil, &ValidationError{Reason: fmt.Sprintf("catalog_type must be one of custom, industry, pack; got %q", req.CatalogType)}
	}
	if len(req.Logos) == 0 {
		return nil, &ValidationError{Reason: "at least one logo is required"}
	}
	for _, logo := range req.Logos {
		if len(logo.Data) == 0 {
			return nil, &ValidationError{Reason: fmt.Sprintf("logo %q is empty", logo.Filename)}
		}
		if int64(len(logo.Data)) > s.maxLogoBytes {
			return nil, &ValidationError{Reason: fmt.Sprintf("logo %q exceeds the %d MiB size limit", logo.Filename, s.maxLogoBytes>>20)}
		}
	}

	if req.CatalogType == models.CatalogTypeCustom {
		if len(items) == 0 {
			return nil, &ValidationError{Reason: "custom catalogs require at least one (garment, color) selection"}
		}
	} else if len(items) == 0 {
		derived, err := s.defaultSelection()
		if err != nil {
			return nil, err
		}
		items = derived
	}

	job := &models.Job{
		ID:           uuid.New(),
		CustomerName: req.CustomerName,
		CatalogType:  req.CatalogType,
		Status:       models.JobStatusPending,
		Progress:     0,
		Items:        items,
	}

	if err := s.store.CreateJob(job); err != nil {
		return nil, fmt.Errorf("failed to persist job: %w", err)
	}

	go s.runPipeline(job, req.Logos)

	return &SubmitResult{
		JobID:                job.ID,
		Status:               job.Status,
		Message:              "catalog generation started",
		EstimatedTimeSeconds: estimateSeconds(len(items)),
	}, nil
}

// defaultSelection derives the (garment, color) list for non-custom catalog
// types: every template registered in the database gets a page.
func (s *CatalogService) defaultSelection() ([]models.SelectionPair, error) {
	templates, err := s.store.ListTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to derive default selection: %w", err)
	}
	if len(templates) == 0 {
		return nil, &ValidationError{Reason: "no templates available to derive a default selection"}
	}

	pairs := make([]models.SelectionPair, 0, len(templates))
	for _, tpl := range templates {
		pairs = append(pairs, models.SelectionPair{Garment: tpl.ItemName, Color: tpl.Color})
	}
	return pairs, nil
}

// runPipeline drives one job through the three external stages. It runs only
// in the process that created the job; a crash here leaves the job to the
// stale-job reaper. Every failure path records an error_message before
// returning so a job is never left processing when the failure is detectable.
func (s *CatalogService) runPipeline(job *models.Job, logos []LogoUpload) {
	ctx := context.Background()
	jobID := job.ID

	if err := s.store.UpdateJobStatus(jobID, models.JobStatusProcessing, 0); err != nil {
		log.Printf("[job %s] failed to mark processing: %v", jobID, err)
		return
	}
	s.events.PublishJobEvent(jobID, "processing_started",
		supabase.ProcessingStartedPayload(jobID, len(job.Items)))

	// Stage assets. No external stage runs without durable logo URLs.
	logoURLs := make([]string, 0, len(logos))
	for i, logo := range logos {
		filename := stagedFilename(i, logo.Filename)
		_, url, err := s.stager.UploadLogo(jobID, filename, logo.Data)
		if err != nil {
			s.fail(jobID, fmt.Sprintf("logo staging failed: %v", err))
			return
		}
		logoURLs = append(logoURLs, url)
	}
	if err := s.store.SetJobLogoURLs(jobID, logoURLs); err != nil {
		s.fail(jobID, fmt.Sprintf("failed to record staged logos: %v", err))
		return
	}

	// Stage 1: derivative logo variants.
	logoResp, err := s.stages.ProcessLogo(ctx, n8n.LogoProcessingPayload{
		JobID:    jobID.String(),
		LogoURLs: logoURLs,
	})
	if err != nil {
		s.fail(jobID, fmt.Sprintf("logo-processing stage failed: %v", err))
		return
	}
	if err := s.store.UpdateJobStatus(jobID, models.JobStatusProcessing, ProgressLogoProcessed); err != nil {
		s.fail(jobID, fmt.Sprintf("failed to record logo-processing milestone: %v", err))
		return
	}
	s.events.PublishJobEvent(jobID, "stage_completed",
		supabase.StageCompletedPayload(jobID, "logo-processing", ProgressLogoProcessed))

	// Templates must exist for every selection before pages are generated.
	if err := s.validateTemplates(job.Items); err != nil {
		s.fail(jobID, err.Error())
		return
	}

	// Stage 2: one page per selection pair. The milestone lands only after
	// every page succeeds, so a failure leaves progress at 33.
	pageURLs := make([]string, 0, len(job.Items))
	for _, pair := range job.Items {
		pageResp, err := s.stages.GeneratePage(ctx, n8n.PageGeneratorPayload{
			JobID:        jobID.String(),
			Garment:      pair.Garment,
			Color:        pair.Color,
			LogoLargeURL: logoResp.LogoLargeURL,
			LogoSmallURL: logoResp.LogoSmallURL,
		})
		if err != nil {
			s.fail(jobID, fmt.Sprintf("page-generator stage failed for %s - %s: %v", pair.Garment, pair.Color, err))
			return
		}

		page := &models.JobPage{
			ID:      uuid.New(),
			JobID:   jobID,
			Garment: pair.Garment,
			Color:   pair.Color,
			PageURL: pageResp.PageURL,
		}
		if err := s.store.CreateJobPage(page); err != nil {
			// The artifact listing is best-effort; the page itself exists.
			log.Printf("[job %s] failed to record page %s - %s: %v", jobID, pair.Garment, pair.Color, err)
		}
		pageURLs = append(pageURLs, pageResp.PageURL)
	}
	if err := s.store.UpdateJobStatus(jobID, models.JobStatusProcessing, ProgressPagesDone); err != nil {
		s.fail(jobID, fmt.Sprintf("failed to record page-generator milestone: %v", err))
		return
	}
	s.events.PublishJobEvent(jobID, "stage_completed",
		supabase.StageCompletedPayload(jobID, "page-generator", ProgressPagesDone))

	// Stage 3: assemble the final artifact.
	pdfResp, err := s.stages.AssemblePDF(ctx, n8n.PDFAssemblyPayload{
		JobID:        jobID.String(),
		CustomerName: job.CustomerName,
		CatalogType:  job.CatalogType,
		PageURLs:     pageURLs,
	})
	if err != nil {
		s.fail(jobID, fmt.Sprintf("pdf-assembly stage failed: %v", err))
		return
	}

	if err := s.store.CompleteJob(jobID, pdfResp.PDFURL); err != nil {
		// Storage let us down at the finish line; the job's true state is
		// unknown to pollers until the store recovers.
		log.Printf("[job %s] CRITICAL: pipeline finished but completion was not persisted: %v", jobID, err)
		return
	}
	s.events.PublishJobEvent(jobID, "completed", supabase.JobCompletedPayload(jobID, pdfResp.PDFURL))
	log.Printf("[job %s] completed: %s", jobID, pdfResp.PDFURL)
}

func (s *CatalogService) validateTemplates(items []models.SelectionPair) error {
	for _, pair := range items {
		if _, err := s.store.GetTemplate(pair.Garment, pair.Color); err != nil {
			return fmt.Errorf("template lookup failed for %s - %s: %w", pair.Garment, pair.Color, err)
		}
	}
	return nil
}

func (s *CatalogService) fail(jobID uuid.UUID, msg string) {
	log.Printf("[job %s] failed: %s", jobID, msg)
	if err := s.store.FailJob(jobID, msg); err != nil {
		log.Printf("[job %s] CRITICAL: failed to persist failure state: %v", jobID, err)
		return
	}
	s.events.PublishJobEvent(jobID, "failed", supabase.JobFailedPayload(jobID, msg))
}

// GetJob is the read side of the polling contract.
func (s *CatalogService) GetJob(jobID uuid.UUID) (*models.Job, error) {
	return s.store.GetJob(jobID)
}

func (s *CatalogService) GetJobPages(jobID uuid.UUID) ([]models.JobPage, error) {
	if _, err := s.store.GetJob(jobID); err != nil {
		return nil, err
	}
	return s.store.GetJobPages(jobID)
}

// AwaitTerminal polls the store until the job reaches a terminal status or
// ctx expires. Expiry bounds only the caller's wait; the pipeline keeps
// running server-side.
func (s *CatalogService) AwaitTerminal(ctx context.Context, jobID uuid.UUID, interval time.Duration) (*models.Job, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		job, err := s.store.GetJob(jobID)
		if err != nil {
			return nil, err
		}
		if job.Terminal() {
			return job, nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return job, ctx.Err()
		}
	}
}

// ReapStaleJobs fails non-terminal jobs whose updated_at is older than the
// configured staleness window.
func (s *CatalogService) ReapStaleJobs() (int64, error) {
	return s.store.ReapStaleJobs(s.staleTimeout)
}

// StartReaper runs a reap pass immediately and then on every tick until ctx
// is cancelled.
func (s *CatalogService) StartReaper(ctx context.Context) {
	reap := func() {
		n, err := s.ReapStaleJobs()
		if err != nil {
			log.Printf("stale job reaper: %v", err)
			return
		}
		if n > 0 {
			log.Printf("stale job reaper: failed %d stalled job(s)", n)
		}
	}

	reap()

	ticker := time.NewTicker(s.staleTimeout)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			reap()
		case <-ctx.Done():
			return
		}
	}
}

func estimateSeconds(totalPages int) int {
	return totalPages*10 + 30
}

func trimPairs(items []models.SelectionPair) []models.SelectionPair {
	out := make([]models.SelectionPair, 0, len(items))
	for _, p := range items {
		p.Garment = strings.TrimSpace(p.Garment)
		p.Color = strings.TrimSpace(p.Color)
		if p.Garment == "" || p.Color == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func stagedFilename(index int, original string) string {
	ext := ".png"
	if i := strings.LastIndex(original, "."); i >= 0 && i < len(original)-1 {
		ext = strings.ToLower(original[i:])
	}
	return fmt.Sprintf("logo_%d%s", index, ext)
}

// DecodeItems parses the items form field: a JSON array of
// {"garment": ..., "color": ...} objects.
func DecodeItems(raw string) ([]models.SelectionPair, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var items []models.SelectionPair
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("items must be a JSON array of {garment, color} objects: %v", err)}
	}
	return items, nil
}

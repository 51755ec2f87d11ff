package supabase

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"catalog-generator-backend/internal/models"
)

var (
	// ErrJobNotFound is returned when no job row exists for the given id,
	// or when a mutation targets a row that has already reached a terminal state.
	ErrJobNotFound = errors.New("job not found")

	// ErrTemplateNotFound is returned when no template exists for an
	// (item, color) combination.
	ErrTemplateNotFound = errors.New("template not found")
)

type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(connectionString string) (*DatabaseClient, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (d *DatabaseClient) CreateJob(job *models.Job) error {
	logoURLs, err := json.Marshal(job.LogoURLs)
	if err != nil {
		return fmt.Errorf("failed to marshal logo urls: %w", err)
	}
	items, err := json.Marshal(job.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}

	err = d.db.QueryRow(`
		INSERT INTO jobs (id, customer_name, catalog_type, status, progress, logo_urls, items)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, job.ID, job.CustomerName, job.CatalogType, job.Status, job.Progress, logoURLs, items).
		Scan(&job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

func (d *DatabaseClient) GetJob(jobID uuid.UUID) (*models.Job, error) {
	var (
		job      models.Job
		logoURLs []byte
		items    []byte
	)
	err := d.db.QueryRow(`
		SELECT id, customer_name, catalog_type, status, progress, logo_urls, items,
		       pdf_url, error_message, created_at, updated_at
		FROM jobs
		WHERE id = $1
	`, jobID).Scan(
		&job.ID, &job.CustomerName, &job.CatalogType, &job.Status, &job.Progress,
		&logoURLs, &items, &job.PDFURL, &job.ErrorMessage, &job.CreatedAt, &job.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	if err := json.Unmarshal(logoURLs, &job.LogoURLs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal logo urls: %w", err)
	}
	if err := json.Unmarshal(items, &job.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal items: %w", err)
	}

	return &job, nil
}

// SetJobLogoURLs records the staged logo asset URLs for a job.
func (d *DatabaseClient) SetJobLogoURLs(jobID uuid.UUID, urls []string) error {
	logoURLs, err := json.Marshal(urls)
	if err != nil {
		return fmt.Errorf("failed to marshal logo urls: %w", err)
	}

	res, err := d.db.Exec(`
		UPDATE jobs
		SET logo_urls = $1, updated_at = NOW()
		WHERE id = $2 AND status NOT IN ('completed', 'failed')
	`, logoURLs, jobID)
	if err != nil {
		return fmt.Errorf("failed to set logo urls: %w", err)
	}
	return checkUpdated(res)
}

// UpdateJobStatus moves a non-terminal job to the given status and raises its
// progress. Progress is clamped monotonic in SQL so a late writer can never
// roll a job backwards; terminal rows are never touched.
func (d *DatabaseClient) UpdateJobStatus(jobID uuid.UUID, status string, progress int) error {
	res, err := d.db.Exec(`
		UPDATE jobs
		SET status = $1, progress = GREATEST(progress, $2), updated_at = NOW()
		WHERE id = $3 AND status NOT IN ('completed', 'failed')
	`, status, progress, jobID)
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return checkUpdated(res)
}

// CompleteJob transitions a non-terminal job to completed with its artifact URL.
func (d *DatabaseClient) CompleteJob(jobID uuid.UUID, pdfURL string) error {
	res, err := d.db.Exec(`
		UPDATE jobs
		SET status = 'completed', progress = 100, pdf_url = $1,
		    error_message = NULL, updated_at = NOW()
		WHERE id = $2 AND status NOT IN ('completed', 'failed')
	`, pdfURL, jobID)
	if err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}
	return checkUpdated(res)
}

// FailJob transitions a non-terminal job to failed. Progress is left at the
// last recorded milestone.
func (d *DatabaseClient) FailJob(jobID uuid.UUID, errorMsg string) error {
	res, err := d.db.Exec(`
		UPDATE jobs
		SET status = 'failed', error_message = $1, pdf_url = NULL, updated_at = NOW()
		WHERE id = $2 AND status NOT IN ('completed', 'failed')
	`, errorMsg, jobID)
	if err != nil {
		return fmt.Errorf("failed to fail job: %w", err)
	}
	return checkUpdated(res)
}

// ReapStaleJobs fails every non-terminal job that has not been touched since
// the cutoff. Called at startup and periodically; a job can only go stale if
// the process running its pipeline died mid-flight.
func (d *DatabaseClient) ReapStaleJobs(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := d.db.Exec(`
		UPDATE jobs
		SET status = 'failed',
		    error_message = 'job stalled: orchestrator was interrupted mid-pipeline, resubmit to retry',
		    updated_at = NOW()
		WHERE status IN ('pending', 'processing') AND updated_at < $1
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to reap stale jobs: %w", err)
	}
	return res.RowsAffected()
}

func (d *DatabaseClient) CreateJobPage(page *models.JobPage) error {
	_, err := d.db.Exec(`
		INSERT INTO job_pages (id, job_id, garment, color, page_url)
		VALUES ($1, $2, $3, $4, $5)
	`, page.ID, page.JobID, page.Garment, page.Color, page.PageURL)
	if err != nil {
		return fmt.Errorf("failed to create job page: %w", err)
	}
	return nil
}

func (d *DatabaseClient) GetJobPages(jobID uuid.UUID) ([]models.JobPage, error) {
	rows, err := d.db.Query(`
		SELECT id, job_id, garment, color, page_url, created_at
		FROM job_pages
		WHERE job_id = $1
		ORDER BY created_at ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job pages: %w", err)
	}
	defer rows.Close()

	var pages []models.JobPage
	for rows.Next() {
		var page models.JobPage
		err := rows.Scan(&page.ID, &page.JobID, &page.Garment, &page.Color, &page.PageURL, &page.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job page: %w", err)
		}
		pages = append(pages, page)
	}

	return pages, rows.Err()
}

func (d *DatabaseClient) GetTemplate(itemName, color string) (*models.Template, error) {
	var tpl models.Template
	err := d.db.QueryRow(`
		SELECT id, item_name, color, template_url, logo_position_x, logo_position_y,
		       logo_size, created_at, updated_at
		FROM templates
		WHERE item_name = $1 AND color = $2
	`, itemName, color).Scan(
		&tpl.ID, &tpl.ItemName, &tpl.Color, &tpl.TemplateURL,
		&tpl.LogoPositionX, &tpl.LogoPositionY, &tpl.LogoSize,
		&tpl.CreatedAt, &tpl.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return &tpl, nil
}

func (d *DatabaseClient) ListTemplates() ([]models.Template, error) {
	rows, err := d.db.Query(`
		SELECT id, item_name, color, template_url, logo_position_x, logo_position_y,
		       logo_size, created_at, updated_at
		FROM templates
		ORDER BY item_name, color
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		var tpl models.Template
		err := rows.Scan(
			&tpl.ID, &tpl.ItemName, &tpl.Color, &tpl.TemplateURL,
			&tpl.LogoPositionX, &tpl.LogoPositionY, &tpl.LogoSize,
			&tpl.CreatedAt, &tpl.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, tpl)
	}

	return templates, rows.Err()
}

func (d *DatabaseClient) CreateTemplate(tpl *models.Template) error {
	err := d.db.QueryRow(`
		INSERT INTO templates (id, item_name, color, template_url, logo_position_x, logo_position_y, logo_size)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`, tpl.ID, tpl.ItemName, tpl.Color, tpl.TemplateURL,
		tpl.LogoPositionX, tpl.LogoPositionY, tpl.LogoSize).
		Scan(&tpl.CreatedAt, &tpl.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

func (d *DatabaseClient) Close() error {
	return d.db.Close()
}

func checkUpdated(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"catalog-generator-backend/internal/models"
	"catalog-generator-backend/internal/services"
	"catalog-generator-backend/internal/supabase"
)

type JobsHandler struct {
	service *services.CatalogService
}

func NewJobsHandler(service *services.CatalogService) *JobsHandler {
	return &JobsHandler{
		service: service,
	}
}

// GetJob godoc
// @Summary     Poll a job's status
// @Description Read-only lookup of a job's current status and progress.
// @Description pdf_url is set once completed; error_message once failed.
// @Tags        jobs
// @Produce     json
// @Param       job_id path string true "Job ID (UUID)"
// @Success     200 {object} models.JobStatusResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /jobs/{job_id} [get]
func (h *JobsHandler) GetJob(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid job id"})
		return
	}

	job, err := h.service.GetJob(jobID)
	if err != nil {
		if errors.Is(err, supabase.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to fetch job",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, models.JobStatusResponse{
		JobID:        job.ID.String(),
		Status:       job.Status,
		CustomerName: job.CustomerName,
		CatalogType:  job.CatalogType,
		Progress:     job.Progress,
		PDFURL:       job.PDFURL.String,
		ErrorMessage: job.ErrorMessage.String,
		CreatedAt:    job.CreatedAt,
		UpdatedAt:    job.UpdatedAt,
	})
}

// GetJobPages godoc
// @Summary     List a job's generated pages
// @Tags        jobs
// @Produce     json
// @Param       job_id path string true "Job ID (UUID)"
// @Success     200 {object} models.JobPagesResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /jobs/{job_id}/pages [get]
func (h *JobsHandler) GetJobPages(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("job_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid job id"})
		return
	}

	pages, err := h.service.GetJobPages(jobID)
	if err != nil {
		if errors.Is(err, supabase.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to fetch job pages",
			Message: err.Error(),
		})
		return
	}

	resp := models.JobPagesResponse{
		JobID: jobID.String(),
		Pages: make([]models.PageResponse, 0, len(pages)),
	}
	for _, page := range pages {
		resp.Pages = append(resp.Pages, models.PageResponse{
			ID:        page.ID.String(),
			Garment:   page.Garment,
			Color:     page.Color,
			PageURL:   page.PageURL,
			CreatedAt: page.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, resp)
}

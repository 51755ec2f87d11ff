package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"catalog-generator-backend/internal/models"
	"catalog-generator-backend/internal/services"
)

type CatalogHandler struct {
	service      *services.CatalogService
	maxLogoBytes int64
}

func NewCatalogHandler(service *services.CatalogService, maxLogoBytes int64) *CatalogHandler {
	return &CatalogHandler{
		service:      service,
		maxLogoBytes: maxLogoBytes,
	}
}

// Generate godoc
// @Summary     Submit a catalog generation job
// @Description Accepts customer name, catalog type, logo files and garment/color
// @Description selections, creates a job, and starts the generation pipeline in
// @Description the background. Poll GET /jobs/{job_id} for progress.
// @Tags        catalog
// @Accept      multipart/form-data
// @Produce     json
// @Param       customer_name formData string true "Customer name for the front page"
// @Param       catalog_type formData string true "custom, industry or pack"
// @Param       items formData string false "JSON array of {garment, color} objects; required for custom"
// @Param       logos formData file true "Logo image(s), up to 10 MiB each"
// @Success     202 {object} models.CatalogResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /catalogs [post]
func (h *CatalogHandler) Generate(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "failed to parse multipart form",
			Message: err.Error(),
		})
		return
	}

	form := c.Request.MultipartForm
	if form == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "failed to parse multipart form",
		})
		return
	}

	items, err := services.DecodeItems(c.PostForm("items"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid items",
			Message: err.Error(),
		})
		return
	}

	var fileHeaders []*multipart.FileHeader
	for _, field := range []string{"logos", "logo"} {
		if f := form.File[field]; len(f) > 0 {
			fileHeaders = f
			break
		}
	}

	logos := make([]services.LogoUpload, 0, len(fileHeaders))
	for _, header := range fileHeaders {
		if header.Size > h.maxLogoBytes {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "logo too large",
				Message: fmt.Sprintf("%s exceeds the %d MiB limit", header.Filename, h.maxLogoBytes>>20),
			})
			return
		}

		src, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "failed to open logo",
				Message: err.Error(),
			})
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "failed to read logo",
				Message: err.Error(),
			})
			return
		}

		logos = append(logos, services.LogoUpload{
			Filename: header.Filename,
			Data:     data,
		})
	}

	result, err := h.service.Submit(services.SubmitRequest{
		CustomerName: c.PostForm("customer_name"),
		CatalogType:  c.PostForm("catalog_type"),
		Items:        items,
		Logos:        logos,
	})
	if err != nil {
		var validation *services.ValidationError
		if errors.As(err, &validation) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "invalid request",
				Message: validation.Reason,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to create job",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, models.CatalogResponse{
		JobID:                result.JobID.String(),
		Status:               result.Status,
		Message:              result.Message,
		EstimatedTimeSeconds: result.EstimatedTimeSeconds,
	})
}

package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-generator-backend/internal/handlers"
	"catalog-generator-backend/internal/models"
	"catalog-generator-backend/internal/services"
	"catalog-generator-backend/internal/test/fakes"
)

func newJobsRouter(store *fakes.JobStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := services.NewCatalogService(store, &fakes.Stager{}, &fakes.Stages{}, &fakes.Events{}, 10<<20, 30*time.Minute)
	handler := handlers.NewJobsHandler(svc)

	router := gin.New()
	router.GET("/api/v1/jobs/:job_id", handler.GetJob)
	router.GET("/api/v1/jobs/:job_id/pages", handler.GetJobPages)
	return router
}

func seedJob(t *testing.T, store *fakes.JobStore, status string) uuid.UUID {
	t.Helper()
	job := &models.Job{
		ID:           uuid.New(),
		CustomerName: "Acme",
		CatalogType:  models.CatalogTypeCustom,
		Status:       status,
		Items:        []models.SelectionPair{{Garment: "Jacket", Color: "Red"}},
	}
	require.NoError(t, store.CreateJob(job))
	return job.ID
}

func getJSON(t *testing.T, router *gin.Engine, path string, out interface{}) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if out != nil && w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w
}

func TestGetJob_ReturnsCompletedJob(t *testing.T) {
	store := fakes.NewJobStore()
	router := newJobsRouter(store)

	jobID := seedJob(t, store, models.JobStatusProcessing)
	require.NoError(t, store.CompleteJob(jobID, "https://storage.test/catalogs/catalog.pdf"))

	var resp models.JobStatusResponse
	w := getJSON(t, router, "/api/v1/jobs/"+jobID.String(), &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, jobID.String(), resp.JobID)
	assert.Equal(t, models.JobStatusCompleted, resp.Status)
	assert.Equal(t, 100, resp.Progress)
	assert.Equal(t, "https://storage.test/catalogs/catalog.pdf", resp.PDFURL)
	assert.Empty(t, resp.ErrorMessage)
}

func TestGetJob_ReturnsFailedJobWithError(t *testing.T) {
	store := fakes.NewJobStore()
	router := newJobsRouter(store)

	jobID := seedJob(t, store, models.JobStatusProcessing)
	require.NoError(t, store.FailJob(jobID, "page-generator stage failed for Jacket - Red: status 400"))

	var resp models.JobStatusResponse
	w := getJSON(t, router, "/api/v1/jobs/"+jobID.String(), &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.JobStatusFailed, resp.Status)
	assert.Contains(t, resp.ErrorMessage, "page-generator")
	assert.Empty(t, resp.PDFURL)
}

func TestGetJob_InvalidIDRejected(t *testing.T) {
	router := newJobsRouter(fakes.NewJobStore())

	w := getJSON(t, router, "/api/v1/jobs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetJob_UnknownIDNotFound(t *testing.T) {
	router := newJobsRouter(fakes.NewJobStore())

	w := getJSON(t, router, "/api/v1/jobs/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetJobPages_ListsGeneratedPages(t *testing.T) {
	store := fakes.NewJobStore()
	router := newJobsRouter(store)

	jobID := seedJob(t, store, models.JobStatusProcessing)
	for _, color := range []string{"Red", "Blue"} {
		require.NoError(t, store.CreateJobPage(&models.JobPage{
			ID:      uuid.New(),
			JobID:   jobID,
			Garment: "Jacket",
			Color:   color,
			PageURL: "https://storage.test/pages/jacket_" + color + ".png",
		}))
	}

	var resp models.JobPagesResponse
	w := getJSON(t, router, "/api/v1/jobs/"+jobID.String()+"/pages", &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, jobID.String(), resp.JobID)
	require.Len(t, resp.Pages, 2)
	assert.Equal(t, "Jacket", resp.Pages[0].Garment)
}

func TestGetJobPages_UnknownJobNotFound(t *testing.T) {
	router := newJobsRouter(fakes.NewJobStore())

	w := getJSON(t, router, "/api/v1/jobs/"+uuid.NewString()+"/pages", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

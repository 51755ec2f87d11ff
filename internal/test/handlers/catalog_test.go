package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-generator-backend/internal/handlers"
	"catalog-generator-backend/internal/models"
	"catalog-generator-backend/internal/services"
	"catalog-generator-backend/internal/test/fakes"
)

func newCatalogRouter(store *fakes.JobStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := services.NewCatalogService(store, &fakes.Stager{}, &fakes.Stages{}, &fakes.Events{}, 10<<20, 30*time.Minute)
	handler := handlers.NewCatalogHandler(svc, 10<<20)

	router := gin.New()
	router.POST("/api/v1/catalogs", handler.Generate)
	return router
}

type submitForm struct {
	customerName string
	catalogType  string
	items        string
	logoField    string
	logoName     string
	logoData     []byte
}

func defaultForm() submitForm {
	return submitForm{
		customerName: "Acme",
		catalogType:  "custom",
		items:        `[{"garment":"Jacket","color":"Red"}]`,
		logoField:    "logos",
		logoName:     "acme.png",
		logoData:     []byte("png-bytes"),
	}
}

func postCatalog(t *testing.T, router *gin.Engine, form submitForm) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if form.customerName != "" {
		require.NoError(t, writer.WriteField("customer_name", form.customerName))
	}
	require.NoError(t, writer.WriteField("catalog_type", form.catalogType))
	if form.items != "" {
		require.NoError(t, writer.WriteField("items", form.items))
	}
	if form.logoField != "" {
		part, err := writer.CreateFormFile(form.logoField, form.logoName)
		require.NoError(t, err)
		_, err = part.Write(form.logoData)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalogs", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGenerate_AcceptsValidSubmission(t *testing.T) {
	store := fakes.NewJobStore()
	store.AddTemplate(models.Template{ItemName: "Jacket", Color: "Red", TemplateURL: "https://storage.test/t.png", LogoSize: "small"})
	router := newCatalogRouter(store)

	w := postCatalog(t, router, defaultForm())
	require.Equal(t, http.StatusAccepted, w.Code)

	var resp models.CatalogResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, models.JobStatusPending, resp.Status)
	assert.Equal(t, 1*10+30, resp.EstimatedTimeSeconds)
	assert.Equal(t, 1, store.JobCount())
}

func TestGenerate_MissingCustomerNameRejected(t *testing.T) {
	store := fakes.NewJobStore()
	router := newCatalogRouter(store)

	form := defaultForm()
	form.customerName = ""
	w := postCatalog(t, router, form)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, store.JobCount(), "rejected submissions must not create jobs")
}

func TestGenerate_CustomWithoutItemsRejected(t *testing.T) {
	store := fakes.NewJobStore()
	router := newCatalogRouter(store)

	form := defaultForm()
	form.items = ""
	w := postCatalog(t, router, form)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, store.JobCount())
}

func TestGenerate_MalformedItemsRejected(t *testing.T) {
	store := fakes.NewJobStore()
	router := newCatalogRouter(store)

	form := defaultForm()
	form.items = `{"garment":"Jacket"}`
	w := postCatalog(t, router, form)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid items", resp.Error)
}

func TestGenerate_MissingLogoRejected(t *testing.T) {
	store := fakes.NewJobStore()
	router := newCatalogRouter(store)

	form := defaultForm()
	form.logoField = ""
	w := postCatalog(t, router, form)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, store.JobCount())
}

func TestGenerate_AcceptsSingularLogoField(t *testing.T) {
	store := fakes.NewJobStore()
	store.AddTemplate(models.Template{ItemName: "Jacket", Color: "Red", TemplateURL: "https://storage.test/t.png", LogoSize: "small"})
	router := newCatalogRouter(store)

	form := defaultForm()
	form.logoField = "logo"
	w := postCatalog(t, router, form)

	assert.Equal(t, http.StatusAccepted, w.Code)
}

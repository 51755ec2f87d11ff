package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-generator-backend/internal/handlers"
	"catalog-generator-backend/internal/models"
	"catalog-generator-backend/internal/test/fakes"
)

func newTemplatesRouter(store *fakes.JobStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewTemplatesHandler(store)

	router := gin.New()
	router.GET("/api/v1/templates", handler.List)
	router.GET("/api/v1/templates/grouped", handler.ListGrouped)
	router.GET("/api/v1/templates/:item_name/:color", handler.Get)
	router.POST("/api/v1/templates", handler.Create)
	return router
}

func seedTemplates(store *fakes.JobStore) {
	store.AddTemplate(models.Template{ItemName: "Jacket", Color: "Red", TemplateURL: "https://storage.test/templates/jacket_red.png", LogoSize: "small"})
	store.AddTemplate(models.Template{ItemName: "Jacket", Color: "Blue", TemplateURL: "https://storage.test/templates/jacket_blue.png", LogoSize: "small"})
	store.AddTemplate(models.Template{ItemName: "Hoodie", Color: "Black", TemplateURL: "https://storage.test/templates/hoodie_black.png", LogoSize: "large"})
}

func TestListTemplates_ReturnsAll(t *testing.T) {
	store := fakes.NewJobStore()
	seedTemplates(store)
	router := newTemplatesRouter(store)

	var resp []models.TemplateResponse
	w := getJSON(t, router, "/api/v1/templates", &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, resp, 3)
}

func TestListGrouped_GroupsColorsByGarment(t *testing.T) {
	store := fakes.NewJobStore()
	seedTemplates(store)
	router := newTemplatesRouter(store)

	var resp []models.GroupedTemplatesResponse
	w := getJSON(t, router, "/api/v1/templates/grouped", &resp)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp, 2)
	assert.Equal(t, "Hoodie", resp[0].ItemName)
	assert.Equal(t, []string{"Black"}, resp[0].Colors)
	assert.Equal(t, "Jacket", resp[1].ItemName)
	assert.ElementsMatch(t, []string{"Red", "Blue"}, resp[1].Colors)
}

func TestGetTemplate_KnownPair(t *testing.T) {
	store := fakes.NewJobStore()
	seedTemplates(store)
	router := newTemplatesRouter(store)

	var resp models.TemplateResponse
	w := getJSON(t, router, "/api/v1/templates/Jacket/Red", &resp)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Jacket", resp.ItemName)
	assert.Equal(t, "Red", resp.Color)
}

func TestGetTemplate_UnknownPairNotFound(t *testing.T) {
	router := newTemplatesRouter(fakes.NewJobStore())

	w := getJSON(t, router, "/api/v1/templates/Jacket/Chartreuse", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func postTemplate(t *testing.T, router *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/templates", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateTemplate_DefaultsLogoSize(t *testing.T) {
	store := fakes.NewJobStore()
	router := newTemplatesRouter(store)

	w := postTemplate(t, router, models.CreateTemplateRequest{
		ItemName:      "Polo",
		Color:         "Green",
		TemplateURL:   "https://storage.test/templates/polo_green.png",
		LogoPositionX: 120,
		LogoPositionY: 80,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp models.TemplateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "small", resp.LogoSize)

	tpl, err := store.GetTemplate("Polo", "Green")
	require.NoError(t, err)
	assert.Equal(t, "https://storage.test/templates/polo_green.png", tpl.TemplateURL)
}

func TestCreateTemplate_RejectsBadLogoSize(t *testing.T) {
	router := newTemplatesRouter(fakes.NewJobStore())

	w := postTemplate(t, router, models.CreateTemplateRequest{
		ItemName:    "Polo",
		Color:       "Green",
		TemplateURL: "https://storage.test/templates/polo_green.png",
		LogoSize:    "medium",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateTemplate_RejectsMissingFields(t *testing.T) {
	router := newTemplatesRouter(fakes.NewJobStore())

	w := postTemplate(t, router, map[string]string{"item_name": "Polo"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

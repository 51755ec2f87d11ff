package handlers

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"catalog-generator-backend/internal/models"
	"catalog-generator-backend/internal/supabase"
)

// TemplateStore is the slice of the database the template routes need.
// Implemented by supabase.DatabaseClient.
type TemplateStore interface {
	GetTemplate(itemName, color string) (*models.Template, error)
	ListTemplates() ([]models.Template, error)
	CreateTemplate(tpl *models.Template) error
}

type TemplatesHandler struct {
	store TemplateStore
}

func NewTemplatesHandler(store TemplateStore) *TemplatesHandler {
	return &TemplatesHandler{
		store: store,
	}
}

// List godoc
// @Summary     List all templates
// @Tags        templates
// @Produce     json
// @Success     200 {array} models.TemplateResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /templates [get]
func (h *TemplatesHandler) List(c *gin.Context) {
	templates, err := h.store.ListTemplates()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list templates",
			Message: err.Error(),
		})
		return
	}

	resp := make([]models.TemplateResponse, 0, len(templates))
	for _, tpl := range templates {
		resp = append(resp, templateResponse(&tpl))
	}
	c.JSON(http.StatusOK, resp)
}

// ListGrouped godoc
// @Summary     List templates grouped by garment with available colors
// @Tags        templates
// @Produce     json
// @Success     200 {array} models.GroupedTemplatesResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /templates/grouped [get]
func (h *TemplatesHandler) ListGrouped(c *gin.Context) {
	templates, err := h.store.ListTemplates()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to list templates",
			Message: err.Error(),
		})
		return
	}

	grouped := make(map[string][]string)
	for _, tpl := range templates {
		grouped[tpl.ItemName] = append(grouped[tpl.ItemName], tpl.Color)
	}

	resp := make([]models.GroupedTemplatesResponse, 0, len(grouped))
	for item, colors := range grouped {
		resp = append(resp, models.GroupedTemplatesResponse{
			ItemName: item,
			Colors:   colors,
		})
	}
	sort.Slice(resp, func(i, j int) bool { return resp[i].ItemName < resp[j].ItemName })

	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary     Get the template for a garment/color combination
// @Tags        templates
// @Produce     json
// @Param       item_name path string true "Garment name"
// @Param       color path string true "Color"
// @Success     200 {object} models.TemplateResponse
// @Failure     404 {object} models.ErrorResponse
// @Router      /templates/{item_name}/{color} [get]
func (h *TemplatesHandler) Get(c *gin.Context) {
	tpl, err := h.store.GetTemplate(c.Param("item_name"), c.Param("color"))
	if err != nil {
		if errors.Is(err, supabase.ErrTemplateNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "template not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to fetch template",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, templateResponse(tpl))
}

// Create godoc
// @Summary     Register a new template
// @Tags        templates
// @Accept      json
// @Produce     json
// @Security    Bearer
// @Param       request body models.CreateTemplateRequest true "Template definition"
// @Success     201 {object} models.TemplateResponse
// @Failure     400 {object} models.ErrorResponse
// @Failure     500 {object} models.ErrorResponse
// @Router      /templates [post]
func (h *TemplatesHandler) Create(c *gin.Context) {
	var req models.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "invalid request body",
			Message: err.Error(),
		})
		return
	}

	logoSize := req.LogoSize
	if logoSize == "" {
		logoSize = "small"
	}
	if logoSize != "small" && logoSize != "large" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "logo_size must be small or large",
		})
		return
	}

	tpl := &models.Template{
		ID:            uuid.New(),
		ItemName:      req.ItemName,
		Color:         req.Color,
		TemplateURL:   req.TemplateURL,
		LogoPositionX: req.LogoPositionX,
		LogoPositionY: req.LogoPositionY,
		LogoSize:      logoSize,
	}
	if err := h.store.CreateTemplate(tpl); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "failed to create template",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, templateResponse(tpl))
}

func templateResponse(tpl *models.Template) models.TemplateResponse {
	return models.TemplateResponse{
		ID:            tpl.ID.String(),
		ItemName:      tpl.ItemName,
		Color:         tpl.Color,
		TemplateURL:   tpl.TemplateURL,
		LogoPositionX: tpl.LogoPositionX,
		LogoPositionY: tpl.LogoPositionY,
		LogoSize:      tpl.LogoSize,
		CreatedAt:     tpl.CreatedAt,
	}
}

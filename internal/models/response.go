package models

import "time"

type CatalogResponse struct {
	JobID                string `json:"job_id"`
	Status               string `json:"status"`
	Message              string `json:"message"`
	EstimatedTimeSeconds int    `json:"estimated_time_seconds"`
}

type JobStatusResponse struct {
	JobID        string    `json:"job_id"`
	Status       string    `json:"status"`
	CustomerName string    `json:"customer_name"`
	CatalogType  string    `json:"catalog_type"`
	Progress     int       `json:"progress"`
	PDFURL       string    `json:"pdf_url,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type JobPagesResponse struct {
	JobID string         `json:"job_id"`
	Pages []PageResponse `json:"pages"`
}

type PageResponse struct {
	ID        string    `json:"id"`
	Garment   string    `json:"garment"`
	Color     string    `json:"color"`
	PageURL   string    `json:"page_url"`
	CreatedAt time.Time `json:"created_at"`
}

type TemplateResponse struct {
	ID            string    `json:"id"`
	ItemName      string    `json:"item_name"`
	Color         string    `json:"color"`
	TemplateURL   string    `json:"template_url"`
	LogoPositionX int       `json:"logo_position_x"`
	LogoPositionY int       `json:"logo_position_y"`
	LogoSize      string    `json:"logo_size"`
	CreatedAt     time.Time `json:"created_at"`
}

type GroupedTemplatesResponse struct {
	ItemName string   `json:"item_name"`
	Colors   []string `json:"colors"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

package models

type CreateTemplateRequest struct {
	ItemName      string `json:"item_name" binding:"required"`
	Color         string `json:"color" binding:"required"`
	TemplateURL   string `json:"template_url" binding:"required"`
	LogoPositionX int    `json:"logo_position_x"`
	LogoPositionY int    `json:"logo_position_y"`
	LogoSize      string `json:"logo_size"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

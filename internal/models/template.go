package models

import (
	"time"

	"github.com/google/uuid"
)

// Template describes a garment/color mockup template the page generator
// composes logos onto. LogoSize is "large" or "small".
type Template struct {
	ID            uuid.UUID
	ItemName      string
	Color         string
	TemplateURL   string
	LogoPositionX int
	LogoPositionY int
	LogoSize      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Job statuses. Transitions are monotonic:
// pending -> processing -> completed | failed.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Catalog types accepted by the submit endpoint.
const (
	CatalogTypeCustom   = "custom"
	CatalogTypeIndustry = "industry"
	CatalogTypePack     = "pack"
)

// SelectionPair is one (garment, color) combination driving a catalog page.
type SelectionPair struct {
	Garment string `json:"garment"`
	Color   string `json:"color"`
}

type Job struct {
	ID           uuid.UUID
	CustomerName string
	CatalogType  string
	Status       string
	Progress     int
	LogoURLs     []string
	Items        []SelectionPair
	PDFURL       sql.NullString
	ErrorMessage sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Terminal reports whether the job reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// JobPage is one generated catalog page artifact.
type JobPage struct {
	ID        uuid.UUID
	JobID     uuid.UUID
	Garment   string
	Color     string
	PageURL   string
	CreatedAt time.Time
}

// ValidCatalogType reports whether t is one of the accepted catalog types.
func ValidCatalogType(t string) bool {
	switch t {
	case CatalogTypeCustom, CatalogTypeIndustry, CatalogTypePack:
		return true
	}
	return false
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
)

// Artifact is one generated design instance. ReferenceClass transitions
// volatile to durable at most once, never back.
type Artifact struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	DraftID        uuid.UUID            `gorm:"column:draft_id;type:uuid;not null;uniqueIndex"`
	Prompt         string               `gorm:"column:prompt;not null"`
	Style          string               `gorm:"column:style;not null"`
	ReferenceURL   string               `gorm:"column:reference_url;not null"`
	ReferenceClass enums.ReferenceClass `gorm:"column:reference_class;not null"`
	Status         enums.ArtifactStatus `gorm:"column:status;not null"`
	PromotedAt     *time.Time           `gorm:"column:promoted_at"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

package artifacts

import (
	"time"

	"github.com/google/uuid"

	"github.com/inkdrop-studio/inkdrop-backend/pkg/db/models"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
)

// ArtifactDTO is the API-facing projection of a design artifact.
type ArtifactDTO struct {
	ID             uuid.UUID            `json:"id"`
	DraftID        uuid.UUID            `json:"draft_id"`
	Prompt         string               `json:"prompt"`
	Style          string               `json:"style"`
	ReferenceURL   string               `json:"reference_url"`
	ReferenceClass enums.ReferenceClass `json:"reference_class"`
	Status         enums.ArtifactStatus `json:"status"`
	PromotedAt     *time.Time           `json:"promoted_at,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// NewArtifactDTO converts the model into its API projection.
func NewArtifactDTO(artifact *models.Artifact) *ArtifactDTO {
	if artifact == nil {
		return nil
	}
	return &ArtifactDTO{
		ID:             artifact.ID,
		DraftID:        artifact.DraftID,
		Prompt:         artifact.Prompt,
		Style:          artifact.Style,
		ReferenceURL:   artifact.ReferenceURL,
		ReferenceClass: artifact.ReferenceClass,
		Status:         artifact.Status,
		PromotedAt:     artifact.PromotedAt,
		CreatedAt:      artifact.CreatedAt,
		UpdatedAt:      artifact.UpdatedAt,
	}
}

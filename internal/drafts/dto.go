package drafts

import (
	"time"

	"github.com/google/uuid"

	"github.com/inkdrop-studio/inkdrop-backend/pkg/db/models"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
)

// DraftDTO is the API-facing projection of a draft. The credential hash
// never leaves the persistence layer.
type DraftDTO struct {
	ID        uuid.UUID            `json:"id"`
	OwnerKind enums.OwnerKind      `json:"owner_kind"`
	AccountID *uuid.UUID           `json:"account_id,omitempty"`
	ProductID uuid.UUID            `json:"product_id"`
	Color     string               `json:"color"`
	Size      string               `json:"size"`
	Tier      string               `json:"tier"`
	Quantity  int                  `json:"quantity"`
	Lifecycle enums.DraftLifecycle `json:"lifecycle"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// NewDraftDTO converts the model into its API projection.
func NewDraftDTO(draft *models.Draft) *DraftDTO {
	if draft == nil {
		return nil
	}
	return &DraftDTO{
		ID:        draft.ID,
		OwnerKind: draft.OwnerKind,
		AccountID: draft.AccountID,
		ProductID: draft.ProductID,
		Color:     draft.Color,
		Size:      draft.Size,
		Tier:      draft.Tier,
		Quantity:  draft.Quantity,
		Lifecycle: draft.Lifecycle,
		CreatedAt: draft.CreatedAt,
		UpdatedAt: draft.UpdatedAt,
	}
}

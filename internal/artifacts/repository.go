package artifacts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkdrop-studio/inkdrop-backend/pkg/db/models"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
)

// Repository persists design artifacts.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the artifact, returning nil when the row does not exist.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Artifact, error) {
	var artifact models.Artifact
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&artifact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &artifact, nil
}

// FindByDraftID loads the draft's artifact, returning nil when none exists.
func (r *Repository) FindByDraftID(ctx context.Context, draftID uuid.UUID) (*models.Artifact, error) {
	var artifact models.Artifact
	err := r.db.WithContext(ctx).Where("draft_id = ?", draftID).First(&artifact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &artifact, nil
}

// UpsertForDraftTx writes the draft's single artifact slot: a fresh insert
// the first time, a full overwrite on regeneration.
func (r *Repository) UpsertForDraftTx(tx *gorm.DB, artifact *models.Artifact) (*models.Artifact, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}

	var existing models.Artifact
	err := tx.Where("draft_id = ?", artifact.DraftID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if artifact.ID == uuid.Nil {
			artifact.ID = uuid.New()
		}
		if err := tx.Create(artifact).Error; err != nil {
			return nil, err
		}
		return artifact, nil

	case err != nil:
		return nil, err
	}

	updates := map[string]any{
		"prompt":          artifact.Prompt,
		"style":           artifact.Style,
		"reference_url":   artifact.ReferenceURL,
		"reference_class": artifact.ReferenceClass,
		"status":          artifact.Status,
		"promoted_at":     nil,
	}
	if err := tx.Model(&models.Artifact{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
		return nil, err
	}
	artifact.ID = existing.ID
	return artifact, nil
}

// PromoteTx flips a volatile reference to its durable replacement. The
// conditional update makes the call idempotent and keeps durable references
// from ever reverting.
func (r *Repository) PromoteTx(tx *gorm.DB, artifactID uuid.UUID, durableURL string, promotedAt time.Time) (bool, error) {
	if tx == nil {
		return false, errors.New("transaction required")
	}
	res := tx.Model(&models.Artifact{}).
		Where("id = ?", artifactID).
		Where("reference_class = ?", enums.ReferenceClassVolatile).
		Updates(map[string]any{
			"reference_url":   durableURL,
			"reference_class": enums.ReferenceClassDurable,
			"promoted_at":     promotedAt,
		})
	return res.RowsAffected > 0, res.Error
}

// MarkFailedByDraftID records a failed regeneration on the existing slot.
func (r *Repository) MarkFailedByDraftID(ctx context.Context, draftID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.Artifact{}).
		Where("draft_id = ?", draftID).
		Update("status", enums.ArtifactStatusFailed).Error
}

// DeleteByDraftIDTx removes the draft's artifact inside the transaction.
func (r *Repository) DeleteByDraftIDTx(tx *gorm.DB, draftID uuid.UUID) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Where("draft_id = ?", draftID).Delete(&models.Artifact{}).Error
}

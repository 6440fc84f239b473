package drafts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkdrop-studio/inkdrop-backend/pkg/db/models"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
)

// Repository wires together draft and product persistence.
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

// CreateDraft inserts the draft row.
func (r *Repository) CreateDraft(ctx context.Context, draft *models.Draft) (*models.Draft, error) {
	if draft.ID == uuid.Nil {
		draft.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(draft).Error; err != nil {
		return nil, err
	}
	return draft, nil
}

// FindByID loads the draft, returning nil when the row does not exist.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Draft, error) {
	var draft models.Draft
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&draft).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &draft, nil
}

// FindProduct loads the catalog row the draft's selection validates against.
func (r *Repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// UpdateSelection rewrites the purchasable selection. The lifecycle guard
// keeps the update away from generating, claimed, and abandoned drafts.
func (r *Repository) UpdateSelection(ctx context.Context, draftID uuid.UUID, color, size, tier string, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Draft{}).
		Where("id = ?", draftID).
		Where("lifecycle IN ?", []enums.DraftLifecycle{enums.DraftLifecycleCreated, enums.DraftLifecycleReady}).
		Updates(map[string]any{
			"color":    color,
			"size":     size,
			"tier":     tier,
			"quantity": quantity,
		})
	return res.RowsAffected > 0, res.Error
}

// TransitionLifecycle moves the draft between lifecycle states with a
// compare-and-set so concurrent transitions cannot both win.
func (r *Repository) TransitionLifecycle(ctx context.Context, draftID uuid.UUID, from []enums.DraftLifecycle, to enums.DraftLifecycle) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Draft{}).
		Where("id = ?", draftID).
		Where("lifecycle IN ?", from).
		Update("lifecycle", to)
	return res.RowsAffected > 0, res.Error
}

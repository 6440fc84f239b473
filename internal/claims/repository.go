package claims

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkdrop-studio/inkdrop-backend/pkg/db/models"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
)

// Repository persists claim attempts and performs the ownership flip.
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

// InsertRecord appends one claim attempt to the audit trail.
func (r *Repository) InsertRecord(ctx context.Context, record *models.ClaimRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(record).Error
}

// InsertRecordTx appends one claim attempt inside the transaction.
func (r *Repository) InsertRecordTx(tx *gorm.DB, record *models.ClaimRecord) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return tx.Create(record).Error
}

// FindSucceededByDraft returns the winning claim record, if any.
func (r *Repository) FindSucceededByDraft(ctx context.Context, draftID uuid.UUID) (*models.ClaimRecord, error) {
	var record models.ClaimRecord
	err := r.db.WithContext(ctx).
		Where("draft_id = ?", draftID).
		Where("outcome = ?", enums.ClaimOutcomeSucceeded).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// BindDraftToAccountTx performs the one-way ownership flip: guest credential
// hash is discarded and the account becomes the owner in the same atomic
// update. The owner_kind guard makes exactly one concurrent claimant win.
// The lifecycle moves to claimed only from a settled state; a draft claimed
// mid-generation keeps its lifecycle so the in-flight generation can still
// land its generating -> ready transition.
func (r *Repository) BindDraftToAccountTx(tx *gorm.DB, draftID, accountID uuid.UUID) (bool, error) {
	if tx == nil {
		return false, errors.New("transaction required")
	}
	res := tx.Model(&models.Draft{}).
		Where("id = ?", draftID).
		Where("owner_kind = ?", enums.OwnerKindGuest).
		Updates(map[string]any{
			"owner_kind":            enums.OwnerKindAccount,
			"account_id":            accountID,
			"guest_credential_hash": nil,
			"lifecycle": gorm.Expr(
				"CASE WHEN lifecycle IN (?, ?) THEN ? ELSE lifecycle END",
				enums.DraftLifecycleCreated, enums.DraftLifecycleReady, enums.DraftLifecycleClaimed,
			),
		})
	return res.RowsAffected > 0, res.Error
}

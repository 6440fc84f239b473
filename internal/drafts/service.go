package drafts

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkdrop-studio/inkdrop-backend/pkg/config"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/db"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/db/models"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
	pkgerrors "github.com/inkdrop-studio/inkdrop-backend/pkg/errors"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/logger"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/security"
)

// Service exposes draft lifecycle and selection operations.
type Service interface {
	CreateDraft(ctx context.Context, input CreateDraftInput) (*CreateDraftResult, error)
	GetDraft(ctx context.Context, draftID uuid.UUID, identity Identity) (*DraftDTO, error)
	UpdateSelection(ctx context.Context, draftID uuid.UUID, identity Identity, input SelectionInput) (*DraftDTO, error)
	ResetDesign(ctx context.Context, draftID uuid.UUID, identity Identity) (*DraftDTO, error)
	Abandon(ctx context.Context, draftID uuid.UUID, identity Identity) error
}

// CreateDraftInput holds the validated payload to open a draft.
type CreateDraftInput struct {
	AccountID *uuid.UUID
	ProductID uuid.UUID
	Color     string
	Size      string
	Tier      string
	Quantity  int
}

// SelectionInput rewrites the purchasable selection of an existing draft.
type SelectionInput struct {
	Color    string
	Size     string
	Tier     string
	Quantity int
}

// CreateDraftResult returns the new draft plus, for guests, the one-time
// plaintext credential. The server keeps only its hash.
type CreateDraftResult struct {
	Draft           *DraftDTO
	GuestCredential string
}

type artifactStore interface {
	FindByDraftID(ctx context.Context, draftID uuid.UUID) (*models.Artifact, error)
	DeleteByDraftIDTx(tx *gorm.DB, draftID uuid.UUID) error
}

type service struct {
	repo      *Repository
	dbClient  *db.Client
	artifacts artifactStore
	credCfg   config.CredentialConfig
	logg      *logger.Logger
}

// NewService constructs a draft service instance.
func NewService(repo *Repository, dbClient *db.Client, artifacts artifactStore, credCfg config.CredentialConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("draft repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if artifacts == nil {
		return nil, fmt.Errorf("artifact store required")
	}
	return &service{
		repo:      repo,
		dbClient:  dbClient,
		artifacts: artifacts,
		credCfg:   credCfg,
		logg:      logg,
	}, nil
}

// CreateDraft opens a draft. Anonymous callers receive a fresh guest
// credential; authenticated callers own the draft through their account.
func (s *service) CreateDraft(ctx context.Context, input CreateDraftInput) (*CreateDraftResult, error) {
	if err := s.validateSelection(ctx, input.ProductID, input.Color, input.Size, input.Tier, input.Quantity); err != nil {
		return nil, err
	}

	draft := &models.Draft{
		ProductID: input.ProductID,
		Color:     input.Color,
		Size:      input.Size,
		Tier:      input.Tier,
		Quantity:  input.Quantity,
		Lifecycle: enums.DraftLifecycleCreated,
	}

	var plaintext string
	if input.AccountID != nil {
		draft.OwnerKind = enums.OwnerKindAccount
		draft.AccountID = input.AccountID
	} else {
		credential, err := security.IssueCredential()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue guest credential")
		}
		hash, err := security.HashCredential(credential, s.credCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash guest credential")
		}
		draft.OwnerKind = enums.OwnerKindGuest
		draft.GuestCredentialHash = &hash
		plaintext = credential
	}

	created, err := s.repo.CreateDraft(ctx, draft)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert draft")
	}

	if s.logg != nil {
		logCtx := s.logg.WithDraftID(ctx, created.ID.String())
		s.logg.Info(logCtx, "draft created")
	}

	return &CreateDraftResult{
		Draft:           NewDraftDTO(created),
		GuestCredential: plaintext,
	}, nil
}

// GetDraft loads the draft after verifying ownership.
func (s *service) GetDraft(ctx context.Context, draftID uuid.UUID, identity Identity) (*DraftDTO, error) {
	draft, err := s.loadOwned(ctx, draftID, identity)
	if err != nil {
		return nil, err
	}
	return NewDraftDTO(draft), nil
}

// UpdateSelection rewrites the purchasable selection. Once a design exists
// the selection is pinned; the caller must reset first.
func (s *service) UpdateSelection(ctx context.Context, draftID uuid.UUID, identity Identity, input SelectionInput) (*DraftDTO, error) {
	draft, err := s.loadOwned(ctx, draftID, identity)
	if err != nil {
		return nil, err
	}

	artifact, err := s.artifacts.FindByDraftID(ctx, draftID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load artifact")
	}
	if artifact != nil {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "selection is pinned once a design exists; reset the design first")
	}

	if err := s.validateSelection(ctx, draft.ProductID, input.Color, input.Size, input.Tier, input.Quantity); err != nil {
		return nil, err
	}

	ok, err := s.repo.UpdateSelection(ctx, draftID, input.Color, input.Size, input.Tier, input.Quantity)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update selection")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "draft no longer accepts selection changes")
	}

	updated, err := s.repo.FindByID(ctx, draftID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload draft")
	}
	return NewDraftDTO(updated), nil
}

// ResetDesign discards the current artifact so the draft can change its
// selection and generate again.
func (s *service) ResetDesign(ctx context.Context, draftID uuid.UUID, identity Identity) (*DraftDTO, error) {
	draft, err := s.loadOwned(ctx, draftID, identity)
	if err != nil {
		return nil, err
	}

	switch draft.Lifecycle {
	case enums.DraftLifecycleGenerating:
		return nil, pkgerrors.New(pkgerrors.CodeAlreadyGenerating, "a generation is in flight; wait for it to finish")
	case enums.DraftLifecycleClaimed, enums.DraftLifecycleAbandoned:
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "draft no longer accepts design changes")
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.artifacts.DeleteByDraftIDTx(tx, draftID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete artifact")
		}
		ok, err := s.repo.WithTx(tx).TransitionLifecycle(ctx, draftID,
			[]enums.DraftLifecycle{enums.DraftLifecycleCreated, enums.DraftLifecycleReady},
			enums.DraftLifecycleCreated)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reset lifecycle")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "draft no longer accepts design changes")
		}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset design")
	}

	updated, err := s.repo.FindByID(ctx, draftID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload draft")
	}
	return NewDraftDTO(updated), nil
}

// Abandon retires the draft permanently.
func (s *service) Abandon(ctx context.Context, draftID uuid.UUID, identity Identity) error {
	if _, err := s.loadOwned(ctx, draftID, identity); err != nil {
		return err
	}

	ok, err := s.repo.TransitionLifecycle(ctx, draftID,
		[]enums.DraftLifecycle{enums.DraftLifecycleCreated, enums.DraftLifecycleReady},
		enums.DraftLifecycleAbandoned)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: abandon draft")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeInvalidTransition, "draft cannot be abandoned from its current state")
	}
	return nil
}

func (s *service) loadOwned(ctx context.Context, draftID uuid.UUID, identity Identity) (*models.Draft, error) {
	draft, err := s.repo.FindByID(ctx, draftID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load draft")
	}
	if draft == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "draft not found")
	}
	if err := Authorize(draft, identity); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *service) validateSelection(ctx context.Context, productID uuid.UUID, color, size, tier string, quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	if product == nil || !product.Active {
		return pkgerrors.New(pkgerrors.CodeInvalidSelection, "product is not purchasable")
	}

	if !optionAllowed(product.Colors, color) {
		return pkgerrors.New(pkgerrors.CodeInvalidSelection, fmt.Sprintf("color %q is not offered for this product", color))
	}
	if !optionAllowed(product.Sizes, size) {
		return pkgerrors.New(pkgerrors.CodeInvalidSelection, fmt.Sprintf("size %q is not offered for this product", size))
	}
	if !optionAllowed(product.Tiers, tier) {
		return pkgerrors.New(pkgerrors.CodeInvalidSelection, fmt.Sprintf("tier %q is not offered for this product", tier))
	}
	return nil
}

func optionAllowed(list, value string) bool {
	if value == "" {
		return false
	}
	for _, option := range strings.Split(list, ",") {
		if strings.TrimSpace(option) == value {
			return true
		}
	}
	return false
}

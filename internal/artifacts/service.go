package artifacts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkdrop-studio/inkdrop-backend/internal/drafts"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/config"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/db"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/db/models"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
	pkgerrors "github.com/inkdrop-studio/inkdrop-backend/pkg/errors"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/logger"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/metrics"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/outbox"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/outbox/payloads"
)

// Service exposes design generation and durability operations.
type Service interface {
	Generate(ctx context.Context, draftID uuid.UUID, identity drafts.Identity, input GenerateInput) (*ArtifactDTO, error)
	GetArtifact(ctx context.Context, draftID uuid.UUID, identity drafts.Identity) (*ArtifactDTO, error)
	PromoteToDurable(ctx context.Context, artifactID uuid.UUID, durableURL string) error
}

// GenerateInput is the validated payload for a generation request.
type GenerateInput struct {
	Prompt string
	Style  string
}

type service struct {
	repo      *Repository
	draftRepo *drafts.Repository
	dbClient  *db.Client
	provider  Provider
	outbox    *outbox.Service
	metrics   *metrics.DurabilityMetrics
	cfg       config.ProviderConfig
	logg      *logger.Logger
}

// NewService constructs an artifact service instance.
func NewService(repo *Repository, draftRepo *drafts.Repository, dbClient *db.Client, provider Provider, outboxSvc *outbox.Service, m *metrics.DurabilityMetrics, cfg config.ProviderConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("artifact repository required")
	}
	if draftRepo == nil {
		return nil, fmt.Errorf("draft repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if provider == nil {
		return nil, fmt.Errorf("provider required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &service{
		repo:      repo,
		draftRepo: draftRepo,
		dbClient:  dbClient,
		provider:  provider,
		outbox:    outboxSvc,
		metrics:   m,
		cfg:       cfg,
		logg:      logg,
	}, nil
}

// Generate calls the provider and records the resulting reference. The
// lifecycle compare-and-set guarantees at most one generation in flight per
// draft; losers observe AlreadyGenerating.
func (s *service) Generate(ctx context.Context, draftID uuid.UUID, identity drafts.Identity, input GenerateInput) (*ArtifactDTO, error) {
	if input.Prompt == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prompt is required")
	}

	draft, err := s.loadOwnedDraft(ctx, draftID, identity)
	if err != nil {
		return nil, err
	}
	previous := draft.Lifecycle

	ok, err := s.draftRepo.TransitionLifecycle(ctx, draftID,
		[]enums.DraftLifecycle{enums.DraftLifecycleCreated, enums.DraftLifecycleReady},
		enums.DraftLifecycleGenerating)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: enter generating")
	}
	if !ok {
		current, err := s.draftRepo.FindByID(ctx, draftID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload draft")
		}
		if current != nil && current.Lifecycle == enums.DraftLifecycleGenerating {
			return nil, pkgerrors.New(pkgerrors.CodeAlreadyGenerating, "a generation is already in flight for this draft")
		}
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "draft cannot generate from its current state")
	}

	providerCtx, cancel := context.WithTimeout(ctx, s.providerTimeout())
	resp, genErr := s.provider.GenerateDesign(providerCtx, GenerateRequest{Prompt: input.Prompt, Style: input.Style})
	cancel()
	if genErr != nil {
		s.restoreAfterFailure(ctx, draftID, previous)
		s.metrics.IncGenerated("failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeGenerationFailed, genErr, "provider generation failed")
	}

	class := ClassifyReference(resp.ImageURL, s.cfg.VolatileHosts)

	artifact := &models.Artifact{
		DraftID:        draftID,
		Prompt:         input.Prompt,
		Style:          input.Style,
		ReferenceURL:   resp.ImageURL,
		ReferenceClass: class,
		Status:         enums.ArtifactStatusReady,
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		stored, err := s.repo.UpsertForDraftTx(tx, artifact)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: store artifact")
		}
		artifact = stored

		ok, err := s.draftRepo.WithTx(tx).TransitionLifecycle(ctx, draftID,
			[]enums.DraftLifecycle{enums.DraftLifecycleGenerating},
			enums.DraftLifecycleReady)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: leave generating")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "draft left the generating state unexpectedly")
		}

		if class == enums.ReferenceClassVolatile {
			return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventArtifactGenerated,
				AggregateType: enums.AggregateArtifact,
				AggregateID:   artifact.ID,
				Version:       1,
				Data: payloads.ArtifactGeneratedEvent{
					ArtifactID:     artifact.ID,
					DraftID:        draftID,
					Prompt:         artifact.Prompt,
					Style:          artifact.Style,
					ReferenceURL:   artifact.ReferenceURL,
					ReferenceClass: artifact.ReferenceClass,
				},
			})
		}
		return nil
	})
	if err != nil {
		s.restoreAfterFailure(ctx, draftID, previous)
		s.metrics.IncGenerated("failed")
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record generated artifact")
	}

	s.metrics.IncGenerated("success")
	if s.logg != nil {
		logCtx := s.logg.WithDraftID(ctx, draftID.String())
		logCtx = s.logg.WithArtifactID(logCtx, artifact.ID.String())
		logCtx = s.logg.WithField(logCtx, "reference_class", string(class))
		s.logg.Info(logCtx, "design generated")
	}

	stored, err := s.repo.FindByID(ctx, artifact.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload artifact")
	}
	return NewArtifactDTO(stored), nil
}

// GetArtifact returns the draft's artifact after ownership checks.
func (s *service) GetArtifact(ctx context.Context, draftID uuid.UUID, identity drafts.Identity) (*ArtifactDTO, error) {
	if _, err := s.loadOwnedDraft(ctx, draftID, identity); err != nil {
		return nil, err
	}

	artifact, err := s.repo.FindByDraftID(ctx, draftID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load artifact")
	}
	if artifact == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no design has been generated for this draft")
	}
	return NewArtifactDTO(artifact), nil
}

// PromoteToDurable replaces a volatile reference with its durable copy.
// Redeliveries are absorbed: promoting an already durable artifact is a no-op.
func (s *service) PromoteToDurable(ctx context.Context, artifactID uuid.UUID, durableURL string) error {
	if durableURL == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "durable url is required")
	}

	artifact, err := s.repo.FindByID(ctx, artifactID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load artifact")
	}
	if artifact == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "artifact not found")
	}
	if artifact.ReferenceClass == enums.ReferenceClassDurable {
		return nil
	}

	promotedAt := time.Now().UTC()
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).PromoteTx(tx, artifactID, durableURL, promotedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: promote artifact")
		}
		if !ok {
			// a concurrent promotion won; nothing left to do
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventArtifactPromoted,
			AggregateType: enums.AggregateArtifact,
			AggregateID:   artifactID,
			Version:       1,
			Data: payloads.ArtifactPromotedEvent{
				ArtifactID: artifactID,
				DraftID:    artifact.DraftID,
				DurableURL: durableURL,
				PromotedAt: promotedAt,
			},
		})
	})
	if err != nil {
		s.metrics.IncPromotionFailure("persist")
		if pkgerrors.As(err) != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "promote artifact")
	}

	s.metrics.IncPromoted()
	s.metrics.ObservePromotionDuration("success", promotedAt.Sub(artifact.CreatedAt))
	if s.logg != nil {
		logCtx := s.logg.WithArtifactID(ctx, artifactID.String())
		s.logg.Info(logCtx, "artifact promoted to durable reference")
	}
	return nil
}

func (s *service) loadOwnedDraft(ctx context.Context, draftID uuid.UUID, identity drafts.Identity) (*models.Draft, error) {
	draft, err := s.draftRepo.FindByID(ctx, draftID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load draft")
	}
	if draft == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "draft not found")
	}
	if err := drafts.Authorize(draft, identity); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *service) restoreAfterFailure(ctx context.Context, draftID uuid.UUID, previous enums.DraftLifecycle) {
	if _, err := s.draftRepo.TransitionLifecycle(ctx, draftID,
		[]enums.DraftLifecycle{enums.DraftLifecycleGenerating}, previous); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithDraftID(ctx, draftID.String()), "failed to restore draft lifecycle", err)
	}
	if err := s.repo.MarkFailedByDraftID(ctx, draftID); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithDraftID(ctx, draftID.String()), "failed to mark artifact failed", err)
	}
}

func (s *service) providerTimeout() time.Duration {
	if s.cfg.Timeout > 0 {
		return s.cfg.Timeout
	}
	return 30 * time.Second
}

package claims

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/inkdrop-studio/inkdrop-backend/internal/drafts"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/db"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/db/models"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
	pkgerrors "github.com/inkdrop-studio/inkdrop-backend/pkg/errors"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/logger"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/metrics"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/outbox"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/outbox/payloads"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/security"
)

// Service exposes the claim protocol: binding a guest draft to an account.
type Service interface {
	Claim(ctx context.Context, draftID, accountID uuid.UUID, guestCredential string) (*ClaimResult, error)
}

// ClaimResult reports how the attempt resolved. AlreadyClaimed by the same
// account is a success from the caller's point of view.
type ClaimResult struct {
	Outcome enums.ClaimOutcome
	Draft   *drafts.DraftDTO
}

type service struct {
	repo      *Repository
	draftRepo *drafts.Repository
	dbClient  *db.Client
	outbox    *outbox.Service
	metrics   *metrics.DurabilityMetrics
	logg      *logger.Logger
}

// NewService constructs a claim service instance.
func NewService(repo *Repository, draftRepo *drafts.Repository, dbClient *db.Client, outboxSvc *outbox.Service, m *metrics.DurabilityMetrics, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("claim repository required")
	}
	if draftRepo == nil {
		return nil, fmt.Errorf("draft repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &service{
		repo:      repo,
		draftRepo: draftRepo,
		dbClient:  dbClient,
		outbox:    outboxSvc,
		metrics:   m,
		logg:      logg,
	}, nil
}

// Claim binds a guest draft to the authenticated account. The flip is
// one-way: replays by the same account resolve as AlreadyClaimed, a
// different account gets a conflict, and a stale credential is rejected
// after the hash comparison.
func (s *service) Claim(ctx context.Context, draftID, accountID uuid.UUID, guestCredential string) (*ClaimResult, error) {
	if accountID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "an authenticated account is required to claim")
	}
	if guestCredential == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest credential is required")
	}

	draft, err := s.draftRepo.FindByID(ctx, draftID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load draft")
	}
	if draft == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "draft not found")
	}

	if draft.OwnerKind == enums.OwnerKindAccount {
		return s.resolveClaimed(ctx, draft, accountID)
	}

	if draft.GuestCredentialHash == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "guest draft is missing its credential hash")
	}
	ok, err := security.VerifyCredential(guestCredential, *draft.GuestCredentialHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify guest credential")
	}
	fingerprint := security.Fingerprint(guestCredential)
	if !ok {
		s.recordAttempt(ctx, draftID, accountID, fingerprint, enums.ClaimOutcomeCredentialInvalid)
		s.metrics.IncClaim(string(enums.ClaimOutcomeCredentialInvalid))
		return nil, pkgerrors.New(pkgerrors.CodeCredentialInvalid, "guest credential does not match this draft")
	}

	won := false
	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		flipped, err := s.repo.BindDraftToAccountTx(tx, draftID, accountID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: bind draft to account")
		}
		if !flipped {
			// another claim got there first; resolved outside the tx
			return nil
		}
		won = true

		if err := s.repo.InsertRecordTx(tx, &models.ClaimRecord{
			DraftID:               draftID,
			CredentialFingerprint: fingerprint,
			AccountID:             accountID,
			Outcome:               enums.ClaimOutcomeSucceeded,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert claim record")
		}

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDraftClaimed,
			AggregateType: enums.AggregateDraft,
			AggregateID:   draftID,
			Version:       1,
			Data: payloads.DraftClaimedEvent{
				DraftID:   draftID,
				AccountID: accountID,
				ClaimedAt: time.Now().UTC(),
			},
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim draft")
	}

	if !won {
		current, err := s.draftRepo.FindByID(ctx, draftID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload draft")
		}
		if current == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "draft not found")
		}
		return s.resolveClaimed(ctx, current, accountID)
	}

	s.metrics.IncClaim(string(enums.ClaimOutcomeSucceeded))
	if s.logg != nil {
		logCtx := s.logg.WithDraftID(ctx, draftID.String())
		logCtx = s.logg.WithAccountID(logCtx, accountID.String())
		s.logg.Info(logCtx, "draft claimed")
	}

	claimed, err := s.draftRepo.FindByID(ctx, draftID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload draft")
	}
	return &ClaimResult{
		Outcome: enums.ClaimOutcomeSucceeded,
		Draft:   drafts.NewDraftDTO(claimed),
	}, nil
}

// resolveClaimed handles drafts that are already account-owned: replays by
// the winning account are idempotent, everyone else conflicts.
func (s *service) resolveClaimed(ctx context.Context, draft *models.Draft, accountID uuid.UUID) (*ClaimResult, error) {
	if draft.AccountID != nil && *draft.AccountID == accountID {
		s.metrics.IncClaim(string(enums.ClaimOutcomeAlreadyClaimed))
		return &ClaimResult{
			Outcome: enums.ClaimOutcomeAlreadyClaimed,
			Draft:   drafts.NewDraftDTO(draft),
		}, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeConflict, "draft was claimed by a different account")
}

func (s *service) recordAttempt(ctx context.Context, draftID, accountID uuid.UUID, fingerprint string, outcome enums.ClaimOutcome) {
	err := s.repo.InsertRecord(ctx, &models.ClaimRecord{
		DraftID:               draftID,
		CredentialFingerprint: fingerprint,
		AccountID:             accountID,
		Outcome:               outcome,
	})
	if err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithDraftID(ctx, draftID.String()), "failed to record claim attempt", err)
	}
}

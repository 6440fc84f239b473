package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkdrop-studio/inkdrop-backend/api/middleware"
	"github.com/inkdrop-studio/inkdrop-backend/api/responses"
	"github.com/inkdrop-studio/inkdrop-backend/api/validators"
	"github.com/inkdrop-studio/inkdrop-backend/internal/drafts"
	pkgerrors "github.com/inkdrop-studio/inkdrop-backend/pkg/errors"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/logger"
)

type draftCreateRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Color     string `json:"color" validate:"required"`
	Size      string `json:"size" validate:"required"`
	Tier      string `json:"tier" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type draftSelectionRequest struct {
	Color    string `json:"color" validate:"required"`
	Size     string `json:"size" validate:"required"`
	Tier     string `json:"tier" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

type draftCreateResponse struct {
	Draft *drafts.DraftDTO `json:"draft"`
	// GuestCredential is returned exactly once, at creation. The server
	// keeps only its hash; losing this value loses the draft.
	GuestCredential string `json:"guest_credential,omitempty"`
}

// identityFromRequest assembles the caller's proof of ownership from the
// optional bearer account and the guest credential header.
func identityFromRequest(r *http.Request) drafts.Identity {
	identity := drafts.Identity{
		GuestCredential: middleware.GuestCredentialFromContext(r.Context()),
	}
	if raw := middleware.AccountIDFromContext(r.Context()); raw != "" {
		if accountID, err := uuid.Parse(raw); err == nil {
			identity.AccountID = &accountID
		}
	}
	return identity
}

func draftIDFromRequest(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "draftId"))
	draftID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid draft id")
	}
	return draftID, nil
}

// DraftCreate opens a draft for the caller: anonymous visitors receive a
// one-time guest credential, signed-in shoppers own it by account.
func DraftCreate(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "draft service unavailable"))
			return
		}

		var req draftCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := uuid.Parse(strings.TrimSpace(req.ProductID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id"))
			return
		}

		input := drafts.CreateDraftInput{
			ProductID: productID,
			Color:     strings.TrimSpace(req.Color),
			Size:      strings.TrimSpace(req.Size),
			Tier:      strings.TrimSpace(req.Tier),
			Quantity:  req.Quantity,
		}
		input.AccountID = identityFromRequest(r).AccountID

		result, err := svc.CreateDraft(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, draftCreateResponse{
			Draft:           result.Draft,
			GuestCredential: result.GuestCredential,
		})
	}
}

// DraftGet returns the draft after verifying ownership.
func DraftGet(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "draft service unavailable"))
			return
		}

		draftID, err := draftIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		draft, err := svc.GetDraft(r.Context(), draftID, identityFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, draft)
	}
}

// DraftUpdateSelection rewrites the purchasable selection of a draft.
func DraftUpdateSelection(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "draft service unavailable"))
			return
		}

		draftID, err := draftIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req draftSelectionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		draft, err := svc.UpdateSelection(r.Context(), draftID, identityFromRequest(r), drafts.SelectionInput{
			Color:    strings.TrimSpace(req.Color),
			Size:     strings.TrimSpace(req.Size),
			Tier:     strings.TrimSpace(req.Tier),
			Quantity: req.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, draft)
	}
}

// DraftResetDesign discards the current design so the draft can change its
// selection and generate again.
func DraftResetDesign(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "draft service unavailable"))
			return
		}

		draftID, err := draftIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		draft, err := svc.ResetDesign(r.Context(), draftID, identityFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, draft)
	}
}

// DraftAbandon retires the draft permanently.
func DraftAbandon(svc drafts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "draft service unavailable"))
			return
		}

		draftID, err := draftIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Abandon(r.Context(), draftID, identityFromRequest(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "abandoned"})
	}
}

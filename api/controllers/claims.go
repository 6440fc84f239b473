package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/inkdrop-studio/inkdrop-backend/api/middleware"
	"github.com/inkdrop-studio/inkdrop-backend/api/responses"
	"github.com/inkdrop-studio/inkdrop-backend/api/validators"
	"github.com/inkdrop-studio/inkdrop-backend/internal/claims"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
	pkgerrors "github.com/inkdrop-studio/inkdrop-backend/pkg/errors"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/logger"
)

type claimRequest struct {
	GuestCredential string `json:"guest_credential" validate:"required"`
}

type claimResponse struct {
	Outcome enums.ClaimOutcome `json:"outcome"`
	Draft   any                `json:"draft"`
}

// DraftClaim binds a guest draft to the authenticated caller's account.
// Replays by the winning account resolve as already_claimed.
func DraftClaim(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "claim service unavailable"))
			return
		}

		draftID, err := draftIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raw := middleware.AccountIDFromContext(r.Context())
		accountID, err := uuid.Parse(raw)
		if raw == "" || err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "an authenticated account is required to claim"))
			return
		}

		var req claimRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Claim(r.Context(), draftID, accountID, strings.TrimSpace(req.GuestCredential))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, claimResponse{Outcome: result.Outcome, Draft: result.Draft})
	}
}

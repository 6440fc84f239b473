package controllers

import (
	"net/http"
	"strings"

	"github.com/inkdrop-studio/inkdrop-backend/api/responses"
	"github.com/inkdrop-studio/inkdrop-backend/api/validators"
	"github.com/inkdrop-studio/inkdrop-backend/internal/artifacts"
	pkgerrors "github.com/inkdrop-studio/inkdrop-backend/pkg/errors"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/logger"
)

type generateRequest struct {
	Prompt string `json:"prompt" validate:"required,max=2000"`
	Style  string `json:"style" validate:"max=100"`
}

// DesignGenerate calls the generative provider for the draft and records
// the resulting artifact.
func DesignGenerate(svc artifacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "artifact service unavailable"))
			return
		}

		draftID, err := draftIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req generateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		artifact, err := svc.Generate(r.Context(), draftID, identityFromRequest(r), artifacts.GenerateInput{
			Prompt: strings.TrimSpace(req.Prompt),
			Style:  strings.TrimSpace(req.Style),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, artifact)
	}
}

// DesignGet returns the draft's current artifact, including its reference
// class so the client knows whether to keep polling for durability.
func DesignGet(svc artifacts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "artifact service unavailable"))
			return
		}

		draftID, err := draftIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		artifact, err := svc.GetArtifact(r.Context(), draftID, identityFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, artifact)
	}
}

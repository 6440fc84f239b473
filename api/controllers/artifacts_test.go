package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkdrop-studio/inkdrop-backend/internal/artifacts"
	"github.com/inkdrop-studio/inkdrop-backend/internal/drafts"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
	pkgerrors "github.com/inkdrop-studio/inkdrop-backend/pkg/errors"
)

type fakeArtifactService struct {
	dto       *artifacts.ArtifactDTO
	err       error
	lastInput artifacts.GenerateInput
}

func (f *fakeArtifactService) Generate(ctx context.Context, draftID uuid.UUID, identity drafts.Identity, input artifacts.GenerateInput) (*artifacts.ArtifactDTO, error) {
	f.lastInput = input
	return f.dto, f.err
}

func (f *fakeArtifactService) GetArtifact(ctx context.Context, draftID uuid.UUID, identity drafts.Identity) (*artifacts.ArtifactDTO, error) {
	return f.dto, f.err
}

func (f *fakeArtifactService) PromoteToDurable(ctx context.Context, artifactID uuid.UUID, durableURL string) error {
	return f.err
}

func designRouter(svc artifacts.Service) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/drafts/{draftId}/design", DesignGenerate(svc, nil))
	r.Get("/api/v1/drafts/{draftId}/design", DesignGet(svc, nil))
	return r
}

func TestDesignGenerateReturnsArtifact(t *testing.T) {
	t.Parallel()

	dto := &artifacts.ArtifactDTO{
		ID:             uuid.New(),
		DraftID:        uuid.New(),
		Prompt:         "octopus playing chess",
		ReferenceURL:   "https://cdn.inkdrop-gen.ai/x.png",
		ReferenceClass: enums.ReferenceClassVolatile,
		Status:         enums.ArtifactStatusReady,
	}
	svc := &fakeArtifactService{dto: dto}
	router := designRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/drafts/"+dto.DraftID.String()+"/design",
		bytes.NewBufferString(`{"prompt":"octopus playing chess","style":"lineart"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastInput.Prompt != "octopus playing chess" || svc.lastInput.Style != "lineart" {
		t.Fatalf("input not threaded: %+v", svc.lastInput)
	}

	var envelope struct {
		Data artifacts.ArtifactDTO `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ReferenceClass != enums.ReferenceClassVolatile {
		t.Fatalf("reference class must reach the client, got %s", envelope.Data.ReferenceClass)
	}
}

func TestDesignGenerateRequiresPrompt(t *testing.T) {
	t.Parallel()

	router := designRouter(&fakeArtifactService{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/drafts/"+uuid.NewString()+"/design",
		bytes.NewBufferString(`{"style":"lineart"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDesignGenerateMapsProviderFailure(t *testing.T) {
	t.Parallel()

	svc := &fakeArtifactService{err: pkgerrors.New(pkgerrors.CodeGenerationFailed, "provider generation failed")}
	router := designRouter(svc)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/drafts/"+uuid.NewString()+"/design",
		bytes.NewBufferString(`{"prompt":"fox"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestDesignGetNoArtifact(t *testing.T) {
	t.Parallel()

	svc := &fakeArtifactService{err: pkgerrors.New(pkgerrors.CodeNotFound, "no design has been generated for this draft")}
	router := designRouter(svc)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/drafts/"+uuid.NewString()+"/design", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

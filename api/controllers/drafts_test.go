package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkdrop-studio/inkdrop-backend/api/middleware"
	"github.com/inkdrop-studio/inkdrop-backend/internal/drafts"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
	pkgerrors "github.com/inkdrop-studio/inkdrop-backend/pkg/errors"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/types"
)

type fakeDraftService struct {
	createResult *drafts.CreateDraftResult
	createErr    error
	getResult    *drafts.DraftDTO
	getErr       error
	lastIdentity drafts.Identity
	lastInput    drafts.CreateDraftInput
}

func (f *fakeDraftService) CreateDraft(ctx context.Context, input drafts.CreateDraftInput) (*drafts.CreateDraftResult, error) {
	f.lastInput = input
	return f.createResult, f.createErr
}

func (f *fakeDraftService) GetDraft(ctx context.Context, draftID uuid.UUID, identity drafts.Identity) (*drafts.DraftDTO, error) {
	f.lastIdentity = identity
	return f.getResult, f.getErr
}

func (f *fakeDraftService) UpdateSelection(ctx context.Context, draftID uuid.UUID, identity drafts.Identity, input drafts.SelectionInput) (*drafts.DraftDTO, error) {
	f.lastIdentity = identity
	return f.getResult, f.getErr
}

func (f *fakeDraftService) ResetDesign(ctx context.Context, draftID uuid.UUID, identity drafts.Identity) (*drafts.DraftDTO, error) {
	f.lastIdentity = identity
	return f.getResult, f.getErr
}

func (f *fakeDraftService) Abandon(ctx context.Context, draftID uuid.UUID, identity drafts.Identity) error {
	f.lastIdentity = identity
	return f.getErr
}

func draftRouter(svc drafts.Service) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/drafts", DraftCreate(svc, nil))
	r.Get("/api/v1/drafts/{draftId}", DraftGet(svc, nil))
	r.Put("/api/v1/drafts/{draftId}/selection", DraftUpdateSelection(svc, nil))
	r.Post("/api/v1/drafts/{draftId}/abandon", DraftAbandon(svc, nil))
	return r
}

func sampleDTO() *drafts.DraftDTO {
	return &drafts.DraftDTO{
		ID:        uuid.New(),
		OwnerKind: enums.OwnerKindGuest,
		ProductID: uuid.New(),
		Color:     "black",
		Size:      "M",
		Tier:      "standard",
		Quantity:  1,
		Lifecycle: enums.DraftLifecycleCreated,
	}
}

func TestDraftCreateReturnsCredentialOnce(t *testing.T) {
	t.Parallel()

	dto := sampleDTO()
	svc := &fakeDraftService{createResult: &drafts.CreateDraftResult{Draft: dto, GuestCredential: "one-time-secret"}}
	router := draftRouter(svc)

	body := fmt.Sprintf(`{"product_id":%q,"color":"black","size":"M","tier":"standard","quantity":1}`, dto.ProductID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/drafts", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data struct {
			Draft           *drafts.DraftDTO `json:"draft"`
			GuestCredential string           `json:"guest_credential"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.GuestCredential != "one-time-secret" {
		t.Fatal("creation response must carry the one-time credential")
	}
	if envelope.Data.Draft == nil || envelope.Data.Draft.ID != dto.ID {
		t.Fatalf("unexpected draft payload %+v", envelope.Data.Draft)
	}
}

func TestDraftCreateRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	router := draftRouter(&fakeDraftService{})

	cases := []string{
		`{"color":"black","size":"M","tier":"standard","quantity":1}`,
		`{"product_id":"not-a-uuid","color":"black","size":"M","tier":"standard","quantity":1}`,
		`{"product_id":"` + uuid.NewString() + `","color":"black","size":"M","tier":"standard","quantity":0}`,
		`{"product_id":"` + uuid.NewString() + `","unknown_field":true}`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/drafts", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestDraftGetPassesHeaderCredential(t *testing.T) {
	t.Parallel()

	dto := sampleDTO()
	svc := &fakeDraftService{getResult: dto}
	r := chi.NewRouter()
	r.Get("/api/v1/drafts/{draftId}", DraftGet(svc, nil))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drafts/"+dto.ID.String(), nil)
	req = req.WithContext(middleware.WithGuestCredential(req.Context(), "credential-from-header"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastIdentity.GuestCredential != "credential-from-header" {
		t.Fatalf("credential not threaded through, got %q", svc.lastIdentity.GuestCredential)
	}
}

func TestDraftGetRejectsBadID(t *testing.T) {
	t.Parallel()

	router := draftRouter(&fakeDraftService{getResult: sampleDTO()})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/drafts/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDraftErrorsMapToStatusCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err    error
		status int
	}{
		{pkgerrors.New(pkgerrors.CodeForbidden, "guest credential does not match"), http.StatusForbidden},
		{pkgerrors.New(pkgerrors.CodeNotFound, "draft not found"), http.StatusNotFound},
		{pkgerrors.New(pkgerrors.CodeInvalidTransition, "selection is pinned"), http.StatusUnprocessableEntity},
		{pkgerrors.New(pkgerrors.CodeAlreadyGenerating, "generation in flight"), http.StatusConflict},
	}
	for _, tc := range cases {
		svc := &fakeDraftService{getErr: tc.err}
		router := draftRouter(svc)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/drafts/"+uuid.NewString(), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.status, rec.Code)
		}

		var envelope types.ErrorEnvelope
		if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode error envelope: %v", err)
		}
		if envelope.Error.Code == "" {
			t.Error("error envelope must carry a machine-readable code")
		}
	}
}

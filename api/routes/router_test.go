package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/inkdrop-studio/inkdrop-backend/internal/artifacts"
	"github.com/inkdrop-studio/inkdrop-backend/internal/claims"
	"github.com/inkdrop-studio/inkdrop-backend/internal/drafts"
	pkgauth "github.com/inkdrop-studio/inkdrop-backend/pkg/auth"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/config"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
)

type stubDraftService struct {
	dto          *drafts.DraftDTO
	lastIdentity drafts.Identity
}

func (s *stubDraftService) CreateDraft(ctx context.Context, input drafts.CreateDraftInput) (*drafts.CreateDraftResult, error) {
	return &drafts.CreateDraftResult{Draft: s.dto, GuestCredential: "issued-once"}, nil
}

func (s *stubDraftService) GetDraft(ctx context.Context, draftID uuid.UUID, identity drafts.Identity) (*drafts.DraftDTO, error) {
	s.lastIdentity = identity
	return s.dto, nil
}

func (s *stubDraftService) UpdateSelection(ctx context.Context, draftID uuid.UUID, identity drafts.Identity, input drafts.SelectionInput) (*drafts.DraftDTO, error) {
	return s.dto, nil
}

func (s *stubDraftService) ResetDesign(ctx context.Context, draftID uuid.UUID, identity drafts.Identity) (*drafts.DraftDTO, error) {
	return s.dto, nil
}

func (s *stubDraftService) Abandon(ctx context.Context, draftID uuid.UUID, identity drafts.Identity) error {
	return nil
}

type stubArtifactService struct{}

func (stubArtifactService) Generate(ctx context.Context, draftID uuid.UUID, identity drafts.Identity, input artifacts.GenerateInput) (*artifacts.ArtifactDTO, error) {
	return &artifacts.ArtifactDTO{ID: uuid.New(), DraftID: draftID, ReferenceClass: enums.ReferenceClassVolatile}, nil
}

func (stubArtifactService) GetArtifact(ctx context.Context, draftID uuid.UUID, identity drafts.Identity) (*artifacts.ArtifactDTO, error) {
	return &artifacts.ArtifactDTO{ID: uuid.New(), DraftID: draftID, ReferenceClass: enums.ReferenceClassDurable}, nil
}

func (stubArtifactService) PromoteToDurable(ctx context.Context, artifactID uuid.UUID, durableURL string) error {
	return nil
}

type stubClaimService struct {
	lastAccountID uuid.UUID
}

func (s *stubClaimService) Claim(ctx context.Context, draftID, accountID uuid.UUID, guestCredential string) (*claims.ClaimResult, error) {
	s.lastAccountID = accountID
	return &claims.ClaimResult{Outcome: enums.ClaimOutcomeSucceeded}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{Secret: "router-test-secret", Issuer: "inkdrop-test", ExpirationMinutes: 5},
	}
}

func newTestRouter(draftSvc drafts.Service, claimSvc claims.Service) http.Handler {
	return NewRouter(testConfig(), nil, nil, nil, draftSvc, stubArtifactService{}, claimSvc)
}

func TestRouterHealthLive(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&stubDraftService{}, &stubClaimService{})
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Inkdrop-Env") != "test" {
		t.Fatal("env header missing")
	}
}

func TestRouterGuestFlowWithoutToken(t *testing.T) {
	t.Parallel()

	dto := &drafts.DraftDTO{ID: uuid.New(), OwnerKind: enums.OwnerKindGuest, Lifecycle: enums.DraftLifecycleCreated}
	svc := &stubDraftService{dto: dto}
	router := newTestRouter(svc, &stubClaimService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/drafts/"+dto.ID.String(), nil)
	req.Header.Set("X-Guest-Credential", "the-credential")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.lastIdentity.GuestCredential != "the-credential" {
		t.Fatalf("guest credential header not threaded, got %q", svc.lastIdentity.GuestCredential)
	}
	if svc.lastIdentity.AccountID != nil {
		t.Fatal("anonymous request must not carry an account")
	}
}

func TestRouterClaimRequiresBearerToken(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&stubDraftService{}, &stubClaimService{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/drafts/"+uuid.NewString()+"/claim",
		bytes.NewBufferString(`{"guest_credential":"abc"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRouterClaimWithValidToken(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	claimSvc := &stubClaimService{}
	router := NewRouter(cfg, nil, nil, nil, &stubDraftService{}, stubArtifactService{}, claimSvc)

	accountID := uuid.New()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{AccountID: accountID})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/drafts/"+uuid.NewString()+"/claim",
		bytes.NewBufferString(`{"guest_credential":"abc"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if claimSvc.lastAccountID != accountID {
		t.Fatalf("token account not threaded, got %s", claimSvc.lastAccountID)
	}

	var envelope struct {
		Data struct {
			Outcome enums.ClaimOutcome `json:"outcome"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Outcome != enums.ClaimOutcomeSucceeded {
		t.Fatalf("unexpected outcome %s", envelope.Data.Outcome)
	}
}

func TestRouterRejectsInvalidBearerToken(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&stubDraftService{dto: &drafts.DraftDTO{ID: uuid.New()}}, &stubClaimService{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/drafts/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("a presented-but-invalid token must 401, got %d", rec.Code)
	}
}

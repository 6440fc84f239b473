package uploader

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/logger"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/outbox"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/outbox/payloads"
)

type fakePromoter struct {
	calls []string
	err   error
}

func (f *fakePromoter) PromoteToDurable(ctx context.Context, artifactID uuid.UUID, durableURL string) error {
	f.calls = append(f.calls, durableURL)
	return f.err
}

type fakeObjectStore struct {
	objects map[string]string
	err     error
}

func (f *fakeObjectStore) Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	if f.objects == nil {
		f.objects = map[string]string{}
	}
	f.objects[object] = string(data)
	return "https://storage.googleapis.com/inkdrop-artifacts/" + object, nil
}

type fakeManager struct {
	processed map[uuid.UUID]bool
	deleted   []uuid.UUID
}

func (f *fakeManager) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	if f.processed == nil {
		f.processed = map[uuid.UUID]bool{}
	}
	if f.processed[eventID] {
		return true, nil
	}
	f.processed[eventID] = true
	return false, nil
}

func (f *fakeManager) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	f.deleted = append(f.deleted, eventID)
	delete(f.processed, eventID)
	return nil
}

func newTestService(t *testing.T, promoter *fakePromoter, storage *fakeObjectStore, manager *fakeManager) *Service {
	t.Helper()
	return &Service{
		promoter:   promoter,
		storage:    storage,
		manager:    manager,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		logg:       logger.New(logger.Options{ServiceName: "durability-worker-test"}),
	}
}

func generatedMessage(t *testing.T, eventID uuid.UUID, event payloads.ArtifactGeneratedEvent) *gcppubsub.Message {
	t.Helper()
	data, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		OccurredAt: time.Now(),
		Data:       data,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &gcppubsub.Message{
		ID:         "m1",
		Data:       envelope,
		Attributes: map[string]string{"event_type": string(enums.EventArtifactGenerated)},
	}
}

func TestProcessDownloadsUploadsAndPromotes(t *testing.T) {
	t.Parallel()

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer origin.Close()

	promoter := &fakePromoter{}
	storage := &fakeObjectStore{}
	manager := &fakeManager{}
	svc := newTestService(t, promoter, storage, manager)

	artifactID := uuid.New()
	msg := generatedMessage(t, uuid.New(), payloads.ArtifactGeneratedEvent{
		ArtifactID:     artifactID,
		DraftID:        uuid.New(),
		ReferenceURL:   origin.URL + "/x.png",
		ReferenceClass: enums.ReferenceClassVolatile,
	})

	if res := svc.process(context.Background(), msg); res.nack {
		t.Fatal("expected ack")
	}

	object := "artifacts/" + artifactID.String() + ".png"
	if storage.objects[object] != "png-bytes" {
		t.Fatalf("expected uploaded bytes, got %q", storage.objects[object])
	}
	if len(promoter.calls) != 1 || !strings.HasSuffix(promoter.calls[0], object) {
		t.Fatalf("unexpected promote calls %v", promoter.calls)
	}
}

func TestProcessSkipsDuplicateEvents(t *testing.T) {
	t.Parallel()

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer origin.Close()

	promoter := &fakePromoter{}
	storage := &fakeObjectStore{}
	manager := &fakeManager{}
	svc := newTestService(t, promoter, storage, manager)

	eventID := uuid.New()
	msg := generatedMessage(t, eventID, payloads.ArtifactGeneratedEvent{
		ArtifactID:     uuid.New(),
		DraftID:        uuid.New(),
		ReferenceURL:   origin.URL + "/x.png",
		ReferenceClass: enums.ReferenceClassVolatile,
	})

	if res := svc.process(context.Background(), msg); res.nack {
		t.Fatal("first delivery should ack")
	}
	if res := svc.process(context.Background(), msg); res.nack {
		t.Fatal("redelivery should ack without work")
	}
	if len(promoter.calls) != 1 {
		t.Fatalf("expected exactly one promotion, got %d", len(promoter.calls))
	}
}

func TestProcessNacksOnDownloadFailure(t *testing.T) {
	t.Parallel()

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer origin.Close()

	promoter := &fakePromoter{}
	storage := &fakeObjectStore{}
	manager := &fakeManager{}
	svc := newTestService(t, promoter, storage, manager)

	eventID := uuid.New()
	msg := generatedMessage(t, eventID, payloads.ArtifactGeneratedEvent{
		ArtifactID:     uuid.New(),
		DraftID:        uuid.New(),
		ReferenceURL:   origin.URL + "/x.png",
		ReferenceClass: enums.ReferenceClassVolatile,
	})

	if res := svc.process(context.Background(), msg); !res.nack {
		t.Fatal("expected nack on download failure")
	}
	if len(manager.deleted) != 1 {
		t.Fatal("failed delivery must clear the idempotency mark")
	}
	if len(promoter.calls) != 0 {
		t.Fatal("no promotion expected")
	}
}

func TestProcessIgnoresNonGeneratedEvents(t *testing.T) {
	t.Parallel()

	promoter := &fakePromoter{}
	svc := newTestService(t, promoter, &fakeObjectStore{}, &fakeManager{})

	msg := &gcppubsub.Message{
		ID:         "m2",
		Data:       []byte("{}"),
		Attributes: map[string]string{"event_type": string(enums.EventArtifactPromoted)},
	}
	if res := svc.process(context.Background(), msg); res.nack {
		t.Fatal("unrelated events should ack")
	}
	if len(promoter.calls) != 0 {
		t.Fatal("no promotion expected")
	}
}

func TestProcessIgnoresDurableReferences(t *testing.T) {
	t.Parallel()

	promoter := &fakePromoter{}
	svc := newTestService(t, promoter, &fakeObjectStore{}, &fakeManager{})

	msg := generatedMessage(t, uuid.New(), payloads.ArtifactGeneratedEvent{
		ArtifactID:     uuid.New(),
		DraftID:        uuid.New(),
		ReferenceURL:   "https://storage.googleapis.com/inkdrop-artifacts/a.png",
		ReferenceClass: enums.ReferenceClassDurable,
	})
	if res := svc.process(context.Background(), msg); res.nack {
		t.Fatal("durable references should ack without work")
	}
	if len(promoter.calls) != 0 {
		t.Fatal("no promotion expected")
	}
}

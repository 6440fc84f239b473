package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/inkdrop-studio/inkdrop-backend/pkg/config"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/db/models"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/outbox"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/outbox/payloads"
)

func testRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{
		ArtifactTopic:        "artifact-events",
		ArtifactSubscription: "artifact-events-sub",
	})
	if err != nil {
		t.Fatalf("NewEventRegistry: %v", err)
	}
	return reg
}

func encodeEnvelope(t *testing.T, data interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       raw,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return payload
}

func TestResolveDecodesTypedPayload(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)
	artifactID := uuid.New()
	draftID := uuid.New()

	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventArtifactGenerated,
		AggregateType: enums.AggregateArtifact,
		AggregateID:   artifactID,
		Payload: encodeEnvelope(t, payloads.ArtifactGeneratedEvent{
			ArtifactID:     artifactID,
			DraftID:        draftID,
			ReferenceURL:   "https://cdn.inkdrop-gen.ai/x.png",
			ReferenceClass: enums.ReferenceClassVolatile,
		}),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if resolved.Descriptor.Topic != "artifact-events" {
		t.Fatalf("unexpected topic %s", resolved.Descriptor.Topic)
	}
	payload, ok := resolved.Payload.(*payloads.ArtifactGeneratedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if payload.DraftID != draftID {
		t.Fatalf("unexpected draft id %s", payload.DraftID)
	}
}

func TestResolveRejectsUnknownEventType(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)
	_, err := reg.Resolve(models.OutboxEvent{
		EventType:     enums.OutboxEventType("order_created"),
		AggregateType: enums.AggregateArtifact,
		AggregateID:   uuid.New(),
	})
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestResolveRejectsAggregateMismatch(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)
	_, err := reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventDraftClaimed,
		AggregateType: enums.AggregateArtifact,
		AggregateID:   uuid.New(),
	})
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestResolveRejectsEmptyPayload(t *testing.T) {
	t.Parallel()

	reg := testRegistry(t)
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       json.RawMessage("null"),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	_, err = reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventArtifactPromoted,
		AggregateType: enums.AggregateArtifact,
		AggregateID:   uuid.New(),
		Payload:       envelope,
	})
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error, got %v", err)
	}
}

func TestNewEventRegistryRequiresTopic(t *testing.T) {
	t.Parallel()

	if _, err := NewEventRegistry(config.PubSubConfig{}); err == nil {
		t.Fatal("expected missing topic to fail")
	}
}

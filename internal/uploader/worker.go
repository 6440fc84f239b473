package uploader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/logger"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/metrics"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/outbox"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/outbox/payloads"
)

const (
	consumerName       = "durability-worker"
	downloadTimeout    = 60 * time.Second
	maxDownloadBytes   = 32 << 20 // 32 MiB
	defaultContentType = "image/png"
)

type promoter interface {
	PromoteToDurable(ctx context.Context, artifactID uuid.UUID, durableURL string) error
}

type objectStore interface {
	Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Service copies volatile provider references into object storage and
// promotes the artifact to its durable URL.
type Service struct {
	subscription *gcppubsub.Subscriber
	promoter     promoter
	storage      objectStore
	manager      idempotencyChecker
	metrics      *metrics.DurabilityMetrics
	httpClient   *http.Client
	logg         *logger.Logger
}

// NewService creates the durability worker service.
func NewService(subscription *gcppubsub.Subscriber, promoter promoter, storage objectStore, manager idempotencyChecker, m *metrics.DurabilityMetrics, logg *logger.Logger) (*Service, error) {
	if subscription == nil {
		return nil, errors.New("artifact subscription is required")
	}
	if promoter == nil {
		return nil, errors.New("promoter is required")
	}
	if storage == nil {
		return nil, errors.New("object store is required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &Service{
		subscription: subscription,
		promoter:     promoter,
		storage:      storage,
		manager:      manager,
		metrics:      m,
		httpClient:   &http.Client{Timeout: downloadTimeout},
		logg:         logg,
	}, nil
}

type processResult struct {
	nack bool
}

// Run consumes artifact events until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return s.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if s.process(innerCtx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (s *Service) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	fields := map[string]any{
		"message_id": msg.ID,
		"event_type": msg.Attributes["event_type"],
	}
	logCtx := s.logg.WithFields(ctx, fields)

	eventType, err := enums.ParseOutboxEventType(msg.Attributes["event_type"])
	if err != nil || eventType != enums.EventArtifactGenerated {
		// promoted/claimed events share the topic; nothing to upload
		return processResult{}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "invalid artifact envelope")
		return processResult{}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		s.logg.Warn(logCtx, "invalid event id")
		return processResult{}
	}
	fields["event_id"] = envelope.EventID
	logCtx = s.logg.WithFields(ctx, fields)

	var event payloads.ArtifactGeneratedEvent
	if err := json.Unmarshal(envelope.Data, &event); err != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "invalid artifact payload")
		return processResult{}
	}
	if event.ReferenceClass != enums.ReferenceClassVolatile {
		return processResult{}
	}
	logCtx = s.logg.WithArtifactID(logCtx, event.ArtifactID.String())

	already, err := s.manager.CheckAndMarkProcessed(logCtx, consumerName, eventID)
	if err != nil {
		s.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		s.logg.Info(logCtx, "event already processed")
		return processResult{}
	}

	if err := s.promote(logCtx, event); err != nil {
		s.logg.Error(logCtx, "durable promotion failed", err)
		_ = s.manager.Delete(logCtx, consumerName, eventID)
		return processResult{nack: true}
	}

	s.logg.Info(logCtx, "artifact copied to durable storage")
	return processResult{}
}

func (s *Service) promote(ctx context.Context, event payloads.ArtifactGeneratedEvent) error {
	body, contentType, err := s.download(ctx, event.ReferenceURL)
	if err != nil {
		s.metrics.IncPromotionFailure("download")
		return fmt.Errorf("download volatile reference: %w", err)
	}
	defer func() { _ = body.Close() }()

	object := objectKey(event.ArtifactID, contentType)
	durableURL, err := s.storage.Upload(ctx, object, contentType, body)
	if err != nil {
		s.metrics.IncPromotionFailure("upload")
		return fmt.Errorf("upload durable copy: %w", err)
	}

	if err := s.promoter.PromoteToDurable(ctx, event.ArtifactID, durableURL); err != nil {
		s.metrics.IncPromotionFailure("promote")
		return fmt.Errorf("promote artifact: %w", err)
	}
	return nil
}

func (s *Service) download(ctx context.Context, rawURL string) (io.ReadCloser, string, error) {
	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		cancel()
		return nil, "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		cancel()
		return nil, "", err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		cancel()
		return nil, "", fmt.Errorf("volatile reference returned %s", resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType != "" {
		contentType = mediaType
	} else {
		contentType = defaultContentType
	}

	body := &cancelReadCloser{ReadCloser: http.MaxBytesReader(nil, resp.Body, maxDownloadBytes), cancel: cancel}
	return body, contentType, nil
}

type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func objectKey(artifactID uuid.UUID, contentType string) string {
	ext := ".png"
	switch contentType {
	case "image/jpeg":
		ext = ".jpg"
	case "image/webp":
		ext = ".webp"
	case "image/png":
		ext = ".png"
	}
	return "artifacts/" + artifactID.String() + ext
}

package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
)

// ArtifactGeneratedEvent is emitted when the provider returns a volatile
// reference. The durability worker uses it to produce the durable copy.
type ArtifactGeneratedEvent struct {
	ArtifactID     uuid.UUID            `json:"artifact_id"`
	DraftID        uuid.UUID            `json:"draft_id"`
	Prompt         string               `json:"prompt"`
	Style          string               `json:"style"`
	ReferenceURL   string               `json:"reference_url"`
	ReferenceClass enums.ReferenceClass `json:"reference_class"`
}

// ArtifactPromotedEvent reports that the durable copy replaced the volatile
// reference.
type ArtifactPromotedEvent struct {
	ArtifactID uuid.UUID `json:"artifact_id"`
	DraftID    uuid.UUID `json:"draft_id"`
	DurableURL string    `json:"durable_url"`
	PromotedAt time.Time `json:"promoted_at"`
}

// DraftClaimedEvent signals that a guest draft was bound to an account.
type DraftClaimedEvent struct {
	DraftID   uuid.UUID `json:"draft_id"`
	AccountID uuid.UUID `json:"account_id"`
	ClaimedAt time.Time `json:"claimed_at"`
}

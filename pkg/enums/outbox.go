package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateDraft    OutboxAggregateType = "draft"
	AggregateArtifact OutboxAggregateType = "artifact"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateDraft,
	AggregateArtifact,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventArtifactGenerated OutboxEventType = "artifact_generated"
	EventArtifactPromoted  OutboxEventType = "artifact_promoted"
	EventDraftClaimed      OutboxEventType = "draft_claimed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventArtifactGenerated,
	EventArtifactPromoted,
	EventDraftClaimed,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}

// OutboxDLQErrorReason classifies why an event landed in the dead letter table.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
)

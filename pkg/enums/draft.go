package enums

import "fmt"

// OwnerKind distinguishes guest-held drafts from account-held ones.
type OwnerKind string

const (
	OwnerKindGuest   OwnerKind = "guest"
	OwnerKindAccount OwnerKind = "account"
)

var validOwnerKinds = []OwnerKind{
	OwnerKindGuest,
	OwnerKindAccount,
}

// String returns the literal string for the kind.
func (o OwnerKind) String() string {
	return string(o)
}

// IsValid reports whether the kind is known.
func (o OwnerKind) IsValid() bool {
	for _, candidate := range validOwnerKinds {
		if candidate == o {
			return true
		}
	}
	return false
}

// DraftLifecycle describes where a draft sits between creation and checkout.
type DraftLifecycle string

const (
	DraftLifecycleCreated    DraftLifecycle = "created"
	DraftLifecycleGenerating DraftLifecycle = "generating"
	DraftLifecycleReady      DraftLifecycle = "ready"
	DraftLifecycleClaimed    DraftLifecycle = "claimed"
	DraftLifecycleAbandoned  DraftLifecycle = "abandoned"
)

var validDraftLifecycles = []DraftLifecycle{
	DraftLifecycleCreated,
	DraftLifecycleGenerating,
	DraftLifecycleReady,
	DraftLifecycleClaimed,
	DraftLifecycleAbandoned,
}

// String returns the literal string for the lifecycle state.
func (d DraftLifecycle) String() string {
	return string(d)
}

// IsValid reports whether the lifecycle state is known.
func (d DraftLifecycle) IsValid() bool {
	for _, candidate := range validDraftLifecycles {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDraftLifecycle converts raw input into a DraftLifecycle.
func ParseDraftLifecycle(value string) (DraftLifecycle, error) {
	for _, candidate := range validDraftLifecycles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid draft lifecycle %q", value)
}

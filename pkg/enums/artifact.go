package enums

import "fmt"

// ArtifactStatus describes the generation state of a design artifact.
type ArtifactStatus string

const (
	ArtifactStatusGenerating ArtifactStatus = "generating"
	ArtifactStatusReady      ArtifactStatus = "ready"
	ArtifactStatusFailed     ArtifactStatus = "failed"
)

var validArtifactStatuses = []ArtifactStatus{
	ArtifactStatusGenerating,
	ArtifactStatusReady,
	ArtifactStatusFailed,
}

// String returns the literal string for the status.
func (a ArtifactStatus) String() string {
	return string(a)
}

// IsValid reports whether the status is known.
func (a ArtifactStatus) IsValid() bool {
	for _, candidate := range validArtifactStatuses {
		if candidate == a {
			return true
		}
	}
	return false
}

// ReferenceClass classifies an artifact URL as provider-hosted or permanent.
type ReferenceClass string

const (
	// ReferenceClassVolatile marks a time-limited provider-hosted URL.
	ReferenceClassVolatile ReferenceClass = "volatile"
	// ReferenceClassDurable marks a permanent object-storage URL.
	ReferenceClassDurable ReferenceClass = "durable"
)

var validReferenceClasses = []ReferenceClass{
	ReferenceClassVolatile,
	ReferenceClassDurable,
}

// String returns the literal string for the class.
func (r ReferenceClass) String() string {
	return string(r)
}

// IsValid reports whether the class is known.
func (r ReferenceClass) IsValid() bool {
	for _, candidate := range validReferenceClasses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReferenceClass converts raw input into a ReferenceClass.
func ParseReferenceClass(value string) (ReferenceClass, error) {
	for _, candidate := range validReferenceClasses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reference class %q", value)
}

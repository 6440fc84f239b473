// Package client is the Go rendition of the storefront's browser-side
// durability logic: reference classification, the bounded durability poller,
// and the local draft cache guard.
package client

import (
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
)

// DefaultVolatileHosts mirrors the server's provider-hosted domains.
var DefaultVolatileHosts = []string{"cdn.inkdrop-gen.ai", "blob.core.windows.net"}

// Reference is the client's view of an artifact's image URL.
type Reference struct {
	ArtifactID uuid.UUID
	URL        string
	Class      enums.ReferenceClass
}

// IsDurable reports whether the reference needs no further polling.
func (r Reference) IsDurable() bool {
	return r.Class == enums.ReferenceClassDurable
}

// Classify decides whether a URL is volatile or durable by host. Unparsable
// URLs count as volatile so the caller keeps polling for a durable one.
func Classify(rawURL string, volatileHosts []string) enums.ReferenceClass {
	if len(volatileHosts) == 0 {
		volatileHosts = DefaultVolatileHosts
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return enums.ReferenceClassVolatile
	}

	host := strings.ToLower(parsed.Hostname())
	for _, candidate := range volatileHosts {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if candidate == "" {
			continue
		}
		if host == candidate || strings.HasSuffix(host, "."+candidate) {
			return enums.ReferenceClassVolatile
		}
	}
	return enums.ReferenceClassDurable
}

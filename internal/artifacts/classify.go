package artifacts

import (
	"net/url"
	"strings"

	"github.com/inkdrop-studio/inkdrop-backend/pkg/enums"
)

// ClassifyReference decides whether a reference URL is volatile or durable.
// A URL whose host matches (or is a subdomain of) a known volatile host is
// volatile; everything else is treated as durable.
func ClassifyReference(rawURL string, volatileHosts []string) enums.ReferenceClass {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		// unparsable references are treated as volatile so the pipeline
		// still tries to produce a durable copy
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

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DurabilityMetrics records the volatile-to-durable promotion pipeline.
type DurabilityMetrics struct {
	promotionDuration *prometheus.HistogramVec
	generated         *prometheus.CounterVec
	promoted          prometheus.Counter
	promotionFailures *prometheus.CounterVec
	claims            *prometheus.CounterVec
}

// NewDurabilityMetrics registers the pipeline metrics on the provided registerer.
func NewDurabilityMetrics(reg prometheus.Registerer) *DurabilityMetrics {
	if reg == nil {
		return &DurabilityMetrics{}
	}
	promotionDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "artifact_promotion_duration_seconds",
		Help:    "Time from generation to durable promotion in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
	generated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "artifacts_generated_total",
		Help: "Generated artifacts by outcome.",
	}, []string{"outcome"})
	promoted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "artifacts_promoted_total",
		Help: "Artifacts promoted to durable references.",
	})
	promotionFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "artifact_promotion_failures_total",
		Help: "Failed promotion attempts by stage.",
	}, []string{"stage"})
	claims := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "draft_claims_total",
		Help: "Draft claim attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(promotionDuration, generated, promoted, promotionFailures, claims)
	return &DurabilityMetrics{
		promotionDuration: promotionDuration,
		generated:         generated,
		promoted:          promoted,
		promotionFailures: promotionFailures,
		claims:            claims,
	}
}

// ObservePromotionDuration records how long an artifact stayed volatile.
func (m *DurabilityMetrics) ObservePromotionDuration(result string, duration time.Duration) {
	if m == nil || m.promotionDuration == nil {
		return
	}
	m.promotionDuration.WithLabelValues(normalizeLabel(result)).Observe(duration.Seconds())
}

// IncGenerated increments the generation counter for the given outcome.
func (m *DurabilityMetrics) IncGenerated(outcome string) {
	if m == nil || m.generated == nil {
		return
	}
	m.generated.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncPromoted increments the promotion counter.
func (m *DurabilityMetrics) IncPromoted() {
	if m == nil || m.promoted == nil {
		return
	}
	m.promoted.Inc()
}

// IncPromotionFailure increments the failure counter for the named stage.
func (m *DurabilityMetrics) IncPromotionFailure(stage string) {
	if m == nil || m.promotionFailures == nil {
		return
	}
	m.promotionFailures.WithLabelValues(normalizeLabel(stage)).Inc()
}

// IncClaim increments the claim counter for the given outcome.
func (m *DurabilityMetrics) IncClaim(outcome string) {
	if m == nil || m.claims == nil {
		return
	}
	m.claims.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

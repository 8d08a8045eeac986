package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records outcomes of the cart recompute pipeline.
type EngineMetrics struct {
	recomputeDuration *prometheus.HistogramVec
	promotionsApplied *prometheus.CounterVec
	submits           *prometheus.CounterVec
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	recomputeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_recompute_duration_seconds",
		Help:    "Duration of full cart total recomputations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"trigger"})
	promotionsApplied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "promotions_applied_total",
		Help: "Promotions that produced a discount or price override.",
	}, []string{"type"})
	submits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sale_submissions_total",
		Help: "Sale submission attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(recomputeDuration, promotionsApplied, submits)
	return &EngineMetrics{
		recomputeDuration: recomputeDuration,
		promotionsApplied: promotionsApplied,
		submits:           submits,
	}
}

// ObserveRecompute records the duration of one pipeline run.
func (e *EngineMetrics) ObserveRecompute(trigger string, duration time.Duration) {
	if e == nil || e.recomputeDuration == nil {
		return
	}
	e.recomputeDuration.WithLabelValues(normalizeLabel(trigger)).Observe(duration.Seconds())
}

// IncPromotionApplied counts an applied promotion by type.
func (e *EngineMetrics) IncPromotionApplied(promoType string) {
	if e == nil || e.promotionsApplied == nil {
		return
	}
	e.promotionsApplied.WithLabelValues(normalizeLabel(promoType)).Inc()
}

// IncSubmit counts a sale submission attempt by outcome.
func (e *EngineMetrics) IncSubmit(outcome string) {
	if e == nil || e.submits == nil {
		return
	}
	e.submits.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}

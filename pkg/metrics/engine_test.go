package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestEngineMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewEngineMetrics(reg)

	metrics.ObserveRecompute("set_quantity", 3*time.Millisecond)
	metrics.IncPromotionApplied("fixed_price")
	metrics.IncSubmit("accepted")
	metrics.IncSubmit("rejected")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "promotions_applied_total", "type", "fixed_price"); err != nil {
		t.Fatalf("fetch promotion counter: %v", err)
	} else if got != 1 {
		t.Fatalf("expected promotions=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "sale_submissions_total", "outcome", "accepted"); err != nil {
		t.Fatalf("fetch submit counter: %v", err)
	} else if got != 1 {
		t.Fatalf("expected accepted=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "cart_recompute_duration_seconds", "trigger", "set_quantity"); err != nil {
		t.Fatalf("fetch recompute histogram: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestEngineMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewEngineMetrics(nil)
	metrics.ObserveRecompute("noop", time.Millisecond)
	metrics.IncPromotionApplied("percentage")
	metrics.IncSubmit("rejected")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}

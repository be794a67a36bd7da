package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestOperationMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewOperationMetrics(reg, "wishlist_store")
	metrics.ObserveDuration("create", 250*time.Millisecond)
	metrics.IncSuccess("create")
	metrics.IncFailure("create")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "wishlist_store_operation_success_total", "op", "create"); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "wishlist_store_operation_failure_total", "op", "create"); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "wishlist_store_operation_duration_seconds", "op", "create"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestOperationMetricsTrack(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewOperationMetrics(reg, "upstream")
	start := time.Now().Add(-time.Millisecond)
	metrics.Track("steam", start, nil)
	metrics.Track("steam", start, errors.New("boom"))
	metrics.Track("", start, nil)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, _ := fetchCounterValue(mfs, "upstream_operation_success_total", "op", "steam"); got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}
	if got, _ := fetchCounterValue(mfs, "upstream_operation_failure_total", "op", "steam"); got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}
	if got, _ := fetchCounterValue(mfs, "upstream_operation_success_total", "op", "unknown"); got != 1 {
		t.Fatalf("expected empty op normalized to unknown, got %f", got)
	}
}

func TestNilRecordersAreNoops(t *testing.T) {
	var op *OperationMetrics
	op.Track("list", time.Now(), nil)
	NewOperationMetrics(nil, "x").IncFailure("list")

	var h *HTTPMetrics
	h.Observe("/api/wishlist", http.MethodGet, http.StatusOK, time.Millisecond)
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewHTTPMetrics(reg)
	h.Observe("/api/wishlist/{id}", http.MethodDelete, http.StatusNoContent, 5*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "http_requests_total", "status", "204"); err != nil || got != 1 {
		t.Fatalf("expected one 204 request, got %f (%v)", got, err)
	}
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

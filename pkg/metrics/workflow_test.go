package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestWorkflowMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewWorkflowMetrics(reg)

	metrics.IncIssued("sent")
	metrics.IncIssued("failed")
	metrics.IncRedeemed("success")
	metrics.IncMailed("sent")
	metrics.ObserveRedeemDuration("success", 250*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "invitations_issued_total", "result", "sent"); err != nil {
		t.Fatalf("fetch issued: %v", err)
	} else if got != 1 {
		t.Fatalf("expected issued=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "invitations_redeemed_total", "result", "success"); err != nil {
		t.Fatalf("fetch redeemed: %v", err)
	} else if got != 1 {
		t.Fatalf("expected redeemed=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "invitation_redeem_duration_seconds", "result", "success"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestWorkflowMetricsNilReceiverIsSafe(t *testing.T) {
	var metrics *WorkflowMetrics
	metrics.IncIssued("sent")
	metrics.IncRedeemed("success")
	metrics.IncMailed("sent")
	metrics.ObserveRedeemDuration("success", time.Second)

	empty := NewWorkflowMetrics(nil)
	empty.IncIssued("sent")
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
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
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

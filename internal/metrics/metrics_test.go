package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetric は指定名・ラベルのメトリクスを返す。
func findMetric(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) *dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, labels) {
				return m
			}
		}
	}
	return nil
}

func labelsMatch(m *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, lp := range m.GetLabel() {
		if v, ok := labels[lp.GetName()]; ok {
			if v != lp.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(labels)
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordAPICall_CountsByOpAndOutcome はAPI呼び出しが操作・結果別に数えられることを検証する。
func TestRecordAPICall_CountsByOpAndOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAPICall("certificates.list", "success", 10*time.Millisecond)
	c.RecordAPICall("certificates.list", "success", 20*time.Millisecond)
	c.RecordAPICall("certificates.list", "transport", time.Second)

	ok := findMetric(t, reg, "adminconsole_api_calls_total", map[string]string{"op": "certificates.list", "outcome": "success"})
	if ok == nil || ok.GetCounter().GetValue() != 2 {
		t.Errorf("success count = %v, want 2", ok)
	}
	failed := findMetric(t, reg, "adminconsole_api_calls_total", map[string]string{"op": "certificates.list", "outcome": "transport"})
	if failed == nil || failed.GetCounter().GetValue() != 1 {
		t.Errorf("transport count = %v, want 1", failed)
	}

	latency := findMetric(t, reg, "adminconsole_api_latency_seconds", map[string]string{"op": "certificates.list"})
	if latency == nil || latency.GetHistogram().GetSampleCount() != 3 {
		t.Errorf("latency samples = %v, want 3", latency)
	}
}

// TestRecordLogin_CountsByOutcome はログイン結果が数えられることを検証する。
func TestRecordLogin_CountsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLogin("success")
	c.RecordLogin("invalid_credentials")
	c.RecordLogin("invalid_credentials")

	m := findMetric(t, reg, "adminconsole_logins_total", map[string]string{"outcome": "invalid_credentials"})
	if m == nil || m.GetCounter().GetValue() != 2 {
		t.Errorf("invalid_credentials = %v, want 2", m)
	}
}

// TestRecordValidationFailure_CountsByResource は検証失敗がリソース別に数えられることを検証する。
func TestRecordValidationFailure_CountsByResource(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordValidationFailure("testimonials")

	m := findMetric(t, reg, "adminconsole_validation_failures_total", map[string]string{"resource": "testimonials"})
	if m == nil || m.GetCounter().GetValue() != 1 {
		t.Errorf("validation failures = %v, want 1", m)
	}
}

// TestRecordHTTPStatus_CountsByStatusCode はステータスコード別のカウンタが増加することを検証する。
func TestRecordHTTPStatus_CountsByStatusCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(303)

	m := findMetric(t, reg, "adminconsole_http_status_total", map[string]string{"status_code": "200"})
	if m == nil || m.GetCounter().GetValue() != 2 {
		t.Errorf("status 200 = %v, want 2", m)
	}
}

// TestCollector_ImplementsInterface はCollectorがMetricsCollectorを満たすことを検証する。
func TestCollector_ImplementsInterface(t *testing.T) {
	var _ MetricsCollector = NewCollector(prometheus.NewRegistry())
}

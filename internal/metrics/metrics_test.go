package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetricFamily は指定名のメトリクスファミリーを返す。見つからない場合はnil。
func findMetricFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

// labelValue はメトリクスから指定ラベルの値を返す。
func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordHTTPRequest_IncrementsCounterWithLabels はHTTPリクエストカウンタがラベル別に増加することを検証する。
func TestRecordHTTPRequest_IncrementsCounterWithLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPRequest("GET", "/api/tasks", 200, 5*time.Millisecond)
	c.RecordHTTPRequest("GET", "/api/tasks", 200, 7*time.Millisecond)
	c.RecordHTTPRequest("GET", "/api/tasks/{id}", 404, time.Millisecond)

	mf := findMetricFamily(t, reg, "ticklist_http_requests_total")
	if mf == nil {
		t.Fatal("ticklist_http_requests_total metric not found")
	}
	if len(mf.GetMetric()) != 2 {
		t.Fatalf("expected 2 label combinations, got %d", len(mf.GetMetric()))
	}
	for _, m := range mf.GetMetric() {
		switch labelValue(m, "status_code") {
		case "200":
			if got := m.GetCounter().GetValue(); got != 2 {
				t.Errorf("200 count = %v, want 2", got)
			}
		case "404":
			if got := labelValue(m, "route"); got != "/api/tasks/{id}" {
				t.Errorf("route = %q, want route pattern", got)
			}
		default:
			t.Errorf("unexpected status_code label %q", labelValue(m, "status_code"))
		}
	}

	latency := findMetricFamily(t, reg, "ticklist_http_request_duration_seconds")
	if latency == nil {
		t.Fatal("ticklist_http_request_duration_seconds metric not found")
	}
	var samples uint64
	for _, m := range latency.GetMetric() {
		samples += m.GetHistogram().GetSampleCount()
	}
	if samples != 3 {
		t.Errorf("latency sample count = %d, want 3", samples)
	}
}

// TestRecordAuthAttempt_IncrementsCounter は認証試行カウンタが増加することを検証する。
func TestRecordAuthAttempt_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuthAttempt("login", AuthOutcomeRejected)
	c.RecordAuthAttempt("login", AuthOutcomeRejected)
	c.RecordAuthAttempt("register", AuthOutcomeSuccess)

	mf := findMetricFamily(t, reg, "ticklist_auth_attempts_total")
	if mf == nil {
		t.Fatal("ticklist_auth_attempts_total metric not found")
	}
	for _, m := range mf.GetMetric() {
		if labelValue(m, "action") == "login" && labelValue(m, "outcome") == AuthOutcomeRejected {
			if got := m.GetCounter().GetValue(); got != 2 {
				t.Errorf("rejected logins = %v, want 2", got)
			}
			return
		}
	}
	t.Error("login/rejected series not found")
}

// TestRecordTaskMutation_IncrementsCounter はタスク変更カウンタが増加することを検証する。
func TestRecordTaskMutation_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTaskMutation("create")
	c.RecordTaskMutation("create")
	c.RecordTaskMutation("delete")

	mf := findMetricFamily(t, reg, "ticklist_task_mutations_total")
	if mf == nil {
		t.Fatal("ticklist_task_mutations_total metric not found")
	}
	if len(mf.GetMetric()) != 2 {
		t.Errorf("expected 2 op labels, got %d", len(mf.GetMetric()))
	}
}

// TestNewCollector_DuplicateRegistrationPanics は同一レジストリへの二重登録がpanicすることを検証する。
func TestNewCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = NewCollector(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	_ = NewCollector(reg)
}

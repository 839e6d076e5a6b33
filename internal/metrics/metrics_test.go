package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	if c := NewCollector(reg); c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestNewCollector_DuplicateRegistrationPanics は同一レジストリへの二重登録がpanicすることを検証する。
func TestNewCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewCollector(reg)
}

// TestRecordHTTPRequest はルートとステータスのラベル別にカウントされることを検証する。
func TestRecordHTTPRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPRequest("GET", "/api/posts/{id}", 200, 10*time.Millisecond)
	c.RecordHTTPRequest("GET", "/api/posts/{id}", 200, 20*time.Millisecond)
	c.RecordHTTPRequest("GET", "/api/posts/{id}", 404, 5*time.Millisecond)

	if got := testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "/api/posts/{id}", "200")); got != 2 {
		t.Errorf("http_requests_total{200} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.httpRequests.WithLabelValues("GET", "/api/posts/{id}", "404")); got != 1 {
		t.Errorf("http_requests_total{404} = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(c.httpDuration); got != 1 {
		t.Errorf("duration series = %d, want 1", got)
	}
}

// TestRecordPostWrite は操作別・結果別にカウントされることを検証する。
func TestRecordPostWrite(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPostWrite(OperationCreate, ResultSuccess)
	c.RecordPostWrite(OperationUpdate, ResultNotFound)
	c.RecordPostWrite(OperationUpdate, ResultNotFound)

	if got := testutil.ToFloat64(c.postWrites.WithLabelValues(OperationCreate, ResultSuccess)); got != 1 {
		t.Errorf("post_writes{create,success} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.postWrites.WithLabelValues(OperationUpdate, ResultNotFound)); got != 2 {
		t.Errorf("post_writes{update,not_found} = %v, want 2", got)
	}
}

// TestSessionCounters はセッション関連カウンタが増加することを検証する。
func TestSessionCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSessionIssued()
	c.RecordLoginFailure()
	c.RecordLoginFailure()
	c.RecordSessionsCleaned(5)
	c.RecordSessionsCleaned(0)

	if got := testutil.ToFloat64(c.sessionsIssued); got != 1 {
		t.Errorf("sessions_issued = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.loginFailures); got != 2 {
		t.Errorf("login_failures = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.sessionsCleaned); got != 5 {
		t.Errorf("sessions_cleaned = %v, want 5", got)
	}
}

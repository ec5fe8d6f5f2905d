package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordFetch(t *testing.T) {
	before := testutil.ToFloat64(fetchesTotal.WithLabelValues(FetchStale))
	RecordFetch(FetchStale)
	after := testutil.ToFloat64(fetchesTotal.WithLabelValues(FetchStale))
	if after-before != 1 {
		t.Errorf("expected stale counter to grow by 1, got %v", after-before)
	}
}

func TestRecordAPIRequest_NetworkError(t *testing.T) {
	before := testutil.ToFloat64(apiRequestsTotal.WithLabelValues("GET", "network_error"))
	RecordAPIRequest("GET", 0, time.Millisecond)
	after := testutil.ToFloat64(apiRequestsTotal.WithLabelValues("GET", "network_error"))
	if after-before != 1 {
		t.Errorf("expected network_error counter to grow by 1, got %v", after-before)
	}
}

func TestRecordMutation(t *testing.T) {
	before := testutil.ToFloat64(mutationsTotal.WithLabelValues("DELETE", "error"))
	RecordMutation("DELETE", false)
	after := testutil.ToFloat64(mutationsTotal.WithLabelValues("DELETE", "error"))
	if after-before != 1 {
		t.Errorf("expected error counter to grow by 1, got %v", after-before)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	SetCacheEntries(3)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "waynex_admin_cache_entries 3") {
		t.Error("expected cache entries gauge in output")
	}
}

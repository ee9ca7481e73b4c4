package metrics

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RecordRunAndPlan(t *testing.T) {
	r := NewRegistry()

	r.RecordRun("default", "success", 300*time.Millisecond)
	r.RecordRun("default", "success", 2*time.Second)
	r.RecordRun("strict", "invalid", time.Millisecond)
	r.RecordPlan("default", 8, 2, map[string]int{"rest_lt_11h": 3, "absence": 1}, 80, 0.25)

	assert.Equal(t, 2.0, r.Counter(RunsTotal).Value("default", "success"))
	assert.Equal(t, 1.0, r.Counter(RunsTotal).Value("strict", "invalid"))
	assert.Equal(t, uint64(2), r.Histogram(RunDuration).Count("default"))
	assert.Equal(t, 8.0, r.Counter(SlotsTotal).Value("assigned"))
	assert.Equal(t, 3.0, r.Counter(BlockersTotal).Value("rest_lt_11h"))
	assert.Equal(t, 80.0, r.Gauge(FillRate).Value("default"))

	var buf bytes.Buffer
	r.WriteText(&buf)
	out := buf.String()

	assert.Contains(t, out, `allocator_runs_total{profile="default",status="success"} 2`)
	assert.Contains(t, out, `allocator_fairness_gini{profile="default"} 0.25`)
	assert.Contains(t, out, `allocator_run_duration_seconds_bucket{profile="default",le="0.5"} 1`)
	assert.Contains(t, out, `allocator_run_duration_seconds_bucket{profile="default",le="2.5"} 2`)
	assert.Contains(t, out, `allocator_run_duration_seconds_bucket{profile="default",le="+Inf"} 2`)
	assert.Contains(t, out, `allocator_run_duration_seconds_count{profile="default"} 2`)

	// 排序输出保证两次结果一致
	var again bytes.Buffer
	r.WriteText(&again)
	assert.Equal(t, out, again.String())
}

func TestRegistry_TrackRun(t *testing.T) {
	r := NewRegistry()
	done := r.TrackRun()
	assert.Equal(t, 1.0, r.Gauge(ActiveRuns).Value())
	done()
	assert.Equal(t, 0.0, r.Gauge(ActiveRuns).Value())

	var buf bytes.Buffer
	r.WriteText(&buf)
	assert.Contains(t, buf.String(), "allocator_active_runs 0\n")
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.RecordRequest(http.MethodGet, "/health", http.StatusOK, 2*time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, rec.Body.String(), `allocator_http_requests_total{method="GET",path="/health",status="200"} 1`)
}

func TestFormatLabels(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		key   string
		extra []string
		want  string
	}{
		{"无标签", nil, "", nil, ""},
		{"单标签", []string{"code"}, "absence", nil, `{code="absence"}`},
		{"含逗号的值", []string{"a", "b"}, labelKey([]string{"x,y", "z"}), nil, `{a="x,y",b="z"}`},
		{"附加le", nil, "", []string{"le", "+Inf"}, `{le="+Inf"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatLabels(tt.names, tt.key, tt.extra...))
		})
	}
}

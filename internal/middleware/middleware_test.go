package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paiban/allocator/internal/config"
	"github.com/paiban/allocator/internal/metrics"
	"github.com/paiban/allocator/internal/security"
	"github.com/paiban/allocator/pkg/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler(), mark("a"), mark("b"), mark("c"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.RequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get(RequestIDHeader)
	assert.True(t, strings.HasPrefix(generated, "req_"))
	assert.Len(t, generated, 20)
	assert.Equal(t, generated, seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-supplied")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "client-supplied", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "client-supplied", seen)
}

func TestRecovery(t *testing.T) {
	h := Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, rec)["code"])
}

func TestRateLimit(t *testing.T) {
	limiter := security.NewRateLimiter(2, time.Minute)
	defer limiter.Stop()
	h := RateLimit(limiter)(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			body := decodeError(t, rec)
			assert.Equal(t, true, body["error"])
			assert.Equal(t, "RATE_LIMITED", body["code"])
			assert.Equal(t, "60", rec.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	// 不同客户端单独计数
	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// nil 限制器不限制
	assert.NotNil(t, RateLimit(nil)(okHandler()))
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.CORSConfig
		method     string
		origin     string
		preflight  bool
		wantStatus int
		wantOrigin string
	}{
		{"未启用", config.CORSConfig{Enabled: false, Origins: []string{"*"}}, http.MethodGet, "https://a.example", false, 200, ""},
		{"通配", config.CORSConfig{Enabled: true, Origins: []string{"*"}}, http.MethodGet, "https://a.example", false, 200, "*"},
		{"白名单命中", config.CORSConfig{Enabled: true, Origins: []string{"https://a.example"}}, http.MethodGet, "https://a.example", false, 200, "https://a.example"},
		{"白名单未命中", config.CORSConfig{Enabled: true, Origins: []string{"https://a.example"}}, http.MethodGet, "https://b.example", false, 200, ""},
		{"预检", config.CORSConfig{Enabled: true, Origins: []string{"*"}}, http.MethodOptions, "https://a.example", true, 204, "*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/v1/plans", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflight {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			rec := httptest.NewRecorder()
			CORS(tt.cfg)(okHandler()).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestAPIKey(t *testing.T) {
	keys := security.NewKeySet([]string{"secret-1"})
	h := APIKey(keys, []string{"/health", "/metrics"})(okHandler())

	tests := []struct {
		name       string
		path       string
		header     string
		value      string
		wantStatus int
	}{
		{"跳过健康检查", "/health", "", "", http.StatusOK},
		{"跳过指标", "/metrics", "", "", http.StatusOK},
		{"缺少密钥", "/api/v1/plans", "", "", http.StatusUnauthorized},
		{"错误密钥", "/api/v1/plans", "X-API-Key", "wrong", http.StatusUnauthorized},
		{"X-API-Key", "/api/v1/plans", "X-API-Key", "secret-1", http.StatusOK},
		{"Bearer", "/api/v1/plans", "Authorization", "Bearer secret-1", http.StatusOK},
		{"前缀不算跳过", "/healthz", "", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "UNAUTHORIZED", decodeError(t, rec)["code"])
			}
		})
	}

	// 未配置密钥时放行
	rec := httptest.NewRecorder()
	APIKey(security.NewKeySet(nil), nil)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogging_RecordsRoute(t *testing.T) {
	reg := metrics.NewRegistry()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/plans/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := Logging(reg)(mux)

	for _, path := range []string{"/api/v1/plans/p1", "/api/v1/plans/p2"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	counter := reg.Counter(metrics.HTTPRequestsTotal)
	assert.Equal(t, 2.0, counter.Value("GET", "GET /api/v1/plans/{id}", "404"))
	assert.Equal(t, 1.0, counter.Value("GET", "unmatched", "404"))
	assert.Equal(t, uint64(2), reg.Histogram(metrics.HTTPRequestDuration).Count("GET", "GET /api/v1/plans/{id}"))
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

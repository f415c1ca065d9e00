package middleware

import (
	"context"
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(GetClientFromContext(r.Context())))
})

func TestAPIKeyAuth(t *testing.T) {
	h := APIKeyAuth(map[string]string{"web": "secret"})(okHandler)

	tests := []struct {
		name   string
		path   string
		header string
		code   int
		body   string
	}{
		{"bearer key", "/api/analyze", "Bearer secret", http.StatusOK, "web"},
		{"bare key", "/api/analyze", "secret", http.StatusOK, "web"},
		{"missing header", "/api/analyze", "", http.StatusUnauthorized, ""},
		{"wrong key", "/api/analyze", "Bearer nope", http.StatusUnauthorized, ""},
		{"probe skips auth", "/healthz", "", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.code, rec.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestTokenBucketLimiter(t *testing.T) {
	rl := NewRateLimiter(2, 1)
	t.Cleanup(rl.Stop)
	h := RateLimitMiddleware(rl, zap.NewNop())(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/analyze", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRedisLimiterWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2026, 3, 1, 10, 0, 5, 0, time.UTC)
	l := NewRedisLimiter(client, "test:", 2, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i, want := range []bool{true, true, false} {
		ok, err := l.Allow(ctx, "web:1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, want, ok, "call %d", i)
	}
	ok, err := l.Allow(ctx, "other:5.6.7.8")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Minute)
	ok, err = l.Allow(ctx, "web:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok, "new window")

	keys := mr.Keys()
	require.NotEmpty(t, keys)
	assert.Greater(t, mr.TTL(keys[0]), time.Duration(0))
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimitFailsOpen(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	h := RateLimitMiddleware(failingLimiter{}, zap.New(core))(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/analyze", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, logs.FilterMessage("rate limiter unavailable").Len())
}

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := LoggingMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Analysis-Status", "shape_error")
		w.WriteHeader(http.StatusOK)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/analyze", nil))

	require.Equal(t, 1, logs.Len())
	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "/api/analyze", ctx["path"])
	assert.EqualValues(t, 200, ctx["status"])
	assert.Equal(t, "shape_error", ctx["analysis_status"])
}

func TestRecordAnalysis(t *testing.T) {
	before := GetMetrics()["fallbacks_total"].(uint64)
	RecordAnalysis("shape_error")
	RecordAnalysis("ok")
	m := GetMetrics()
	assert.Equal(t, before+1, m["fallbacks_total"].(uint64))
}

func TestCounterHelpers(t *testing.T) {
	before := GetMetrics()
	IncrementRateLimited()
	IncrementInProgress()
	DecrementInProgress()
	after := GetMetrics()
	assert.Equal(t, before["rate_limited"].(uint64)+1, after["rate_limited"].(uint64))
	assert.Equal(t, before["requests_in_progress"], after["requests_in_progress"])
}

func TestMetricsHelpersAreDocumented(t *testing.T) {
	file, err := parser.ParseFile(token.NewFileSet(), "metrics.go", nil, parser.ParseComments)
	require.NoError(t, err)
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || !fn.Name.IsExported() {
			continue
		}
		require.NotNil(t, fn.Doc, fn.Name.Name)
		assert.True(t, strings.HasPrefix(fn.Doc.Text(), fn.Name.Name+" "), fn.Name.Name)
	}
}

func TestHealthHandler(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := HealthHandler(map[string]HealthChecker{"redis": &RedisHealthChecker{Client: client}})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":{"status":"healthy"}`)

	mr.Close()
	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestValidateURL(t *testing.T) {
	for _, ok := range []string{"https://example.com/a", "http://news.example.org"} {
		assert.NoError(t, ValidateURL(ok), ok)
	}
	for _, bad := range []string{"", "ftp://example.com", "http://localhost:8080", "http://127.0.0.1", "http://10.0.0.4", "http://192.168.1.1", "http://[::1]/", "https://"} {
		assert.Error(t, ValidateURL(bad), bad)
	}
	for _, internal := range []string{
		"http://metadata.google.internal/computeMetadata/v1/",
		"http://METADATA.GOOGLE.INTERNAL./",
		"http://printer.local/",
		"http://169.254.169.254/latest/meta-data/",
		"http://100.64.3.9/",
		"http://[fe80::1]/",
	} {
		assert.Error(t, ValidateURL(internal), internal)
	}
}

func TestCheckIP(t *testing.T) {
	assert.NoError(t, CheckIP(net.ParseIP("93.184.216.34")))
	assert.NoError(t, CheckIP(net.ParseIP("100.128.0.1")))
	assert.ErrorContains(t, CheckIP(net.ParseIP("172.16.0.1")), "private")
	assert.ErrorContains(t, CheckIP(net.ParseIP("100.64.0.1")), "private")
	assert.ErrorContains(t, CheckIP(net.ParseIP("0.0.0.0")), "internal")
}

func TestValidateImageDataURL(t *testing.T) {
	assert.NoError(t, ValidateImageDataURL(""))
	assert.NoError(t, ValidateImageDataURL("data:image/png;base64,aGVsbG8="))
	assert.Error(t, ValidateImageDataURL("https://example.com/x.png"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "a\tb\nc", SanitizeString("  a\tb\x00\nc\x07 "))
	assert.Equal(t, 20, ValidateLimit(0))
	assert.Equal(t, 100, ValidateLimit(500))
}

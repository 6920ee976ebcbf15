package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/pipeflow/resilience"
	"github.com/kbukum/pipeflow/server/middleware"
)

func limitedEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	e.POST("/v1/compute", append(handlers, func(c *gin.Context) { c.Status(http.StatusOK) })...)
	return e
}

func post(e *gin.Engine, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/compute", nil)
	req.RemoteAddr = remote
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	return rr
}

func TestConcurrency(t *testing.T) {
	bh := resilience.NewBulkhead(resilience.BulkheadConfig{Name: "compute", MaxConcurrent: 1})
	e := limitedEngine(middleware.Concurrency(bh))

	release, err := bh.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	rr := post(e, "192.0.2.1:1000")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while the slot is held, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "" {
		t.Error("a busy bulkhead has no Retry-After")
	}

	release()
	if rr := post(e, "192.0.2.1:1000"); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 after release, got %d", rr.Code)
	}
	if bh.InUse() != 0 {
		t.Errorf("slot not released by the middleware")
	}
}

func TestRateLimit_PerClient(t *testing.T) {
	rl := resilience.NewKeyedRateLimiter(resilience.RateLimiterConfig{Rate: 0.1, Burst: 1}, 0)
	e := limitedEngine(middleware.RateLimit(rl, nil))

	if rr := post(e, "192.0.2.1:1000"); rr.Code != http.StatusOK {
		t.Fatalf("first request: %d", rr.Code)
	}
	rr := post(e, "192.0.2.1:1001")
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") != "10" {
		t.Fatalf("expected 429 with Retry-After 10, got %d %q", rr.Code, rr.Header().Get("Retry-After"))
	}
	if rr := post(e, "192.0.2.2:1000"); rr.Code != http.StatusOK {
		t.Errorf("another client must have its own bucket, got %d", rr.Code)
	}
}

func TestRateLimit_CustomKey(t *testing.T) {
	rl := resilience.NewKeyedRateLimiter(resilience.RateLimiterConfig{Rate: 0.1, Burst: 1}, 0)
	shared := func(*gin.Context) string { return "everyone" }
	e := limitedEngine(middleware.RateLimit(rl, shared))

	_ = post(e, "192.0.2.1:1000")
	if rr := post(e, "192.0.2.2:1000"); rr.Code != http.StatusTooManyRequests {
		t.Errorf("a shared key must share the bucket, got %d", rr.Code)
	}
}

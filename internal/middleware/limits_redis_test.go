package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"

	"github.com/rajasatyajit/SasmexMonitor/internal/ratelimit"
)

func TestRedisRateLimiterRPM(t *testing.T) {
	s := miniredis.RunT(t)
	mgr, err := ratelimit.NewManager("redis://" + s.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer mgr.Close()

	r := chi.NewRouter()
	r.Use(RedisRateLimit(mgr, 5))
	r.Get("/v1/alerts", okHandler().ServeHTTP)

	var last int
	for i := 0; i < 8; i++ {
		req := httptest.NewRequest("GET", "/v1/alerts", nil)
		req.RemoteAddr = "198.51.100.7:5555"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		last = rec.Code
		if i < 5 && rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "5" {
			t.Errorf("missing X-RateLimit-Limit")
		}
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after exceeding rpm, got %d", last)
	}

	usage, err := mgr.Usage(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if usage["GET /v1/alerts"] != 5 {
		t.Errorf("expected 5 served requests counted, got %v", usage)
	}

	// a new window starts clean
	s.FlushAll()
	req := httptest.NewRequest("GET", "/v1/alerts", nil)
	req.RemoteAddr = "198.51.100.7:5555"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after window reset, got %d", rec.Code)
	}
}

func TestRedisRateLimit_FailsOpen(t *testing.T) {
	s := miniredis.RunT(t)
	mgr, err := ratelimit.NewManager("redis://" + s.Addr())
	if err != nil {
		t.Fatal(err)
	}
	defer mgr.Close()
	s.Close()

	rec := httptest.NewRecorder()
	RedisRateLimit(mgr, 1)(okHandler()).ServeHTTP(rec, httptest.NewRequest("GET", "/v1/alerts", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected request to pass when redis is down, got %d", rec.Code)
	}
}

func TestRedisRateLimit_NilManager(t *testing.T) {
	rec := httptest.NewRecorder()
	RedisRateLimit(nil, 10)(okHandler()).ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected passthrough, got %d", rec.Code)
	}
}

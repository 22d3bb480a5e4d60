package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/ecotrace/carbonmcp/pkg/tracing"
)

func TestRateLimiterMiddleware_TooManyRequests(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Second), 1)
	t.Cleanup(rl.Stop)

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "1.2.3.4:1234"

	// First request should pass
	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, req)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", rec1.Code)
	}

	// Second immediate request should be rate limited
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 Too Many Requests, got %d", rec2.Code)
	}
}

func TestRateLimiterSeparateVisitors(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Second), 1)
	t.Cleanup(rl.Stop)

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Exhaust the first visitor's budget
	req1 := httptest.NewRequest(http.MethodGet, "/", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	handler.ServeHTTP(httptest.NewRecorder(), req1)

	// A different IP still has its own budget
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.RemoteAddr = "5.6.7.8:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req2)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 OK for second visitor, got %d", rec.Code)
	}
}

func TestRateLimiterEvictOldestVisitor(t *testing.T) {
	rl := NewRateLimiter(rate.Every(time.Minute), 1)
	rl.maxVisitors = 2
	t.Cleanup(rl.Stop)

	rl.getVisitor("1.1.1.1")
	time.Sleep(1 * time.Millisecond)
	rl.getVisitor("2.2.2.2")
	time.Sleep(1 * time.Millisecond)
	rl.getVisitor("3.3.3.3") // should evict 1.1.1.1

	rl.mu.RLock()
	_, ok1 := rl.visitors["1.1.1.1"]
	_, ok2 := rl.visitors["2.2.2.2"]
	_, ok3 := rl.visitors["3.3.3.3"]
	count := len(rl.visitors)
	rl.mu.RUnlock()

	if ok1 {
		t.Error("oldest visitor was not evicted")
	}
	if !ok2 || !ok3 {
		t.Error("expected newer visitors to remain")
	}
	if count != 2 {
		t.Errorf("expected 2 visitors, got %d", count)
	}
}

func TestGetIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr",
			remoteAddr: "10.0.0.1:5000",
			want:       "10.0.0.1",
		},
		{
			name:       "x-forwarded-for",
			remoteAddr: "10.0.0.1:5000",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"},
			want:       "203.0.113.7",
		},
		{
			name:       "x-real-ip",
			remoteAddr: "10.0.0.1:5000",
			headers:    map[string]string{"X-Real-IP": "203.0.113.9"},
			want:       "203.0.113.9",
		},
		{
			name:       "invalid forwarded falls through",
			remoteAddr: "10.0.0.1:5000",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			want:       "10.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getIP(req); got != tt.want {
				t.Errorf("getIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestResponseWriterCapture(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)

	rw.WriteHeader(http.StatusTeapot)
	rw.WriteHeader(http.StatusOK) // second write header is ignored
	n, err := rw.Write([]byte("hello"))
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	if rw.statusCode != http.StatusTeapot {
		t.Errorf("statusCode = %d, want %d", rw.statusCode, http.StatusTeapot)
	}
	if rw.bytesWritten != int64(n) {
		t.Errorf("bytesWritten = %d, want %d", rw.bytesWritten, n)
	}
}

func TestTracingMiddleware(t *testing.T) {
	// Initialize tracing with no-op tracer
	os.Unsetenv("OTLP_ENDPOINT")
	ctx := context.Background()
	shutdown, _ := tracing.InitTracing(ctx, "test")
	defer shutdown(ctx)

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		span := trace.SpanFromContext(r.Context())
		if span == nil {
			t.Error("No span in request context")
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("test response"))
	})

	handler := TracingMiddleware()(testHandler)

	t.Run("Success", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test/path?sessionId=123", nil)
		req.Header.Set("User-Agent", "test-agent")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", rec.Code)
		}
	})

	t.Run("Error", func(t *testing.T) {
		errorHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("error"))
		})

		handler := TracingMiddleware()(errorHandler)

		req := httptest.NewRequest("POST", "/error", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("Expected status 500, got %d", rec.Code)
		}
	})

	t.Run("SessionID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test?sessionId=query-123", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		req = httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Session-ID", "header-456")
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
	})
}

package log

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestHTTPLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core).Sugar()

	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantSize   int
	}{
		{
			name: "implicit 200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("hello"))
			},
			wantStatus: http.StatusOK,
			wantSize:   5,
		},
		{
			name: "explicit status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			wantStatus: http.StatusServiceUnavailable,
			wantSize:   0,
		},
		{
			name:       "no write at all",
			handler:    func(w http.ResponseWriter, r *http.Request) {},
			wantStatus: http.StatusOK,
			wantSize:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got HTTPLogEntry
			calls := 0
			mw := HTTPLogger(logger, func(_ *http.Request, e HTTPLogEntry) {
				calls++
				got = e
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/hourly", nil)
			req.Header.Set("User-Agent", "test-agent")
			mw(tt.handler).ServeHTTP(httptest.NewRecorder(), req)

			if calls != 1 {
				t.Fatalf("observer called %d times, want 1", calls)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", got.Status, tt.wantStatus)
			}
			if got.Size != tt.wantSize {
				t.Errorf("Size = %d, want %d", got.Size, tt.wantSize)
			}
			if got.Path != "/api/v1/hourly" || got.Method != http.MethodGet {
				t.Errorf("unexpected request fields: %+v", got)
			}
			if got.UserAgent != "test-agent" {
				t.Errorf("UserAgent = %q", got.UserAgent)
			}
		})
	}

	entries := logs.FilterMessage("http request").All()
	if len(entries) != len(tests) {
		t.Fatalf("logged %d entries, want %d", len(entries), len(tests))
	}
	if status := entries[1].ContextMap()["status"]; status != int64(http.StatusServiceUnavailable) {
		t.Errorf("logged status = %v (%T)", status, status)
	}
}

func TestHTTPLoggerNilObserver(t *testing.T) {
	mw := HTTPLogger(zap.NewNop().Sugar(), nil)
	rec := httptest.NewRecorder()
	mw(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Code = %d, want 404", rec.Code)
	}
}

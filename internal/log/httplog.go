package log

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// statusRecorder captures the status code and body size written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
	size   int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// HTTPLogEntry represents an HTTP request/response log entry
type HTTPLogEntry struct {
	Timestamp  time.Time     `json:"timestamp"`
	Method     string        `json:"method"`
	Path       string        `json:"path"`
	Status     int           `json:"status"`
	Duration   time.Duration `json:"duration"`
	Size       int           `json:"size"`
	RemoteAddr string        `json:"remote_addr"`
	UserAgent  string        `json:"user_agent"`
}

// HTTPLogger returns middleware that logs every request through logger and
// hands the finished entry to observe (if non-nil), e.g. for metrics.
func HTTPLogger(logger *zap.SugaredLogger, observe func(*http.Request, HTTPLogEntry)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, req)

			if rec.status == 0 {
				rec.status = http.StatusOK
			}
			entry := HTTPLogEntry{
				Timestamp:  start,
				Method:     req.Method,
				Path:       req.URL.Path,
				Status:     rec.status,
				Duration:   time.Since(start),
				Size:       rec.size,
				RemoteAddr: req.RemoteAddr,
				UserAgent:  req.UserAgent(),
			}

			logger.Infow("http request",
				"method", entry.Method,
				"path", entry.Path,
				"status", entry.Status,
				"duration_ms", entry.Duration.Milliseconds(),
				"size", entry.Size,
				"remote_addr", entry.RemoteAddr,
				"user_agent", entry.UserAgent,
			)

			if observe != nil {
				observe(req, entry)
			}
		})
	}
}

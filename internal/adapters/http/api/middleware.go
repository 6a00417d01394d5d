package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/okian/bullseye/pkg/logger"
	"github.com/okian/bullseye/pkg/metrics"
)

// route wraps a handler with the checks and bookkeeping every endpoint
// shares: methods outside allowed get 405 with an Allow header, and each
// request is counted, timed and logged under endpoint.
func route(log logger.Logger, endpoint string, next http.HandlerFunc, allowed ...string) http.HandlerFunc {
	allow := strings.Join(allowed, ", ")
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		if slices.Contains(allowed, r.Method) {
			next.ServeHTTP(rec, r)
		} else {
			rec.Header().Set("Allow", allow)
			writeError(rec, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}

		observe(r.Context(), log, endpoint, r.Method, rec.status, time.Since(start))
	}
}

func observe(ctx context.Context, log logger.Logger, endpoint, method string, status int, took time.Duration) {
	code := strconv.Itoa(status)
	metrics.RecordHTTPRequest(endpoint, method, code)
	metrics.RecordHTTPRequestDuration(endpoint, method, code, float64(took.Milliseconds()))

	fields := []logger.Field{
		logger.String("endpoint", endpoint),
		logger.String("method", method),
		logger.Int("status", status),
		logger.Duration("took", took),
	}
	switch {
	case status >= http.StatusInternalServerError:
		metrics.RecordErrorByComponent("http", "server_error")
		log.Warn(ctx, "request failed", fields...)
	case status >= http.StatusBadRequest:
		metrics.RecordErrorByComponent("http", clientErrorType(status))
		log.Debug(ctx, "request rejected", fields...)
	default:
		log.Debug(ctx, "request served", fields...)
	}
}

func clientErrorType(status int) string {
	switch status {
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusNotFound:
		return "not_found"
	default:
		return "client_error"
	}
}

// statusRecorder remembers the status written through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

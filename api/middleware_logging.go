package api

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SlowRequestThreshold is the duration above which a request is logged as slow
const SlowRequestThreshold = time.Second

// RequestIDHeader carries the id assigned to each request
const RequestIDHeader = "X-Request-Id"

// RequestLogMiddleware assigns a request id and logs the outcome of every request
func RequestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		startTime := time.Now()
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)

		// Wrap response writer to capture status code
		wrappedWriter := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}
		next.ServeHTTP(wrappedWriter, r)

		duration := time.Since(startTime)
		fields := []interface{}{
			"requestId", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrappedWriter.statusCode,
			"duration", duration,
		}
		switch {
		case wrappedWriter.statusCode >= http.StatusInternalServerError:
			zap.S().Errorw("request failed", fields...)
		case duration > SlowRequestThreshold:
			zap.S().Warnw("Slow request detected", fields...)
		default:
			zap.S().Debugw("request served", fields...)
		}
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
// It implements http.Hijacker to support WebSocket upgrades
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack implements http.Hijacker to support WebSocket upgrades
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
}

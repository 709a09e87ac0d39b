package middleware

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/lupasearch/catalog-export/app/respond"
	"github.com/lupasearch/catalog-export/logging"
	"github.com/lupasearch/catalog-export/models"
	"golang.org/x/time/rate"
)

const (
	IndexIDHeader   = "X-Lupa-Index-ID"
	RequestIDHeader = "X-Request-ID"
	indexIDLength   = 36
)

type Middleware func(http.Handler) http.Handler

// Chain applies mws so that the first one is the outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// statusWriter remembers the status code written by the wrapped handler.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func wrap(w http.ResponseWriter) *statusWriter {
	if sw, ok := w.(*statusWriter); ok {
		return sw
	}
	return &statusWriter{ResponseWriter: w, status: http.StatusOK}
}

// CheckIndexID validates the index header against the configured index.
// A missing or malformed header is ErrMissingIndexID, anything else that
// does not match is ErrIndexIDMismatch.
func CheckIndexID(header, indexID string) error {
	if len(header) != indexIDLength {
		return &models.AuthorizationError{Err: models.ErrMissingIndexID}
	}
	if indexID == "" || subtle.ConstantTimeCompare([]byte(header), []byte(indexID)) != 1 {
		return &models.AuthorizationError{Err: models.ErrIndexIDMismatch}
	}
	return nil
}

// IndexAuth rejects requests before any data access unless they carry the
// configured index id.
func IndexAuth(indexID string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := CheckIndexID(r.Header.Get(IndexIDHeader), indexID); err != nil {
				status := http.StatusForbidden
				if errors.Is(err, models.ErrMissingIndexID) {
					status = http.StatusUnauthorized
				}
				respond.Error(w, status, err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID reuses the caller's X-Request-ID or mints one, echoes it back
// and stores it in the request context for logging.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

func AccessLog(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := wrap(w)
			next.ServeHTTP(sw, r)
			logger.InfoContext(r.Context(), "HTTP request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"status_code", sw.status,
				"response_size", sw.bytes,
				"duration", time.Since(start),
			)
		})
	}
}

func Recover(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					logger.ErrorContext(r.Context(), "HTTP request panicked", "panic", p)
					respond.Error(w, http.StatusInternalServerError, "Internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit sheds load with 429 once the shared limiter is exhausted.
func RateLimit(limiter *rate.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				respond.Error(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type RequestRecorder interface {
	RecordHTTPRequest(route string, status int, d time.Duration)
}

// Instrument reports status and latency for one named route.
func Instrument(recorder RequestRecorder, route string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := wrap(w)
			next.ServeHTTP(sw, r)
			recorder.RecordHTTPRequest(route, sw.status, time.Since(start))
		})
	}
}

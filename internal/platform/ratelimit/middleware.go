package ratelimit

import (
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// KeyFunc derives the limiter key for a request.
type KeyFunc func(r *http.Request) string

// Options configures Middleware.
type Options struct {
	Store *Store
	Stats StatsRecorder
	KeyFn KeyFunc
	// Methods lists the HTTP methods subject to limiting; empty means POST only.
	Methods    []string
	RetryAfter time.Duration
	// Reject writes the response for a limited request. Defaults to a plain 429.
	Reject http.HandlerFunc
}

// ClientIPKey keys requests by client address. When trustForwarded is set the
// first X-Forwarded-For entry wins.
func ClientIPKey(trustForwarded bool) KeyFunc {
	return func(r *http.Request) string {
		if trustForwarded {
			if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
				first, _, _ := strings.Cut(xff, ",")
				if ip := strings.TrimSpace(first); ip != "" {
					return ip
				}
			}
		}
		host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
		if err == nil && host != "" {
			return host
		}
		if r.RemoteAddr != "" {
			return r.RemoteAddr
		}
		return "unknown"
	}
}

// Middleware rejects requests whose key exhausted its token bucket.
func Middleware(opts Options) func(http.Handler) http.Handler {
	if opts.KeyFn == nil {
		opts.KeyFn = ClientIPKey(false)
	}
	if opts.RetryAfter <= 0 {
		opts.RetryAfter = time.Minute
	}
	if len(opts.Methods) == 0 {
		opts.Methods = []string{http.MethodPost}
	}
	if opts.Reject == nil {
		opts.Reject = func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}
	}
	limited := make(map[string]bool, len(opts.Methods))
	for _, method := range opts.Methods {
		limited[strings.ToUpper(method)] = true
	}
	retryAfter := strconv.Itoa(int(opts.RetryAfter.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.Store == nil || !limited[r.Method] {
				next.ServeHTTP(w, r)
				return
			}
			key := opts.KeyFn(r)
			allowed := opts.Store.Allow(key)
			if opts.Stats != nil {
				if err := opts.Stats.Record(r.Context(), Decision{
					Key:     key,
					Allowed: allowed,
					Route:   r.Method + " " + r.URL.Path,
					At:      time.Now(),
				}); err != nil {
					log.Printf("record rate limit decision: %v", err)
				}
			}
			if !allowed {
				w.Header().Set("Retry-After", retryAfter)
				opts.Reject(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
